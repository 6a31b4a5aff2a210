package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Jenkins publishes the artifacts of a build over http, the artifact can be
// read from the job page (<BUILD_URL>/artifact/reports/junit.xml) when the
// notifier does not run in the build workspace.
var (
	fetchRetryMax     = 5
	fetchRetryWaitMin = 1 * time.Second
	fetchRetryWaitMax = 10 * time.Second

	// maxArtifactSize limits the downloaded body.
	maxArtifactSize int64 = 64 << 20
)

// IsRemote returns true when the artifact source is an http(s) URL.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Load reads the artifact from a local path or from an http(s) URL.
func Load(ctx context.Context, source string) (*Artifact, error) {
	if IsRemote(source) {
		return Fetch(ctx, source)
	}
	return ReadFile(source)
}

// Fetch downloads and decodes a remote JUnit file. Transient errors (5xx,
// connection reset) are retried; a 404 is reported as ErrMissingArtifact.
func Fetch(ctx context.Context, url string) (*Artifact, error) {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = fetchRetryMax
	retryClient.RetryWaitMin = fetchRetryWaitMin
	retryClient.RetryWaitMax = fetchRetryWaitMax
	retryLogger := log.New()
	retryLogger.SetLevel(log.WarnLevel)
	retryClient.Logger = retryLogger

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := retryClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrMissingArtifact, "%s: %v", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.Wrapf(ErrMissingArtifact, "%s: %s", url, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Wrapf(ErrMissingArtifact, "%s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactSize))
	if err != nil {
		return nil, errors.Wrapf(err, "error reading response body from %s", url)
	}
	log.Debugf("fetched %d bytes from %s", len(body), url)
	return decodeBytes(url, body)
}
