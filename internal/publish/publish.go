// Package publish uploads the saved results of a run to S3 so the
// notification can link to the full report.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/report"
)

// ErrPublishFailure wraps any error raised while uploading the results.
var ErrPublishFailure = errors.New("publish failure")

const (
	BundleFileName = "e2e-results.tar.xz"
	defaultRegion  = "us-east-1"
)

type Config struct {
	Bucket  string
	Region  string
	Prefix  string
	Profile string
	// BaseURL is the public endpoint serving the bucket (CloudFront, static
	// website). Defaults to the virtual hosted S3 URL.
	BaseURL string
	DryRun  bool
}

func (c *Config) region() string {
	if c.Region == "" {
		return defaultRegion
	}
	return c.Region
}

// Object is an uploaded file.
type Object struct {
	Key         string
	ContentType string
	URI         string
}

// Result describes a publication. ReportURL is empty on dry-run.
type Result struct {
	Prefix    string
	ReportURL string
	Objects   []Object
	DryRun    bool
}

type upload struct {
	key         string
	contentType string
	data        []byte
}

type Publisher struct {
	cfg      *Config
	svc      s3iface.S3API
	uploader s3manageriface.UploaderAPI
}

// NewPublisher creates the S3 clients for the configured bucket.
func NewPublisher(cfg *Config) (*Publisher, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("missing bucket name to publish the results")
	}
	svc, uploader, err := createS3Client(cfg.region(), cfg.Profile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create S3 client")
	}
	return &Publisher{cfg: cfg, svc: svc, uploader: uploader}, nil
}

// NewPublisherWithUploader is used when the uploader is built elsewhere; the
// bucket is not checked before uploading.
func NewPublisherWithUploader(cfg *Config, uploader s3manageriface.UploaderAPI) *Publisher {
	return &Publisher{cfg: cfg, uploader: uploader}
}

// NewPublisherWithClients uses the given clients, any of them can be nil.
func NewPublisherWithClients(cfg *Config, svc s3iface.S3API, uploader s3manageriface.UploaderAPI) *Publisher {
	return &Publisher{cfg: cfg, svc: svc, uploader: uploader}
}

// Prefix returns the key prefix of a build: <prefix>/<job>/<build>.
func (p *Publisher) Prefix(bc report.BuildContext) string {
	return path.Join(p.cfg.Prefix, safeSegment(bc.JobName, "job"), safeSegment(bc.BuildNumber, "0"))
}

// URL returns the public URL of an object key.
func (p *Publisher) URL(key string) string {
	if p.cfg.BaseURL != "" {
		return strings.TrimRight(p.cfg.BaseURL, "/") + "/" + key
	}
	u := url.URL{
		Scheme: "https",
		Host:   fmt.Sprintf("%s.s3.%s.amazonaws.com", p.cfg.Bucket, p.cfg.region()),
		Path:   "/" + key,
	}
	return u.String()
}

// Publish uploads the tar.xz bundle of dir and the html pages found in it,
// concurrently. Errors are wrapped in ErrPublishFailure.
func (p *Publisher) Publish(ctx context.Context, dir string, bc report.BuildContext) (*Result, error) {
	prefix := p.Prefix(bc)
	res := &Result{Prefix: prefix, DryRun: p.cfg.DryRun}

	bundle, err := Bundle(dir, safeSegment(bc.JobName, "job")+"-"+safeSegment(bc.BuildNumber, "0"))
	if err != nil {
		return nil, errors.Wrap(ErrPublishFailure, err.Error())
	}

	uploads := []upload{
		{path.Join(prefix, BundleFileName), "application/x-xz", bundle},
	}
	for _, name := range []string{report.ReportFileNameHTML, report.ReportFileNameChart} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(ErrPublishFailure, "unable to read %s: %v", name, err)
		}
		uploads = append(uploads, upload{path.Join(prefix, name), "text/html; charset=utf-8", data})
	}

	if p.cfg.DryRun {
		for _, up := range uploads {
			uri := "s3://" + p.cfg.Bucket + "/" + up.key
			log.Warnf("DRY-RUN mode: skipping upload to %s", uri)
			res.Objects = append(res.Objects, Object{Key: up.key, ContentType: up.contentType, URI: uri})
		}
		return res, nil
	}

	if p.svc != nil {
		if err := checkBucketExists(ctx, p.svc, p.cfg.Bucket); err != nil {
			return nil, errors.Wrap(ErrPublishFailure, err.Error())
		}
	}

	meta := aws.StringMap(map[string]string{
		"job-name":     bc.JobName,
		"build-number": bc.BuildNumber,
		"build-status": bc.BuildStatus.String(),
	})

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, up := range uploads {
		up := up
		g.Go(func() error {
			uri := "s3://" + p.cfg.Bucket + "/" + up.key
			log.Debugf("Publish(): uploading %d bytes to %s", len(up.data), uri)
			_, err := p.uploader.UploadWithContext(gctx, &s3manager.UploadInput{
				Bucket:      aws.String(p.cfg.Bucket),
				Key:         aws.String(up.key),
				ContentType: aws.String(up.contentType),
				Metadata:    meta,
				Body:        bytes.NewReader(up.data),
			})
			if err != nil {
				return fmt.Errorf("failed to upload %s: %w", uri, err)
			}
			log.Info("Results published successfully to ", uri)
			mu.Lock()
			res.Objects = append(res.Objects, Object{Key: up.key, ContentType: up.contentType, URI: uri})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(ErrPublishFailure, err.Error())
	}

	for _, o := range res.Objects {
		if path.Base(o.Key) == report.ReportFileNameHTML {
			res.ReportURL = p.URL(o.Key)
		}
	}
	return res, nil
}

// safeSegment keeps a key segment free of separators.
func safeSegment(s, fallback string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "/", "-"))
	if s == "" || s == "." || s == ".." {
		return fallback
	}
	return s
}
