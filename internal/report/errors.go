package report

import "github.com/pkg/errors"

// None of these errors stops a run, they are logged and the report is
// produced with whatever data is available.
var (
	ErrMissingArtifact   = errors.New("missing artifact")
	ErrMalformedArtifact = errors.New("malformed artifact")
	ErrMalformedRecord   = errors.New("malformed test case record")
)
