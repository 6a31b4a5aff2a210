package publish

import (
	"context"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"

	"github.com/redhat-openshift-ecosystem/e2e-notifier/internal/report"
)

// Published is a build found in the bucket.
type Published struct {
	JobName     string
	BuildNumber string
	ReportURL   string
	Size        int64
	Modified    time.Time
}

// List returns the builds of a job published in the bucket, the most recent
// first. An empty job lists every job under the prefix.
func (p *Publisher) List(ctx context.Context, job string) ([]Published, error) {
	if p.svc == nil {
		return nil, errors.New("the S3 client is not configured")
	}
	prefix := p.cfg.Prefix
	if job != "" {
		prefix = path.Join(prefix, safeSegment(job, "job"))
	}
	if prefix != "" {
		prefix += "/"
	}

	builds := map[string]*Published{}
	err := p.svc.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(p.cfg.Bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			rel := strings.TrimPrefix(strings.TrimPrefix(key, p.cfg.Prefix), "/")
			parts := strings.Split(rel, "/")
			if len(parts) != 3 {
				continue
			}
			id := parts[0] + "/" + parts[1]
			b, ok := builds[id]
			if !ok {
				b = &Published{JobName: parts[0], BuildNumber: parts[1]}
				builds[id] = b
			}
			b.Size += aws.Int64Value(obj.Size)
			if m := aws.TimeValue(obj.LastModified); m.After(b.Modified) {
				b.Modified = m
			}
			if parts[2] == report.ReportFileNameHTML {
				b.ReportURL = p.URL(key)
			}
		}
		return true
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list s3://%s/%s", p.cfg.Bucket, prefix)
	}

	res := make([]Published, 0, len(builds))
	for _, b := range builds {
		res = append(res, *b)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Modified.Equal(res[j].Modified) {
			return res[i].JobName+res[i].BuildNumber < res[j].JobName+res[j].BuildNumber
		}
		return res[i].Modified.After(res[j].Modified)
	})
	return res, nil
}
