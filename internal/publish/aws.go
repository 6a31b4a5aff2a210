package publish

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// createS3Client creates an S3 client with the specified region
func createS3Client(region, profile string) (*s3.S3, *s3manager.Uploader, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		Profile: profile,
		Config: aws.Config{
			Region: aws.String(region),
		},
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, nil, err
	}

	svc := s3.New(sess)
	uploader := s3manager.NewUploader(sess)

	return svc, uploader, nil
}

// checkBucketExists checks if the bucket exists in the S3 storage.
func checkBucketExists(ctx context.Context, svc s3iface.S3API, bucket string) error {
	_, err := svc.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to check if bucket %s exists: %v", bucket, err)
	}
	return nil
}
