// Where: internal/artifacts/s3.go
// What: Run report upload to S3.
// Why: CI runs archive their report when the global config names a bucket.
package artifacts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client the uploader needs.
type S3API interface {
	PutObject(ctx context.Context, key string, body io.Reader, contentType string) error
}

// Destination names where a report lands.
type Destination struct {
	Bucket string
	Prefix string
	Region string
}

// Configured reports whether uploads are enabled.
func (d Destination) Configured() bool {
	return strings.TrimSpace(d.Bucket) != ""
}

// Key builds the object key for a run report.
func (d Destination) Key(started time.Time) string {
	name := fmt.Sprintf("run-%s/report.md", started.UTC().Format("20060102-150405"))
	if prefix := strings.Trim(d.Prefix, "/"); prefix != "" {
		return path.Join(prefix, name)
	}
	return name
}

// Upload stores a rendered report under the destination.
func Upload(ctx context.Context, client S3API, dest Destination, started time.Time, payload []byte) (string, error) {
	if client == nil {
		return "", fmt.Errorf("s3 client is nil")
	}
	if !dest.Configured() {
		return "", fmt.Errorf("no report bucket configured")
	}
	key := dest.Key(started)
	if err := client.PutObject(ctx, key, bytes.NewReader(payload), "text/markdown"); err != nil {
		return "", fmt.Errorf("upload report: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", dest.Bucket, key), nil
}

type awsS3Client struct {
	client *s3.Client
	bucket string
}

func (c awsS3Client) PutObject(ctx context.Context, key string, body io.Reader, contentType string) error {
	if c.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	return err
}

// NewS3Client builds an uploader from the host's AWS configuration.
// Static credentials from the environment take precedence so CI secrets
// work without a shared credentials file.
func NewS3Client(ctx context.Context, dest Destination) (S3API, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if dest.Region != "" {
		opts = append(opts, awsconfig.WithRegion(dest.Region))
	}
	if id, secret := awsEnvCredentials(); id != "" && secret != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(id, secret, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return awsS3Client{client: s3.NewFromConfig(cfg), bucket: dest.Bucket}, nil
}
