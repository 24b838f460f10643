// Package storage archives generated reports in an S3-compatible bucket
// (AWS S3, Cloudflare R2, MinIO).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/iliyamo/checkpoint-revenue/internal/config"
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ReportArchive uploads rendered reports under a key prefix.
type ReportArchive struct {
	client objectPutter
	bucket string
	prefix string
}

// NewReportArchive builds an S3 client from cfg. It returns (nil, nil) when
// no bucket is configured, which disables archiving.
func NewReportArchive(ctx context.Context, cfg config.ArchiveConfig) (*ReportArchive, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("archive config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newReportArchive(client, cfg.Bucket, cfg.Prefix), nil
}

func newReportArchive(client objectPutter, bucket, prefix string) *ReportArchive {
	return &ReportArchive{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Put stores body as name under the prefix and returns the object key.
func (a *ReportArchive) Put(ctx context.Context, name, contentType string, body []byte) (string, error) {
	key := path.Join(a.prefix, path.Base(name))
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
		CacheControl:  aws.String("no-cache"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}
