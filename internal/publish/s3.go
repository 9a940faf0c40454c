package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	// Prefix is prepended to every object key (e.g. "summaries/").
	Prefix    string
	PathStyle bool
	Timeout   time.Duration
}

// S3Mirror uploads documents to an S3-compatible bucket.
type S3Mirror struct {
	client  *s3.Client
	bucket  string
	prefix  string
	timeout time.Duration
}

func NewS3Mirror(cfg S3Config) (*S3Mirror, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	region := strings.TrimSpace(cfg.Region)
	if bucket == "" || region == "" {
		return nil, errors.New("incomplete s3 config: bucket and region are required")
	}

	opts := s3.Options{
		Region:       region,
		UsePathStyle: cfg.PathStyle,
	}
	if ak := strings.TrimSpace(cfg.AccessKeyID); ak != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(ak, strings.TrimSpace(cfg.SecretAccessKey), "")
	}
	if ep := strings.TrimSpace(cfg.Endpoint); ep != "" {
		if !strings.HasPrefix(ep, "http://") && !strings.HasPrefix(ep, "https://") {
			ep = "https://" + ep
		}
		opts.BaseEndpoint = aws.String(strings.TrimSuffix(ep, "/"))
		// Custom endpoints (MinIO, R2, ...) generally want path-style addressing.
		opts.UsePathStyle = true
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &S3Mirror{
		client:  s3.New(opts),
		bucket:  bucket,
		prefix:  strings.TrimLeft(cfg.Prefix, "/"),
		timeout: timeout,
	}, nil
}

// Key returns the object key used for rel.
func (m *S3Mirror) Key(rel string) string {
	return m.prefix + strings.TrimLeft(rel, "/")
}

func (m *S3Mirror) Put(ctx context.Context, rel string, body []byte) (string, error) {
	key := m.Key(rel)
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/markdown; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return "s3://" + m.bucket + "/" + key, nil
}
