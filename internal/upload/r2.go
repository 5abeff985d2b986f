package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Store writes objects to a Cloudflare R2 bucket through its S3-compatible API.
type R2Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

type R2Config struct {
	AccountID    string
	AccessKey    string
	AccessSecret string
	Bucket       string
	// PublicURL is the base under which stored keys are served. Defaults to the
	// bucket's API endpoint.
	PublicURL string
}

func (c R2Config) endpoint() string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
}

func NewR2Store(ctx context.Context, cfg R2Config) (*R2Store, error) {
	if cfg.AccountID == "" || cfg.AccessKey == "" || cfg.AccessSecret == "" {
		return nil, errors.New("object storage credentials not set")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("object storage bucket not set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.AccessSecret, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load object storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.endpoint())
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = cfg.endpoint() + "/" + cfg.Bucket
	}

	return &R2Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (s *R2Store) Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}

	return s.publicURL + "/" + key, nil
}

// UnavailableObjectStore stands in when storage is not configured.
type UnavailableObjectStore struct {
	Err error
}

func (s UnavailableObjectStore) Put(context.Context, string, io.ReadSeeker, int64, string) (string, error) {
	return "", s.Err
}
