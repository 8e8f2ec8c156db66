// Package media uploads user and content assets to S3-compatible storage
// (R2 in production).
package media

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// Config carries the bucket credentials. Endpoint is the S3-compatible URL;
// empty PublicBaseURL falls back to endpoint/bucket addressing.
type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	PublicBaseURL   string
}

// Store uploads objects and hands back their public URL.
type Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.AccessKeySecret, "",
		)),
		awsconfig.WithEndpointResolver(aws.EndpointResolverFunc(
			func(service, region string) (aws.Endpoint, error) {
				return aws.Endpoint{URL: cfg.Endpoint}, nil
			}),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load storage config: %w", err)
	}

	baseURL := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return &Store{
		client:  s3.NewFromConfig(awsCfg),
		bucket:  cfg.Bucket,
		baseURL: baseURL,
	}, nil
}

// Upload writes the payload under a generated key in the given folder and
// returns (key, publicURL). The original filename survives slugified inside
// the key for debuggability.
func (s *Store) Upload(ctx context.Context, folder, filename, contentType string, payload []byte) (string, string, error) {
	key := s.objectKey(folder, filename)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", "", fmt.Errorf("upload object: %w", err)
	}
	return key, s.baseURL + "/" + key, nil
}

func (s *Store) objectKey(folder, filename string) string {
	ext := path.Ext(filename)
	base := slug.Make(strings.TrimSuffix(path.Base(filename), ext))
	if base == "" {
		base = "file"
	}
	stamp := time.Now().UTC().Format("20060102")
	return fmt.Sprintf("%s/%s-%s-%s%s", strings.Trim(folder, "/"), stamp, base, uuid.NewString()[:8], strings.ToLower(ext))
}
