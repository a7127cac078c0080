// Package s3 stores documents in any S3 compatible bucket (AWS S3, MinIO).
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/angelmondragon/vendorhub-backend/pkg/config"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
)

const pingTimeout = 5 * time.Second

// Client writes objects to a single bucket.
type Client struct {
	api           *s3.Client
	bucket        string
	endpoint      string
	publicBaseURL string
	pathStyle     bool
}

func NewClient(ctx context.Context, cfg config.StorageConfig, s3cfg config.S3Config, logg *logger.Logger) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	endpoint, err := normalizeEndpoint(s3cfg.Endpoint, s3cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	region := s3cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if s3cfg.AccessKey != "" && s3cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3cfg.AccessKey, s3cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = s3cfg.UsePathStyle
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	client := &Client{
		api:           api,
		bucket:        cfg.Bucket,
		endpoint:      endpoint,
		publicBaseURL: cfg.PublicBaseURL,
		pathStyle:     s3cfg.UsePathStyle,
	}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("s3 health check failed: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.Bucket), "s3 client initialized")
	}
	return client, nil
}

func normalizeEndpoint(endpoint string, useSSL bool) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", nil
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if useSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return "", fmt.Errorf("invalid s3 endpoint: %w", err)
	}
	return strings.TrimRight(endpoint, "/"), nil
}

// Put uploads data and returns its URL. Writing an existing key replaces it.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if c == nil || c.api == nil {
		return "", errors.New("s3 client not initialized")
	}
	if strings.TrimSpace(key) == "" {
		return "", errors.New("object key is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s: %w", key, err)
	}
	return c.ObjectURL(key), nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil || c.api == nil {
		return errors.New("s3 client not initialized")
	}
	_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}

// Ping checks the bucket is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.api == nil {
		return errors.New("s3 client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	_, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	return err
}

// ObjectURL is the URL an object is served from.
func (c *Client) ObjectURL(key string) string {
	switch {
	case c.publicBaseURL != "":
		return strings.TrimRight(c.publicBaseURL, "/") + "/" + key
	case c.endpoint != "" && c.pathStyle:
		return fmt.Sprintf("%s/%s/%s", c.endpoint, c.bucket, key)
	case c.endpoint != "":
		u, err := url.Parse(c.endpoint)
		if err != nil {
			return fmt.Sprintf("%s/%s/%s", c.endpoint, c.bucket, key)
		}
		return fmt.Sprintf("%s://%s.%s/%s", u.Scheme, c.bucket, u.Host, key)
	default:
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", c.bucket, key)
	}
}
