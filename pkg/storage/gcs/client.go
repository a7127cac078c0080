package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/angelmondragon/vendorhub-backend/pkg/config"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
)

const (
	defaultEndpoint = "https://storage.googleapis.com"
	scope           = "https://www.googleapis.com/auth/devstorage.read_write"
	pingTimeout     = 5 * time.Second
	requestTimeout  = 30 * time.Second
)

// Client talks to the Cloud Storage JSON API for one bucket.
type Client struct {
	httpClient    *http.Client
	endpoint      string
	bucket        string
	publicBaseURL string
}

func NewClient(ctx context.Context, cfg config.StorageConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	creds, err := loadCredentials(ctx, gcp)
	if err != nil {
		return nil, err
	}

	httpClient := oauth2.NewClient(ctx, creds.TokenSource)
	httpClient.Timeout = requestTimeout

	client := &Client{
		httpClient:    httpClient,
		endpoint:      defaultEndpoint,
		bucket:        cfg.Bucket,
		publicBaseURL: cfg.PublicBaseURL,
	}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.Bucket), "gcs client initialized")
	}
	return client, nil
}

func loadCredentials(ctx context.Context, gcp config.GCPConfig) (*google.Credentials, error) {
	switch {
	case gcp.CredentialsJSON != "":
		return credentialsFromJSON(ctx, []byte(gcp.CredentialsJSON))
	case gcp.ApplicationCredentials != "":
		raw, err := os.ReadFile(gcp.ApplicationCredentials)
		if err != nil {
			return nil, fmt.Errorf("reading credentials file: %w", err)
		}
		return credentialsFromJSON(ctx, raw)
	default:
		creds, err := google.FindDefaultCredentials(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("finding default credentials: %w", err)
		}
		return creds, nil
	}
}

func credentialsFromJSON(ctx context.Context, raw []byte) (*google.Credentials, error) {
	creds, err := google.CredentialsFromJSON(ctx, raw, scope)
	if err != nil {
		return nil, fmt.Errorf("parsing service account credentials: %w", err)
	}
	return creds, nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	if c == nil {
		return ""
	}
	return c.bucket
}

// Put uploads data with a single media request and returns its URL.
// Writing an existing key replaces the object.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	if strings.TrimSpace(key) == "" {
		return "", errors.New("object key is required")
	}

	q := url.Values{}
	q.Set("uploadType", "media")
	q.Set("name", key)
	u := fmt.Sprintf("%s/upload/storage/v1/b/%s/o?%s", c.endpoint, url.PathEscape(c.bucket), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gcs upload %s: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", statusError("gcs upload", resp)
	}
	return c.ObjectURL(key), nil
}

// Delete removes an object. A missing object is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.ready(); err != nil {
		return err
	}
	u := fmt.Sprintf("%s/storage/v1/b/%s/o/%s", c.endpoint, url.PathEscape(c.bucket), url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gcs delete %s: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return statusError("gcs delete", resp)
	}
}

// Ping lists at most one object, which needs storage.objects.list.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/storage/v1/b/%s/o?maxResults=1", c.endpoint, url.PathEscape(c.bucket))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusError("gcs object check", resp)
	}
	return nil
}

// ObjectURL is the public URL of key, under PublicBaseURL when configured.
func (c *Client) ObjectURL(key string) string {
	if c.publicBaseURL != "" {
		return strings.TrimRight(c.publicBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucket, key)
}

func (c *Client) ready() error {
	if c == nil || c.httpClient == nil {
		return errors.New("gcs client not initialized")
	}
	if c.bucket == "" {
		return errors.New("gcs bucket not configured")
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if msg := strings.TrimSpace(string(b)); msg != "" {
		return fmt.Errorf("%s failed: %s: %s", op, resp.Status, msg)
	}
	return fmt.Errorf("%s failed: %s", op, resp.Status)
}
