// Package gcs is a small Cloud Storage JSON API client for document
// artifacts: upload, download, delete and public URL mapping.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/lekhapadi/lekhapadi-backend/pkg/config"
	"github.com/lekhapadi/lekhapadi-backend/pkg/logger"
)

const storageHost = "https://storage.googleapis.com"

var errNotReady = errors.New("gcs: client not initialized")

type Pinger interface {
	Ping(ctx context.Context) error
}

type Client struct {
	http      *http.Client
	bucket    string
	apiURL    string
	publicURL string
	tokens    *cachedToken
}

// NewClient resolves credentials in order: inline JSON, credentials file,
// then the metadata server. The bucket must be listable before it returns.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs: LEKHAPADI_GCS_BUCKET is required")
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	hc := &http.Client{Timeout: timeout}

	tokens, err := credentialsFor(hc, gcp)
	if err != nil {
		return nil, err
	}
	c := &Client{
		http:      hc,
		bucket:    cfg.BucketName,
		apiURL:    baseOr(cfg.APIBaseURL),
		publicURL: baseOr(cfg.PublicBaseURL),
		tokens:    tokens,
	}
	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs: bucket %s not reachable: %w", c.bucket, err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", c.bucket), "gcs client ready")
	}
	return c, nil
}

func credentialsFor(hc *http.Client, gcp config.GCPConfig) (*cachedToken, error) {
	switch {
	case gcp.CredentialsJSON != "":
		return serviceAccountToken(hc, []byte(gcp.CredentialsJSON))
	case gcp.ApplicationCredentials != "":
		raw, err := os.ReadFile(gcp.ApplicationCredentials)
		if err != nil {
			return nil, fmt.Errorf("gcs: read credentials: %w", err)
		}
		return serviceAccountToken(hc, raw)
	default:
		return metadataToken(hc), nil
	}
}

func baseOr(value string) string {
	if v := strings.TrimRight(strings.TrimSpace(value), "/"); v != "" {
		return v
	}
	return storageHost
}

func (c *Client) DefaultBucket() string {
	if c == nil {
		return ""
	}
	return c.bucket
}

func (c *Client) Close() error { return nil }

// Ping lists at most one object, which needs storage.objects.list on the
// bucket rather than bucket metadata access.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.tokens == nil {
		return errNotReady
	}
	if c.bucket == "" {
		return errors.New("gcs: no bucket configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := c.send(ctx, http.MethodGet, c.objectsURL(c.bucket)+"?maxResults=1", nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return responseError("list "+c.bucket, resp)
	}
	return nil
}

func (c *Client) objectsURL(bucket string) string {
	return fmt.Sprintf("%s/storage/v1/b/%s/o", baseOr(c.apiURL), url.PathEscape(bucket))
}

func (c *Client) send(ctx context.Context, method, target string, body io.Reader, contentType string) (*http.Response, error) {
	token, err := c.tokens.get(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs: access token: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.http.Do(req)
}

// responseError includes up to 2KiB of the API's error body.
func responseError(op string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
	if msg := strings.TrimSpace(string(snippet)); msg != "" {
		return fmt.Errorf("gcs %s: %s: %s", op, resp.Status, msg)
	}
	return fmt.Errorf("gcs %s: %s", op, resp.Status)
}
