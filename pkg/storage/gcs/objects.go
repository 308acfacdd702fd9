package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrObjectNotFound is returned by Download when the object does not exist.
var ErrObjectNotFound = errors.New("gcs object not found")

// Upload stores data as bucket/object via the media upload endpoint.
func (c *Client) Upload(ctx context.Context, bucket, object, contentType string, data []byte) error {
	bucket, object, err := c.normalize(bucket, object)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	u := fmt.Sprintf("%s/upload/storage/v1/b/%s/o?uploadType=media&name=%s",
		baseOr(c.apiURL), url.PathEscape(bucket), url.QueryEscape(object))

	resp, err := c.send(ctx, http.MethodPost, u, bytes.NewReader(data), contentType)
	if err != nil {
		return fmt.Errorf("gcs upload %s: %w", object, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return responseError("upload "+object, resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Download reads the full object body. maxBytes <= 0 means unbounded.
func (c *Client) Download(ctx context.Context, bucket, object string, maxBytes int64) ([]byte, error) {
	bucket, object, err := c.normalize(bucket, object)
	if err != nil {
		return nil, err
	}

	u := c.objectsURL(bucket) + "/" + url.PathEscape(object) + "?alt=media"
	resp, err := c.send(ctx, http.MethodGet, u, nil, "")
	if err != nil {
		return nil, fmt.Errorf("gcs download %s: %w", object, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, object)
	default:
		return nil, responseError("download "+object, resp)
	}

	var reader io.Reader = resp.Body
	if maxBytes > 0 {
		reader = io.LimitReader(resp.Body, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("gcs download %s: %w", object, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("gcs download %s: object exceeds %d bytes", object, maxBytes)
	}
	return data, nil
}

// DeleteObject removes bucket/object. A missing object is not an error.
func (c *Client) DeleteObject(ctx context.Context, bucket, object string) error {
	bucket, object, err := c.normalize(bucket, object)
	if err != nil {
		return err
	}

	u := c.objectsURL(bucket) + "/" + url.PathEscape(object)
	resp, err := c.send(ctx, http.MethodDelete, u, nil, "")
	if err != nil {
		return fmt.Errorf("gcs delete %s: %w", object, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return responseError("delete "+object, resp)
	}
}

// PublicURL returns the stable public URL for an object.
func (c *Client) PublicURL(bucket, object string) string {
	if bucket == "" {
		bucket = c.bucket
	}
	segments := strings.Split(object, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/%s/%s", baseOr(c.publicURL), url.PathEscape(bucket), strings.Join(segments, "/"))
}

// ObjectFromURL reverses PublicURL. ok is false for URLs outside the public base.
func (c *Client) ObjectFromURL(raw string) (bucket, object string, ok bool) {
	base := baseOr(c.publicURL) + "/"
	if !strings.HasPrefix(raw, base) {
		return "", "", false
	}
	rest := strings.TrimPrefix(raw, base)
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	b, err := url.PathUnescape(parts[0])
	if err != nil {
		return "", "", false
	}
	o, err := url.PathUnescape(parts[1])
	if err != nil {
		return "", "", false
	}
	return b, o, true
}

func (c *Client) normalize(bucket, object string) (string, string, error) {
	if c == nil || c.tokens == nil || c.http == nil {
		return "", "", errNotReady
	}
	if bucket == "" {
		bucket = c.bucket
	}
	if bucket == "" {
		return "", "", errors.New("gcs bucket is required")
	}
	object = strings.TrimPrefix(strings.TrimSpace(object), "/")
	if object == "" {
		return "", "", errors.New("gcs object name is required")
	}
	return bucket, object, nil
}
