// Package storage uploads lead photos to external object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ObjectStorage stores binary objects and returns their public URL.
type ObjectStorage interface {
	// Enabled reports whether photo storage is active. When false the
	// photo step is skipped unconditionally.
	Enabled() bool

	// Upload stores the bytes and returns a public URL for the object.
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

// SupabaseStorage uploads objects to a Supabase Storage bucket over its REST
// API using the service-role key.
type SupabaseStorage struct {
	baseURL    string
	serviceKey string
	bucket     string
	enabled    bool
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSupabaseStorage creates a storage client. When enabled is false the
// client is a no-op and Upload must not be called.
func NewSupabaseStorage(baseURL, serviceKey, bucket string, enabled bool, timeout time.Duration, logger *slog.Logger) *SupabaseStorage {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SupabaseStorage{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		enabled:    enabled,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "object_storage"),
	}
}

// Enabled reports whether the photo feature flag is on.
func (s *SupabaseStorage) Enabled() bool { return s.enabled }

// Upload stores the object under a random photos/ key and returns the public
// URL. Failures and timeouts surface as errors, never as an empty URL.
func (s *SupabaseStorage) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	if !s.enabled {
		return "", fmt.Errorf("photo storage is disabled")
	}
	if len(data) == 0 {
		return "", fmt.Errorf("cannot upload empty object")
	}

	objectPath := BuildPhotoPath(contentType)
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.ErrorContext(ctx, "Photo upload failed", "path", objectPath, "error", err)
		return "", fmt.Errorf("photo upload failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.logger.ErrorContext(ctx, "Photo upload rejected",
			"path", objectPath, "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("photo upload rejected with status %d", resp.StatusCode)
	}

	publicURL := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath)
	s.logger.InfoContext(ctx, "Photo uploaded", "path", objectPath, "bytes", len(data))
	return publicURL, nil
}

// BuildPhotoPath derives a unique object key with an extension matching the
// content type.
func BuildPhotoPath(contentType string) string {
	ext := "jpg"
	switch contentType {
	case "image/png":
		ext = "png"
	case "image/webp":
		ext = "webp"
	case "image/gif":
		ext = "gif"
	case "image/bmp":
		ext = "bmp"
	}
	return fmt.Sprintf("photos/lead_%s.%s", uuid.NewString()[:8], ext)
}
