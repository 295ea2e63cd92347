// Package files talks to the upload service that owns the backing media
// files. Removal is strictly best-effort: the catalog never fails a
// delete because the media could not be cleaned up.
package files

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"time"

	"go.uber.org/zap"
)

// Remover requests removal of the media file behind a video URL.
type Remover interface {
	Remove(ctx context.Context, videoURL string) error
}

// HTTPRemover issues DELETE requests against the upload service.
type HTTPRemover struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPRemover creates a remover for the upload service at baseURL.
func NewHTTPRemover(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPRemover {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPRemover{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Remove asks the upload service to delete the file named by videoURL.
func (r *HTTPRemover) Remove(ctx context.Context, videoURL string) error {
	filename := path.Base(videoURL)
	if filename == "" || filename == "." || filename == "/" {
		return fmt.Errorf("no filename in video url %q", videoURL)
	}

	url := fmt.Sprintf("%s/upload/%s", r.baseURL, filename)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build removal request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call upload service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("upload service returned status %d", resp.StatusCode)
	}

	r.logger.Debug("media file removal requested",
		zap.String("filename", filename),
		zap.Int("status", resp.StatusCode))
	return nil
}

// NopRemover ignores removal requests. Used when no upload service is
// configured and in tests.
type NopRemover struct{}

// Remove does nothing.
func (NopRemover) Remove(ctx context.Context, videoURL string) error {
	return nil
}
