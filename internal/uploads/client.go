//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -source=client.go -destination=../mocks/mock_uploader.go -package=mocks

// Package uploads talks to the external file storage service.
package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"messenger/internal/config"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/logger"
)

// Uploader stores a base64 payload and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, file, ext string) (string, error)
}

type Client struct {
	url        string
	httpClient *http.Client
	log        logger.Logger
}

func NewClient(cfg config.UploadsConfig, log logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type uploadRequest struct {
	File string `json:"file"`
	Ext  string `json:"ext"`
}

// Upload posts {file, ext}. The service answers with the URL either as a
// JSON string or as plain text. Any failure is reported as ErrUploadFailed.
func (c *Client) Upload(ctx context.Context, file, ext string) (string, error) {
	body, err := json.Marshal(uploadRequest{File: file, Ext: ext})
	if err != nil {
		return "", fmt.Errorf("failed to marshal upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %v: %w", err, apperrors.ErrUploadFailed)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("Failed to reach uploads service", "error", err)
		return "", fmt.Errorf("failed to send upload: %v: %w", err, apperrors.ErrUploadFailed)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %v: %w", err, apperrors.ErrUploadFailed)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error("Uploads service rejected file", "status", resp.StatusCode, "body", string(raw))
		return "", fmt.Errorf("uploads service returned status %d: %w", resp.StatusCode, apperrors.ErrUploadFailed)
	}

	var url string
	if err := json.Unmarshal(raw, &url); err != nil {
		url = strings.TrimSpace(string(raw))
	}
	if url == "" {
		return "", fmt.Errorf("uploads service returned no url: %w", apperrors.ErrUploadFailed)
	}
	return url, nil
}
