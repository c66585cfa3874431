// Package remote talks to the metadata persistence server and keeps a
// store in sync with it.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"filehub/internal/core"
)

var (
	// ErrTransport wraps every failure to reach or understand the server.
	ErrTransport = errors.New("persistence transport error")
	ErrNotFound  = errors.New("not found on server")
)

// Persistence is the remote collaborator the store is loaded from and
// mutations are forwarded to.
type Persistence interface {
	ListFiles(ctx context.Context) ([]core.File, error)
	ListFolders(ctx context.Context) ([]core.Folder, error)
	CreateFile(ctx context.Context, f core.File) (core.File, error)
	UpdateFile(ctx context.Context, f core.File) (core.File, error)
	DeleteFile(ctx context.Context, id string) error
	Share(ctx context.Context, id string, access core.AccessLevel, password string) (core.File, error)
}

// Client is the HTTP implementation of Persistence.
type Client struct {
	baseURL    string
	http       *http.Client
	retryCount int
	retryDelay time.Duration
	logger     *slog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithRetry retries requests that fail in transport or with a 5xx status.
// The delay grows linearly with the attempt number.
func WithRetry(count int, delay time.Duration) ClientOption {
	return func(c *Client) {
		c.retryCount = count
		c.retryDelay = delay
	}
}

func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: 10 * time.Second},
		retryCount: 2,
		retryDelay: 200 * time.Millisecond,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListFiles(ctx context.Context) ([]core.File, error) {
	var resp struct {
		Files []fileRecord `json:"files"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/files", nil, &resp); err != nil {
		return nil, err
	}
	files := make([]core.File, 0, len(resp.Files))
	for _, rec := range resp.Files {
		files = append(files, rec.toFile())
	}
	return files, nil
}

func (c *Client) ListFolders(ctx context.Context) ([]core.Folder, error) {
	var resp struct {
		Folders []folderRecord `json:"folders"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/folders", nil, &resp); err != nil {
		return nil, err
	}
	folders := make([]core.Folder, 0, len(resp.Folders))
	for _, rec := range resp.Folders {
		folders = append(folders, rec.toFolder())
	}
	return folders, nil
}

func (c *Client) GetFile(ctx context.Context, id string) (core.File, error) {
	var rec fileRecord
	if err := c.do(ctx, http.MethodGet, "/api/files/"+url.PathEscape(id), nil, &rec); err != nil {
		return core.File{}, err
	}
	return rec.toFile(), nil
}

func (c *Client) CreateFile(ctx context.Context, f core.File) (core.File, error) {
	var rec fileRecord
	if err := c.do(ctx, http.MethodPost, "/api/files", fromFile(f), &rec); err != nil {
		return core.File{}, err
	}
	return rec.toFile(), nil
}

func (c *Client) UpdateFile(ctx context.Context, f core.File) (core.File, error) {
	var rec fileRecord
	if err := c.do(ctx, http.MethodPut, "/api/files/"+url.PathEscape(f.ID), fromFile(f), &rec); err != nil {
		return core.File{}, err
	}
	return rec.toFile(), nil
}

// DeleteFile soft-deletes the record on the server.
func (c *Client) DeleteFile(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/files/"+url.PathEscape(id), nil, nil)
}

// Share sets the access level of a file. A non-empty password protects
// the share link.
func (c *Client) Share(ctx context.Context, id string, access core.AccessLevel, password string) (core.File, error) {
	body := struct {
		AccessLevel core.AccessLevel `json:"access_level"`
		Password    string           `json:"password,omitempty"`
	}{access, password}

	var rec fileRecord
	if err := c.do(ctx, http.MethodPost, "/api/files/"+url.PathEscape(id)+"/share", body, &rec); err != nil {
		return core.File{}, err
	}
	return rec.toFile(), nil
}

// Stats returns the server-side usage summary.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := c.do(ctx, http.MethodGet, "/api/stats", nil, &s)
	return s, err
}

type Stats struct {
	TotalFiles   int64 `json:"total_files"`
	TotalBytes   int64 `json:"total_bytes"`
	SharedFiles  int64 `json:"shared_files"`
	DeletedFiles int64 `json:"deleted_files"`
	Capacity     int64 `json:"capacity_bytes"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying request", "method", method, "path", path, "attempt", attempt, "error", lastErr)
			select {
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return fmt.Errorf("%w: %w", ErrTransport, ctx.Err())
			}
		}

		retry, err := c.once(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
	}
	return fmt.Errorf("%s %s failed after %d attempts: %w", method, path, c.retryCount+1, lastErr)
}

// once performs a single request and reports whether a failure is worth
// retrying.
func (c *Client) once(ctx context.Context, method, path string, payload []byte, out any) (bool, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return false, fmt.Errorf("%w: create request: %w", ErrTransport, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ctx.Err() == nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode >= 500:
		return true, fmt.Errorf("%w: server returned status %d: %s", ErrTransport, resp.StatusCode, errorMessage(resp.Body))
	case resp.StatusCode >= 400:
		return false, fmt.Errorf("%w: server returned status %d: %s", ErrTransport, resp.StatusCode, errorMessage(resp.Body))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("%w: decode response: %w", ErrTransport, err)
	}
	return false, nil
}

// errorMessage extracts {"error": "..."} bodies, falling back to raw text.
func errorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4<<10))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}
