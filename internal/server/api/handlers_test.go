package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"filehub/internal/core"
	"filehub/internal/server/config"
	"filehub/internal/server/database"
	"filehub/internal/server/service"

	"github.com/labstack/echo/v4"
)

type healthFunc func(context.Context) error

func (f healthFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func newTestRouter(t *testing.T, capacity int64, health HealthChecker) *echo.Echo {
	t.Helper()
	repo := database.NewMemoryRepository()
	if health == nil {
		health = repo
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cfg := &config.Config{RateLimitRPS: 1000, RateLimitBurst: 1000}
	return SetupRouter(ctx, NewHandler(service.NewFileService(repo, capacity), health), cfg)
}

func doRequest(t *testing.T, e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestFileLifecycle(t *testing.T) {
	e := newTestRouter(t, 0, nil)

	rec := doRequest(t, e, http.MethodPost, "/api/files",
		`{"id":"f1","name":"report.pdf","size":2048,"path":"/docs","tags":["q1"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	created := decode[core.File](t, rec)
	if created.Kind != core.KindDocument || created.Access != core.AccessPrivate {
		t.Errorf("unexpected defaults: %+v", created)
	}

	rec = doRequest(t, e, http.MethodGet, "/api/files", "")
	list := decode[struct {
		Files []core.File `json:"files"`
	}](t, rec)
	if len(list.Files) != 1 || list.Files[0].ID != "f1" {
		t.Fatalf("unexpected list: %+v", list)
	}

	rec = doRequest(t, e, http.MethodPut, "/api/files/f1",
		`{"id":"ignored","name":"final.pdf","size":4096,"path":"/docs","starred":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	updated := decode[core.File](t, rec)
	if updated.ID != "f1" || updated.Name != "final.pdf" || !updated.Starred {
		t.Errorf("unexpected update result: %+v", updated)
	}

	rec = doRequest(t, e, http.MethodGet, "/api/folders", "")
	folders := decode[struct {
		Folders []core.Folder `json:"folders"`
	}](t, rec)
	if len(folders.Folders) != 1 || folders.Folders[0].Size != 4096 {
		t.Errorf("unexpected folders: %+v", folders)
	}

	rec = doRequest(t, e, http.MethodDelete, "/api/files/f1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}
	rec = doRequest(t, e, http.MethodGet, "/api/files/f1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", rec.Code)
	}

	rec = doRequest(t, e, http.MethodGet, "/api/stats", "")
	stats := decode[map[string]any](t, rec)
	if stats["total_files"] != float64(0) || stats["deleted_files"] != float64(1) {
		t.Errorf("unexpected stats: %v", stats)
	}
}

func TestSharing(t *testing.T) {
	e := newTestRouter(t, 0, nil)
	doRequest(t, e, http.MethodPost, "/api/files", `{"id":"f1","name":"a.png","size":1}`)

	rec := doRequest(t, e, http.MethodGet, "/api/shared/f1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("private file: expected 404, got %d", rec.Code)
	}

	rec = doRequest(t, e, http.MethodPost, "/api/files/f1/share", `{"access_level":"public","password":"pw"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("share: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if f := decode[core.File](t, rec); !f.Shared {
		t.Errorf("expected shared file, got %+v", f)
	}

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"no password", "/api/shared/f1", http.StatusUnauthorized},
		{"wrong password", "/api/shared/f1?password=nope", http.StatusForbidden},
		{"right password", "/api/shared/f1?password=pw", http.StatusOK},
		{"unknown file", "/api/shared/zzz", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, e, http.MethodGet, tt.target, "")
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body)
			}
		})
	}
}

func TestErrorMapping(t *testing.T) {
	e := newTestRouter(t, 100, nil)
	doRequest(t, e, http.MethodPost, "/api/files", `{"id":"f1","name":"a.png","size":10}`)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"malformed body", http.MethodPost, "/api/files", `{"name":`, http.StatusBadRequest},
		{"empty name", http.MethodPost, "/api/files", `{"name":""}`, http.StatusBadRequest},
		{"unknown kind", http.MethodPost, "/api/files", `{"name":"a","kind":"hologram"}`, http.StatusBadRequest},
		{"duplicate id", http.MethodPost, "/api/files", `{"id":"f1","name":"b.png"}`, http.StatusConflict},
		{"over quota", http.MethodPost, "/api/files", `{"name":"big.iso","size":1000}`, http.StatusRequestEntityTooLarge},
		{"update unknown", http.MethodPut, "/api/files/nope", `{"name":"a.png"}`, http.StatusNotFound},
		{"delete unknown", http.MethodDelete, "/api/files/nope", "", http.StatusNotFound},
		{"invalid access", http.MethodPost, "/api/files/f1/share", `{"access_level":"world"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, e, tt.method, tt.target, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body)
			}
			if body := decode[map[string]string](t, rec); body["error"] == "" {
				t.Errorf("expected error message in body, got %v", body)
			}
		})
	}
}

func TestCreateFile_TooLarge(t *testing.T) {
	repo := database.NewMemoryRepository()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := &config.Config{RateLimitRPS: 1000, RateLimitBurst: 1000}
	e := SetupRouter(ctx, NewHandler(service.NewFileService(repo, 0, service.WithMaxFileSize(1024)), repo), cfg)

	rec := doRequest(t, e, http.MethodPost, "/api/files", `{"name":"movie.mkv","size":4096}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rec.Code, rec.Body)
	}
	if body := decode[map[string]string](t, rec); !strings.Contains(body["error"], "1.0 KB") {
		t.Errorf("expected limit in message, got %v", body)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		health HealthChecker
		want   string
	}{
		{"healthy", healthFunc(func(context.Context) error { return nil }), "healthy"},
		{"degraded", healthFunc(func(context.Context) error { return errors.New("conn refused") }), "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestRouter(t, 0, tt.health)
			rec := doRequest(t, e, http.MethodGet, "/health", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if body := decode[map[string]string](t, rec); body["status"] != tt.want {
				t.Errorf("expected status %s, got %v", tt.want, body)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(ctx, 1, 2)
	rl.now = func() time.Time { return now }

	if !rl.allow("a") || !rl.allow("a") {
		t.Fatal("expected burst of 2 to be allowed")
	}
	if rl.allow("a") {
		t.Error("expected third request to be limited")
	}
	if !rl.allow("b") {
		t.Error("limits must be per IP")
	}

	now = now.Add(time.Second)
	if !rl.allow("a") {
		t.Error("expected a token to refill after one second")
	}

	now = now.Add(time.Hour)
	rl.cleanup()
	rl.mu.Lock()
	left := len(rl.visitors)
	rl.mu.Unlock()
	if left != 0 {
		t.Errorf("expected stale visitors swept, %d left", left)
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	repo := database.NewMemoryRepository()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := &config.Config{RateLimitRPS: 0.001, RateLimitBurst: 1}
	e := SetupRouter(ctx, NewHandler(service.NewFileService(repo, 0), repo), cfg)

	if rec := doRequest(t, e, http.MethodPost, "/api/files", `{"name":"a.txt"}`); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if rec := doRequest(t, e, http.MethodPost, "/api/files", `{"name":"b.txt"}`); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec := doRequest(t, e, http.MethodGet, "/api/files", ""); rec.Code != http.StatusOK {
		t.Errorf("reads must not be rate limited, got %d", rec.Code)
	}
}
