package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"filehub/internal/core"
	"filehub/internal/server/service"

	"github.com/labstack/echo/v4"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler contains the HTTP handlers for the file API.
type Handler struct {
	svc *service.FileService
	db  HealthChecker
}

// NewHandler creates a new handler with the given service dependency.
func NewHandler(svc *service.FileService, db HealthChecker) *Handler {
	return &Handler{svc: svc, db: db}
}

type shareRequest struct {
	AccessLevel core.AccessLevel `json:"access_level"`
	Password    string           `json:"password"`
}

// HandleListFiles handles GET /api/files.
func (h *Handler) HandleListFiles(c echo.Context) error {
	files, err := h.svc.List(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}
	if files == nil {
		files = []core.File{}
	}
	return c.JSON(http.StatusOK, echo.Map{"files": files})
}

// HandleGetFile handles GET /api/files/:id.
func (h *Handler) HandleGetFile(c echo.Context) error {
	f, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

// HandleCreateFile handles POST /api/files.
func (h *Handler) HandleCreateFile(c echo.Context) error {
	var f core.File
	if err := c.Bind(&f); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	created, err := h.svc.Create(c.Request().Context(), f)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// HandleUpdateFile handles PUT /api/files/:id. The id in the path wins
// over any id in the body.
func (h *Handler) HandleUpdateFile(c echo.Context) error {
	var f core.File
	if err := c.Bind(&f); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	f.ID = c.Param("id")

	updated, err := h.svc.Update(c.Request().Context(), f)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// HandleDeleteFile handles DELETE /api/files/:id.
func (h *Handler) HandleDeleteFile(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return mapServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleShare handles POST /api/files/:id/share.
func (h *Handler) HandleShare(c echo.Context) error {
	var req shareRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	f, err := h.svc.Share(c.Request().Context(), c.Param("id"), req.AccessLevel, req.Password)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

// HandleShared handles GET /api/shared/:id.
// Accepts an optional "password" query param.
func (h *Handler) HandleShared(c echo.Context) error {
	f, err := h.svc.OpenShared(c.Request().Context(), c.Param("id"), c.QueryParam("password"))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

// HandleListFolders handles GET /api/folders.
func (h *Handler) HandleListFolders(c echo.Context) error {
	folders, err := h.svc.ListFolders(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}
	if folders == nil {
		folders = []core.Folder{}
	}
	return c.JSON(http.StatusOK, echo.Map{"folders": folders})
}

// HandleHealth handles GET /health.
// Returns the health status of the server, including database connectivity.
func (h *Handler) HandleHealth(c echo.Context) error {
	status := "healthy"
	dbStatus := "connected"

	if err := h.db.HealthCheck(c.Request().Context()); err != nil {
		status = "degraded"
		dbStatus = fmt.Sprintf("error: %v", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":   status,
		"database": dbStatus,
	})
}

// HandleStats handles GET /api/stats.
func (h *Handler) HandleStats(c echo.Context) error {
	stats, err := h.svc.GetStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to retrieve stats",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_files":       stats.TotalFiles,
		"total_bytes":       stats.TotalBytes,
		"total_bytes_human": core.FormatSize(stats.TotalBytes),
		"shared_files":      stats.SharedFiles,
		"deleted_files":     stats.DeletedFiles,
		"capacity_bytes":    h.svc.Capacity(),
	})
}

// mapServiceError translates service-layer errors into appropriate HTTP responses.
func mapServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "file not found"})
	case errors.Is(err, service.ErrAlreadyExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "file already exists"})
	case errors.Is(err, service.ErrPasswordRequired):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "password_required"})
	case errors.Is(err, service.ErrInvalidPassword):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid password"})
	case errors.Is(err, service.ErrInvalidFile):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrQuotaExceeded), errors.Is(err, service.ErrFileTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": err.Error()})
	default:
		slog.Error("request failed",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}
