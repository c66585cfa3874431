package api

import (
	"context"
	"net/http"

	"filehub/internal/server/config"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupRouter creates and configures the echo router with all routes and
// middleware. The rate limiter's background sweep stops with ctx.
func SetupRouter(ctx context.Context, handler *Handler, cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	}))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(RequestLogger())

	// Rate limiter on mutating endpoints only
	writeLimiter := NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware()

	// Health & stats
	e.GET("/health", handler.HandleHealth)
	e.GET("/api/stats", handler.HandleStats)

	files := e.Group("/api/files")
	files.GET("", handler.HandleListFiles)
	files.GET("/:id", handler.HandleGetFile)
	files.POST("", handler.HandleCreateFile, writeLimiter)
	files.PUT("/:id", handler.HandleUpdateFile, writeLimiter)
	files.DELETE("/:id", handler.HandleDeleteFile, writeLimiter)
	files.POST("/:id/share", handler.HandleShare, writeLimiter)

	e.GET("/api/shared/:id", handler.HandleShared)
	e.GET("/api/folders", handler.HandleListFolders)

	return e
}
