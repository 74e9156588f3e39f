package http

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"starlog/backend/internal/logger"
)

// registerStatic serves the journal frontend (the entry form and the
// browsing pages). Unknown paths fall back to index.html so client-side
// routes survive a reload; /api stays with the JSON handlers.
func registerStatic(e *echo.Echo, dir string) {
	if dir == "" {
		return
	}
	index := filepath.Join(dir, "index.html")
	if info, err := os.Stat(index); err != nil || info.IsDir() {
		logger.Warn("static index missing", "module", "http", "action", "request", "resource", "http", "result", "failed", "path", index)
		return
	}

	logger.Info("static assets enabled", "module", "http", "action", "request", "resource", "http", "result", "ok", "dir", dir)

	e.GET("/*", func(c echo.Context) error {
		p := c.Request().URL.Path
		if p == "/api" || strings.HasPrefix(p, "/api/") {
			return echo.ErrNotFound
		}

		rel := strings.TrimPrefix(path.Clean("/"+p), "/")
		if rel != "" && rel != "." {
			candidate := filepath.Join(dir, filepath.FromSlash(rel))
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return c.File(candidate)
			}
		}
		return c.File(index)
	})
}
