package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sabio/subsurface-console/pkg/render"
	"github.com/sabio/subsurface-console/pkg/view"
)

// handleOpenPage opens a fresh page and sends the browser to it. Every
// open fetches from the platform, so opens are rate limited.
func (s *Server) handleOpenPage(c echo.Context) error {
	if s.limiter != nil && !s.limiter.Allow() {
		return NewTooManyRequestsError("too many pages opened, retry shortly")
	}

	page := s.registry.Open(c.Request().Context())
	s.logger.Info("Page opened", "page", page.ID, "open_pages", s.registry.Len())

	return c.Redirect(http.StatusSeeOther, pageURL(page.ID))
}

// handlePage renders a page. An unknown or expired page starts over.
func (s *Server) handlePage(c echo.Context) error {
	page, ok := s.registry.Get(c.Param("id"))
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/")
	}

	var buf bytes.Buffer
	err := render.Page(&buf, render.PageData{
		PageID:             page.ID,
		State:              page.View.State(),
		QueryAction:        pageURL(page.ID) + "/query",
		RefreshAction:      pageURL(page.ID) + "/refresh",
		AutoRefreshSeconds: s.config.AutoRefreshSeconds,
	})
	if err != nil {
		return NewInternalError("failed to render page", err)
	}

	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// handleState returns the page as JSON
func (s *Server) handleState(c echo.Context) error {
	id := c.Param("id")
	page, ok := s.registry.Get(id)
	if !ok {
		return NewNotFoundError("page", id)
	}
	return c.JSON(http.StatusOK, page.Document())
}

// handleQuery starts a query from the page form and redirects back to the
// page, which shows the loading state until the response arrives
func (s *Server) handleQuery(c echo.Context) error {
	page, ok := s.registry.Get(c.Param("id"))
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/")
	}

	_, err := page.View.SubmitAsync(s.ctx, c.FormValue("query"))
	switch {
	case errors.Is(err, view.ErrQueryInFlight):
		// The submit control is disabled while loading; a stale form
		// post leaves the running query alone
		s.logger.Debug("Query already in flight", "page", page.ID)
	case err != nil:
		return NewInternalError("failed to submit query", err)
	}

	return c.Redirect(http.StatusSeeOther, pageURL(page.ID))
}

// handleRefresh reloads the status snapshot and redirects back to the page
func (s *Server) handleRefresh(c echo.Context) error {
	page, ok := s.registry.Get(c.Param("id"))
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/")
	}

	// A failed reload keeps the previous snapshot
	_ = page.View.Refresh(c.Request().Context())

	return c.Redirect(http.StatusSeeOther, pageURL(page.ID))
}

// handleHealth probes the platform
func (s *Server) handleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	if err := s.backend.Health(ctx); err != nil {
		return NewServiceUnavailableError("platform unreachable", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"version":    s.config.Version,
		"open_pages": s.registry.Len(),
	})
}

func pageURL(id string) string {
	return "/pages/" + id
}
