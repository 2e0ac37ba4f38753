package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
	"github.com/sabio/subsurface-console/pkg/render"
	"github.com/sabio/subsurface-console/pkg/view"
)

// route dispatches a resource call. Paths:
//
//	health
//	pages
//	pages/{id}
//	pages/{id}/html
//	pages/{id}/query
//	pages/{id}/refresh
func (i *Instance) route(ctx context.Context, req *backend.CallResourceRequest, sender backend.CallResourceResponseSender) error {
	parts := strings.Split(strings.Trim(req.Path, "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] == "health":
		if req.Method != "GET" {
			return sendError(sender, 405, "Method not allowed")
		}
		return i.handleHealth(ctx, sender)

	case len(parts) == 1 && parts[0] == "pages":
		if req.Method != "POST" {
			return sendError(sender, 405, "Method not allowed")
		}
		return i.handleOpenPage(ctx, sender)

	case len(parts) >= 2 && len(parts) <= 3 && parts[0] == "pages":
		page, ok := i.registry.Get(parts[1])
		if !ok {
			return sendError(sender, 404, "Page not found")
		}

		action := ""
		if len(parts) == 3 {
			action = parts[2]
		}
		return i.handlePage(ctx, req, sender, page, action)

	default:
		return sendError(sender, 404, "Not found")
	}
}

func (i *Instance) handlePage(ctx context.Context, req *backend.CallResourceRequest, sender backend.CallResourceResponseSender, page *view.Page, action string) error {
	type route struct {
		method string
		action string
	}

	switch (route{req.Method, action}) {
	case route{"GET", ""}:
		return sendJSON(sender, 200, page.Document())
	case route{"DELETE", ""}:
		i.registry.Close(page.ID)
		return sender.Send(&backend.CallResourceResponse{Status: 204})
	case route{"GET", "html"}:
		return i.handlePageHTML(sender, page)
	case route{"POST", "query"}:
		return i.handleQuery(ctx, req, sender, page)
	case route{"POST", "refresh"}:
		return i.handleRefresh(ctx, req, sender, page)
	}

	switch action {
	case "", "html", "query", "refresh":
		return sendError(sender, 405, "Method not allowed")
	default:
		return sendError(sender, 404, "Not found")
	}
}

// handleOpenPage opens a page and runs its page-load fetches
func (i *Instance) handleOpenPage(ctx context.Context, sender backend.CallResourceResponseSender) error {
	page := i.registry.Open(ctx)
	log.DefaultLogger.Info("Page opened", "page", page.ID, "open_pages", i.registry.Len())

	return sendJSON(sender, 201, page.Document())
}

// handlePageHTML renders the page. Form actions are relative to the
// html resource so they resolve under the plugin's resource prefix.
func (i *Instance) handlePageHTML(sender backend.CallResourceResponseSender, page *view.Page) error {
	var buf bytes.Buffer
	err := render.Page(&buf, render.PageData{
		PageID:             page.ID,
		State:              page.View.State(),
		QueryAction:        "query",
		RefreshAction:      "refresh",
		AutoRefreshSeconds: i.settings.AutoRefreshSeconds,
	})
	if err != nil {
		log.DefaultLogger.Error("Render failed", "page", page.ID, "error", err)
		return sendError(sender, 500, fmt.Sprintf("Render failed: %v", err))
	}

	return sender.Send(&backend.CallResourceResponse{
		Status: 200,
		Headers: map[string][]string{
			"Content-Type":  {"text/html; charset=utf-8"},
			"Cache-Control": {"no-store"},
		},
		Body: buf.Bytes(),
	})
}

// handleQuery submits a query. JSON bodies wait for the response; form
// posts from the html page start the query and redirect back to it.
func (i *Instance) handleQuery(ctx context.Context, req *backend.CallResourceRequest, sender backend.CallResourceResponseSender, page *view.Page) error {
	if isFormPost(req) {
		values, err := url.ParseQuery(string(req.Body))
		if err != nil {
			return sendError(sender, 400, fmt.Sprintf("Invalid form body: %v", err))
		}

		// A query already in flight keeps running; the page shows it
		if _, err := page.View.SubmitAsync(i.ctx, values.Get("query")); err != nil && !errors.Is(err, view.ErrQueryInFlight) {
			return sendError(sender, 500, err.Error())
		}
		return redirectToHTML(sender)
	}

	var queryReq QueryRequest
	if err := json.Unmarshal(req.Body, &queryReq); err != nil {
		return sendError(sender, 400, fmt.Sprintf("Invalid request body: %v", err))
	}

	// The query runs on the plugin lifetime so a dropped call does not
	// abort it
	done, err := page.View.SubmitAsync(i.ctx, queryReq.Query)
	if errors.Is(err, view.ErrQueryInFlight) {
		return sendError(sender, 409, err.Error())
	}
	if err != nil {
		return sendError(sender, 500, err.Error())
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return sendJSON(sender, 200, page.Document())
}

// handleRefresh reloads the status snapshot. A failed reload keeps the
// previous snapshot and is not reported to the caller.
func (i *Instance) handleRefresh(ctx context.Context, req *backend.CallResourceRequest, sender backend.CallResourceResponseSender, page *view.Page) error {
	_ = page.View.Refresh(ctx)

	if isFormPost(req) {
		return redirectToHTML(sender)
	}
	return sendJSON(sender, 200, page.Document())
}

func isFormPost(req *backend.CallResourceRequest) bool {
	for key, values := range req.Headers {
		if !strings.EqualFold(key, "Content-Type") {
			continue
		}
		for _, v := range values {
			if strings.HasPrefix(strings.ToLower(v), "application/x-www-form-urlencoded") {
				return true
			}
		}
	}
	return false
}

func redirectToHTML(sender backend.CallResourceResponseSender) error {
	return sender.Send(&backend.CallResourceResponse{
		Status:  303,
		Headers: map[string][]string{"Location": {"html"}},
	})
}
