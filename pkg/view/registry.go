package view

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
)

// Default registry limits
const (
	DefaultIdleTTL  = 30 * time.Minute // Pages untouched this long are dropped
	DefaultMaxPages = 200              // Open pages kept before the least recently used is dropped
)

// RegistryConfig holds page retention limits
type RegistryConfig struct {
	IdleTTL  time.Duration // 0 = default, <0 = never expire
	MaxPages int           // 0 = default, <0 = unlimited
}

// Page is one open console page
type Page struct {
	ID   string
	View *View

	lastAccess time.Time
}

// Registry keeps the views of open pages. Nothing is persisted: an evicted
// page is the same as a reloaded one.
type Registry struct {
	api      API
	logger   log.Logger
	idleTTL  time.Duration
	maxPages int
	now      func() time.Time

	mu    sync.Mutex
	pages map[string]*Page
}

// NewRegistry creates a page registry backed by the given API
func NewRegistry(api API, config RegistryConfig, logger log.Logger) *Registry {
	if config.IdleTTL == 0 {
		config.IdleTTL = DefaultIdleTTL
	}
	if config.MaxPages == 0 {
		config.MaxPages = DefaultMaxPages
	}
	if logger == nil {
		logger = log.DefaultLogger
	}

	return &Registry{
		api:      api,
		logger:   logger,
		idleTTL:  config.IdleTTL,
		maxPages: config.MaxPages,
		now:      time.Now,
		pages:    make(map[string]*Page),
	}
}

// Open creates a page and runs its page-load fetches
func (r *Registry) Open(ctx context.Context) *Page {
	id := uuid.NewString()
	page := &Page{
		ID:   id,
		View: New(r.api, r.logger.With("page", id)),
	}

	r.mu.Lock()
	if r.maxPages > 0 {
		for len(r.pages) >= r.maxPages {
			r.evictOldest()
		}
	}
	page.lastAccess = r.now()
	r.pages[id] = page
	r.mu.Unlock()

	r.logger.Debug("Page opened", "page", id)

	// Fetch failures are logged by the view and never block the page
	_ = page.View.Load(ctx)
	return page
}

// Get returns an open page and marks it as used
func (r *Registry) Get(id string) (*Page, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	page, ok := r.pages[id]
	if ok {
		page.lastAccess = r.now()
	}
	return page, ok
}

// Close drops a page
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pages[id]; !ok {
		return false
	}
	delete(r.pages, id)
	return true
}

// Len returns the number of open pages
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}

// Cleanup drops pages idle for longer than the TTL and returns how many
// were removed
func (r *Registry) Cleanup(now time.Time) int {
	if r.idleTTL < 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, page := range r.pages {
		if now.Sub(page.lastAccess) > r.idleTTL {
			delete(r.pages, id)
			removed++
		}
	}

	if removed > 0 {
		r.logger.Debug("Expired idle pages", "count", removed, "remaining", len(r.pages))
	}
	return removed
}

// Run expires idle pages every interval until ctx is done
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			r.Cleanup(t)
		}
	}
}

// evictOldest removes the least recently used page
// Must be called with lock held
func (r *Registry) evictOldest() {
	var oldest *Page
	for _, page := range r.pages {
		if oldest == nil || page.lastAccess.Before(oldest.lastAccess) {
			oldest = page
		}
	}
	if oldest == nil {
		return
	}
	delete(r.pages, oldest.ID)
	r.logger.Debug("Evicted page", "page", oldest.ID)
}
