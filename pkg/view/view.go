// Package view holds the console page state and the three backend
// operations that populate it.
package view

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
	"github.com/sabio/subsurface-console/pkg/platform"
	"golang.org/x/sync/errgroup"
)

// ErrQueryInFlight is returned when a submission arrives while the previous
// query is still loading. The submit control is disabled in that state, so
// the in-flight request is left alone and no new one is issued.
var ErrQueryInFlight = errors.New("a query is already in flight")

// API is the subset of the platform client the view needs
type API interface {
	ListFiles(ctx context.Context) ([]platform.FileEntry, error)
	GetStatus(ctx context.Context) (*platform.StatusSnapshot, error)
	Query(ctx context.Context, text string) (string, error)
}

// State is a copy of the page state at one point in time
type State struct {
	Files    []platform.FileEntry
	Status   *platform.StatusSnapshot
	Query    string
	Response string
	Loading  bool
}

// HasResponse reports whether there is a response to show
func (s State) HasResponse() bool {
	return s.Response != ""
}

// SubmitDisabled reports whether the submit control is disabled
func (s State) SubmitDisabled() bool {
	return s.Loading
}

// View is the state of one console page. Each slot is written only by its
// own operation: files by LoadFiles, status by LoadStatus, and the
// query/response/loading triple by SetQuery and Submit.
type View struct {
	api    API
	logger log.Logger

	mu       sync.Mutex
	files    []platform.FileEntry
	status   *platform.StatusSnapshot
	query    string
	response string
	loading  bool
}

// New creates an empty view
func New(api API, logger log.Logger) *View {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &View{
		api:    api,
		logger: logger,
		files:  []platform.FileEntry{},
	}
}

// Load runs the page-load fetches. Files and status are requested
// concurrently and may complete in any order. Failures are logged by each
// operation; the first one is returned for callers that want it.
func (v *View) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return v.LoadFiles(ctx) })
	g.Go(func() error { return v.LoadStatus(ctx) })
	return g.Wait()
}

// LoadFiles replaces the file list with the backend listing. On failure the
// previous list stays.
func (v *View) LoadFiles(ctx context.Context) error {
	files, err := v.api.ListFiles(ctx)
	if err != nil {
		v.logger.Error("Error fetching files", "error", err)
		return err
	}

	v.mu.Lock()
	v.files = files
	v.mu.Unlock()

	v.logger.Debug("Files loaded", "count", len(files))
	return nil
}

// LoadStatus replaces the status snapshot. On failure the previous
// snapshot stays.
func (v *View) LoadStatus(ctx context.Context) error {
	status, err := v.api.GetStatus(ctx)
	if err != nil {
		v.logger.Error("Error fetching status", "error", err)
		return err
	}

	v.mu.Lock()
	v.status = status
	v.mu.Unlock()
	return nil
}

// Refresh re-runs the status load only
func (v *View) Refresh(ctx context.Context) error {
	return v.LoadStatus(ctx)
}

// SetQuery updates the input text without submitting it
func (v *View) SetQuery(text string) {
	v.mu.Lock()
	v.query = text
	v.mu.Unlock()
}

// Submit sends the query and blocks until the response is stored
func (v *View) Submit(ctx context.Context, text string) error {
	done, err := v.SubmitAsync(ctx, text)
	if err != nil {
		return err
	}
	<-done
	return nil
}

// SubmitAsync moves the view to loading and sends the query in the
// background. The returned channel is closed once the response (or the
// error text) is stored and loading is cleared. Blank input is a no-op and
// returns an already closed channel.
func (v *View) SubmitAsync(ctx context.Context, text string) (<-chan struct{}, error) {
	done := make(chan struct{})

	v.mu.Lock()
	v.query = text
	if strings.TrimSpace(text) == "" {
		v.mu.Unlock()
		close(done)
		return done, nil
	}
	if v.loading {
		v.mu.Unlock()
		return nil, ErrQueryInFlight
	}
	v.loading = true
	v.mu.Unlock()

	v.logger.Info("Query submitted", "query_length", len(text))

	go func() {
		defer close(done)
		v.runQuery(ctx, text)
	}()
	return done, nil
}

// runQuery performs the request and writes the response at the
// loading → idle transition, never before.
func (v *View) runQuery(ctx context.Context, text string) {
	response, err := v.api.Query(ctx, text)

	v.mu.Lock()
	defer v.mu.Unlock()

	if err != nil {
		v.logger.Warn("Query failed", "error", err)
		v.response = "Error: " + platform.ErrorMessage(err)
	} else {
		v.response = response
	}
	v.loading = false
}

// State returns a copy of the current state
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	files := make([]platform.FileEntry, len(v.files))
	copy(files, v.files)

	return State{
		Files:    files,
		Status:   v.status,
		Query:    v.query,
		Response: v.response,
		Loading:  v.loading,
	}
}
