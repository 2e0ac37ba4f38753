package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
	"github.com/sabio/subsurface-console/pkg/platform"
	"github.com/sabio/subsurface-console/pkg/view"
)

// Make sure Plugin implements required interfaces
var (
	_ backend.CallResourceHandler = (*Plugin)(nil)
	_ backend.CheckHealthHandler  = (*Plugin)(nil)
)

const (
	cleanupInterval = time.Minute
	healthTimeout   = 3 * time.Second
)

// Backend is the platform API as the plugin uses it
type Backend interface {
	view.API
	Health(ctx context.Context) error
}

// Plugin is the main plugin struct that manages instances
type Plugin struct {
	backend Backend

	// Lifetime of background work: page cleanup and queries that outlive
	// the resource call that started them
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.RWMutex
	instances map[int64]*Instance
}

// Instance holds the open pages of one organization
type Instance struct {
	backend  Backend
	registry *view.Registry
	settings *PluginSettings
	ctx      context.Context
}

// NewPlugin creates a new Plugin talking to the fixed platform address
func NewPlugin() *Plugin {
	return newPlugin(platform.NewClient(platform.DefaultBaseURL))
}

func newPlugin(b Backend) *Plugin {
	ctx, cancel := context.WithCancel(context.Background())
	return &Plugin{
		backend:   b,
		ctx:       ctx,
		cancel:    cancel,
		instances: make(map[int64]*Instance),
	}
}

// Dispose stops page cleanup and abandons in-flight queries
func (p *Plugin) Dispose() {
	p.cancel()
}

// ServeOpts returns the handlers served to Grafana
func (p *Plugin) ServeOpts() backend.ServeOpts {
	return backend.ServeOpts{
		CallResourceHandler: p,
		CheckHealthHandler:  p,
	}
}

// CheckHealth reports whether the platform answers, for the data source
// "Save & test" button
func (p *Plugin) CheckHealth(ctx context.Context, req *backend.CheckHealthRequest) (*backend.CheckHealthResult, error) {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := p.backend.Health(ctx); err != nil {
		return &backend.CheckHealthResult{
			Status:  backend.HealthStatusError,
			Message: fmt.Sprintf("Platform unreachable: %v", err),
		}, nil
	}
	return &backend.CheckHealthResult{
		Status:  backend.HealthStatusOk,
		Message: "Platform is reachable",
	}, nil
}

// CallResource handles HTTP requests to plugin resources
func (p *Plugin) CallResource(ctx context.Context, req *backend.CallResourceRequest, sender backend.CallResourceResponseSender) error {
	log.DefaultLogger.Info("CallResource", "path", req.Path, "method", req.Method)

	// Get or create instance
	instance, err := p.getInstance(req.PluginContext)
	if err != nil {
		return sendError(sender, 500, fmt.Sprintf("Failed to get plugin instance: %v", err))
	}

	return instance.route(ctx, req, sender)
}

// getInstance gets or creates an instance for the given plugin context
func (p *Plugin) getInstance(pluginCtx backend.PluginContext) (*Instance, error) {
	// Use OrgID as the instance key
	instanceID := pluginCtx.OrgID

	// Check if instance already exists
	p.mu.RLock()
	instance, exists := p.instances[instanceID]
	p.mu.RUnlock()

	if exists {
		return instance, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check after acquiring write lock
	if instance, exists = p.instances[instanceID]; exists {
		return instance, nil
	}

	instance, err := p.createInstance(pluginCtx)
	if err != nil {
		return nil, err
	}

	p.instances[instanceID] = instance
	return instance, nil
}

// createInstance creates a new plugin instance
func (p *Plugin) createInstance(pluginCtx backend.PluginContext) (*Instance, error) {
	log.DefaultLogger.Info("Creating new plugin instance", "org_id", pluginCtx.OrgID)

	var jsonData []byte
	if pluginCtx.AppInstanceSettings != nil {
		jsonData = pluginCtx.AppInstanceSettings.JSONData
	} else if pluginCtx.DataSourceInstanceSettings != nil {
		jsonData = pluginCtx.DataSourceInstanceSettings.JSONData
	}

	pluginSettings, err := LoadSettings(jsonData)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	if err := pluginSettings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	logger := log.DefaultLogger.With("org_id", pluginCtx.OrgID)
	registry := view.NewRegistry(p.backend, pluginSettings.RegistryConfig(), logger)
	go registry.Run(p.ctx, cleanupInterval)

	return &Instance{
		backend:  p.backend,
		registry: registry,
		settings: pluginSettings,
		ctx:      p.ctx,
	}, nil
}

// handleHealth probes the platform
func (i *Instance) handleHealth(ctx context.Context, sender backend.CallResourceResponseSender) error {
	healthCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	err := i.backend.Health(healthCtx)
	cancel()

	response := map[string]interface{}{
		"status":     "healthy",
		"open_pages": i.registry.Len(),
	}
	statusCode := 200

	if err != nil {
		response["status"] = "unhealthy"
		response["error"] = err.Error()
		statusCode = 503
	}

	return sendJSON(sender, statusCode, response)
}

// sendJSON sends a JSON response
func sendJSON(sender backend.CallResourceResponseSender, status int, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return sendError(sender, 500, fmt.Sprintf("Failed to marshal JSON: %v", err))
	}

	return sender.Send(&backend.CallResourceResponse{
		Status:  status,
		Headers: map[string][]string{"Content-Type": {"application/json"}},
		Body:    body,
	})
}

// sendError sends an error response
func sendError(sender backend.CallResourceResponseSender, status int, message string) error {
	body, _ := json.Marshal(map[string]string{"error": message})
	return sender.Send(&backend.CallResourceResponse{
		Status:  status,
		Headers: map[string][]string{"Content-Type": {"application/json"}},
		Body:    body,
	})
}
