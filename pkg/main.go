package main

import (
	"os"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
	"github.com/sabio/subsurface-console/pkg/plugin"
)

func main() {
	// Create plugin
	p := plugin.NewPlugin()
	defer p.Dispose()

	// Serve plugin
	if err := backend.Manage("sabio-subsurface-console", p.ServeOpts()); err != nil {
		log.DefaultLogger.Error("Plugin exited with error", "error", err)
		p.Dispose()
		os.Exit(1)
	}
}
