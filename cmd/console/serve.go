package main

import (
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
	"github.com/spf13/cobra"

	"github.com/sabio/subsurface-console/pkg/config"
	"github.com/sabio/subsurface-console/pkg/platform"
	"github.com/sabio/subsurface-console/pkg/web"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the console page over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			logger := log.New()
			client := platform.NewClient(platform.DefaultBaseURL)
			logger.Info("Using platform", "base_url", client.BaseURL())

			server := web.New(client, serverConfig(cfg), logger)
			return server.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "config file path (default ~/.subsurface-console/config.yaml)")
	return cmd
}

func serverConfig(cfg config.Config) web.Config {
	return web.Config{
		Addr:               cfg.Addr,
		Registry:           cfg.RegistryConfig(),
		CleanupInterval:    cfg.CleanupInterval(),
		AutoRefreshSeconds: cfg.AutoRefreshSeconds,
		RequestLogging:     cfg.RequestLogging,
		Version:            Version,
		OpenRateRPS:        cfg.OpenRateRPS,
		OpenRateBurst:      cfg.OpenRateBurst,
	}
}
