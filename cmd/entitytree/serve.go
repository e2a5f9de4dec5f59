package main

import (
	"github.com/spf13/cobra"

	"github.com/matthewbaird/entitytree/internal/handler"
	"github.com/matthewbaird/entitytree/internal/metrics"
	"github.com/matthewbaird/entitytree/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Opens the store, optionally seeds it, and serves the tree endpoints until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Server.Port = port
		}

		store, closeStore, err := openStore(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		if cfg.Seed.Fixtures != "" {
			if err := seedFrom(ctx, store, cfg.Seed.Fixtures, logger); err != nil {
				return err
			}
		}

		dir, err := server.NewDirectory(cfg.Access)
		if err != nil {
			return err
		}

		return server.Run(ctx, server.Config{
			Port:            cfg.Server.Port,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
			BasePath:        cfg.Tree.BasePath,
			Registry:        server.NewRegistry(store, cfg.Tree.Builders),
			Directory:       dir,
			Metrics:         metrics.New(),
			Logger:          logger,
			Tree: handler.TreeConfig{
				ForbidOnDenied: cfg.Tree.ForbidOnDenied,
				DialogTitle:    cfg.Tree.DialogTitle,
				DialogWidth:    cfg.Tree.DialogWidth,
			},
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides configuration)")
}
