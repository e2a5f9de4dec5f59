package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load fixture entities into the store",
	Long:  `Loads a YAML fixture file into an empty store. A store that already holds entities is left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("fixtures")
		if path == "" {
			path = cfg.Seed.Fixtures
		}
		if path == "" {
			return errors.New("no fixtures file: pass --fixtures or set seed.fixtures")
		}
		if cfg.Database.Driver == "memory" {
			return errors.New("seed needs a persistent database driver")
		}

		store, closeStore, err := openStore(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer closeStore()
		return seedFrom(ctx, store, path, logger)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringP("fixtures", "f", "", "YAML fixture file")
}
