package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "entitytree",
	Short: "Entity reference tree service",
	Long: `entitytree serves hierarchical JSON trees of entities grouped by bundle,
for use by a tree picker widget, plus the search form dialog that opens it.`,
	SilenceUsage: true,
}

// Execute runs the root command until SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	// Shared by every subcommand.
	rootCmd.PersistentFlags().String("config", "", "Path to a CUE configuration file")
}
