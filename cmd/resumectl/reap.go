package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"socioscan-backend/internal/bootstrap"
	"socioscan-backend/internal/shared/config"
)

var reapCmd = &cobra.Command{
	Use:   "reap REFERENCE...",
	Short: "Delete resume objects by reference",
	Long:  "Delete orphaned resume objects from the configured store. Use only for references no profile points at.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runReap,
}

func init() {
	rootCmd.AddCommand(reapCmd)
}

func runReap(cmd *cobra.Command, refs []string) error {
	cfg := config.Load()
	// Delete inline; the worker is not involved.
	cfg.QueueBackend = "none"
	app, err := bootstrap.Build(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	failed := 0
	for _, ref := range refs {
		if err := app.Reaper.Delete(cmd.Context(), ref); err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", ref, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", ref)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d deletes failed", failed, len(refs))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
