package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create tables and index the storage directory",
	Long: `Create the metadata and response cache tables, then scan the storage
directory and record metadata for every file found. Run it again after
adding files so they can be served. This is useful when:
  - Setting up stowgate over existing files
  - Recovering metadata after database loss`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	b := &backends{}
	defer b.close()

	if err := openDatabase(ctx, b, cfg, true); err != nil {
		return err
	}

	if cfg.Store.Backend != "filesystem" {
		slog.Info("store backend has no local files to index", "backend", cfg.Store.Backend)
		return nil
	}

	if err := openFilesystem(b, cfg); err != nil {
		return err
	}

	slog.Info("scanning storage directory", "path", cfg.Storage.Path)

	indexed, err := b.bucket.Populate(ctx)
	if err != nil {
		return fmt.Errorf("populate: %w", err)
	}

	total := 0
	cursor := ""
	for {
		result, err := b.bucket.List(ctx, stowgate.ListQuery{Limit: 1000, Cursor: cursor})
		if err != nil {
			return fmt.Errorf("list: %w", err)
		}
		total += len(result.Items)
		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	slog.Info("initialization complete", "files_indexed", indexed, "objects_total", total)
	return nil
}
