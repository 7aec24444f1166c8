package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modelcontextprotocol/crawler/internal/crawler"
	"github.com/modelcontextprotocol/crawler/internal/database"
	"github.com/modelcontextprotocol/crawler/internal/sources"
	"github.com/modelcontextprotocol/crawler/pkg/model"
)

func init() {
	mirrorCmd.Flags().String("source", sources.SourceNameMCPRegistry, "mirror entries cataloged from this source")
	rootCmd.AddCommand(mirrorCmd)
}

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Mirror the GitHub repositories of already-cataloged entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		sourceName, _ := cmd.Flags().GetString("source")
		engine := crawler.NewEngine(a.cfg, a.catalog, a.fetcher, a.log, a.metrics)
		return mirrorCataloged(ctx, a, engine, sourceName)
	},
}

// mirrorCataloged pages through the catalog for one source and mirrors
// every entry's repository.
func mirrorCataloged(ctx context.Context, a *app, engine *crawler.Engine, sourceName string) error {
	filter := &database.EntryFilter{Source: &sourceName}

	var entries []*model.ServerEntry
	cursor := ""
	for {
		page, next, err := a.catalog.List(ctx, filter, cursor, 100)
		if err != nil {
			return fmt.Errorf("list cataloged entries: %w", err)
		}
		entries = append(entries, page...)
		if next == "" {
			break
		}
		cursor = next
	}

	report, err := engine.MirrorEntries(ctx, entries)
	if err != nil {
		return err
	}
	fmt.Printf("mirrored %d of %d repositories (%d skipped, %d without github links, %d failed)\n",
		report.Mirrored, report.Attempted, report.Skipped, report.NonGitHub, report.Failed)
	return nil
}
