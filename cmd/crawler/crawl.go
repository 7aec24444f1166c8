package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modelcontextprotocol/crawler/internal/crawler"
	"github.com/modelcontextprotocol/crawler/internal/sources"
)

func init() {
	crawlCmd.Flags().String("source", sources.SourceNameMCPRegistry, "directory source to crawl")
	crawlCmd.Flags().Bool("mirror", false, "mirror the GitHub repositories of cataloged entries after the crawl")
	rootCmd.AddCommand(crawlCmd)
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl a directory source and catalog its entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		sourceName, _ := cmd.Flags().GetString("source")
		src, err := newSource(a, sourceName)
		if err != nil {
			return err
		}

		engine := crawler.NewEngine(a.cfg, a.catalog, a.fetcher, a.log, a.metrics)
		report, err := engine.CrawlSource(ctx, src)
		if err != nil {
			return err
		}
		fmt.Printf("crawled %s: %d found, %d cataloged, %d invalid, %d failed\n",
			report.Source, report.Found, report.Cataloged, report.Invalid, report.Failed)

		if doMirror, _ := cmd.Flags().GetBool("mirror"); doMirror {
			return mirrorCataloged(ctx, a, engine, sourceName)
		}
		return nil
	},
}

func newSource(a *app, name string) (sources.Source, error) {
	switch name {
	case sources.SourceNameMCPRegistry:
		return sources.NewMCPRegistry(a.cfg.RegistryBaseURL, a.fetcher), nil
	default:
		return nil, fmt.Errorf("unknown source %q", name)
	}
}
