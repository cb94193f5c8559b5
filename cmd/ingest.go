package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sitebrain/sitebrain/internal/app"
	"github.com/sitebrain/sitebrain/internal/ingest"
)

var (
	ingestSource string
	ingestFile   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Crawl the configured site and docs directory into the vector store",
	Long: `Ingest fetches content from the configured sitemap and docs directory,
chunks it, embeds new or changed chunks and upserts them. Unchanged
content is skipped, so re-running is cheap.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSource, "source", "all", "content source to ingest: web, file or all")
	ingestCmd.Flags().StringVar(&ingestFile, "path", "", "ingest a single document by path instead of the configured sources")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	if ingestFile != "" {
		written, err := a.Pipeline.IngestFile(ctx, ingestFile)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", ingestFile, err)
		}
		fmt.Printf("Ingested %s: %d chunks written\n", ingestFile, written)
		return nil
	}

	switch ingestSource {
	case "all":
		stats, err := a.Pipeline.IngestAll(ctx)
		if err != nil {
			return fmt.Errorf("ingesting: %w", err)
		}
		fmt.Printf("Ingested %d web chunks and %d file chunks\n", stats.WebChunks, stats.FileChunks)
		reportFailures(stats.Failures)
	case "web":
		written, failures, err := a.Pipeline.IngestWeb(ctx)
		if err != nil {
			return fmt.Errorf("ingesting web content: %w", err)
		}
		fmt.Printf("Ingested %d web chunks\n", written)
		reportFailures(failures)
	case "file":
		written, failures, err := a.Pipeline.IngestDocs(ctx)
		if err != nil {
			return fmt.Errorf("ingesting documents: %w", err)
		}
		fmt.Printf("Ingested %d file chunks\n", written)
		reportFailures(failures)
	default:
		return fmt.Errorf("invalid source %q: must be web, file or all", ingestSource)
	}
	return nil
}

func reportFailures(failures []ingest.ItemError) {
	if len(failures) == 0 {
		return
	}
	fmt.Printf("%d items failed:\n", len(failures))
	for _, f := range failures {
		fmt.Printf("  %s\n", f.Error())
	}
}
