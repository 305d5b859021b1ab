package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nikogura/resumeforge/pkg/scrape"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var serveAddr string

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the job posting scrape service",
	Long: `Run the HTTP scrape service that 'tailor' and 'scrape' call for job URLs.

POST /api/scrape with {"url": "..."} returns {"description": "..."}.
GET /health reports liveness. Logs are JSON on stdout.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8787", "Listen address")
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	level := slog.LevelInfo
	if getVerbose() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = scrape.Serve(ctx, serveAddr, scrape.NewFetcher(nil), logger)
	return err
}
