// Package app provides the transcript ingestion command.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kart-io/coursemind/cmd/coursemind-ingest/app/options"
	ragsvc "github.com/kart-io/coursemind/internal/rag"
	"github.com/kart-io/coursemind/pkg/infra/app"
)

const commandDesc = `CourseMind transcript ingestion

Reads the video catalog, chunks and translates each transcript, embeds the
chunks and appends them to the knowledge store in catalog order.

A video whose transcript is missing is skipped; one that fails is reported
and the run continues. Missing transcripts can be produced by an external
command (--ingest.transcribe-command).`

// NewApp creates the ingestion command.
func NewApp() *app.App {
	opts := options.NewIngestOptions()
	return app.NewApp(
		app.WithName(ragsvc.IngestName),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)
}

func run(opts *options.IngestOptions) app.RunFunc {
	return func() error {
		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, err := cfg.RunIngest(ctx)
		if err != nil {
			return err
		}
		if report.Failed > 0 {
			return fmt.Errorf("%d of %d videos failed", report.Failed, len(report.Videos))
		}
		return nil
	}
}
