package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/dima-ingest/internal/config"
	"github.com/JonMunkholm/dima-ingest/internal/core"
	"github.com/JonMunkholm/dima-ingest/internal/logging"
	"github.com/JonMunkholm/dima-ingest/internal/sink"
)

func ingestCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Key every CSV export in the data directory and write it to a sink",
		Long: `Classify each CSV export, stage it, synthesize the PrimaryKey of its
survey method from the spatial context and write the keyed tables to
PostgreSQL, Parquet files or nowhere (dry run).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.ingest(cmd.Context())
		},
	}

	cmd.Flags().String("sink", "", "Destination: postgres, parquet or none (env INGEST_SINK)")
	cmd.Flags().String("out", "", "Parquet output directory (env INGEST_OUT_DIR)")
	a.bind(cmd.Flags(), map[string]string{
		"sink": "INGEST_SINK",
		"out":  "INGEST_OUT_DIR",
	})

	return cmd
}

func (a *app) ingest(ctx context.Context) error {
	cfg := a.cfg
	if err := cfg.RequireSink(); err != nil {
		return err
	}

	ctx = logging.WithRun(ctx, "")
	logger := logging.FromContext(ctx)

	if cfg.Ingest.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Ingest.Timeout)
		defer cancel()
	}

	info, err := os.Stat(cfg.Ingest.DataDir)
	if err != nil {
		return fmt.Errorf("data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data directory %s is not a directory", cfg.Ingest.DataDir)
	}

	out, closeSink, err := openSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSink()

	in := core.NewIngestor(os.DirFS(cfg.Ingest.DataDir), core.NewStore(), logger)
	in.LoadOptions.MaxBytes = cfg.Ingest.MaxFileSize

	logger.Info("ingest started", "dir", cfg.Ingest.DataDir, "sink", cfg.Ingest.Sink)
	sum, err := in.IngestDir(ctx)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", cfg.Ingest.DataDir, err)
	}

	res, err := in.Flush(ctx, out)
	printReport(a.out, sum, res)
	if err != nil {
		return fmt.Errorf("write tables: %w", err)
	}
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d of %d tables failed to write", len(res.Failed), len(res.Failed)+len(res.Written))
	}
	return nil
}

// openSink returns the configured sink and a function releasing it.
func openSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (core.Sink, func(), error) {
	switch strings.ToLower(cfg.Ingest.Sink) {
	case config.SinkParquet:
		return sink.NewParquet(cfg.Ingest.OutDir, logger), func() {}, nil
	case config.SinkNone:
		return sink.Discard{Logger: logger}, func() {}, nil
	}

	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		logger.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"), "schema", cfg.Database.Schema)
	}

	return sink.NewPostgres(pool, cfg.Database.Schema, logger), pool.Close, nil
}

func printReport(w io.Writer, sum core.Summary, res core.FlushResult) {
	fmt.Fprintf(w, "files: %d  staged: %d  skipped: %d  ignored: %d  (%s)\n",
		sum.Files, sum.Staged, len(sum.Skipped), sum.Ignored, sum.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "tables written: %d  rows: %d  failed: %d\n", len(res.Written), res.Rows, len(res.Failed))

	if len(sum.Skipped) > 0 {
		fmt.Fprintln(w, "\nskipped files:")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, s := range sum.Skipped {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", s.Code, s.File, s.Reason)
		}
		tw.Flush()
	}

	warnings := core.UniqueWarnings(append(append([]core.Warning{}, sum.Warnings...), sum.Unkeyed...))
	if len(warnings) > 0 {
		fmt.Fprintln(w, "\nwarnings:")
		for _, warn := range warnings {
			fmt.Fprintf(w, "  %s\n", warn)
		}
	}

	if len(res.Failed) > 0 {
		fmt.Fprintln(w, "\nfailed tables:")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, f := range res.Failed {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.Code, f.Name, f.Reason)
		}
		tw.Flush()
	}
}
