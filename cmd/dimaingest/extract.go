package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/dima-ingest/internal/extract"
	"github.com/JonMunkholm/dima-ingest/internal/logging"
)

func extractCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Run the exporter container to dump survey tables into the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.extract(cmd.Context())
		},
	}

	cmd.Flags().Bool("clean", false, "Empty the data directory before extracting (env EXTRACT_CLEAN)")
	a.bind(cmd.Flags(), map[string]string{"clean": "EXTRACT_CLEAN"})

	return cmd
}

func (a *app) extract(ctx context.Context) error {
	cfg := a.cfg
	ctx = logging.WithRun(ctx, "")
	logger := logging.FromContext(ctx)

	engine, closeEngine, err := a.newEngine()
	if err != nil {
		return err
	}
	defer closeEngine()

	ex := extract.New(engine, extract.Options{
		DockerfileDir: cfg.Extract.DockerfileDir,
		ImageTag:      cfg.Extract.ImageTag,
		OutputDir:     cfg.Ingest.DataDir,
		MountTarget:   cfg.Extract.MountTarget,
		Clean:         cfg.Extract.Clean,
		Timeout:       cfg.Extract.Timeout,
	}, logger)

	res, err := ex.Run(ctx)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	fmt.Fprintf(a.out, "exported into %s (image %s, cleared %d entries)\n", cfg.Ingest.DataDir, res.ImageTag, res.Cleared)
	return nil
}
