package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/dima-ingest/internal/core"
)

func classifyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classify",
		Short: "Show how each CSV export in the data directory would be classified",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.classify()
		},
	}
}

func (a *app) classify() error {
	entries, err := os.ReadDir(a.cfg.Ingest.DataDir)
	if err != nil {
		return fmt.Errorf("read data directory: %w", err)
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSOURCE\tENTITY\tSUB-TABLE\tSTATUS")
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		c, err := core.Classify(name)
		if err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t%s\n", name, core.Code(err))
			continue
		}
		status := "ok"
		if c.Entity == core.EntityNoPrimaryKey {
			status = "reference"
		} else if _, err := core.Lookup(c.Entity); err != nil {
			status = core.Code(err)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", name, c.Source, c.Entity, c.SubTable, status)
	}
	return tw.Flush()
}

func entitiesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List the registered survey methods and how their keys are built",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.entities()
		},
	}
}

func (a *app) entities() error {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTITY\tSPATIAL KEY\tDATE\tSUB-TABLES\tDESCRIPTION")
	for _, cfg := range core.All() {
		subs := make([]string, 0, len(cfg.JoinColumns))
		for sub, col := range cfg.JoinColumns {
			subs = append(subs, sub+"("+col+")")
		}
		sort.Strings(subs)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", cfg.Name, cfg.SpatialKey, cfg.DateColumn, strings.Join(subs, " "), cfg.Label)
	}
	return tw.Flush()
}
