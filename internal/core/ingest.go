package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/JonMunkholm/dima-ingest/internal/logging"
)

// Provenance columns added to every staged table.
const (
	SourceColumn     = "DBKey"
	LoadedDateColumn = "DateLoadedInDB"
)

// Sink receives finished tables. name is the table name from the filename,
// e.g. tblGapDetail.
type Sink interface {
	Write(ctx context.Context, name string, t *Table) error
}

// SkippedFile records a file that was not staged.
type SkippedFile struct {
	File   string
	Code   string
	Reason string
}

// Summary is the outcome of ingesting a directory.
type Summary struct {
	Files    int
	Staged   int
	Ignored  int // non-CSV files
	Skipped  []SkippedFile
	Warnings []Warning
	// Unkeyed is the final validation of every staged entity type.
	Unkeyed  []Warning
	Duration time.Duration
}

// FailedTable records a table the sink rejected. It stays staged.
type FailedTable struct {
	Name   string
	Code   string
	Reason string
}

// FlushResult is the outcome of handing staged tables to a sink.
type FlushResult struct {
	Written []string
	Rows    int
	Failed  []FailedTable
}

// Ingestor runs the per-file pipeline over a data directory:
// classify, load, stage, build the entity's PK source if needed, propagate.
type Ingestor struct {
	fsys   fs.FS
	store  *Store
	logger *slog.Logger

	// LoadOptions bounds file loading.
	LoadOptions LoadOptions
	// Now stamps DateLoadedInDB. Defaults to time.Now.
	Now func() time.Time
}

// NewIngestor returns an ingestor reading from fsys into store.
// A nil logger uses slog.Default().
func NewIngestor(fsys fs.FS, store *Store, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		fsys:   fsys,
		store:  store,
		logger: logger,
		Now:    time.Now,
	}
}

// Store returns the staging store.
func (in *Ingestor) Store() *Store { return in.store }

// IngestFile classifies, loads and stages one file, then keys its entity.
// The returned error means the file was not staged; warnings never block.
// Files of an unregistered entity type are staged unkeyed.
func (in *Ingestor) IngestFile(ctx context.Context, name string) ([]Warning, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := Classify(name)
	if err != nil {
		return nil, err
	}
	log := logging.WithFields(logging.NewContext(ctx, in.logger), "file", name, "entity", c.Entity, "sub_table", c.SubTable)

	var cfg EntityConfig
	var lookupErr error
	if c.Entity != EntityNoPrimaryKey {
		cfg, lookupErr = Lookup(c.Entity)
		if lookupErr != nil && !errors.Is(lookupErr, ErrUnsupportedEntity) {
			return nil, lookupErr
		}
	}

	t, loadWarnings, err := LoadFile(in.fsys, name, in.LoadOptions)
	if err != nil {
		return nil, err
	}
	for _, w := range loadWarnings {
		log.Debug("load irregularity", "line", w.Line, "detail", w.Message)
	}
	if len(loadWarnings) > 0 {
		log.Warn("file had irregular rows", "count", len(loadWarnings))
	}

	in.addProvenance(t, c.Source)
	e := in.store.Stage(c, name, t)
	log.Info("staged", "rows", t.Len(), "columns", len(t.Columns), "merged_files", len(e.Files))

	if c.Entity == EntityNoPrimaryKey {
		return nil, nil
	}
	if lookupErr != nil {
		warnings := append([]Warning{{
			Entity: c.Entity, SubTable: c.SubTable, Code: CodeUnsupportedType, Message: lookupErr.Error(),
		}}, in.store.Validate(c.Entity)...)
		log.Warn("staged without a key: entity type is not configured", "code", CodeUnsupportedType)
		return warnings, nil
	}

	var warnings []Warning
	if w, ok := in.ensurePKSource(cfg); !ok {
		warnings = append(warnings, w)
	}

	p := in.store.Propagate(c.Entity)
	if p.Deferred {
		log.Info("key propagation deferred: no PK source yet")
	}
	for sub, st := range p.Attached {
		log.Info("attached primary key", "target", sub, "rows", st.Rows, "matched", st.Matched, "unmatched", st.Unmatched)
	}
	for _, w := range p.Warnings {
		log.Warn(w.Message, "code", w.Code, "target", w.SubTable)
	}
	return append(warnings, p.Warnings...), nil
}

// ensurePKSource builds and caches the entity's PK source if it is not cached
// yet. A failed build is logged and not cached, so a later file retries.
func (in *Ingestor) ensurePKSource(cfg EntityConfig) (Warning, bool) {
	if _, ok := in.store.PKSource(cfg.Name); ok {
		return Warning{}, true
	}
	log := in.logger.With("entity", cfg.Name)

	resolved, err := Resolve(in.fsys, cfg, in.LoadOptions)
	if err == nil {
		var pk *PKSource
		if pk, err = BuildPKSource(cfg, resolved); err == nil {
			in.store.SetPKSource(pk)
			log.Info("built PK source", "recipe", pk.Recipe, "rows", pk.Len(), "roles", fmt.Sprint(resolved.Roles()))
			if pk.UnparsedDates > 0 {
				log.Warn("date values could not be normalized", "count", pk.UnparsedDates)
			}
			return Warning{}, true
		}
	}

	code := Code(err)
	log.Warn("PK source not built", "code", code, "error", err)
	return Warning{Entity: cfg.Name, Code: code, Message: err.Error()}, false
}

func (in *Ingestor) addProvenance(t *Table, source string) {
	loaded := in.Now().Truncate(time.Second)
	t.AddColumn(Column{Name: LoadedDateColumn, Type: TypeTimestamp}, func([]Value) Value { return Time(loaded) })
	t.AddColumn(Column{Name: SourceColumn, Type: TypeText}, func([]Value) Value { return Text(source) })
}

// IngestDir ingests every CSV file at the root of the data directory in
// lexical order. Per-file failures are recorded in the summary and never
// stop the run; only context cancellation does.
func (in *Ingestor) IngestDir(ctx context.Context) (Summary, error) {
	start := time.Now()
	var sum Summary

	entries, err := fs.ReadDir(in.fsys, ".")
	if err != nil {
		return sum, fmt.Errorf("read data directory: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			sum.Duration = time.Since(start)
			return sum, err
		}
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(path.Ext(name), ".csv") {
			in.logger.Info("skipping non-CSV file", "file", name)
			sum.Ignored++
			continue
		}

		sum.Files++
		warnings, err := in.IngestFile(ctx, name)
		if err != nil {
			code := Code(err)
			in.logger.Warn("file skipped", "file", name, "code", code, "error", err)
			sum.Skipped = append(sum.Skipped, SkippedFile{File: name, Code: code, Reason: err.Error()})
			continue
		}
		sum.Staged++
		sum.Warnings = append(sum.Warnings, warnings...)
	}

	for _, entity := range in.store.Entities() {
		sum.Unkeyed = append(sum.Unkeyed, in.store.Validate(entity)...)
	}
	sum.Duration = time.Since(start)

	in.logger.Info("ingest complete",
		"files", sum.Files,
		"staged", sum.Staged,
		"skipped", len(sum.Skipped),
		"unkeyed", len(sum.Unkeyed),
		"duration_ms", sum.Duration.Milliseconds(),
	)
	return sum, nil
}

// Flush de-duplicates each staged table and hands it to sink. Written tables
// leave the store; rejected ones stay staged and are reported.
func (in *Ingestor) Flush(ctx context.Context, sink Sink) (FlushResult, error) {
	var res FlushResult
	for _, entity := range in.store.Entities() {
		for _, e := range in.store.Entries(entity) {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			t := e.Table.Distinct()
			if err := sink.Write(ctx, e.Name, t); err != nil {
				code := Code(err)
				in.logger.Error("write failed", "table", e.Name, "code", code, "error", err)
				res.Failed = append(res.Failed, FailedTable{Name: e.Name, Code: code, Reason: err.Error()})
				continue
			}
			in.logger.Info("table written", "table", e.Name, "rows", t.Len(), "dropped_duplicates", e.Table.Len()-t.Len())
			res.Written = append(res.Written, e.Name)
			res.Rows += t.Len()
			in.store.Remove(entity, e.SubTable)
		}
	}
	return res, nil
}
