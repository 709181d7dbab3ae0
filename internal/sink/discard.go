package sink

import (
	"context"
	"log/slog"

	"github.com/JonMunkholm/dima-ingest/internal/core"
)

// Discard drops every table after logging its shape. It backs dry runs.
type Discard struct {
	Logger *slog.Logger
}

func (d Discard) Write(_ context.Context, name string, t *core.Table) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("discarded table", "table", name, "rows", t.Len(), "columns", len(t.Columns))
	return nil
}

var (
	_ core.Sink = (*Postgres)(nil)
	_ core.Sink = (*Parquet)(nil)
	_ core.Sink = Discard{}
)
