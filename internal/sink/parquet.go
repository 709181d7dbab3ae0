package sink

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/dima-ingest/internal/core"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// Parquet writes each table to <dir>/<name>.parquet, replacing any file from
// an earlier run.
type Parquet struct {
	dir    string
	mem    memory.Allocator
	logger *slog.Logger
}

// NewParquet returns a sink writing into dir. The directory is created on
// first write.
func NewParquet(dir string, logger *slog.Logger) *Parquet {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parquet{dir: dir, mem: memory.NewGoAllocator(), logger: logger}
}

// Path returns the file a table name is written to.
func (p *Parquet) Path(name string) string {
	return filepath.Join(p.dir, filepath.Base(name)+".parquet")
}

func (p *Parquet) Write(ctx context.Context, name string, t *core.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rec := p.record(t)
	defer rec.Release()

	path := p.Path(name)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(rec.Schema(), file, props, arrowProps)
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write %s to parquet: %w", name, err)
	}
	// Close writes the footer and closes the file.
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet file: %w", err)
	}

	p.logger.Debug("wrote parquet file", "path", path, "rows", t.Len())
	return nil
}

// ArrowType maps a column type to the Arrow type stored in the file.
func ArrowType(t core.ColumnType) arrow.DataType {
	switch t {
	case core.TypeInt:
		return arrow.PrimitiveTypes.Int64
	case core.TypeFloat:
		return arrow.PrimitiveTypes.Float64
	case core.TypeDate:
		return arrow.FixedWidthTypes.Date32
	case core.TypeTimestamp:
		return arrow.FixedWidthTypes.Timestamp_us
	default:
		return arrow.BinaryTypes.String
	}
}

func (p *Parquet) record(t *core.Table) arrow.Record {
	fields := make([]arrow.Field, len(t.Columns))
	for i, c := range t.Columns {
		fields[i] = arrow.Field{Name: c.Name, Type: ArrowType(c.Type), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(p.mem, schema)
	defer b.Release()

	for i, c := range t.Columns {
		fb := b.Field(i)
		for _, row := range t.Rows {
			appendValue(fb, row[i], c.Type)
		}
	}
	return b.NewRecord()
}

func appendValue(fb array.Builder, v core.Value, typ core.ColumnType) {
	if !v.Valid {
		fb.AppendNull()
		return
	}
	switch typ {
	case core.TypeInt:
		if i, ok := v.Raw.(int64); ok {
			fb.(*array.Int64Builder).Append(i)
			return
		}
	case core.TypeFloat:
		switch x := v.Raw.(type) {
		case float64:
			fb.(*array.Float64Builder).Append(x)
			return
		case int64:
			fb.(*array.Float64Builder).Append(float64(x))
			return
		}
	case core.TypeDate:
		if tm, ok := v.Raw.(time.Time); ok {
			fb.(*array.Date32Builder).Append(arrow.Date32FromTime(tm))
			return
		}
	case core.TypeTimestamp:
		if tm, ok := v.Raw.(time.Time); ok {
			fb.(*array.TimestampBuilder).Append(arrow.Timestamp(tm.UnixMicro()))
			return
		}
	default:
		fb.(*array.StringBuilder).Append(v.String())
		return
	}
	fb.AppendNull()
}
