package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
)

// LoadWarning records a recoverable irregularity found while loading.
type LoadWarning struct {
	Line    int
	Message string
}

// LoadOptions bounds what the loader will accept.
type LoadOptions struct {
	// MaxBytes rejects files larger than this. Zero means no limit.
	MaxBytes int64
}

// LoadFile reads name from fsys and parses it as a table.
func LoadFile(fsys fs.FS, name string, opts LoadOptions) (*Table, []LoadWarning, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open %s: %v", ErrLoad, name, err)
	}
	defer f.Close()

	var r io.Reader = f
	if opts.MaxBytes > 0 {
		r = io.LimitReader(f, opts.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read %s: %v", ErrLoad, name, err)
	}
	if opts.MaxBytes > 0 && int64(len(data)) > opts.MaxBytes {
		return nil, nil, fmt.Errorf("%w: %s: file too large (limit %d bytes)", ErrLoad, name, opts.MaxBytes)
	}

	t, warnings, err := Parse(data)
	if err != nil {
		return nil, warnings, fmt.Errorf("%s: %w", name, err)
	}
	return t, warnings, nil
}

// Parse decodes and parses a delimited export. The first non-empty record is
// the header. Every column's type is inferred from all of its cells.
func Parse(data []byte) (*Table, []LoadWarning, error) {
	text, _, err := Decode(data)
	if err != nil {
		return nil, nil, err
	}

	records, err := parseCSV(text)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid csv: %v", ErrLoad, err)
	}

	var warnings []LoadWarning

	hdr := -1
	for i, rec := range records {
		if !isEmptyRow(rec) {
			hdr = i
			break
		}
	}
	if hdr < 0 {
		return nil, nil, fmt.Errorf("%w: empty file", ErrLoad)
	}

	names := uniqueHeaders(records[hdr])
	width := len(names)

	var body [][]string
	for i, rec := range records[hdr+1:] {
		if isEmptyRow(rec) {
			continue
		}
		line := hdr + i + 2
		switch {
		case len(rec) < width:
			warnings = append(warnings, LoadWarning{Line: line, Message: fmt.Sprintf("row has %d fields, expected %d; padded", len(rec), width)})
			padded := make([]string, width)
			copy(padded, rec)
			rec = padded
		case len(rec) > width:
			warnings = append(warnings, LoadWarning{Line: line, Message: fmt.Sprintf("row has %d fields, expected %d; truncated", len(rec), width)})
			rec = rec[:width]
		}
		body = append(body, rec)
	}

	cols := make([]Column, width)
	cells := make([]string, len(body))
	for c := 0; c < width; c++ {
		for r, rec := range body {
			cells[r] = rec[c]
		}
		cols[c] = Column{Name: names[c], Type: InferType(cells)}
	}

	t := NewTable(cols...)
	t.Rows = make([][]Value, len(body))
	for r, rec := range body {
		row := make([]Value, width)
		for c := range cols {
			row[c] = ParseCell(rec[c], cols[c].Type)
		}
		t.Rows[r] = row
	}
	return t, warnings, nil
}

func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// uniqueHeaders cleans header cells, names blank ones by position and
// suffixes repeats with _duplicated_N.
func uniqueHeaders(raw []string) []string {
	names := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		h = CleanHeader(h)
		if h == "" {
			h = "column_" + strconv.Itoa(i+1)
		}
		if n, ok := seen[h]; ok {
			seen[h] = n + 1
			h = h + "_duplicated_" + strconv.Itoa(n)
		} else {
			seen[h] = 1
		}
		names[i] = h
	}
	return names
}
