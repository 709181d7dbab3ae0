package core

import (
	"strconv"
	"strings"
	"time"
)

// ColumnType identifies the inferred type of a column.
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeInt
	TypeFloat
	TypeDate
	TypeTimestamp
)

// String returns the lowercase name of the column type.
func (c ColumnType) String() string {
	switch c {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeDate:
		return "date"
	case TypeTimestamp:
		return "timestamp"
	default:
		return "text"
	}
}

// Layouts used when rendering temporal values as text.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// Value is a single cell. Raw holds a string, int64, float64 or time.Time
// depending on the owning column's type. Valid=false means the cell is absent.
type Value struct {
	Raw   any
	Valid bool
}

// Null returns an absent value.
func Null() Value { return Value{} }

// Text returns a valid text value.
func Text(s string) Value { return Value{Raw: s, Valid: true} }

// Int returns a valid integer value.
func Int(i int64) Value { return Value{Raw: i, Valid: true} }

// Float returns a valid float value.
func Float(f float64) Value { return Value{Raw: f, Valid: true} }

// Time returns a valid date or timestamp value.
func Time(t time.Time) Value { return Value{Raw: t, Valid: true} }

// String renders the value as it would appear in a flat file.
// Absent values render as the empty string.
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	switch x := v.Raw.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(DateLayout)
		}
		return x.Format(TimestampLayout)
	default:
		return ""
	}
}

// Column is a named, typed column.
type Column struct {
	Name string
	Type ColumnType
}

// Table is an in-memory relation: ordered unique column names and ordered rows.
// Every row has exactly len(Columns) values.
type Table struct {
	Columns []Column
	Rows    [][]Value
}

// NewTable returns an empty table with the given columns.
func NewTable(cols ...Column) *Table {
	return &Table{Columns: append([]Column(nil), cols...)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table has a column with the exact name.
func (t *Table) HasColumn(name string) bool {
	return t != nil && t.ColumnIndex(name) >= 0
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Append adds a row. Short rows are padded with absent values and long rows
// are truncated to the column count.
func (t *Table) Append(vals ...Value) {
	row := make([]Value, len(t.Columns))
	copy(row, vals)
	t.Rows = append(t.Rows, row)
}

// Get returns the value at row r of the named column.
func (t *Table) Get(r int, name string) Value {
	i := t.ColumnIndex(name)
	if i < 0 || r < 0 || r >= len(t.Rows) {
		return Null()
	}
	return t.Rows[r][i]
}

// Clone returns a deep copy of the table structure. Values are copied by value.
func (t *Table) Clone() *Table {
	out := NewTable(t.Columns...)
	out.Rows = make([][]Value, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = append([]Value(nil), row...)
	}
	return out
}

// AddColumn appends a column whose values are computed per row by fn.
// An existing column with the same name is replaced in place.
func (t *Table) AddColumn(col Column, fn func(row []Value) Value) {
	if i := t.ColumnIndex(col.Name); i >= 0 {
		t.Columns[i] = col
		for _, row := range t.Rows {
			row[i] = fn(row)
		}
		return
	}
	t.Columns = append(t.Columns, col)
	for r, row := range t.Rows {
		t.Rows[r] = append(row, fn(row))
	}
}

// Project returns a new table holding only the named columns, in the given
// order. Unknown names are ignored.
func (t *Table) Project(names ...string) *Table {
	var idx []int
	var cols []Column
	for _, n := range names {
		if i := t.ColumnIndex(n); i >= 0 {
			idx = append(idx, i)
			cols = append(cols, t.Columns[i])
		}
	}
	out := NewTable(cols...)
	out.Rows = make([][]Value, len(t.Rows))
	for r, row := range t.Rows {
		nr := make([]Value, len(idx))
		for j, i := range idx {
			nr[j] = row[i]
		}
		out.Rows[r] = nr
	}
	return out
}

// Drop returns a new table without the named columns.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	keep := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !skip[c.Name] {
			keep = append(keep, c.Name)
		}
	}
	return t.Project(keep...)
}

// Distinct returns a new table with duplicate rows removed, keeping the first
// occurrence of each row.
func (t *Table) Distinct() *Table {
	out := NewTable(t.Columns...)
	seen := make(map[string]struct{}, len(t.Rows))
	for _, row := range t.Rows {
		k := rowKey(row)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// Union appends the rows of other, matching columns by name. Columns only
// present in other are added, and rows lacking a column get absent values.
// When both sides type a column differently, the column falls back to text.
func (t *Table) Union(other *Table) *Table {
	out := t.Clone()
	for _, c := range other.Columns {
		i := out.ColumnIndex(c.Name)
		if i < 0 {
			out.AddColumn(c, func([]Value) Value { return Null() })
			continue
		}
		if out.Columns[i].Type != c.Type {
			out.retypeText(i)
		}
	}
	for _, row := range other.Rows {
		nr := make([]Value, len(out.Columns))
		for j, c := range other.Columns {
			i := out.ColumnIndex(c.Name)
			v := row[j]
			if out.Columns[i].Type == TypeText && c.Type != TypeText && v.Valid {
				v = Text(v.String())
			}
			nr[i] = v
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}

func (t *Table) retypeText(i int) {
	t.Columns[i].Type = TypeText
	for _, row := range t.Rows {
		if row[i].Valid {
			row[i] = Text(row[i].String())
		}
	}
}

// rowKey builds a comparison key for a row. Absent and empty text values are
// kept distinct.
func rowKey(row []Value) string {
	var b strings.Builder
	for _, v := range row {
		if v.Valid {
			b.WriteByte('v')
			b.WriteString(v.String())
		} else {
			b.WriteByte('n')
		}
		b.WriteByte(0x1f)
	}
	return b.String()
}
