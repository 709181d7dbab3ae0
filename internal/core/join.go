package core

import (
	"fmt"
	"strings"
)

// joinKey builds the composite lookup key of a row. ok is false when any key
// component is absent: absent keys never match.
func joinKey(row []Value, idx []int) (string, bool) {
	if len(idx) == 1 {
		v := row[idx[0]]
		return v.String(), v.Valid
	}
	var b strings.Builder
	for i, c := range idx {
		v := row[c]
		if !v.Valid {
			return "", false
		}
		if i > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(v.String())
	}
	return b.String(), true
}

func columnIndexes(t *Table, names []string, side string) ([]int, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		j := t.ColumnIndex(n)
		if j < 0 {
			return nil, fmt.Errorf("%w: %s side has no column %q", ErrMissingJoinColumn, side, n)
		}
		idx[i] = j
	}
	return idx, nil
}

// InnerJoin joins left and right on the named columns. Keys compare by their
// text rendering, so an integer key on one side matches the same digits held
// as text on the other. The result has every left column followed by the
// right side's non-key columns; right columns whose names collide with a left
// column are dropped. Output order follows left rows, then right rows.
func InnerJoin(left, right *Table, on ...string) (*Table, error) {
	lidx, err := columnIndexes(left, on, "left")
	if err != nil {
		return nil, err
	}
	ridx, err := columnIndexes(right, on, "right")
	if err != nil {
		return nil, err
	}

	isKey := make(map[int]bool, len(ridx))
	for _, i := range ridx {
		isKey[i] = true
	}
	cols := append([]Column(nil), left.Columns...)
	var keep []int
	for i, c := range right.Columns {
		if isKey[i] || left.HasColumn(c.Name) {
			continue
		}
		keep = append(keep, i)
		cols = append(cols, c)
	}

	index := make(map[string][]int, len(right.Rows))
	for r, row := range right.Rows {
		if k, ok := joinKey(row, ridx); ok {
			index[k] = append(index[k], r)
		}
	}

	out := NewTable(cols...)
	for _, lrow := range left.Rows {
		k, ok := joinKey(lrow, lidx)
		if !ok {
			continue
		}
		for _, r := range index[k] {
			row := make([]Value, 0, len(cols))
			row = append(row, lrow...)
			for _, i := range keep {
				row = append(row, right.Rows[r][i])
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

// AttachStats summarizes a key attachment.
type AttachStats struct {
	Rows      int
	Matched   int
	Unmatched int
	// Ambiguous counts join values that map to more than one distinct key.
	Ambiguous int
}

// AttachColumn left-joins a single column of source onto t using the join
// column on. Every row of t appears exactly once in the result: the first
// source row for a join value supplies the attached value, and rows with no
// match get an absent value. An existing column named attach is replaced.
func AttachColumn(t, source *Table, on, attach string) (*Table, AttachStats, error) {
	stats := AttachStats{Rows: t.Len()}

	li := t.ColumnIndex(on)
	if li < 0 {
		return nil, stats, fmt.Errorf("%w: table has no column %q", ErrMissingJoinColumn, on)
	}
	si := source.ColumnIndex(on)
	if si < 0 {
		return nil, stats, fmt.Errorf("%w: key source has no column %q", ErrMissingJoinColumn, on)
	}
	ai := source.ColumnIndex(attach)
	if ai < 0 {
		return nil, stats, fmt.Errorf("%w: key source has no column %q", ErrMissingJoinColumn, attach)
	}

	first := make(map[string]Value, len(source.Rows))
	ambiguous := make(map[string]bool)
	for _, row := range source.Rows {
		k := row[si]
		if !k.Valid {
			continue
		}
		ks := k.String()
		v := row[ai]
		if prev, ok := first[ks]; ok {
			if rowKey([]Value{prev}) != rowKey([]Value{v}) {
				ambiguous[ks] = true
			}
			continue
		}
		first[ks] = v
	}
	stats.Ambiguous = len(ambiguous)

	typ := source.Columns[ai].Type
	out := t.Clone()
	out.AddColumn(Column{Name: attach, Type: typ}, func(row []Value) Value {
		k := row[li]
		if !k.Valid {
			stats.Unmatched++
			return Null()
		}
		v, ok := first[k.String()]
		if !ok {
			stats.Unmatched++
			return Null()
		}
		stats.Matched++
		return v
	})
	return out, stats, nil
}
