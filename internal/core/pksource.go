package core

import (
	"fmt"
	"strings"
)

// JoinRecipe is one structural pattern for assembling an entity's records.
// Recipes are tried in the order of Recipes; the first applicable one wins.
type JoinRecipe interface {
	Name() string
	// Applicable reports whether every role the recipe needs resolved.
	Applicable(r Resolved) bool
	Join(r Resolved) (*Table, error)
}

// pairJoin inner-joins two roles on one column.
type pairJoin struct {
	name        string
	left, right Role
	on          string
}

func (p pairJoin) Name() string { return p.name }

func (p pairJoin) Applicable(r Resolved) bool { return r.Has(p.left, p.right) }

func (p pairJoin) Join(r Resolved) (*Table, error) {
	return InnerJoin(r[p.left], r[p.right], p.on)
}

// boxStackJoin joins box and stack on StackID, then the box collection on BoxID.
type boxStackJoin struct{}

func (boxStackJoin) Name() string { return "box-stack-collection" }

func (boxStackJoin) Applicable(r Resolved) bool {
	return r.Has(RoleBox, RoleStack, RoleBoxCollection)
}

func (boxStackJoin) Join(r Resolved) (*Table, error) {
	bs, err := InnerJoin(r[RoleBox], r[RoleStack], StackIDColumn)
	if err != nil {
		return nil, err
	}
	return InnerJoin(bs, r[RoleBoxCollection], BoxIDColumn)
}

// Recipes in priority order.
var Recipes = []JoinRecipe{
	pairJoin{name: "header-detail", left: RoleHeader, right: RoleDetail, on: RecKeyColumn},
	pairJoin{name: "stack-trap", left: RoleStack, right: RoleTrapCollection, on: StackIDColumn},
	boxStackJoin{},
	pairJoin{name: "pit-horizons", left: RolePits, right: RolePitHorizons, on: SoilKeyColumn},
}

// SelectRecipe returns the first applicable recipe.
func SelectRecipe(r Resolved) (JoinRecipe, error) {
	for _, rc := range Recipes {
		if rc.Applicable(r) {
			return rc, nil
		}
	}
	return nil, fmt.Errorf("%w: resolved roles %v", ErrNoJoinPattern, r.Roles())
}

// PKSource is an entity type's table of synthesized primary keys.
type PKSource struct {
	Entity string
	Recipe string
	Table  *Table

	// UnparsedDates counts date cells that could not be normalized.
	UnparsedDates int
}

// Len returns the number of key rows.
func (p *PKSource) Len() int { return p.Table.Len() }

// IsKeyMarker reports whether a column survives projection: its name contains
// "key" or "date", case-insensitively.
func IsKeyMarker(name string) bool {
	l := strings.ToLower(name)
	return strings.Contains(l, "key") || strings.Contains(l, "date")
}

// IsDateMarker reports whether a column holds a date.
func IsDateMarker(name string) bool {
	return strings.Contains(strings.ToLower(name), "date")
}

// BuildPKSource assembles the primary-key source for one entity type from its
// resolved files:
//
//  1. Lines ⋈ Plots on PlotKey (mandatory spatial context)
//  2. the first applicable structural recipe
//  3. structure ⋈ spatial context on the entity's spatial key
//  4. projection to key and date columns plus the entity's join columns
//  5. date normalization to calendar dates
//  6. distinct rows, then PrimaryKey = PlotKey ‖ date column
func BuildPKSource(cfg EntityConfig, r Resolved) (*PKSource, error) {
	if !r.Has(RoleLines, RolePlots) {
		return nil, fmt.Errorf("%s: %w: lines=%t plots=%t",
			cfg.Name, ErrMissingSpatialContext, r[RoleLines] != nil, r[RolePlots] != nil)
	}
	spatial, err := InnerJoin(r[RoleLines], r[RolePlots], PlotKeyColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: spatial context: %w", cfg.Name, err)
	}

	recipe, err := SelectRecipe(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Name, err)
	}
	structure, err := recipe.Join(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %s join: %w", cfg.Name, recipe.Name(), err)
	}

	joined, err := InnerJoin(structure, spatial, cfg.SpatialKey)
	if err != nil {
		return nil, fmt.Errorf("%s: spatial join: %w", cfg.Name, err)
	}

	projected := joined.Project(projectionColumns(cfg, joined)...)

	for _, col := range cfg.KeyColumns() {
		if !projected.HasColumn(col) {
			return nil, fmt.Errorf("%s: %w: key column %q not found after %s join", cfg.Name, ErrMissingJoinColumn, col, recipe.Name())
		}
	}

	unparsed := normalizeDates(projected)
	keyed := projected.Distinct()
	keyed.AddColumn(Column{Name: PrimaryKeyColumn, Type: TypeText}, concatKey(keyed, cfg.KeyColumns()))

	return &PKSource{
		Entity:        cfg.Name,
		Recipe:        recipe.Name(),
		Table:         keyed,
		UnparsedDates: unparsed,
	}, nil
}

func projectionColumns(cfg EntityConfig, t *Table) []string {
	extra := make(map[string]bool, len(cfg.JoinColumns))
	for _, col := range cfg.JoinColumns {
		extra[col] = true
	}
	var names []string
	for _, c := range t.Columns {
		if IsKeyMarker(c.Name) || extra[c.Name] {
			names = append(names, c.Name)
		}
	}
	return names
}

// normalizeDates converts every date-marker column in place and returns the
// number of present cells that could not be read as a date.
func normalizeDates(t *Table) int {
	unparsed := 0
	for i, c := range t.Columns {
		if !IsDateMarker(c.Name) {
			continue
		}
		t.Columns[i].Type = TypeDate
		for _, row := range t.Rows {
			v := ToCalendarDate(row[i])
			if row[i].Valid && !v.Valid {
				unparsed++
			}
			row[i] = v
		}
	}
	return unparsed
}

// concatKey concatenates the key columns with no separator. Any absent
// component makes the key absent.
func concatKey(t *Table, cols []string) func(row []Value) Value {
	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i] = t.ColumnIndex(c)
	}
	return func(row []Value) Value {
		var b strings.Builder
		for _, i := range idx {
			if i < 0 || !row[i].Valid {
				return Null()
			}
			b.WriteString(row[i].String())
		}
		return Text(b.String())
	}
}
