package core

import "fmt"

// Warning codes produced by propagation and validation.
const (
	CodeUnmatchedRows   = "JOIN001"
	CodeMissingJoin     = "JOIN002"
	CodeMissingKey      = "KEY001"
	CodeUnsupportedType = "RES003"
)

// Warning is a data-quality signal. It never blocks staged data.
type Warning struct {
	Entity   string
	SubTable string
	Code     string
	Message  string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %s/%s: %s", w.Code, w.Entity, w.SubTable, w.Message)
}

// Propagation reports what one Propagate call did.
type Propagation struct {
	Entity string
	// Deferred is true when nothing was joined because the entity has no PK
	// source yet, or never gets one.
	Deferred bool
	Attached map[string]AttachStats
	Warnings []Warning
}

// Propagate attaches PrimaryKey to every staged table of the entity that
// lacks one, by left-joining it to the entity's PK source on the sub-table's
// join column. Rows are never dropped. Already keyed tables are skipped, so a
// repeated call with no new files changes nothing. The Validator runs after
// the joins.
func (s *Store) Propagate(entity string) Propagation {
	p := Propagation{Entity: entity, Attached: make(map[string]AttachStats)}

	if entity == EntityNoPrimaryKey {
		p.Deferred = true
		return p
	}
	pk, ok := s.pkSources[entity]
	if !ok {
		p.Deferred = true
		return p
	}

	cfg, err := Lookup(entity)
	if err != nil {
		p.Warnings = append(p.Warnings, Warning{Entity: entity, Code: CodeUnsupportedType, Message: err.Error()})
		p.Warnings = append(p.Warnings, s.Validate(entity)...)
		return p
	}

	for _, e := range s.Entries(entity) {
		if e.Keyed() {
			continue
		}
		col, ok := cfg.JoinColumn(e.SubTable)
		if !ok {
			p.Warnings = append(p.Warnings, Warning{
				Entity: entity, SubTable: e.SubTable, Code: CodeMissingJoin,
				Message: "no join column configured for sub-table",
			})
			continue
		}
		keyed, stats, err := AttachColumn(e.Table, pk.Table, col, PrimaryKeyColumn)
		if err != nil {
			p.Warnings = append(p.Warnings, Warning{
				Entity: entity, SubTable: e.SubTable, Code: CodeMissingJoin, Message: err.Error(),
			})
			continue
		}
		e.Table = keyed
		p.Attached[e.SubTable] = stats

		if stats.Unmatched > 0 {
			p.Warnings = append(p.Warnings, Warning{
				Entity: entity, SubTable: e.SubTable, Code: CodeUnmatchedRows,
				Message: fmt.Sprintf("%d of %d rows have no PK source match on %s", stats.Unmatched, stats.Rows, col),
			})
		}
		if stats.Ambiguous > 0 {
			p.Warnings = append(p.Warnings, Warning{
				Entity: entity, SubTable: e.SubTable, Code: CodeUnmatchedRows,
				Message: fmt.Sprintf("%d %s values map to more than one key; first used", stats.Ambiguous, col),
			})
		}
	}

	p.Warnings = append(p.Warnings, s.Validate(entity)...)
	return p
}

// Validate returns one warning per staged table of the entity without a
// PrimaryKey column. The no-primary-key entity never warns. It does not
// modify the store.
func (s *Store) Validate(entity string) []Warning {
	if entity == EntityNoPrimaryKey {
		return nil
	}
	var out []Warning
	for _, e := range s.Entries(entity) {
		if e.Keyed() {
			continue
		}
		out = append(out, Warning{
			Entity: entity, SubTable: e.SubTable, Code: CodeMissingKey,
			Message: fmt.Sprintf("table %s_%s is missing %s", entity, e.SubTable, PrimaryKeyColumn),
		})
	}
	return out
}

// UniqueWarnings drops repeats, keeping the first occurrence. Each file of an
// entity re-runs the Validator, so the same KEY001 or JOIN002 line recurs.
func UniqueWarnings(ws []Warning) []Warning {
	seen := make(map[Warning]bool, len(ws))
	out := make([]Warning, 0, len(ws))
	for _, w := range ws {
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
