package core

import "sort"

// Entry is a table staged under (entity, sub-table).
type Entry struct {
	Entity   string
	SubTable string
	// Name is the table name used for the sink relation, e.g. tblGapDetail.
	Name  string
	Table *Table
	// Files lists the exports merged into this entry, in arrival order.
	Files []string
}

// Keyed reports whether the entry carries a PrimaryKey column.
func (e *Entry) Keyed() bool {
	return e.Table.HasColumn(PrimaryKeyColumn)
}

// Store holds the tables of one ingestion run until they are flushed, and
// each entity type's PK source. A Store is owned by a single caller and is
// not safe for concurrent use.
type Store struct {
	entries   map[string]map[string]*Entry
	pkSources map[string]*PKSource
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		entries:   make(map[string]map[string]*Entry),
		pkSources: make(map[string]*PKSource),
	}
}

// Stage adds a loaded table. A second table for the same (entity, sub-table)
// is appended by column name, and any key already attached is dropped so the
// merged rows are keyed together.
func (s *Store) Stage(c Classification, file string, t *Table) *Entry {
	subs, ok := s.entries[c.Entity]
	if !ok {
		subs = make(map[string]*Entry)
		s.entries[c.Entity] = subs
	}

	e, ok := subs[c.SubTable]
	if !ok {
		e = &Entry{Entity: c.Entity, SubTable: c.SubTable, Name: c.Name, Table: t, Files: []string{file}}
		subs[c.SubTable] = e
		return e
	}

	existing := e.Table
	if existing.HasColumn(PrimaryKeyColumn) {
		existing = existing.Drop(PrimaryKeyColumn)
	}
	incoming := t
	if incoming.HasColumn(PrimaryKeyColumn) {
		incoming = incoming.Drop(PrimaryKeyColumn)
	}
	e.Table = existing.Union(incoming)
	e.Files = append(e.Files, file)
	return e
}

// Entry returns the staged entry for (entity, sub-table).
func (s *Store) Entry(entity, subTable string) (*Entry, bool) {
	e, ok := s.entries[entity][subTable]
	return e, ok
}

// Entries returns the entity's entries sorted by sub-table.
func (s *Store) Entries(entity string) []*Entry {
	subs := s.entries[entity]
	out := make([]*Entry, 0, len(subs))
	for _, e := range subs {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubTable < out[j].SubTable })
	return out
}

// Entities returns the staged entity types in sorted order.
func (s *Store) Entities() []string {
	out := make([]string, 0, len(s.entries))
	for entity := range s.entries {
		out = append(out, entity)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of staged entries.
func (s *Store) Len() int {
	n := 0
	for _, subs := range s.entries {
		n += len(subs)
	}
	return n
}

// Remove discards a staged entry.
func (s *Store) Remove(entity, subTable string) {
	subs, ok := s.entries[entity]
	if !ok {
		return
	}
	delete(subs, subTable)
	if len(subs) == 0 {
		delete(s.entries, entity)
	}
}

// PKSource returns the cached PK source for an entity type.
func (s *Store) PKSource(entity string) (*PKSource, bool) {
	p, ok := s.pkSources[entity]
	return p, ok
}

// SetPKSource caches p for its entity type, replacing any previous source.
func (s *Store) SetPKSource(p *PKSource) {
	s.pkSources[p.Entity] = p
}
