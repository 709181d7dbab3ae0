package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func gapClass(sub string) Classification {
	return Classification{Source: "SiteA", Entity: "tblGap", SubTable: sub, Name: "tblGap" + sub}
}

// gapStore stages the gap header and detail with a built PK source.
func gapStore(t *testing.T) *Store {
	t.Helper()
	useEntities(t, gapConfig)

	s := NewStore()
	s.Stage(gapClass(SubHeader), "SiteA_tblGapHeader.csv", mustParse(t, gapHeaderCSV))
	s.Stage(gapClass(SubDetail), "SiteA_tblGapDetail.csv", mustParse(t, gapDetailCSV))

	r := spatialRoles(t)
	r[RoleHeader] = mustParse(t, gapHeaderCSV)
	r[RoleDetail] = mustParse(t, gapDetailCSV)
	pk, err := BuildPKSource(gapConfig, r)
	if err != nil {
		t.Fatalf("BuildPKSource() error = %v", err)
	}
	s.SetPKSource(pk)
	return s
}

func TestPropagate(t *testing.T) {
	s := gapStore(t)

	p := s.Propagate("tblGap")
	if p.Deferred {
		t.Fatal("Propagate() deferred with a PK source present")
	}
	if len(p.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", p.Warnings)
	}

	detail, _ := s.Entry("tblGap", SubDetail)
	if detail.Table.Len() != 2 {
		t.Errorf("detail rows = %d, want 2", detail.Table.Len())
	}
	if diff := cmp.Diff([]string{"P12023-01-02", "P12023-01-02"}, columnStrings(detail.Table, PrimaryKeyColumn)); diff != "" {
		t.Errorf("detail PrimaryKey mismatch (-want +got):\n%s", diff)
	}
	header, _ := s.Entry("tblGap", SubHeader)
	if diff := cmp.Diff([]string{"P12023-01-02"}, columnStrings(header.Table, PrimaryKeyColumn)); diff != "" {
		t.Errorf("header PrimaryKey mismatch (-want +got):\n%s", diff)
	}
	want := map[string]AttachStats{
		SubDetail: {Rows: 2, Matched: 2},
		SubHeader: {Rows: 1, Matched: 1},
	}
	if diff := cmp.Diff(want, p.Attached); diff != "" {
		t.Errorf("Attached mismatch (-want +got):\n%s", diff)
	}
}

func TestPropagate_Idempotent(t *testing.T) {
	s := gapStore(t)
	s.Propagate("tblGap")
	detail, _ := s.Entry("tblGap", SubDetail)
	before := detail.Table

	p := s.Propagate("tblGap")
	if len(p.Attached) != 0 {
		t.Errorf("second Propagate() attached %v, want nothing", p.Attached)
	}
	if len(p.Warnings) != 0 {
		t.Errorf("second Propagate() warnings = %v", p.Warnings)
	}
	if detail.Table != before {
		t.Error("second Propagate() replaced an already keyed table")
	}
}

func TestPropagate_Deferred(t *testing.T) {
	useEntities(t, gapConfig)
	s := NewStore()
	s.Stage(gapClass(SubDetail), "SiteA_tblGapDetail.csv", mustParse(t, gapDetailCSV))

	p := s.Propagate("tblGap")
	if !p.Deferred {
		t.Error("Propagate() without a PK source should defer")
	}
	if len(p.Warnings) != 0 {
		t.Errorf("deferred Propagate() warnings = %v, want none", p.Warnings)
	}
	if got := s.Validate("tblGap"); len(got) != 1 || got[0].Code != CodeMissingKey {
		t.Errorf("Validate() = %v, want one KEY001", got)
	}
}

func TestPropagate_NoPrimaryKeyEntity(t *testing.T) {
	useEntities(t)
	s := NewStore()
	c := Classification{Source: "SiteA", Entity: EntityNoPrimaryKey, SubTable: "Sites", Name: "tblSites"}
	s.Stage(c, "SiteA_tblSites.csv", mustParse(t, "SiteKey,SiteName\nS1,North\n"))

	p := s.Propagate(EntityNoPrimaryKey)
	if !p.Deferred || len(p.Warnings) != 0 {
		t.Errorf("Propagate(sentinel) = %+v, want deferred with no warnings", p)
	}
	if got := s.Validate(EntityNoPrimaryKey); got != nil {
		t.Errorf("Validate(sentinel) = %v, want nil", got)
	}
	e, _ := s.Entry(EntityNoPrimaryKey, "Sites")
	if e.Keyed() {
		t.Error("sentinel table gained a PrimaryKey")
	}
}

func TestPropagate_UnmatchedRowsKept(t *testing.T) {
	useEntities(t, gapConfig)
	s := NewStore()
	s.Stage(gapClass(SubDetail), "SiteA_tblGapDetail.csv", mustParse(t, gapDetailCSV+"R9,1,0,5\n"))

	r := spatialRoles(t)
	r[RoleHeader] = mustParse(t, gapHeaderCSV)
	r[RoleDetail] = mustParse(t, gapDetailCSV)
	pk, err := BuildPKSource(gapConfig, r)
	if err != nil {
		t.Fatalf("BuildPKSource() error = %v", err)
	}
	s.SetPKSource(pk)

	p := s.Propagate("tblGap")
	detail, _ := s.Entry("tblGap", SubDetail)
	if diff := cmp.Diff([]string{"P12023-01-02", "P12023-01-02", "<nil>"}, columnStrings(detail.Table, PrimaryKeyColumn)); diff != "" {
		t.Errorf("PrimaryKey mismatch (-want +got):\n%s", diff)
	}
	if len(p.Warnings) != 1 || p.Warnings[0].Code != CodeUnmatchedRows {
		t.Errorf("Warnings = %v, want one JOIN001", p.Warnings)
	}
}

func TestPropagate_UnconfiguredSubTable(t *testing.T) {
	s := gapStore(t)
	s.Stage(gapClass(SubSpecies), "SiteA_tblGapSpecies.csv", mustParse(t, "RecKey,Species\nR1,ARTR2\n"))

	p := s.Propagate("tblGap")
	var codes []string
	for _, w := range p.Warnings {
		codes = append(codes, w.Code)
	}
	if diff := cmp.Diff([]string{CodeMissingJoin, CodeMissingKey}, codes); diff != "" {
		t.Errorf("warning codes mismatch (-want +got):\n%s", diff)
	}
	if p.Warnings[1].Message != "table tblGap_Species is missing PrimaryKey" {
		t.Errorf("KEY001 message = %q", p.Warnings[1].Message)
	}
}

func TestUniqueWarnings(t *testing.T) {
	s := gapStore(t)
	s.Stage(gapClass(SubSpecies), "SiteA_tblGapSpecies.csv", mustParse(t, "RecKey,Species\nR1,ARTR2\n"))

	// A second file of the entity validates the species table again.
	first := s.Propagate("tblGap").Warnings
	all := append(append(append([]Warning{}, first...), s.Propagate("tblGap").Warnings...), s.Validate("tblGap")...)

	got := UniqueWarnings(all)
	if diff := cmp.Diff(first, got); diff != "" {
		t.Errorf("UniqueWarnings mismatch (-want +got):\n%s", diff)
	}
	if len(UniqueWarnings(nil)) != 0 {
		t.Error("UniqueWarnings(nil) not empty")
	}
}

func TestStage_RestageDropsKey(t *testing.T) {
	s := gapStore(t)
	s.Propagate("tblGap")

	e := s.Stage(gapClass(SubDetail), "SiteB_tblGapDetail.csv", mustParse(t, "RecKey,SeqNo,GapStart,GapEnd\nR1,3,80,90\n"))
	if e.Keyed() {
		t.Fatal("merged entry kept a stale PrimaryKey")
	}
	if e.Table.Len() != 3 {
		t.Errorf("merged rows = %d, want 3", e.Table.Len())
	}
	if diff := cmp.Diff([]string{"SiteA_tblGapDetail.csv", "SiteB_tblGapDetail.csv"}, e.Files); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}

	s.Propagate("tblGap")
	if diff := cmp.Diff([]string{"P12023-01-02", "P12023-01-02", "P12023-01-02"}, columnStrings(e.Table, PrimaryKeyColumn)); diff != "" {
		t.Errorf("PrimaryKey after re-propagation (-want +got):\n%s", diff)
	}
}

func TestStore_Bookkeeping(t *testing.T) {
	s := gapStore(t)
	s.Stage(Classification{Entity: EntityBase, SubTable: SubLines, Name: "tblLines"}, "SiteA_tblLines.csv", mustParse(t, linesCSV))

	if diff := cmp.Diff([]string{EntityBase, "tblGap"}, s.Entities()); diff != "" {
		t.Errorf("Entities() mismatch (-want +got):\n%s", diff)
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
	s.Remove(EntityBase, SubLines)
	s.Remove("tblMissing", SubLines)
	if diff := cmp.Diff([]string{"tblGap"}, s.Entities()); diff != "" {
		t.Errorf("Entities() after Remove mismatch (-want +got):\n%s", diff)
	}
	if _, ok := s.PKSource("tblGap"); !ok {
		t.Error("PKSource(tblGap) missing")
	}
}
