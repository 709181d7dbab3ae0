package core

import (
	"testing"
	"testing/fstest"
)

// gapConfig and baseConfig mirror the registrations in package entities.
var (
	gapConfig = EntityConfig{
		Name:       "tblGap",
		SpatialKey: LineKeyColumn,
		DateColumn: "FormDate",
		JoinColumns: map[string]string{
			SubHeader: RecKeyColumn,
			SubDetail: RecKeyColumn,
		},
	}
	baseConfig = EntityConfig{
		Name:       EntityBase,
		FileMatch:  "tblGap",
		SpatialKey: LineKeyColumn,
		DateColumn: "FormDate",
		JoinColumns: map[string]string{
			SubLines: LineKeyColumn,
			SubPlots: PlotKeyColumn,
		},
	}
	soilConfig = EntityConfig{
		Name:       "tblSoil",
		Exclude:    []string{"stab"},
		SpatialKey: PlotKeyColumn,
		DateColumn: "DateRecorded",
		JoinColumns: map[string]string{
			SubPits:        SoilKeyColumn,
			SubPitHorizons: SoilKeyColumn,
		},
	}
	bsneConfig = EntityConfig{
		Name:       "tblBSNE_",
		SpatialKey: PlotKeyColumn,
		DateColumn: "collectDate",
		JoinColumns: map[string]string{
			SubBox:            StackIDColumn,
			SubBoxCollection:  BoxIDColumn,
			SubStack:          StackIDColumn,
			SubTrapCollection: StackIDColumn,
		},
	}
)

// useEntities replaces the registry with cfgs for the duration of the test.
func useEntities(t *testing.T, cfgs ...EntityConfig) {
	t.Helper()
	Clear()
	for _, c := range cfgs {
		Register(c)
	}
	t.Cleanup(Clear)
}

const (
	linesCSV = "PlotKey,LineKey,LineID,DateModified\n" +
		"P1,L1,1,01/01/23 00:00:00\n"
	plotsCSV = "PlotKey,SiteKey,PlotID,EstablishDate\n" +
		"P1,S1,Plot 1,12/15/22 00:00:00\n"
	gapHeaderCSV = "LineKey,RecKey,FormDate,Observer\n" +
		"L1,R1,01/02/23 00:00:00,Jo\n"
	gapDetailCSV = "RecKey,SeqNo,GapStart,GapEnd\n" +
		"R1,1,0,25\n" +
		"R1,2,40,70\n"
)

// siteAFiles is the four-file gap survey of a single plot.
func siteAFiles() fstest.MapFS {
	return fstest.MapFS{
		"SiteA_tblLines.csv":     {Data: []byte(linesCSV)},
		"SiteA_tblPlots.csv":     {Data: []byte(plotsCSV)},
		"SiteA_tblGapHeader.csv": {Data: []byte(gapHeaderCSV)},
		"SiteA_tblGapDetail.csv": {Data: []byte(gapDetailCSV)},
	}
}

// mustParse parses CSV text or fails the test.
func mustParse(t *testing.T, text string) *Table {
	t.Helper()
	tbl, _, err := Parse([]byte(text))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return tbl
}

// columnStrings renders a column for comparison; absent values are "<nil>".
func columnStrings(t *Table, name string) []string {
	i := t.ColumnIndex(name)
	if i < 0 {
		return nil
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		if !row[i].Valid {
			out[r] = "<nil>"
			continue
		}
		out[r] = row[i].String()
	}
	return out
}
