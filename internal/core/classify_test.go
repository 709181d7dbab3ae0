package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		file string
		want Classification
	}{
		{"SiteA_tblGapHeader.csv", Classification{Source: "SiteA", Entity: "tblGap", SubTable: SubHeader, Name: "tblGapHeader"}},
		{"SiteA_tblGapDetail.csv", Classification{Source: "SiteA", Entity: "tblGap", SubTable: SubDetail, Name: "tblGapDetail"}},
		{"SiteA_tblLPIDetail.csv", Classification{Source: "SiteA", Entity: "tblLPI", SubTable: SubDetail, Name: "tblLPIDetail"}},
		{"SiteA_tblPlantProdCompYield.csv", Classification{Source: "SiteA", Entity: "tblPlantProd", SubTable: SubCompYield, Name: "tblPlantProdCompYield"}},
		{"SiteA_tblPlantDenQuads.csv", Classification{Source: "SiteA", Entity: "tblPlantDen", SubTable: SubQuads, Name: "tblPlantDenQuads"}},
		{"SiteA_tblPlantDenSpecies.csv", Classification{Source: "SiteA", Entity: "tblPlantDen", SubTable: SubSpecies, Name: "tblPlantDenSpecies"}},
		{"SiteA_tblSoilPits.csv", Classification{Source: "SiteA", Entity: "tblSoil", SubTable: SubPits, Name: "tblSoilPits"}},
		{"SiteA_tblSoilPitHorizons.csv", Classification{Source: "SiteA", Entity: "tblSoil", SubTable: SubPitHorizons, Name: "tblSoilPitHorizons"}},
		{"SiteA_tblBSNE_Box.csv", Classification{Source: "SiteA", Entity: "tblBSNE_", SubTable: SubBox, Name: "tblBSNE_Box"}},
		{"SiteA_tblBSNE_BoxCollection.csv", Classification{Source: "SiteA", Entity: "tblBSNE_", SubTable: SubBoxCollection, Name: "tblBSNE_BoxCollection"}},
		{"SiteA_tblBSNE_Stack.csv", Classification{Source: "SiteA", Entity: "tblBSNE_", SubTable: SubStack, Name: "tblBSNE_Stack"}},
		{"SiteA_tblBSNE_TrapCollection.csv", Classification{Source: "SiteA", Entity: "tblBSNE_", SubTable: SubTrapCollection, Name: "tblBSNE_TrapCollection"}},
		{"SiteA_tblLines.csv", Classification{Source: "SiteA", Entity: EntityBase, SubTable: SubLines, Name: "tblLines"}},
		{"SiteA_tblPlots.csv", Classification{Source: "SiteA", Entity: EntityBase, SubTable: SubPlots, Name: "tblPlots"}},
		{"SiteA_tblPlotNotes.csv", Classification{Source: "SiteA", Entity: EntityNoPrimaryKey, SubTable: "PlotNotes", Name: "tblPlotNotes"}},
		{"SiteA_tblPlotHistory.csv", Classification{Source: "SiteA", Entity: EntityNoPrimaryKey, SubTable: "PlotHistory", Name: "tblPlotHistory"}},
		{"SiteA_tblSites.csv", Classification{Source: "SiteA", Entity: EntityNoPrimaryKey, SubTable: "Sites", Name: "tblSites"}},
		{"SiteA_tblSpecies.csv", Classification{Source: "SiteA", Entity: EntityNoPrimaryKey, SubTable: "Species", Name: "tblSpecies"}},
		{"SiteA_tblSpeciesGeneric.csv", Classification{Source: "SiteA", Entity: EntityNoPrimaryKey, SubTable: "SpeciesGeneric", Name: "tblSpeciesGeneric"}},
		{"SiteA_tblESDRockFragments.csv", Classification{Source: "SiteA", Entity: EntityNoPrimaryKey, SubTable: "tblESDRockFragments", Name: "tblESDRockFragments"}},
		{"data/2023/SiteB_tblQualHeader.CSV", Classification{Source: "SiteB", Entity: "tblQual", SubTable: SubHeader, Name: "tblQualHeader"}},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got, err := Classify(tt.file)
			if err != nil {
				t.Fatalf("Classify(%q) error = %v", tt.file, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Classify(%q) mismatch (-want +got):\n%s", tt.file, diff)
			}
		})
	}
}

func TestClassify_Unclassifiable(t *testing.T) {
	tests := []string{
		"tblGapHeader.csv",
		"_tblGapHeader.csv",
		"SiteA_.csv",
		"SiteA_tblUnknownThing.csv",
		"SiteA_Header.csv",
		"readme.txt",
	}

	for _, file := range tests {
		t.Run(file, func(t *testing.T) {
			_, err := Classify(file)
			if !errors.Is(err, ErrUnclassifiable) {
				t.Errorf("Classify(%q) error = %v, want ErrUnclassifiable", file, err)
			}
			if Code(err) != "CLS001" {
				t.Errorf("Code() = %q, want CLS001", Code(err))
			}
		})
	}
}

func TestClassify_Pure(t *testing.T) {
	files := []string{"SiteA_tblGapHeader.csv", "SiteA_tblBSNE_BoxCollection.csv", "SiteA_tblSpecies.csv"}
	for _, f := range files {
		first, err := Classify(f)
		if err != nil {
			t.Fatalf("Classify(%q) error = %v", f, err)
		}
		for i := 0; i < 3; i++ {
			again, _ := Classify(f)
			if again != first {
				t.Errorf("Classify(%q) = %+v on repeat, want %+v", f, again, first)
			}
		}
	}
}

// The first matching suffix wins: reordering suffixes that cannot both match
// a name does not change the result.
func TestClassify_SuffixOrderStable(t *testing.T) {
	saved := append([]string(nil), subTableSuffixes...)
	t.Cleanup(func() { subTableSuffixes = saved })

	files := []string{"SiteA_tblGapDetail.csv", "SiteA_tblBSNE_TrapCollection.csv", "SiteA_tblSoilPitHorizons.csv"}
	want := make([]Classification, len(files))
	for i, f := range files {
		want[i], _ = Classify(f)
	}

	for i, j := 0, len(subTableSuffixes)-1; i < j; i, j = i+1, j-1 {
		subTableSuffixes[i], subTableSuffixes[j] = subTableSuffixes[j], subTableSuffixes[i]
	}
	for i, f := range files {
		got, _ := Classify(f)
		if got != want[i] {
			t.Errorf("Classify(%q) with reversed suffixes = %+v, want %+v", f, got, want[i])
		}
	}
}
