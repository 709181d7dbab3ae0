package core

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

var listing = []string{
	"SiteA_tblBSNE_Box.csv",
	"SiteA_tblBSNE_BoxCollection.csv",
	"SiteA_tblBSNE_Stack.csv",
	"SiteA_tblBSNE_TrapCollection.csv",
	"SiteA_tblGapDetail.csv",
	"SiteA_tblGapHeader.csv",
	"SiteA_tblLPIHeader.csv",
	"SiteA_tblLines.csv",
	"SiteA_tblPlotNotes.csv",
	"SiteA_tblPlots.csv",
	"SiteA_tblSoilPitHorizons.csv",
	"SiteA_tblSoilPits.csv",
	"SiteA_tblSoilStabDetail.csv",
	"SiteA_tblSoilStabHeader.csv",
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		name string
		cfg  EntityConfig
		want []string
	}{
		{
			name: "gap keeps own files and spatial context",
			cfg:  gapConfig,
			want: []string{"SiteA_tblGapDetail.csv", "SiteA_tblGapHeader.csv", "SiteA_tblLines.csv", "SiteA_tblPlots.csv"},
		},
		{
			name: "base is served by gap files",
			cfg:  baseConfig,
			want: []string{"SiteA_tblGapDetail.csv", "SiteA_tblGapHeader.csv", "SiteA_tblLines.csv", "SiteA_tblPlots.csv"},
		},
		{
			name: "soil excludes stability exports",
			cfg:  soilConfig,
			want: []string{"SiteA_tblLines.csv", "SiteA_tblPlots.csv", "SiteA_tblSoilPitHorizons.csv", "SiteA_tblSoilPits.csv"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Candidates(tt.cfg, listing)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Candidates() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRoleFiles(t *testing.T) {
	got := RoleFiles(Candidates(bsneConfig, listing))
	want := map[Role]string{
		RoleBox:            "SiteA_tblBSNE_Box.csv",
		RoleBoxCollection:  "SiteA_tblBSNE_BoxCollection.csv",
		RoleStack:          "SiteA_tblBSNE_Stack.csv",
		RoleTrapCollection: "SiteA_tblBSNE_TrapCollection.csv",
		RoleLines:          "SiteA_tblLines.csv",
		RolePlots:          "SiteA_tblPlots.csv",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RoleFiles() mismatch (-want +got):\n%s", diff)
	}

	soil := RoleFiles(Candidates(soilConfig, listing))
	if soil[RolePits] != "SiteA_tblSoilPits.csv" || soil[RolePitHorizons] != "SiteA_tblSoilPitHorizons.csv" {
		t.Errorf("RoleFiles(soil) = %v", soil)
	}
	if _, ok := soil[RoleHeader]; ok {
		t.Errorf("RoleFiles(soil) picked a header from an excluded file: %v", soil)
	}
}

func TestResolve(t *testing.T) {
	fsys := siteAFiles()
	fsys["notes.txt"] = &fstest.MapFile{Data: []byte("not a table")}

	res, err := Resolve(fsys, gapConfig, LoadOptions{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	wantRoles := []Role{RoleHeader, RoleDetail, RoleLines, RolePlots}
	if diff := cmp.Diff(wantRoles, res.Roles()); diff != "" {
		t.Errorf("Roles() mismatch (-want +got):\n%s", diff)
	}
	if res.Has(RoleBox) {
		t.Error("Has(box) = true for a gap survey")
	}
	if res[RoleDetail].Len() != 2 {
		t.Errorf("detail rows = %d, want 2", res[RoleDetail].Len())
	}
}

func TestResolve_MissingRolesAreAbsent(t *testing.T) {
	fsys := fstest.MapFS{
		"SiteA_tblGapDetail.csv": {Data: []byte(gapDetailCSV)},
	}

	res, err := Resolve(fsys, gapConfig, LoadOptions{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if diff := cmp.Diff([]Role{RoleDetail}, res.Roles()); diff != "" {
		t.Errorf("Roles() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_LoadFailure(t *testing.T) {
	fsys := siteAFiles()
	fsys["SiteA_tblLines.csv"] = &fstest.MapFile{Data: []byte("")}

	_, err := Resolve(fsys, gapConfig, LoadOptions{})
	if !errors.Is(err, ErrLoad) {
		t.Errorf("Resolve() error = %v, want ErrLoad", err)
	}
}
