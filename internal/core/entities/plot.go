package entities

import "github.com/JonMunkholm/dima-ingest/internal/core"

func init() {
	registerPlotMethod("tblPlantProd", "Plant production")
	registerPlotMethod("tblSoilStab", "Soil stability")
	registerPlotMethod("tblQual", "Rangeland health indicators")
	registerSoilPits()
}

// registerPlotMethod configures a method recorded per plot.
func registerPlotMethod(name, label string) {
	core.Register(core.EntityConfig{
		Name:       name,
		Label:      label,
		SpatialKey: core.PlotKeyColumn,
		DateColumn: "FormDate",
		JoinColumns: map[string]string{
			core.SubHeader:    core.RecKeyColumn,
			core.SubDetail:    core.RecKeyColumn,
			core.SubCompYield: core.RecKeyColumn,
		},
	})
}

// registerSoilPits configures soil pit descriptions. "tblSoil" is also a
// prefix of the soil stability exports, which are excluded by name.
func registerSoilPits() {
	core.Register(core.EntityConfig{
		Name:       "tblSoil",
		Label:      "Soil pits",
		Exclude:    []string{"stab"},
		SpatialKey: core.PlotKeyColumn,
		DateColumn: "DateRecorded",
		JoinColumns: map[string]string{
			core.SubPits:        core.SoilKeyColumn,
			core.SubPitHorizons: core.SoilKeyColumn,
		},
	})
}
