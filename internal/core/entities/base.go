package entities

import "github.com/JonMunkholm/dima-ingest/internal/core"

func init() {
	registerBase()
}

// registerBase configures the spatial context tables. Lines and Plots are
// keyed from the gap intercept hierarchy, the method every DIMA project
// carries.
func registerBase() {
	core.Register(core.EntityConfig{
		Name:       core.EntityBase,
		Label:      "Spatial context (Lines, Plots)",
		FileMatch:  "tblGap",
		SpatialKey: core.LineKeyColumn,
		DateColumn: "FormDate",
		JoinColumns: map[string]string{
			core.SubLines: core.LineKeyColumn,
			core.SubPlots: core.PlotKeyColumn,
		},
	})
}
