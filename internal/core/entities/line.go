package entities

import "github.com/JonMunkholm/dima-ingest/internal/core"

func init() {
	registerLineMethod("tblGap", "Canopy gap intercept")
	registerLineMethod("tblLPI", "Line-point intercept")
	registerLineMethod("tblSpecRich", "Species richness")
	registerLineMethod("tblPlantDen", "Plant density")
}

// registerLineMethod configures a method recorded per transect line: the
// header carries LineKey and FormDate, every child table joins on RecKey.
func registerLineMethod(name, label string) {
	core.Register(core.EntityConfig{
		Name:       name,
		Label:      label,
		SpatialKey: core.LineKeyColumn,
		DateColumn: "FormDate",
		JoinColumns: map[string]string{
			core.SubHeader:  core.RecKeyColumn,
			core.SubDetail:  core.RecKeyColumn,
			core.SubQuads:   core.RecKeyColumn,
			core.SubSpecies: core.RecKeyColumn,
		},
	})
}
