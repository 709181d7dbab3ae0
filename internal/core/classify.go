package core

import (
	"fmt"
	"path"
	"strings"
)

// Entity types with fixed meaning.
const (
	// EntityBase groups the shared spatial context tables (Lines, Plots).
	EntityBase = "Base"
	// EntityNoPrimaryKey marks reference tables that are staged but never keyed.
	EntityNoPrimaryKey = "NoPrimaryKey"
)

// Sub-table types.
const (
	SubHeader         = "Header"
	SubDetail         = "Detail"
	SubCompYield      = "CompYield"
	SubBox            = "Box"
	SubBoxCollection  = "BoxCollection"
	SubStack          = "Stack"
	SubTrapCollection = "TrapCollection"
	SubPits           = "Pits"
	SubPitHorizons    = "PitHorizons"
	SubQuads          = "Quads"
	SubSpecies        = "Species"
	SubLines          = "Lines"
	SubPlots          = "Plots"
)

// Classification is what a filename says about its table.
type Classification struct {
	Source   string // site or crew prefix before the first underscore
	Entity   string
	SubTable string
	Name     string // table name without source prefix or extension
}

// Key returns "entity/subTable".
func (c Classification) Key() string {
	return c.Entity + "/" + c.SubTable
}

// subTableSuffixes is matched in order; the first suffix that ends the table
// name wins.
var subTableSuffixes = []string{
	SubHeader,
	SubDetail,
	SubCompYield,
	SubBox,
	SubBoxCollection,
	SubStack,
	SubTrapCollection,
	SubPits,
	SubPitHorizons,
	SubQuads,
	SubSpecies,
}

// speciesPrefix names are never suffix-stripped: tblSpecies and
// tblSpeciesGeneric would otherwise read as "tbl" + Species.
const speciesPrefix = "tblSpecies"

// specialTables map a remaining table name to a fixed classification,
// checked after suffix stripping.
var specialTables = map[string][2]string{
	"tblLines":            {EntityBase, SubLines},
	"tblPlots":            {EntityBase, SubPlots},
	"tblPlotNotes":        {EntityNoPrimaryKey, "PlotNotes"},
	"tblPlotHistory":      {EntityNoPrimaryKey, "PlotHistory"},
	"tblSites":            {EntityNoPrimaryKey, "Sites"},
	"tblSpecies":          {EntityNoPrimaryKey, "Species"},
	"tblSpeciesGeneric":   {EntityNoPrimaryKey, "SpeciesGeneric"},
	"tblESDRockFragments": {EntityNoPrimaryKey, "tblESDRockFragments"},
}

// Classify maps a filename like "SiteA_tblGapDetail.csv" to its source,
// entity type and sub-table type. It is pure: the result depends only on
// the name.
func Classify(fileName string) (Classification, error) {
	base := path.Base(strings.ReplaceAll(fileName, `\`, "/"))
	base = strings.TrimSuffix(base, path.Ext(base))

	source, table, ok := strings.Cut(base, "_")
	if !ok || source == "" || table == "" {
		return Classification{}, fmt.Errorf("%w: %q has no <source>_<table> delimiter", ErrUnclassifiable, fileName)
	}

	c := Classification{Source: source, Name: table}

	remainder := table
	if !strings.Contains(table, speciesPrefix) {
		for _, suffix := range subTableSuffixes {
			if strings.HasSuffix(table, suffix) {
				c.SubTable = suffix
				remainder = strings.TrimSuffix(table, suffix)
				break
			}
		}
	}

	if fixed, ok := specialTables[remainder]; ok {
		c.Entity, c.SubTable = fixed[0], fixed[1]
		return c, nil
	}

	if c.SubTable == "" || remainder == "" {
		return Classification{}, fmt.Errorf("%w: %q matches no known sub-table", ErrUnclassifiable, fileName)
	}
	c.Entity = remainder
	return c, nil
}
