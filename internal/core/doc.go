// Package core reconstructs primary keys for DIMA field-survey exports.
//
// DIMA writes one CSV per table, named <source>_<table>.csv. The exports
// never carry a consistent primary key, so this package rebuilds one per
// logical record and attaches it to every sibling table of a survey method.
//
// # Pipeline
//
// Files are fed one at a time, in any order:
//
//  1. [Classify] maps a filename to (source, entity type, sub-table type).
//  2. The file is loaded ([LoadFile]) and staged in a caller-owned [Store].
//  3. On first encounter of an entity type, [Resolve] scans the whole
//     directory for the entity's structural files and [BuildPKSource] joins
//     them with the Lines/Plots spatial context into a PK source. A failed
//     build is not cached; the next file of that entity retries.
//  4. [Store.Propagate] left-joins every unkeyed staged table of the entity
//     to its PK source, then [Store.Validate] reports tables still unkeyed.
//
// [Ingestor] sequences these steps over a directory and hands finished
// tables to a [Sink].
//
// # Entity Registry
//
// Entity types are configured at init time using [Register]:
//
//	core.Register(core.EntityConfig{
//	    Name:       "tblGap",
//	    SpatialKey: core.LineKeyColumn,
//	    DateColumn: "FormDate",
//	    JoinColumns: map[string]string{
//	        core.SubHeader: core.RecKeyColumn,
//	        core.SubDetail: core.RecKeyColumn,
//	    },
//	})
//
// The configurations live in package entities.
//
// # Join Recipes
//
// The structural join of an entity is the first applicable of [Recipes]:
// header⋈detail on RecKey, stack⋈trap collection on StackID,
// box⋈stack⋈box collection on StackID then BoxID, pits⋈pit horizons on
// SoilKey.
//
// # Error Handling
//
// Nothing here is fatal to a run. Failures wrap sentinel errors and
// [Diagnose] maps them to stable codes (CLS001, RES001-RES003, JOIN001,
// JOIN002, KEY001, LOAD001) for log output.
package core
