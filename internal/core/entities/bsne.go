package entities

import "github.com/JonMunkholm/dima-ingest/internal/core"

func init() {
	registerBSNE()
}

// registerBSNE configures the dust deposition traps. Classify leaves the
// trailing underscore of "tblBSNE_Box" on the entity name. Box joins on
// StackID because the stack-trap key source carries no BoxID.
func registerBSNE() {
	core.Register(core.EntityConfig{
		Name:       "tblBSNE_",
		Label:      "BSNE dust deposition",
		SpatialKey: core.PlotKeyColumn,
		DateColumn: "collectDate",
		JoinColumns: map[string]string{
			core.SubBox:            core.StackIDColumn,
			core.SubBoxCollection:  core.BoxIDColumn,
			core.SubStack:          core.StackIDColumn,
			core.SubTrapCollection: core.StackIDColumn,
		},
	})
}
