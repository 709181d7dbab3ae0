package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Well-known key columns of the DIMA schema.
const (
	PlotKeyColumn    = "PlotKey"
	LineKeyColumn    = "LineKey"
	RecKeyColumn     = "RecKey"
	StackIDColumn    = "StackID"
	BoxIDColumn      = "BoxID"
	SoilKeyColumn    = "SoilKey"
	PrimaryKeyColumn = "PrimaryKey"
)

// EntityConfig is the static description of one entity type: which files
// form its hierarchy, how they join to the spatial context, which date
// completes its primary key and how each sub-table joins back to the key.
type EntityConfig struct {
	// Name is the entity type as produced by Classify, e.g. "tblGap".
	Name string

	// Label is a human readable description.
	Label string

	// FileMatch selects the entity's structural files by substring.
	// Empty means Name. Base uses tblGap here: its header and detail role is
	// served by the gap intercept export.
	FileMatch string

	// Exclude drops candidate files containing any of these substrings
	// (case-insensitive). tblSoil excludes "stab" so soil stability exports
	// are not mistaken for soil pits.
	Exclude []string

	// SpatialKey joins the structural result to Lines⋈Plots:
	// LineKey for line-based methods, PlotKey for plot-based ones.
	SpatialKey string

	// DateColumn is concatenated after PlotKey to form PrimaryKey.
	DateColumn string

	// JoinColumns maps sub-table type to the column it joins the PK source on.
	JoinColumns map[string]string
}

// Match returns the filename substring that selects this entity's files.
func (c EntityConfig) Match() string {
	if c.FileMatch != "" {
		return c.FileMatch
	}
	return c.Name
}

// KeyColumns returns the ordered columns concatenated into PrimaryKey.
func (c EntityConfig) KeyColumns() []string {
	return []string{PlotKeyColumn, c.DateColumn}
}

// JoinColumn returns the propagation join column for a sub-table.
func (c EntityConfig) JoinColumn(subTable string) (string, bool) {
	col, ok := c.JoinColumns[subTable]
	return col, ok
}

// Validate reports configuration mistakes. An entity without a date column
// is rejected rather than defaulted.
func (c EntityConfig) Validate() error {
	var errs []string
	if c.Name == "" {
		errs = append(errs, "name is required")
	}
	if c.Name == EntityNoPrimaryKey {
		errs = append(errs, EntityNoPrimaryKey+" is reserved")
	}
	if c.SpatialKey != LineKeyColumn && c.SpatialKey != PlotKeyColumn {
		errs = append(errs, fmt.Sprintf("spatial key %q must be %s or %s", c.SpatialKey, LineKeyColumn, PlotKeyColumn))
	}
	if c.DateColumn == "" {
		errs = append(errs, "date column is required")
	}
	if len(c.JoinColumns) == 0 {
		errs = append(errs, "at least one sub-table join column is required")
	}
	for sub, col := range c.JoinColumns {
		if col == "" {
			errs = append(errs, fmt.Sprintf("join column for %s is empty", sub))
		}
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("entity %q: %s", c.Name, strings.Join(errs, "; "))
	}
	return nil
}

var (
	registry   = make(map[string]EntityConfig)
	registryMu sync.RWMutex
)

// Register adds an entity configuration.
// Panics if the configuration is invalid or the name is already registered.
func Register(cfg EntityConfig) {
	if err := cfg.Validate(); err != nil {
		panic(err.Error())
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[cfg.Name]; exists {
		panic(fmt.Sprintf("entity already registered: %s", cfg.Name))
	}
	registry[cfg.Name] = cfg
}

// Lookup returns the configuration for an entity type. The error wraps
// ErrUnsupportedEntity when the type is not registered.
func Lookup(entity string) (EntityConfig, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	cfg, ok := registry[entity]
	if !ok {
		return EntityConfig{}, fmt.Errorf("%w: %s", ErrUnsupportedEntity, entity)
	}
	return cfg, nil
}

// All returns every registered configuration sorted by name.
func All() []EntityConfig {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]EntityConfig, 0, len(registry))
	for _, cfg := range registry {
		result = append(result, cfg)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// EntityCount returns the number of registered entity types.
func EntityCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered entities.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]EntityConfig)
}
