package core

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// Role is the structural part a file plays in PK synthesis.
type Role string

const (
	RoleHeader         Role = "header"
	RoleDetail         Role = "detail"
	RoleLines          Role = "lines"
	RolePlots          Role = "plots"
	RoleBox            Role = "box"
	RoleBoxCollection  Role = "boxCollection"
	RoleStack          Role = "stack"
	RoleTrapCollection Role = "trapCollection"
	RolePits           Role = "pits"
	RolePitHorizons    Role = "pitHorizons"
)

// roleKeywords is the lowercase filename keyword of each role. "box." keeps
// BoxCollection exports out of the box role.
var roleKeywords = []struct {
	role    Role
	keyword string
}{
	{RoleHeader, "header"},
	{RoleDetail, "detail"},
	{RoleLines, "lines"},
	{RolePlots, "plots"},
	{RoleBox, "box."},
	{RoleBoxCollection, "boxcollection"},
	{RoleStack, "stack"},
	{RoleTrapCollection, "trapcollection"},
	{RolePits, "pits"},
	{RolePitHorizons, "pithorizons"},
}

// Resolved maps each role to its loaded table. Missing roles are absent keys.
type Resolved map[Role]*Table

// Has reports whether every given role resolved.
func (r Resolved) Has(roles ...Role) bool {
	for _, role := range roles {
		if r[role] == nil {
			return false
		}
	}
	return true
}

// Roles returns the resolved roles in declaration order.
func (r Resolved) Roles() []Role {
	var out []Role
	for _, rk := range roleKeywords {
		if r[rk.role] != nil {
			out = append(out, rk.role)
		}
	}
	return out
}

// ListCSV returns the .csv files at the root of fsys in lexical order.
func ListCSV(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("list data directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(path.Ext(e.Name()), ".csv") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Candidates filters a listing down to the files that may take part in an
// entity's hierarchy: its own files plus the shared Lines and Plots exports.
func Candidates(cfg EntityConfig, names []string) []string {
	match := cfg.Match()
	var out []string
	for _, n := range names {
		lower := strings.ToLower(n)
		if !strings.Contains(n, match) && !strings.Contains(lower, "lines") && !strings.Contains(lower, "plots") {
			continue
		}
		if excluded(lower, cfg.Exclude) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func excluded(lower string, subs []string) bool {
	for _, s := range subs {
		if strings.Contains(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// RoleFiles picks, for each role, the first candidate whose lowercase name
// contains the role keyword.
func RoleFiles(candidates []string) map[Role]string {
	out := make(map[Role]string)
	for _, rk := range roleKeywords {
		for _, n := range candidates {
			if strings.Contains(strings.ToLower(n), rk.keyword) {
				out[rk.role] = n
				break
			}
		}
	}
	return out
}

// Resolve scans the whole directory for the entity's structural files and
// loads one table per role. Roles without a file are left absent. A file that
// fails to load aborts resolution with an error wrapping ErrLoad.
func Resolve(fsys fs.FS, cfg EntityConfig, opts LoadOptions) (Resolved, error) {
	names, err := ListCSV(fsys)
	if err != nil {
		return nil, err
	}

	files := RoleFiles(Candidates(cfg, names))
	res := make(Resolved, len(files))
	loaded := make(map[string]*Table, len(files))
	for role, name := range files {
		if t, ok := loaded[name]; ok {
			res[role] = t
			continue
		}
		t, _, err := LoadFile(fsys, name, opts)
		if err != nil {
			return nil, fmt.Errorf("resolve %s role %s: %w", cfg.Name, role, err)
		}
		loaded[name] = t
		res[role] = t
	}
	return res, nil
}
