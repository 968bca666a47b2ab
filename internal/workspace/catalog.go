// Package workspace holds the active-workspace model: the catalog, the role
// permission matrix, consent and mode toggles, and the metric scoping that
// gives each workspace its own view of the shared dataset.
package workspace

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/matthewbaird/leadpilot/internal/types"
)

// catalogSchema constrains externally supplied catalogs.
const catalogSchema = `
#Workspace: {
	id:                string & =~"^[a-z0-9-]+$"
	name:              string & !=""
	avatar:            string & =~"^[A-Z0-9]{1,3}$"
	color:             string
	role:              "Owner" | "Admin" | "Agent" | "Viewer"
	metric_multiplier: number & >0
}

workspaces: [#Workspace, ...#Workspace]
`

// DefaultCatalog returns the built-in workspaces. The first entry is the
// initial workspace when nothing valid is stored.
func DefaultCatalog() []types.Workspace {
	return []types.Workspace{
		{ID: "northwind", Name: "Northwind Health", Avatar: "NH", ColorToken: "from-indigo-500 to-cyan-500", Role: types.RoleOwner, MetricMultiplier: 1.16},
		{ID: "brightline", Name: "Brightline Ops", Avatar: "BO", ColorToken: "from-emerald-500 to-cyan-500", Role: types.RoleAdmin, MetricMultiplier: 0.92},
		{ID: "atlas", Name: "Atlas Ventures", Avatar: "AV", ColorToken: "from-amber-500 to-orange-500", Role: types.RoleViewer, MetricMultiplier: 1.34},
		{ID: "juniper", Name: "Juniper Labs", Avatar: "JL", ColorToken: "from-violet-500 to-indigo-500", Role: types.RoleAgent, MetricMultiplier: 1.04},
	}
}

// LoadCatalog reads a CUE (or JSON) catalog file.
func LoadCatalog(path string) ([]types.Workspace, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return ParseCatalog(path, src)
}

// ParseCatalog validates src against the catalog schema and decodes the
// workspaces list. Workspace ids must be unique.
func ParseCatalog(filename string, src []byte) ([]types.Workspace, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(catalogSchema, cue.Filename("catalog_schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling catalog schema: %w", err)
	}
	data := ctx.CompileBytes(src, cue.Filename(filename))
	if err := data.Err(); err != nil {
		return nil, fmt.Errorf("compiling catalog %s: %w", filename, err)
	}

	val := schema.Unify(data)
	if err := val.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validating catalog %s: %w", filename, err)
	}

	var catalog []types.Workspace
	if err := val.LookupPath(cue.ParsePath("workspaces")).Decode(&catalog); err != nil {
		return nil, fmt.Errorf("decoding catalog %s: %w", filename, err)
	}

	seen := make(map[string]bool, len(catalog))
	for _, ws := range catalog {
		if seen[ws.ID] {
			return nil, fmt.Errorf("catalog %s: duplicate workspace id %q", filename, ws.ID)
		}
		seen[ws.ID] = true
	}
	return catalog, nil
}
