package resolver

import "sort"

// Metadata is the subset of `cargo metadata --format-version 1` output that
// depaudit consumes. It is an immutable snapshot fetched fresh per run.
type Metadata struct {
	Packages []Package `json:"packages"`
	// Resolve is nil when the resolver ran without dependency resolution
	// (--no-deps).
	Resolve *Resolve `json:"resolve"`
}

// Package is one package known to the resolver.
type Package struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`

	// Source is nil for path dependencies and workspace members.
	Source       *string             `json:"source"`
	ManifestPath string              `json:"manifest_path"`
	Features     map[string][]string `json:"features"`
}

// FeatureNames returns the features the package declares, sorted. This is
// the order cargo itself prints them in.
func (p *Package) FeatureNames() []string {
	names := make([]string, 0, len(p.Features))
	for name := range p.Features {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve is the resolved dependency graph.
type Resolve struct {
	Root  *string `json:"root"`
	Nodes []Node  `json:"nodes"`
}

// Node is one package in the resolved graph together with the features the
// resolver enabled on it after unification.
type Node struct {
	ID       string   `json:"id"`
	Features []string `json:"features"`
}

// PackageByID returns the package with the given id, or nil.
func (m *Metadata) PackageByID(id string) *Package {
	for i := range m.Packages {
		if m.Packages[i].ID == id {
			return &m.Packages[i]
		}
	}
	return nil
}
