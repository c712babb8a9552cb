// Package audit defines the dependency record embedded into binaries and its
// construction from a resolved dependency graph.
//
// The JSON shape of VersionInfo is a fixed external contract shared with the
// tools that later extract and audit the record. Field names and Source
// values must not change.
package audit

// VersionInfo is the audit record: every package that went into the build.
type VersionInfo struct {
	Packages []Package `json:"packages"`
}

// Package is one entry of the audit record.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Source  Source `json:"source"`
	// Features are the features enabled on this package after the
	// resolver's feature unification, in resolver order.
	Features []string `json:"features"`
}

// Source classifies where a package came from.
type Source string

const (
	SourceCratesIO Source = "crates.io"
	SourceRegistry Source = "registry"
	SourceGit      Source = "git"
	// SourceLocal covers path dependencies and the root package itself.
	SourceLocal Source = "local"
)
