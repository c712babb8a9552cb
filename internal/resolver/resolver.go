// Package resolver obtains the resolved dependency graph of the package being
// built from an external resolver (cargo metadata).
//
// Cargo does not pass the real feature names to build scripts, so the graph is
// fetched in two phases: a discovery call that only reads the root package's
// declared features, and a final call that applies the reconstructed feature
// selection. Both are scoped to the build's target platform.
package resolver

import "context"

// Query describes one resolver invocation.
type Query struct {
	ManifestPath string
	// Platform is the target triple passed as --filter-platform. Always set.
	Platform string
	// NoDeps skips dependency resolution; the result has no Resolve.
	NoDeps            bool
	Features          []string
	NoDefaultFeatures bool
}

// Resolver runs the external dependency resolver.
type Resolver interface {
	Metadata(ctx context.Context, q Query) (*Metadata, error)
}
