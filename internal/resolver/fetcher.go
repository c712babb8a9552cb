package resolver

import (
	"context"
	"fmt"
	"path/filepath"

	"depaudit/internal/features"
	"depaudit/internal/types"
)

// Target identifies what is being resolved: the root manifest and the
// platform the build compiles for.
type Target struct {
	ManifestPath string
	Platform     string
}

// Fetcher performs the two resolver calls of a collect run.
type Fetcher struct {
	resolver Resolver
}

// NewFetcher creates a Fetcher backed by r.
func NewFetcher(r Resolver) *Fetcher {
	return &Fetcher{resolver: r}
}

// Discover runs the discovery call and returns the root package's declared
// feature names. No feature flags are applied and dependency resolution is
// skipped; the result is only used to learn the real feature spellings.
func (f *Fetcher) Discover(ctx context.Context, t Target) ([]string, error) {
	md, err := f.resolver.Metadata(ctx, Query{
		ManifestPath: t.ManifestPath,
		Platform:     t.Platform,
		NoDeps:       true,
	})
	if err != nil {
		return nil, err
	}

	root, err := rootPackage(md, t.ManifestPath)
	if err != nil {
		return nil, err
	}
	return root.FeatureNames(), nil
}

// Resolve runs the final call with the reconstructed selection applied and
// returns the resolved graph.
func (f *Fetcher) Resolve(ctx context.Context, t Target, sel features.Selection) (*Metadata, error) {
	md, err := f.resolver.Metadata(ctx, Query{
		ManifestPath:      t.ManifestPath,
		Platform:          t.Platform,
		Features:          sel.Features,
		NoDefaultFeatures: sel.NoDefaultFeatures,
	})
	if err != nil {
		return nil, err
	}
	if md.Resolve == nil {
		return nil, types.NewAppError(
			types.ErrCodeResolverNoGraph,
			fmt.Sprintf("resolver returned no dependency graph for %s", t.ManifestPath),
			nil,
		)
	}
	return md, nil
}

// rootPackage locates the package being built. The resolve root is used when
// the resolver reported one; without resolve info (as with --no-deps) the
// package whose manifest is the root manifest is used instead.
func rootPackage(md *Metadata, manifestPath string) (*Package, error) {
	if md.Resolve != nil && md.Resolve.Root != nil {
		if pkg := md.PackageByID(*md.Resolve.Root); pkg != nil {
			return pkg, nil
		}
		return nil, types.NewAppError(
			types.ErrCodeResolverRootMissing,
			fmt.Sprintf("resolve root %q is not among the reported packages", *md.Resolve.Root),
			nil,
		)
	}

	want := filepath.Clean(manifestPath)
	for i := range md.Packages {
		if filepath.Clean(md.Packages[i].ManifestPath) == want {
			return &md.Packages[i], nil
		}
	}
	return nil, types.NewAppError(
		types.ErrCodeResolverRootMissing,
		fmt.Sprintf("no package with manifest %s (is it a virtual workspace manifest?)", manifestPath),
		nil,
	)
}
