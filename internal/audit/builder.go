package audit

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"depaudit/internal/resolver"
	"depaudit/internal/types"
)

// Source id prefixes and the well-known crates.io index locations, as they
// appear in the "source" field of cargo metadata.
const (
	registryPrefix = "registry+"
	sparsePrefix   = "sparse+"
	gitPrefix      = "git+"

	cratesIOGitIndex    = "registry+https://github.com/rust-lang/crates.io-index"
	cratesIOSparseIndex = "sparse+https://index.crates.io/"
)

// ClassifySource maps a cargo metadata source id to a Source. A nil source
// means a path dependency.
func ClassifySource(source *string) (Source, error) {
	if source == nil {
		return SourceLocal, nil
	}
	s := *source
	switch {
	case s == cratesIOGitIndex || s == cratesIOSparseIndex:
		return SourceCratesIO, nil
	case strings.HasPrefix(s, registryPrefix), strings.HasPrefix(s, sparsePrefix):
		return SourceRegistry, nil
	case strings.HasPrefix(s, gitPrefix):
		return SourceGit, nil
	default:
		return "", types.NewAppError(
			types.ErrCodeRecordUnknownSource,
			fmt.Sprintf("unrecognized package source %q", s),
			nil,
		)
	}
}

// FromMetadata builds the audit record from the final resolved graph. Every
// resolve node becomes one entry carrying that node's own enabled features.
// The resolver already guarantees one node per distinct package, so nothing
// is filtered or merged here. Entries are ordered by name, version and source
// so the serialized record does not depend on resolver output order.
func FromMetadata(md *resolver.Metadata) (*VersionInfo, error) {
	if md.Resolve == nil {
		return nil, types.NewAppError(
			types.ErrCodeResolverNoGraph,
			"metadata has no resolved dependency graph",
			nil,
		)
	}

	byID := make(map[string]*resolver.Package, len(md.Packages))
	for i := range md.Packages {
		byID[md.Packages[i].ID] = &md.Packages[i]
	}

	packages := make([]Package, 0, len(md.Resolve.Nodes))
	for _, node := range md.Resolve.Nodes {
		pkg, ok := byID[node.ID]
		if !ok {
			return nil, types.NewAppError(
				types.ErrCodeRecordUnknownPackage,
				fmt.Sprintf("resolved node %q has no package entry", node.ID),
				nil,
			)
		}

		source, err := ClassifySource(pkg.Source)
		if err != nil {
			return nil, fmt.Errorf("package %s %s: %w", pkg.Name, pkg.Version, err)
		}

		enabled := make([]string, len(node.Features))
		copy(enabled, node.Features)

		packages = append(packages, Package{
			Name:     pkg.Name,
			Version:  pkg.Version,
			Source:   source,
			Features: enabled,
		})
	}

	slices.SortStableFunc(packages, func(a, b Package) int {
		return cmp.Or(
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.Version, b.Version),
			cmp.Compare(a.Source, b.Source),
		)
	})

	return &VersionInfo{Packages: packages}, nil
}
