// Package features recovers the real names of the features enabled on the
// package being built.
//
// Cargo tells a build script which features are enabled only through
// CARGO_FEATURE_<NAME> variables, where NAME is the feature name uppercased
// with hyphens replaced by underscores. That transform loses case and the
// hyphen/underscore distinction, so the original names cannot be recovered by
// inverting it. Instead every feature the package declares is mangled forward
// and compared against the announced tokens.
//
// The comparison is lossy by construction: "net-client" and "NET_CLIENT" mangle
// to the same token, and if that token is present both are reported enabled.
package features

import "strings"

// DefaultFeature is the feature Cargo synthesizes for default features. It is
// not passed to the resolver as a feature name; its absence instead turns into
// --no-default-features.
const DefaultFeature = "default"

// Mangle applies Cargo's feature-variable transform: ASCII uppercase, then
// every '-' becomes '_'. Non-ASCII runes pass through unchanged.
func Mangle(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - ('a' - 'A')
		case r == '-':
			return '_'
		default:
			return r
		}
	}, name)
}

// TokenSet is a set of mangled feature tokens.
type TokenSet map[string]struct{}

// NewTokenSet builds a TokenSet from the given tokens.
func NewTokenSet(tokens ...string) TokenSet {
	set := make(TokenSet, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// Has reports whether token is in the set.
func (s TokenSet) Has(token string) bool {
	_, ok := s[token]
	return ok
}

// Selection is the feature selection to hand to the resolver for the root
// package.
type Selection struct {
	// Features are the enabled feature names, in declared order. Never
	// contains DefaultFeature.
	Features []string
	// NoDefaultFeatures is set when the default feature was not enabled.
	NoDefaultFeatures bool
}

// Reconstruct returns the subset of declared whose mangled form appears in
// tokens. declared must carry the true names as published in the manifest.
func Reconstruct(declared []string, tokens TokenSet) Selection {
	sel := Selection{
		Features:          []string{},
		NoDefaultFeatures: !tokens.Has(Mangle(DefaultFeature)),
	}
	for _, name := range declared {
		if name == DefaultFeature {
			continue
		}
		if tokens.Has(Mangle(name)) {
			sel.Features = append(sel.Features, name)
		}
	}
	return sel
}

// Collisions groups declared feature names that share a mangled form. Only
// groups with more than one member are returned, keyed by the shared token.
// Reconstruct cannot tell members of a group apart.
func Collisions(declared []string) map[string][]string {
	groups := make(map[string][]string)
	for _, name := range declared {
		token := Mangle(name)
		groups[token] = append(groups[token], name)
	}
	for token, names := range groups {
		if len(names) < 2 {
			delete(groups, token)
		}
	}
	return groups
}
