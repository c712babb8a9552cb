// Package pipeline runs one collect invocation end to end.
//
// The stages run strictly in sequence because each consumes the previous
// stage's output:
//
//	discover → reconstruct → resolve → build record → compress → write → publish
//
// Any failure aborts the run. Nothing is published unless the artifact has
// been written completely, and there is no degraded mode: a wrong or missing
// record is worse than a failed build.
package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"depaudit/internal/audit"
	"depaudit/internal/bridge"
	"depaudit/internal/config"
	"depaudit/internal/features"
	"depaudit/internal/pack"
	"depaudit/internal/resolver"
	"depaudit/internal/types"
)

// Deps holds the collaborators a run needs.
type Deps struct {
	Resolver  resolver.Resolver
	Publisher bridge.Publisher
	// Logger receives progress and warnings. Nil discards them.
	Logger *slog.Logger
}

// Result summarizes a successful run.
type Result struct {
	ArtifactPath string
	Selection    features.Selection
	Packages     int
	Bytes        int
}

// Run executes the collect pipeline for cfg.
func Run(ctx context.Context, cfg *config.Config, deps Deps) (*Result, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// Validate the profile before spending time on the resolver.
	level, err := pack.LevelForProfile(cfg.Profile)
	if err != nil {
		return nil, err
	}

	target := resolver.Target{
		ManifestPath: cfg.ManifestPath(),
		Platform:     cfg.Target,
	}
	fetcher := resolver.NewFetcher(deps.Resolver)

	declared, err := fetcher.Discover(ctx, target)
	if err != nil {
		return nil, stageError(types.ErrCodeResolverExec, "feature discovery failed", err)
	}

	for token, names := range features.Collisions(declared) {
		logger.Warn("declared features share a mangled name and cannot be told apart",
			"token", token,
			"features", names,
		)
	}

	sel := features.Reconstruct(declared, features.NewTokenSet(cfg.FeatureTokens...))
	logger.Debug("reconstructed feature selection",
		"declared", declared,
		"tokens", cfg.FeatureTokens,
		"features", sel.Features,
		"no_default_features", sel.NoDefaultFeatures,
	)

	md, err := fetcher.Resolve(ctx, target, sel)
	if err != nil {
		return nil, stageError(types.ErrCodeResolverExec, "dependency resolution failed", err)
	}

	record, err := audit.FromMetadata(md)
	if err != nil {
		return nil, stageError(types.ErrCodeRecordUnknownPackage, "building audit record failed", err)
	}

	data, err := pack.Encode(record, level)
	if err != nil {
		return nil, err
	}

	path := cfg.ArtifactPath()
	if err := pack.WriteArtifact(path, data); err != nil {
		return nil, err
	}

	if err := bridge.PublishArtifact(deps.Publisher, path); err != nil {
		return nil, stageError(types.ErrCodePublishWrite, "publishing artifact location failed", err)
	}

	logger.Info("dependency list embedded",
		"path", path,
		"packages", len(record.Packages),
		"bytes", len(data),
		"compression_level", int(level),
	)

	return &Result{
		ArtifactPath: path,
		Selection:    sel,
		Packages:     len(record.Packages),
		Bytes:        len(data),
	}, nil
}

// stageError returns err unchanged when it already carries an AppError and
// otherwise tags it with code, so every failure leaving Run names its stage.
func stageError(code types.ErrorCode, message string, err error) error {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return types.NewAppError(code, message, err)
}
