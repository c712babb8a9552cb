// Package config defines the configuration of a single depaudit build-step
// invocation. Cargo communicates everything a build script needs through
// environment variables, so configuration is read from the environment exactly
// once, at the top of the pipeline, and is immutable thereafter. Every other
// package receives the resulting *Config explicitly and never touches the
// process environment.
//
// Any missing required value or invalid format is a fatal configuration error:
// the surrounding build step is malformed and there is nothing to fall back to.
package config

import "path/filepath"

// ArtifactName is the fixed file name of the packaged dependency list inside
// OUT_DIR. Using the same name on every build means repeated builds overwrite
// the previous artifact instead of accumulating.
const ArtifactName = "dependency-list.json.zlib"

// ManifestName is the name of the Cargo manifest inside CARGO_MANIFEST_DIR.
const ManifestName = "Cargo.toml"

// FeatureEnvPrefix is the prefix Cargo uses for the variables announcing each
// enabled feature of the package being built (CARGO_FEATURE_<MANGLED_NAME>).
const FeatureEnvPrefix = "CARGO_FEATURE_"

// Config is the top-level configuration for one collect run.
type Config struct {
	// Build environment (set by Cargo for build scripts)
	OutDir      string `envconfig:"OUT_DIR" required:"true" validate:"required"`
	Profile     string `envconfig:"PROFILE" required:"true" validate:"required,oneof=debug release"`
	Target      string `envconfig:"TARGET" required:"true" validate:"required"`
	ManifestDir string `envconfig:"CARGO_MANIFEST_DIR" required:"true" validate:"required"`
	CargoPath   string `envconfig:"CARGO" default:"cargo" validate:"required"`

	// Diagnostics
	LogLevel  string `envconfig:"DEPAUDIT_LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"DEPAUDIT_LOG_FORMAT" default:"text" validate:"oneof=text json"`

	// FeatureTokens holds the mangled feature names taken from every
	// CARGO_FEATURE_* variable, sorted. Populated by the prefix scan, not by
	// envconfig.
	FeatureTokens []string `ignored:"true"`

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo `ignored:"true"`
}

// ManifestPath returns the path of the root package manifest.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.ManifestDir, ManifestName)
}

// ArtifactPath returns the path the packaged dependency list is written to.
// OutDir is made absolute during loading, so the result is absolute too.
func (c *Config) ArtifactPath() string {
	return filepath.Join(c.OutDir, ArtifactName)
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates a required environment variable was not found.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrEnvFile indicates the dotenv overlay file could not be read.
	ErrEnvFile ConfigErrorType = "ENV_FILE_FAILED"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
