// loader.go implements the configuration loading lifecycle for a collect run.
//
// The loading sequence is:
//  1. Optionally overlay a dotenv file via godotenv (never overrides
//     variables that are already set).
//  2. Check that every required build-script variable is present.
//  3. Use envconfig to process struct tags and populate the Config struct.
//  4. Scan the environment for CARGO_FEATURE_ prefix variables.
//  5. Populate BuildInfo from linker-injected variables.
//  6. Validate the struct using go-playground/validator.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigError is a diagnostic error type returned by LoadConfig to aid debugging.
// It wraps a ConfigErrorType and an underlying error message.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// requiredEnv lists the variables Cargo always sets for build scripts. Their
// absence means depaudit is not running inside a build script at all.
var requiredEnv = []string{"OUT_DIR", "PROFILE", "TARGET", "CARGO_MANIFEST_DIR"}

// LoadOptions controls optional behavior of LoadConfig.
type LoadOptions struct {
	// EnvFile is a dotenv file overlaid onto the process environment before
	// loading. Used to replay a captured build-script environment outside of
	// Cargo. Variables already present in the environment win.
	EnvFile string
}

// envLookup is a function type for looking up environment variables.
// It matches the signature of os.LookupEnv and allows injection for testing.
type envLookup func(key string) (string, bool)

// environ is a function type for listing all environment variables.
// It matches the signature of os.Environ and allows injection for testing.
type environ func() []string

// loaderDeps holds the injectable dependencies for the loader, enabling
// testing without mutating global state.
type loaderDeps struct {
	lookupEnv envLookup
	environ   environ
}

// defaultDeps returns the standard OS-backed dependencies.
func defaultDeps() loaderDeps {
	return loaderDeps{
		lookupEnv: os.LookupEnv,
		environ:   os.Environ,
	}
}

// LoadConfig loads and validates the collect configuration from the process
// environment. It is called once per run; the returned Config must be treated
// as read-only.
func LoadConfig(opts LoadOptions) (*Config, error) {
	return loadConfigWithDeps(opts, defaultDeps())
}

// loadConfigWithDeps is the internal implementation of LoadConfig that accepts
// injectable dependencies for testing.
func loadConfigWithDeps(opts LoadOptions, deps loaderDeps) (*Config, error) {
	// Step 1: Overlay the dotenv file, if one was requested.
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, &ConfigError{
				Type:    ErrEnvFile,
				Message: fmt.Sprintf("failed to load env file %s", opts.EnvFile),
				Err:     err,
			}
		}
	}

	// Step 2: Name every missing required variable at once.
	var missing []string
	for _, key := range requiredEnv {
		if val, ok := deps.lookupEnv(key); !ok || val == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &ConfigError{
			Type:    ErrMissingEnv,
			Message: fmt.Sprintf("required environment variables not set: %s (depaudit must run from a cargo build script)", strings.Join(missing, ", ")),
		}
	}

	// Step 3: Process envconfig tags. The empty prefix means envconfig uses
	// the exact tag values (e.g., envconfig:"OUT_DIR" reads OUT_DIR directly).
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	outDir, err := filepath.Abs(cfg.OutDir)
	if err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: fmt.Sprintf("OUT_DIR %q cannot be made absolute", cfg.OutDir),
			Err:     err,
		}
	}
	cfg.OutDir = outDir

	// Step 4: Collect the mangled feature tokens.
	cfg.FeatureTokens = scanFeatureTokens(deps.environ())

	// Step 5: Populate build metadata from linker-injected variables.
	cfg.Build = NewBuildInfo()

	// Step 6: Validate the populated struct.
	if err := newValidator().Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: describeValidation(err),
			Err:     err,
		}
	}

	return &cfg, nil
}

// scanFeatureTokens returns the mangled feature names announced through
// CARGO_FEATURE_<TOKEN> variables, sorted and deduplicated. A variable named
// exactly CARGO_FEATURE_ carries no token and is skipped. Values are ignored;
// Cargo sets them to "1".
func scanFeatureTokens(envVars []string) []string {
	seen := make(map[string]struct{})
	for _, envEntry := range envVars {
		// Each entry is "KEY=VALUE"
		key, _, found := strings.Cut(envEntry, "=")
		if !found {
			continue
		}
		if len(key) <= len(FeatureEnvPrefix) || !strings.HasPrefix(key, FeatureEnvPrefix) {
			continue
		}
		seen[strings.TrimPrefix(key, FeatureEnvPrefix)] = struct{}{}
	}

	tokens := make([]string, 0, len(seen))
	for token := range seen {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// newValidator returns a validator that reports fields by their environment
// variable name, so diagnostics point at what the user has to fix.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("envconfig"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// describeValidation flattens validator errors into a single line naming each
// offending variable and its value.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "configuration validation failed"
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s=%q is not one of [%s]", fe.Field(), fe.Value(), fe.Param()))
		case "required":
			parts = append(parts, fmt.Sprintf("%s must not be empty", fe.Field()))
		default:
			parts = append(parts, fmt.Sprintf("%s=%q failed %q check", fe.Field(), fe.Value(), fe.Tag()))
		}
	}
	return "configuration validation failed: " + strings.Join(parts, "; ")
}
