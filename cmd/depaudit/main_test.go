package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depaudit/internal/audit"
	"depaudit/internal/config"
	"depaudit/internal/pack"
	"depaudit/internal/types"
)

const metadataJSON = `{
  "packages": [
    {
      "id": "app 0.1.0 (path+file:///src/app)",
      "name": "app",
      "version": "0.1.0",
      "source": null,
      "manifest_path": "/src/app/Cargo.toml",
      "features": {"default": ["LOGGING"], "LOGGING": []}
    },
    {
      "id": "itoa 1.0.11 (registry+https://github.com/rust-lang/crates.io-index)",
      "name": "itoa",
      "version": "1.0.11",
      "source": "registry+https://github.com/rust-lang/crates.io-index",
      "manifest_path": "/registry/itoa-1.0.11/Cargo.toml",
      "features": {}
    }
  ],
  "resolve": {
    "root": "app 0.1.0 (path+file:///src/app)",
    "nodes": [
      {"id": "itoa 1.0.11 (registry+https://github.com/rust-lang/crates.io-index)", "features": []},
      {"id": "app 0.1.0 (path+file:///src/app)", "features": ["LOGGING", "default"]}
    ]
  }
}`

// setupBuildEnv points the process at a fake cargo that answers every
// metadata query with stdout and exits with exitCode, and sets the variables
// a build script would see.
func setupBuildEnv(t *testing.T, stdout string, exitCode int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake cargo is a POSIX shell script")
	}

	dir := t.TempDir()
	outFile := filepath.Join(dir, "metadata.json")
	require.NoError(t, os.WriteFile(outFile, []byte(stdout), 0o600))

	script := "#!/bin/sh\ncat '" + outFile + "'\n"
	if exitCode != 0 {
		script += "echo 'error: failed to parse manifest' >&2\n" +
			"exit " + strconv.Itoa(exitCode) + "\n"
	}
	cargo := filepath.Join(dir, "cargo")
	require.NoError(t, os.WriteFile(cargo, []byte(script), 0o755))

	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(outDir, 0o755))

	t.Setenv("OUT_DIR", outDir)
	t.Setenv("PROFILE", "release")
	t.Setenv("TARGET", "x86_64-unknown-linux-gnu")
	t.Setenv("CARGO_MANIFEST_DIR", "/src/app")
	t.Setenv("CARGO", cargo)
	t.Setenv("CARGO_FEATURE_DEFAULT", "1")
	t.Setenv("CARGO_FEATURE_LOGGING", "1")
	t.Setenv("DEPAUDIT_LOG_LEVEL", "warn")
	return outDir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCollect_PublishesArtifact(t *testing.T) {
	outDir := setupBuildEnv(t, metadataJSON, 0)

	stdout, _, err := execute(t, "collect")
	require.NoError(t, err)

	artifact := filepath.Join(outDir, config.ArtifactName)
	assert.Equal(t, "cargo:rustc-env=RUST_AUDIT_DEPENDENCY_FILE_LOCATION="+artifact+"\n", stdout)

	info, err := pack.ReadArtifact(artifact)
	require.NoError(t, err)
	require.Len(t, info.Packages, 2)
	assert.Equal(t, audit.Package{
		Name: "app", Version: "0.1.0", Source: audit.SourceLocal,
		Features: []string{"LOGGING", "default"},
	}, info.Packages[0])
	assert.Equal(t, audit.SourceCratesIO, info.Packages[1].Source)
}

func TestCollect_MissingEnvironment(t *testing.T) {
	setupBuildEnv(t, metadataJSON, 0)
	t.Setenv("OUT_DIR", "")

	stdout, _, err := execute(t, "collect")
	require.Error(t, err)
	assert.Empty(t, stdout)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, err.Error(), "configuration stage failed")
	assert.Contains(t, err.Error(), "OUT_DIR")
}

func TestCollect_ResolverFailure(t *testing.T) {
	outDir := setupBuildEnv(t, "", 101)

	stdout, stderr, err := execute(t, "collect")
	require.Error(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "collect failed")

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.Code)
	assert.Contains(t, err.Error(), "failed to parse manifest")

	_, statErr := os.Stat(filepath.Join(outDir, config.ArtifactName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCollect_RejectsArguments(t *testing.T) {
	_, _, err := execute(t, "collect", "extra")
	assert.Error(t, err)
}

func writeArtifact(t *testing.T) string {
	t.Helper()
	info := &audit.VersionInfo{Packages: []audit.Package{
		{Name: "app", Version: "0.1.0", Source: audit.SourceLocal, Features: []string{"default"}},
		{Name: "itoa", Version: "1.0.11", Source: audit.SourceCratesIO, Features: []string{}},
	}}
	data, err := pack.Encode(info, pack.LevelDebug)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), config.ArtifactName)
	require.NoError(t, pack.WriteArtifact(path, data))
	return path
}

func TestInspect_Text(t *testing.T) {
	path := writeArtifact(t)

	stdout, _, err := execute(t, "inspect", path)
	require.NoError(t, err)

	want := "NAME  VERSION  SOURCE     FEATURES\n" +
		"app   0.1.0    local      default\n" +
		"itoa  1.0.11   crates.io  -\n"
	assert.Equal(t, want, stdout)
}

func TestInspect_JSON(t *testing.T) {
	path := writeArtifact(t)

	stdout, _, err := execute(t, "inspect", "--format", "json", path)
	require.NoError(t, err)

	var got audit.VersionInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.Len(t, got.Packages, 2)
	assert.Equal(t, "itoa", got.Packages[1].Name)
}

func TestInspect_Errors(t *testing.T) {
	t.Run("unknown format", func(t *testing.T) {
		_, _, err := execute(t, "inspect", "--format", "yaml", writeArtifact(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown format "yaml"`)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := execute(t, "inspect", filepath.Join(t.TempDir(), "absent"))
		var exitErr *ExitError
		require.True(t, errors.As(err, &exitErr))
		assert.Equal(t, 5, exitErr.Code)
	})

	t.Run("not an artifact", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plain.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"packages":[]}`), 0o600))
		_, _, err := execute(t, "inspect", path)
		var appErr *types.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, types.ErrCodePackageDecode, appErr.Code)
	})
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "depaudit dev (commit none, built unknown)\n", stdout)
}

func TestToExitError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"plain error", errors.New("boom"), 1},
		{"config missing", &config.ConfigError{Type: config.ErrMissingEnv, Message: "OUT_DIR not set"}, 2},
		{"config invalid", &config.ConfigError{Type: config.ErrValidation, Message: "bad"}, 2},
		{"resolver", types.NewAppError(types.ErrCodeResolverExec, "cargo metadata failed", nil), 3},
		{"record", types.NewAppError(types.ErrCodeRecordUnknownSource, "odd source", nil), 4},
		{"publish", types.NewAppError(types.ErrCodePublishNotReady, "missing", nil), 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toExitError(tt.err)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}
