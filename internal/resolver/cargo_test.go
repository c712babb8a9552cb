package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depaudit/internal/types"
)

func TestMetadataArgs(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{
			name: "discovery",
			q:    Query{ManifestPath: "/src/Cargo.toml", Platform: "x86_64-pc-windows-msvc", NoDeps: true},
			want: []string{"metadata", "--format-version", "1", "--manifest-path", "/src/Cargo.toml",
				"--filter-platform=x86_64-pc-windows-msvc", "--no-deps"},
		},
		{
			name: "no defaults with features",
			q: Query{ManifestPath: "/src/Cargo.toml", Platform: "wasm32-unknown-unknown",
				Features: []string{"net-client", "LOGGING"}, NoDefaultFeatures: true},
			want: []string{"metadata", "--format-version", "1", "--manifest-path", "/src/Cargo.toml",
				"--filter-platform=wasm32-unknown-unknown", "--no-default-features", "--features", "net-client,LOGGING"},
		},
		{
			name: "defaults only",
			q:    Query{ManifestPath: "/src/Cargo.toml", Platform: "x86_64-unknown-linux-gnu", Features: []string{}},
			want: []string{"metadata", "--format-version", "1", "--manifest-path", "/src/Cargo.toml",
				"--filter-platform=x86_64-unknown-linux-gnu"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, metadataArgs(tt.q))
		})
	}
}

// fakeCargo writes a shell script standing in for cargo. It records its
// arguments one per line to argsFile, writes stderr, and prints stdout.
func fakeCargo(t *testing.T, stdout, stderr string, exitCode int) (*CargoResolver, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake cargo is a POSIX shell script")
	}

	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	outFile := filepath.Join(dir, "stdout")
	errFile := filepath.Join(dir, "stderr")
	require.NoError(t, os.WriteFile(outFile, []byte(stdout), 0o600))
	require.NoError(t, os.WriteFile(errFile, []byte(stderr), 0o600))

	script := "#!/bin/sh\n" +
		"printf '%s\\n' \"$@\" > \"$FAKE_ARGS\"\n" +
		"cat \"$FAKE_STDOUT\"\n" +
		"cat \"$FAKE_STDERR\" >&2\n" +
		"exit " + strconv.Itoa(exitCode) + "\n"
	bin := filepath.Join(dir, "cargo")
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))

	r := NewCargoResolver(bin)
	r.Env = append(os.Environ(),
		"FAKE_ARGS="+argsFile,
		"FAKE_STDOUT="+outFile,
		"FAKE_STDERR="+errFile,
	)
	return r, argsFile
}

const sampleMetadata = `{
  "packages": [
    {
      "id": "path+file:///src/app#0.1.0",
      "name": "app",
      "version": "0.1.0",
      "source": null,
      "manifest_path": "/src/app/Cargo.toml",
      "features": {"default": ["LOGGING"], "LOGGING": [], "net-client": []},
      "dependencies": []
    },
    {
      "id": "registry+https://github.com/rust-lang/crates.io-index#itoa@1.0.11",
      "name": "itoa",
      "version": "1.0.11",
      "source": "registry+https://github.com/rust-lang/crates.io-index",
      "manifest_path": "/home/u/.cargo/registry/src/itoa-1.0.11/Cargo.toml",
      "features": {"no-panic": []}
    }
  ],
  "resolve": {
    "root": "path+file:///src/app#0.1.0",
    "nodes": [
      {"id": "path+file:///src/app#0.1.0", "features": ["net-client"], "deps": []},
      {"id": "registry+https://github.com/rust-lang/crates.io-index#itoa@1.0.11", "features": []}
    ]
  },
  "version": 1
}`

func TestCargoResolverDecodesOutput(t *testing.T) {
	r, argsFile := fakeCargo(t, sampleMetadata, "", 0)

	md, err := r.Metadata(context.Background(), Query{
		ManifestPath:      "/src/app/Cargo.toml",
		Platform:          "x86_64-unknown-linux-gnu",
		Features:          []string{"net-client"},
		NoDefaultFeatures: true,
	})
	require.NoError(t, err)

	require.Len(t, md.Packages, 2)
	assert.Nil(t, md.Packages[0].Source)
	require.NotNil(t, md.Packages[1].Source)
	assert.Equal(t, "registry+https://github.com/rust-lang/crates.io-index", *md.Packages[1].Source)
	require.NotNil(t, md.Resolve)
	require.NotNil(t, md.Resolve.Root)
	assert.Equal(t, "path+file:///src/app#0.1.0", *md.Resolve.Root)
	assert.Equal(t, []string{"net-client"}, md.Resolve.Nodes[0].Features)

	recorded, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"metadata", "--format-version", "1", "--manifest-path", "/src/app/Cargo.toml",
		"--filter-platform=x86_64-unknown-linux-gnu", "--no-default-features", "--features", "net-client",
	}, strings.Split(strings.TrimSpace(string(recorded)), "\n"))
}

func TestCargoResolverFailureCarriesDiagnostic(t *testing.T) {
	r, _ := fakeCargo(t, "", "error: failed to parse manifest at `/src/app/Cargo.toml`\n", 1)

	_, err := r.Metadata(context.Background(), Query{ManifestPath: "/src/app/Cargo.toml", Platform: "x"})
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeResolverExec, appErr.Code)
	assert.Contains(t, appErr.Message, "failed to parse manifest")
	assert.Equal(t, 1, appErr.Details["exit_code"])
}

func TestCargoResolverUnparseableOutput(t *testing.T) {
	r, _ := fakeCargo(t, "warning: not json", "", 0)

	_, err := r.Metadata(context.Background(), Query{ManifestPath: "/src/app/Cargo.toml", Platform: "x"})
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeResolverOutput, appErr.Code)
}

func TestCargoResolverCommandNotFound(t *testing.T) {
	r := NewCargoResolver(filepath.Join(t.TempDir(), "no-such-cargo"))

	_, err := r.Metadata(context.Background(), Query{ManifestPath: "/src/app/Cargo.toml", Platform: "x"})
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeResolverExec, appErr.Code)
	assert.Contains(t, appErr.Message, "no diagnostic output")
}

func TestDiagnosticTruncates(t *testing.T) {
	long := strings.Repeat("x", maxDiagnosticLen+10)
	got := diagnostic("  " + long + "\n")
	assert.Len(t, got, maxDiagnosticLen+3)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, "boom", diagnostic("\nboom\n"))
}
