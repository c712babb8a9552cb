package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"depaudit/internal/types"
)

// maxDiagnosticLen caps how much resolver stderr is carried in an error.
const maxDiagnosticLen = 4096

// CargoResolver runs `cargo metadata` as a subprocess.
type CargoResolver struct {
	// Command is the cargo executable. Inside a build script this is the
	// value of $CARGO, so the same toolchain that runs the build resolves the
	// graph.
	Command string
	// Env, when non-nil, replaces the subprocess environment. Nil inherits
	// the current process environment.
	Env []string
}

// NewCargoResolver creates a CargoResolver for the given cargo executable.
func NewCargoResolver(command string) *CargoResolver {
	return &CargoResolver{Command: command}
}

// Metadata implements Resolver.
func (r *CargoResolver) Metadata(ctx context.Context, q Query) (*Metadata, error) {
	args := metadataArgs(q)

	cmd := exec.CommandContext(ctx, r.Command, args...)
	if r.Env != nil {
		cmd.Env = r.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		details := map[string]any{
			"command": r.Command + " " + strings.Join(args, " "),
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			details["exit_code"] = exitErr.ExitCode()
		}
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeResolverExec,
			fmt.Sprintf("cargo metadata failed: %s", diagnostic(stderr.String())),
			err,
			details,
		)
	}

	var md Metadata
	if err := json.Unmarshal(stdout.Bytes(), &md); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeResolverOutput,
			"cargo metadata produced unparseable output",
			err,
		)
	}
	return &md, nil
}

// metadataArgs builds the cargo command line for q. Feature names are passed
// comma-separated in a single --features argument.
func metadataArgs(q Query) []string {
	args := []string{
		"metadata",
		"--format-version", "1",
		"--manifest-path", q.ManifestPath,
		"--filter-platform=" + q.Platform,
	}
	if q.NoDeps {
		args = append(args, "--no-deps")
	}
	if q.NoDefaultFeatures {
		args = append(args, "--no-default-features")
	}
	if len(q.Features) > 0 {
		args = append(args, "--features", strings.Join(q.Features, ","))
	}
	return args
}

// diagnostic trims the resolver's stderr for inclusion in an error message.
func diagnostic(stderr string) string {
	s := strings.TrimSpace(stderr)
	if s == "" {
		return "no diagnostic output"
	}
	if len(s) > maxDiagnosticLen {
		s = s[:maxDiagnosticLen] + "..."
	}
	return s
}
