// Package bridge hands the packaged artifact's location to the compile step
// that embeds it.
//
// The producer side only publishes an absolute path through the build
// system's metadata channel. The consumer, a macro invocation in the target's
// own source, reads the file by that path at compile time and places the raw
// bytes into a linker-retained section. No state is shared beyond the file.
package bridge

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"depaudit/internal/types"
)

// EnvKey is the compile-time environment variable the embedding macro reads
// the artifact path from.
const EnvKey = "RUST_AUDIT_DEPENDENCY_FILE_LOCATION"

// Publisher publishes one key/value pair to the downstream compile step.
type Publisher interface {
	Publish(key, value string) error
}

// CargoPublisher publishes through cargo build-script directives written to
// the build script's stdout.
type CargoPublisher struct {
	w io.Writer
}

// NewCargoPublisher creates a CargoPublisher writing directives to w.
func NewCargoPublisher(w io.Writer) *CargoPublisher {
	return &CargoPublisher{w: w}
}

// Publish emits cargo:rustc-env=KEY=VALUE, which sets KEY in the environment
// of the rustc invocation that compiles the package.
func (p *CargoPublisher) Publish(key, value string) error {
	return p.directive("rustc-env", key+"="+value)
}

func (p *CargoPublisher) directive(kind, body string) error {
	// A newline would terminate the directive early and let the remainder be
	// parsed as another directive.
	if strings.ContainsAny(body, "\r\n") {
		return types.NewAppError(
			types.ErrCodePublishWrite,
			fmt.Sprintf("cargo:%s value contains a line break", kind),
			nil,
		)
	}
	if _, err := fmt.Fprintf(p.w, "cargo:%s=%s\n", kind, body); err != nil {
		return types.NewAppError(types.ErrCodePublishWrite, "failed to write cargo directive", err)
	}
	return nil
}

// PublishArtifact publishes path under EnvKey. The path must be absolute and
// name an existing regular file; the compile step reads it immediately and
// fails on anything else.
func PublishArtifact(p Publisher, path string) error {
	if !filepath.IsAbs(path) {
		return types.NewAppError(
			types.ErrCodePublishNotReady,
			fmt.Sprintf("artifact path %q is not absolute", path),
			nil,
		)
	}
	info, err := os.Stat(path)
	if err != nil {
		return types.NewAppError(
			types.ErrCodePublishNotReady,
			fmt.Sprintf("artifact %s does not exist", path),
			err,
		)
	}
	if !info.Mode().IsRegular() {
		return types.NewAppError(
			types.ErrCodePublishNotReady,
			fmt.Sprintf("artifact %s is not a regular file", path),
			nil,
		)
	}
	return p.Publish(EnvKey, path)
}
