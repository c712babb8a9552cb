// Package main implements the depaudit CLI.
//
// depaudit records the exact set of resolved dependencies of a Cargo package
// at build time so the list can be embedded into the resulting binary and
// audited later. It is meant to be run from the package's build script:
//
//	// build.rs
//	fn main() {
//	    let status = std::process::Command::new("depaudit").arg("collect").status().unwrap();
//	    assert!(status.success());
//	}
//
// The child inherits the build script's environment and stdout, so cargo sees
// the directive depaudit prints and exposes the artifact path to the
// package's inject_dependency_list! invocation.
//
// Usage:
//
//	depaudit collect [--env-file=build.env]
//	depaudit inspect [--format=text|json] FILE
//	depaudit version
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := newRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "depaudit: %v\n", err)

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		cancel()
		os.Exit(exitErr.Code)
	}
	cancel()
	os.Exit(1)
}
