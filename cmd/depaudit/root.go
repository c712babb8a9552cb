package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// newRootCommand builds the command tree. stdout is reserved for output other
// programs consume (cargo directives, decoded records); diagnostics go to
// stderr.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "depaudit",
		Short: "Embed the resolved dependency list of a Cargo package into its binary",
		Long: `depaudit records which packages, versions, sources and features went
into a build and packages that list for embedding into the binary, so it can
be audited later without the original build environment.

Run "depaudit collect" from a build script. Run "depaudit inspect" on a
packaged artifact to see what was recorded.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(newCollectCommand())
	root.AddCommand(newInspectCommand())
	root.AddCommand(newVersionCommand())
	return root
}

// newLogger creates a structured slog.Logger for the given level and format
// writing to w.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
