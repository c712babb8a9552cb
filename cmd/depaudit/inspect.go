package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"depaudit/internal/audit"
	"depaudit/internal/pack"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func newInspectCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Decode a packaged dependency list and print its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatText && format != formatJSON {
				return fmt.Errorf("unknown format %q (want %s or %s)", format, formatText, formatJSON)
			}

			info, err := pack.ReadArtifact(args[0])
			if err != nil {
				return toExitError(err)
			}

			if format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			return writeTable(cmd.OutOrStdout(), info)
		},
	}

	cmd.Flags().StringVar(&format, "format", formatText, "output format: text or json")
	return cmd
}

func writeJSON(w io.Writer, info *audit.VersionInfo) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

func writeTable(w io.Writer, info *audit.VersionInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVERSION\tSOURCE\tFEATURES")
	for _, p := range info.Packages {
		features := strings.Join(p.Features, ",")
		if features == "" {
			features = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, p.Version, p.Source, features)
	}
	return tw.Flush()
}
