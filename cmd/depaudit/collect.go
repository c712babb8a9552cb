package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"depaudit/internal/bridge"
	"depaudit/internal/config"
	"depaudit/internal/pipeline"
	"depaudit/internal/resolver"
)

func newCollectCommand() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect, package and publish the dependency list (run from build.rs)",
		Long: `collect reads the cargo build-script environment (OUT_DIR, PROFILE, TARGET,
CARGO_MANIFEST_DIR, CARGO and CARGO_FEATURE_*), resolves the package's
dependency graph under the features actually enabled, writes the compressed
record to $OUT_DIR/dependency-list.json.zlib and prints the cargo directive
that exposes its path to the compiler as RUST_AUDIT_DEPENDENCY_FILE_LOCATION.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(config.LoadOptions{EnvFile: envFile})
			if err != nil {
				return toExitError(err)
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat).With(
				"run_id", uuid.NewString(),
				"target", cfg.Target,
				"profile", cfg.Profile,
			)
			logger.Debug("configuration loaded",
				"manifest", cfg.ManifestPath(),
				"out_dir", cfg.OutDir,
				"cargo", cfg.CargoPath,
				"version", cfg.Build.Version,
			)

			_, err = pipeline.Run(cmd.Context(), cfg, pipeline.Deps{
				Resolver:  resolver.NewCargoResolver(cfg.CargoPath),
				Publisher: bridge.NewCargoPublisher(cmd.OutOrStdout()),
				Logger:    logger,
			})
			if err != nil {
				logger.Error("collect failed", "error", err)
				return toExitError(err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "dotenv file with a captured build-script environment (existing variables win)")
	return cmd
}
