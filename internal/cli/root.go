package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sceneforge/sceneforge/pkg/buildinfo"
)

// Execute runs the sceneforge CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// The function sets up the root command with all subcommands (generate,
// inspect, graph, serve, cache), configures logging based on the --verbose
// flag, and executes the command tree.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute(ctx context.Context) error {
	var (
		verbose    bool
		configPath string
	)
	cfg := defaultConfig()

	root := &cobra.Command{
		Use:          "sceneforge",
		Short:        "Sceneforge compiles 3D assets into declarative components",
		Long:         `Sceneforge is a CLI tool that compiles 3D scene assets into declarative, render-library-ready component sources, with instancing detection, wrapper pruning, and type generation.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			loaded, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./"+configFileName+" or ~/"+configFileName+")")

	root.AddCommand(newGenerateCmd(&cfg))
	root.AddCommand(newInspectCmd())
	root.AddCommand(newGraphCmd(&cfg))
	root.AddCommand(newServeCmd(&cfg))
	root.AddCommand(newCacheCmd(&cfg))

	return root.ExecuteContext(ctx)
}
