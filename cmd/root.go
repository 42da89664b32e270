package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/todoist-daily/internal/config"
	"github.com/teemow/todoist-daily/internal/logging"
)

// version will be set by main
var version = "dev"

// rootCmd represents the base command for the todoist-daily application
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "todoist-daily",
		Short: "Shows yesterday's and today's Todoist tasks of one project",
		Long: `todoist-daily lists the tasks you completed yesterday and the tasks due
today in a single Todoist project, each labelled with its top-most parent task.

It can run as:
  - A web dashboard with Todoist OAuth login (serve)
  - A one-off report printed to the terminal (report)`,
		SilenceUsage: true,
		Version:      version,
	}
	cmd.SetVersionTemplate(`{{printf "todoist-daily version %s\n" .Version}}`)

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newGenerateKeyCmd())
	return cmd
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the settings for cmd and builds the logger they describe.
// The logger is also installed as the slog default.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	v, err := config.NewViper(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, fmt.Errorf("invalid logging configuration: %w", err)
	}
	slog.SetDefault(logger)

	return cfg, logger, nil
}
