package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teemow/todoist-daily/internal/daily"
	"github.com/teemow/todoist-daily/internal/todoist"
)

// errMissingToken is returned by report when no access token is configured.
var errMissingToken = errors.New("a Todoist access token is required (--token or TODOIST_TOKEN)")

// newReportCmd builds the report command. clientOpts are appended to the
// Todoist client options.
func newReportCmd(clientOpts ...todoist.Option) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print yesterday's and today's tasks",
		Long: `Print the tasks completed yesterday and the tasks due today in the
configured project, using a personal Todoist token instead of the OAuth flow.

The token is read from --token or TODOIST_TOKEN.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Token == "" {
				return errMissingToken
			}

			opts := append([]todoist.Option{
				todoist.WithTimeout(cfg.TodoistTimeout),
				todoist.WithProjectLabel(cfg.ProjectName),
				todoist.WithLogger(logger),
			}, clientOpts...)
			client := todoist.NewClient(cmd.Context(), cfg.Token, opts...)

			aggregator := daily.NewAggregator(client,
				daily.WithProjectName(cfg.ProjectName),
				daily.WithLocation(cfg.Location),
				daily.WithConcurrency(cfg.FetchConcurrency),
				daily.WithLogger(logger),
			)

			report, err := aggregator.Build(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return writeReportJSON(cmd.OutOrStdout(), report)
			}
			return writeReportText(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")

	return cmd
}

func writeReportJSON(w io.Writer, report daily.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writeReportText(w io.Writer, report daily.Report) error {
	sections := []struct {
		title string
		tasks []todoist.Task
	}{
		{"Yesterday", report.Yesterday},
		{"Today", report.Today},
	}

	for i, section := range sections {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, section.title); err != nil {
			return err
		}
		if len(section.tasks) == 0 {
			if _, err := fmt.Fprintln(w, "  (none)"); err != nil {
				return err
			}
			continue
		}
		for _, task := range section.tasks {
			if _, err := fmt.Fprintf(w, "  - %s\n", task.ContentWithParent); err != nil {
				return err
			}
		}
	}
	return nil
}
