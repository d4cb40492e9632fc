package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/binderlink/binderlink/internal/config"
	"github.com/binderlink/binderlink/internal/errors"
	"github.com/binderlink/binderlink/pkg/events"
)

// keepOpen hides the Close method of a shared writer such as stdout.
type keepOpen struct{ io.Writer }

// openEventLog builds the launch event log from the configured sinks.
func openEventLog(cfg *config.Config, stdout io.Writer) (*events.Log, error) {
	var sinks []events.Sink

	switch path := cfg.ResolvePath(cfg.Events.Log); path {
	case "":
	case "-":
		sinks = append(sinks, events.NewLogSink(keepOpen{stdout}))
	default:
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, errors.New("E141").WithDetailf("open %s", path).Wrap(err)
		}
		sinks = append(sinks, events.NewLogSink(f))
	}

	if cfg.Events.SQLite != "" {
		db, err := events.OpenSQLite(cfg.ResolvePath(cfg.Events.SQLite))
		if err != nil {
			events.NewLog(sinks...).Close()
			return nil, errors.New("E141").Wrap(err)
		}
		sinks = append(sinks, db)
	}

	return events.NewLog(sinks...), nil
}

func eventsCmd(opts *globalOptions) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent launch events",
		Long: `Show the most recent launch events recorded in the SQLite event
database configured as events.sqlite.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cfg.Events.SQLite == "" {
				return errors.Newf(errors.CategoryConfig, "no event database configured").
					WithSuggestion("Set events.sqlite in " + config.ConfigFileName)
			}

			db, err := events.OpenSQLite(cfg.ResolvePath(cfg.Events.SQLite))
			if err != nil {
				return err
			}
			defer db.Close()

			recent, err := db.Recent(cmd.Context(), events.LaunchSchema, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), recent)
			}
			return printLaunches(cmd.OutOrStdout(), recent)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of events to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}

func printLaunches(w io.Writer, capsules []events.Capsule) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSTATUS\tPROVIDER\tSPEC")
	for _, c := range capsules {
		var e events.Launch
		if err := json.Unmarshal(c.Event, &e); err != nil {
			return fmt.Errorf("event %s: %w", c.ID, err)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Timestamp.Local().Format(time.DateTime), e.Status, e.Provider, e.Spec)
	}
	return tw.Flush()
}
