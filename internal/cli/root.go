// Package cli provides the caldesk command line interface.
package cli

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"caldesk/internal/alarm"
	"caldesk/internal/config"
	"caldesk/internal/event"
	"caldesk/internal/ics"
	applog "caldesk/internal/log"
	"caldesk/internal/recur"
	"caldesk/internal/store"
	"caldesk/internal/tz"
)

// shared per-invocation state (set in PersistentPreRunE)
var (
	configPath string
	verbose    bool

	cfg   *config.Config
	db    *sql.DB
	zones *tz.Codec
	disp  *alarm.Dispatcher
	svc   *event.Service
)

var rootCmd = &cobra.Command{
	Use:   "caldesk",
	Short: "Local calendar manager with recurrence, reminders and iCalendar import/export",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			applog.SetLevel(applog.LevelDebug)
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config %s: %w", configPath, err)
		}

		db, err = store.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}

		zones = tz.New(cfg.Timezone)
		disp = alarm.NewDispatcher(nil)
		svc = event.NewService(db, disp, recur.NewEngine(zones, cfg.OccurrenceCap), ics.NewDecoder(zones))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			_ = db.Close()
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "caldesk.yaml"
	}
	return filepath.Join(home, ".config", "caldesk", "config.yaml")
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// timestamp layouts accepted by --start/--end flags.
var inputLayouts = []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

func parseWhen(value string, loc *time.Location) (time.Time, error) {
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q (want e.g. 2006-01-02 15:04)", value)
}
