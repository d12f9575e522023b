package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	applog "caldesk/internal/log"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the reminder dispatcher and metrics endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := seedDispatcher(ctx); err != nil {
			return err
		}
		if err := disp.Start(cfg.ReminderCron); err != nil {
			return err
		}
		defer disp.Stop()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: cfg.Listen, Handler: mux}

		errCh := make(chan error, 1)
		go func() {
			applog.Info("metrics endpoint listening", "addr", cfg.Listen)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			applog.Info("signal received, shutting down", "signal", sig.String())
		case err := <-errCh:
			return err
		}

		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	},
}

// seedDispatcher loads persisted reminders into the in-memory registry so a
// restart does not lose pending alarms.
func seedDispatcher(ctx context.Context) error {
	events, err := svc.List(ctx)
	if err != nil {
		return err
	}
	rings := make(map[int64]bool, len(events))
	for _, e := range events {
		rings[e.ID] = e.RingsAloud
	}

	recs, err := svc.Reminders(ctx)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		disp.ScheduleReminder(rec.EventID, rec.FireAt, rings[rec.EventID])
	}
	applog.Info("dispatcher seeded", "reminders", len(recs))
	return nil
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
