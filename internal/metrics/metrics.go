// Package metrics holds the Prometheus instruments exposed by the daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SeriesSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caldesk_series_saved_total",
		Help: "Total number of series save operations.",
	})

	SeriesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caldesk_series_deleted_total",
		Help: "Total number of series delete operations.",
	})

	OccurrencesPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caldesk_occurrences_persisted_total",
		Help: "Total number of occurrence rows written by series saves.",
	})

	EventsImported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caldesk_events_imported_total",
		Help: "Total number of events imported from iCalendar documents.",
	})

	EventsImportSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caldesk_events_import_skipped_total",
		Help: "Total number of import candidates skipped due to uid conflicts.",
	})

	RemindersScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caldesk_reminders_scheduled_total",
		Help: "Total number of reminders handed to the dispatcher.",
	})

	RemindersFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caldesk_reminders_fired_total",
		Help: "Total number of reminders fired by the dispatcher.",
	})
)
