// Package event contains the lifecycle coordinator: it drives series
// creation, edits, deletes, iCalendar import/export and reminder upkeep
// against the store and scheduler collaborators.
package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"caldesk/internal/alarm"
	"caldesk/internal/dbx"
	"caldesk/internal/ics"
	applog "caldesk/internal/log"
	"caldesk/internal/metrics"
	"caldesk/internal/model"
	"caldesk/internal/recur"
	"caldesk/internal/store"
)

// Service orchestrates event mutations. All mutation entry points are
// expected to be serialized by the caller per base uid; reads may run
// freely against committed state.
type Service struct {
	db      *sql.DB
	sched   alarm.Scheduler
	engine  *recur.Engine
	decoder *ics.Decoder

	now func() time.Time
}

func NewService(db *sql.DB, sched alarm.Scheduler, engine *recur.Engine, decoder *ics.Decoder) *Service {
	return &Service{
		db:      db,
		sched:   sched,
		engine:  engine,
		decoder: decoder,
		now:     time.Now,
	}
}

// schedOp is a scheduler call deferred until after the transaction commits,
// so a rolled-back save never cancels or registers anything.
type schedOp struct {
	cancel     bool
	eventID    int64
	fireAt     time.Time
	ringsAloud bool
}

func (s *Service) applySchedOps(ops []schedOp) {
	for _, op := range ops {
		if op.cancel {
			s.sched.CancelReminder(op.eventID)
		} else {
			s.sched.ScheduleReminder(op.eventID, op.fireAt, op.ringsAloud)
		}
	}
}

// SaveSeries persists the series generated from base under the given
// cadence code (0/1/7/30; anything else means no recurrence) and returns
// the id of occurrence 0.
//
// When base carries a storage id this is an edit: every other stored
// occurrence of the series is removed first, the row of occurrence 0 is
// updated in place, and the remaining occurrences are inserted fresh. The
// whole persistence step runs in one transaction; a failure leaves the
// prior state untouched. Reminder registration with the scheduler happens
// after commit.
func (s *Service) SaveSeries(ctx context.Context, base model.Event, leadMinutes *int, cadenceCode int) (int64, error) {
	cadence := model.CadenceFromCode(cadenceCode)
	now := s.now()

	base.ReminderLead = leadMinutes
	base.ModifiedAt = now
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}

	occs, err := s.engine.Expand(base, cadence)
	if err != nil {
		return 0, err
	}

	editing := base.ID != 0
	var ops []schedOp

	err = dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		events := store.NewSQLiteEventRepository(tx)
		reminders := store.NewSQLiteReminderRepository(tx)

		if editing {
			siblings, err := events.FindBySeries(ctx, model.BaseUID(base.UID))
			if err != nil {
				return err
			}
			for _, sib := range siblings {
				if sib.ID == base.ID {
					continue
				}
				if err := reminders.DeleteByEventID(ctx, sib.ID); err != nil {
					return err
				}
				if err := events.Delete(ctx, sib.ID); err != nil {
					return err
				}
				ops = append(ops, schedOp{cancel: true, eventID: sib.ID})
			}
		}

		start := 0
		if editing {
			occs[0].ID = base.ID
			if err := events.Update(ctx, &occs[0]); err != nil {
				return err
			}
			start = 1
		}
		if _, err := events.InsertMany(ctx, occs[start:]); err != nil {
			return err
		}

		for i := range occs {
			occ := &occs[i]
			// Always clear any prior reminder; recreate only when a lead
			// is set.
			if err := reminders.DeleteByEventID(ctx, occ.ID); err != nil {
				return err
			}
			ops = append(ops, schedOp{cancel: true, eventID: occ.ID})
			if rec := model.ReminderFor(occ); rec != nil {
				if err := reminders.Insert(ctx, rec); err != nil {
					return err
				}
				ops = append(ops, schedOp{eventID: occ.ID, fireAt: rec.FireAt, ringsAloud: occ.RingsAloud})
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("event: save series %q: %w", base.UID, err)
	}

	s.applySchedOps(ops)
	metrics.SeriesSaved.Inc()
	metrics.OccurrencesPersisted.Add(float64(len(occs)))
	applog.Info("series saved",
		"uid", occs[0].UID, "cadence", cadence.String(), "occurrences", len(occs), "editing", editing)
	return occs[0].ID, nil
}

// DeleteSeries removes every stored occurrence sharing the base uid of e,
// together with reminders and scheduled alarms. Deleting any single
// occurrence removes the entire series.
func (s *Service) DeleteSeries(ctx context.Context, e model.Event) error {
	var ops []schedOp

	err := dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		events := store.NewSQLiteEventRepository(tx)
		reminders := store.NewSQLiteReminderRepository(tx)

		all, err := events.FindBySeries(ctx, model.BaseUID(e.UID))
		if err != nil {
			return err
		}
		for _, occ := range all {
			if err := reminders.DeleteByEventID(ctx, occ.ID); err != nil {
				return err
			}
			if err := events.Delete(ctx, occ.ID); err != nil {
				return err
			}
			ops = append(ops, schedOp{cancel: true, eventID: occ.ID})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("event: delete series %q: %w", e.UID, err)
	}

	s.applySchedOps(ops)
	metrics.SeriesDeleted.Inc()
	applog.Info("series deleted", "base_uid", model.BaseUID(e.UID), "occurrences", len(ops))
	return nil
}

// Import decodes an iCalendar document and merges each decoded event into
// the store as a one-shot insert or update keyed by uid; no recurrence
// expansion happens on this path. With overwrite set, a uid conflict
// replaces the stored row; otherwise the existing row wins and the item is
// counted as skipped. Per-item failures are recorded and do not abort the
// rest; a document-level decode failure short-circuits with zero counts.
func (s *Service) Import(ctx context.Context, text string, overwrite bool) model.ImportResult {
	var res model.ImportResult

	decoded, err := s.decoder.Decode(text)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return res
	}
	res.Total = len(decoded)

	for _, ev := range decoded {
		imported, err := s.importOne(ctx, ev, overwrite)
		switch {
		case err != nil:
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", ev.UID, err))
		case imported:
			res.Imported++
			metrics.EventsImported.Inc()
		default:
			res.Skipped++
			metrics.EventsImportSkipped.Inc()
		}
	}

	applog.Info("import finished",
		"total", res.Total, "imported", res.Imported, "skipped", res.Skipped, "errors", len(res.Errors))
	return res
}

func (s *Service) importOne(ctx context.Context, ev model.Event, overwrite bool) (bool, error) {
	now := s.now()
	var ops []schedOp

	imported := true
	err := dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		events := store.NewSQLiteEventRepository(tx)
		reminders := store.NewSQLiteReminderRepository(tx)

		existing, err := events.FindByUID(ctx, ev.UID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if existing != nil && !overwrite {
			imported = false
			return nil
		}

		ev.ModifiedAt = now
		if ev.CreatedAt.IsZero() {
			ev.CreatedAt = now
			if existing != nil {
				ev.CreatedAt = existing.CreatedAt
			}
		}

		if existing != nil {
			ev.ID = existing.ID
			if err := events.Update(ctx, &ev); err != nil {
				return err
			}
		} else {
			if _, err := events.Insert(ctx, &ev); err != nil {
				return err
			}
		}

		if err := reminders.DeleteByEventID(ctx, ev.ID); err != nil {
			return err
		}
		ops = append(ops, schedOp{cancel: true, eventID: ev.ID})
		if rec := model.ReminderFor(&ev); rec != nil {
			if err := reminders.Insert(ctx, rec); err != nil {
				return err
			}
			ops = append(ops, schedOp{eventID: ev.ID, fireAt: rec.FireAt, ringsAloud: ev.RingsAloud})
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	s.applySchedOps(ops)
	return imported, nil
}

// Export serializes every stored event into one iCalendar document.
func (s *Service) Export(ctx context.Context) (string, error) {
	events, err := store.NewSQLiteEventRepository(s.db).FindAll(ctx)
	if err != nil {
		return "", fmt.Errorf("event: export: %w", err)
	}
	return ics.Encode(events), nil
}

// List returns a snapshot of all stored events ordered by start instant.
func (s *Service) List(ctx context.Context) ([]model.Event, error) {
	return store.NewSQLiteEventRepository(s.db).FindAll(ctx)
}

// GetByUID returns the stored event with the exact uid.
func (s *Service) GetByUID(ctx context.Context, uid string) (*model.Event, error) {
	return store.NewSQLiteEventRepository(s.db).FindByUID(ctx, uid)
}

// Reminders returns every persisted reminder record, for seeding the
// dispatcher on daemon start.
func (s *Service) Reminders(ctx context.Context) ([]model.ReminderRecord, error) {
	return store.NewSQLiteReminderRepository(s.db).FindAll(ctx)
}
