// Package alarm provides the reminder scheduling collaborator: the
// Scheduler interface consumed by the lifecycle coordinator and an
// in-process Dispatcher that fires due reminders on a cron sweep.
package alarm

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	applog "caldesk/internal/log"
	"caldesk/internal/metrics"
)

// Scheduler registers and cancels reminder firings. Registration is
// fire-and-forget and must not block; cancelling an unknown reminder is a
// no-op.
type Scheduler interface {
	ScheduleReminder(eventID int64, fireAt time.Time, ringsAloud bool)
	CancelReminder(eventID int64)
}

// Notification describes a reminder that came due.
type Notification struct {
	EventID    int64
	FireAt     time.Time
	RingsAloud bool
}

type pending struct {
	fireAt     time.Time
	ringsAloud bool
}

// Dispatcher keeps a registry of pending reminders keyed by event id and
// sweeps it on a cron schedule. Each entry fires at most once. The
// per-key registry makes schedule/cancel race-free without a global lock
// around callers.
type Dispatcher struct {
	mu      sync.Mutex
	pending map[int64]pending

	notify func(Notification)
	cron   *cron.Cron
}

// NewDispatcher creates a dispatcher delivering due reminders to notify.
// A nil notify only logs firings.
func NewDispatcher(notify func(Notification)) *Dispatcher {
	if notify == nil {
		notify = func(n Notification) {
			applog.Info("reminder due", "event_id", n.EventID, "fire_at", n.FireAt.Format(time.RFC3339), "rings_aloud", n.RingsAloud)
		}
	}
	return &Dispatcher{
		pending: make(map[int64]pending),
		notify:  notify,
	}
}

// ScheduleReminder registers (or replaces) the pending reminder for an
// event.
func (d *Dispatcher) ScheduleReminder(eventID int64, fireAt time.Time, ringsAloud bool) {
	d.mu.Lock()
	d.pending[eventID] = pending{fireAt: fireAt, ringsAloud: ringsAloud}
	d.mu.Unlock()
	metrics.RemindersScheduled.Inc()
}

// CancelReminder drops the pending reminder for an event, if any.
func (d *Dispatcher) CancelReminder(eventID int64) {
	d.mu.Lock()
	delete(d.pending, eventID)
	d.mu.Unlock()
}

// Pending reports how many reminders are currently registered.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Start begins sweeping on the given cron schedule (e.g. "* * * * *").
func (d *Dispatcher) Start(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { d.Sweep(time.Now()) }); err != nil {
		return fmt.Errorf("alarm: bad sweep schedule %q: %w", schedule, err)
	}
	c.Start()
	d.cron = c
	applog.Info("reminder dispatcher started", "schedule", schedule)
	return nil
}

// Stop halts the sweep loop. Pending entries stay registered.
func (d *Dispatcher) Stop() {
	if d.cron != nil {
		d.cron.Stop()
	}
}

// Sweep fires every reminder due at or before now and removes it from the
// registry. Exposed for the cron callback and for tests.
func (d *Dispatcher) Sweep(now time.Time) {
	d.mu.Lock()
	var due []Notification
	for id, p := range d.pending {
		if !p.fireAt.After(now) {
			due = append(due, Notification{EventID: id, FireAt: p.fireAt, RingsAloud: p.ringsAloud})
			delete(d.pending, id)
		}
	}
	d.mu.Unlock()

	for _, n := range due {
		metrics.RemindersFired.Inc()
		d.notify(n)
	}
}
