// Package store is the persistence layer: repository interfaces for events
// and reminders plus their SQLite implementations. The lifecycle
// coordinator only depends on the interfaces.
package store

import (
	"context"
	"errors"

	"caldesk/internal/model"
)

// ErrNotFound is returned by lookups that match no row. Callers match it
// with errors.Is.
var ErrNotFound = errors.New("store: not found")

// EventRepository is the persistence collaborator for events.
type EventRepository interface {
	// Insert stores a new event and returns its storage-assigned id.
	Insert(ctx context.Context, e *model.Event) (int64, error)

	// InsertMany stores events in order and returns their ids.
	InsertMany(ctx context.Context, events []model.Event) ([]int64, error)

	// Update replaces the stored row identified by e.ID.
	Update(ctx context.Context, e *model.Event) error

	// Delete removes the event with the given id. Deleting a missing id
	// is not an error.
	Delete(ctx context.Context, id int64) error

	// FindAll returns a snapshot of every stored event ordered by start
	// instant, then id.
	FindAll(ctx context.Context) ([]model.Event, error)

	// FindByUID returns the event with the exact uid, or ErrNotFound.
	FindByUID(ctx context.Context, uid string) (*model.Event, error)

	// FindBySeries returns every occurrence whose base uid matches,
	// ordered by start instant.
	FindBySeries(ctx context.Context, baseUID string) ([]model.Event, error)
}

// ReminderRepository is the persistence collaborator for reminder records.
type ReminderRepository interface {
	// Insert stores a reminder record, replacing any prior record for the
	// same event id.
	Insert(ctx context.Context, r *model.ReminderRecord) error

	// DeleteByEventID removes the reminder for the event; removing a
	// missing reminder is a no-op.
	DeleteByEventID(ctx context.Context, eventID int64) error

	// FindAll returns every stored reminder record.
	FindAll(ctx context.Context) ([]model.ReminderRecord, error)
}
