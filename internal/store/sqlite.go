package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"caldesk/internal/dbx"
	"caldesk/internal/model"
)

const eventColumns = `id, uid, title, description, location, start_at, end_at,
	timezone, reminder_lead, cadence, rings_aloud, created_at, modified_at`

// SQLiteEventRepository implements EventRepository on a DBTX, so the same
// repository works against the database handle or inside a transaction.
type SQLiteEventRepository struct {
	db dbx.DBTX
}

func NewSQLiteEventRepository(db dbx.DBTX) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Insert(ctx context.Context, e *model.Event) (int64, error) {
	query := `INSERT INTO events
		(uid, series_uid, title, description, location, start_at, end_at,
		 timezone, reminder_lead, cadence, rings_aloud, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		e.UID, model.BaseUID(e.UID), e.Title, e.Description, e.Location,
		e.Start.UnixMilli(), e.End.UnixMilli(), e.Timezone,
		nullableLead(e.ReminderLead), e.Cadence.Code(), boolToInt(e.RingsAloud),
		e.CreatedAt.UnixMilli(), e.ModifiedAt.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("store: insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: insert event id: %w", err)
	}
	e.ID = id
	return id, nil
}

func (r *SQLiteEventRepository) InsertMany(ctx context.Context, events []model.Event) ([]int64, error) {
	ids := make([]int64, 0, len(events))
	for i := range events {
		id, err := r.Insert(ctx, &events[i])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *SQLiteEventRepository) Update(ctx context.Context, e *model.Event) error {
	query := `UPDATE events SET
		uid = ?, series_uid = ?, title = ?, description = ?, location = ?,
		start_at = ?, end_at = ?, timezone = ?, reminder_lead = ?,
		cadence = ?, rings_aloud = ?, created_at = ?, modified_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		e.UID, model.BaseUID(e.UID), e.Title, e.Description, e.Location,
		e.Start.UnixMilli(), e.End.UnixMilli(), e.Timezone,
		nullableLead(e.ReminderLead), e.Cadence.Code(), boolToInt(e.RingsAloud),
		e.CreatedAt.UnixMilli(), e.ModifiedAt.UnixMilli(), e.ID)
	if err != nil {
		return fmt.Errorf("store: update event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update event rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteEventRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) FindAll(ctx context.Context) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY start_at, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: select events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *SQLiteEventRepository) FindByUID(ctx context.Context, uid string) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE uid = ?`
	row := r.db.QueryRowContext(ctx, query, uid)

	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: select event by uid: %w", err)
	}
	return e, nil
}

func (r *SQLiteEventRepository) FindBySeries(ctx context.Context, baseUID string) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE series_uid = ? ORDER BY start_at, id`
	rows, err := r.db.QueryContext(ctx, query, baseUID)
	if err != nil {
		return nil, fmt.Errorf("store: select series: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var (
		e          model.Event
		start, end int64
		created    int64
		modified   int64
		lead       sql.NullInt64
		cadence    int
		rings      int
	)
	err := row.Scan(&e.ID, &e.UID, &e.Title, &e.Description, &e.Location,
		&start, &end, &e.Timezone, &lead, &cadence, &rings, &created, &modified)
	if err != nil {
		return nil, err
	}

	e.Start = time.UnixMilli(start).UTC()
	e.End = time.UnixMilli(end).UTC()
	e.CreatedAt = time.UnixMilli(created).UTC()
	e.ModifiedAt = time.UnixMilli(modified).UTC()
	e.Cadence = model.CadenceFromCode(cadence)
	e.RingsAloud = rings != 0
	if lead.Valid {
		v := int(lead.Int64)
		e.ReminderLead = &v
	}
	return &e, nil
}

func scanEvents(rows *sql.Rows) ([]model.Event, error) {
	var out []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func nullableLead(lead *int) any {
	if lead == nil {
		return nil
	}
	return *lead
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SQLiteReminderRepository implements ReminderRepository on a DBTX.
type SQLiteReminderRepository struct {
	db dbx.DBTX
}

func NewSQLiteReminderRepository(db dbx.DBTX) *SQLiteReminderRepository {
	return &SQLiteReminderRepository{db: db}
}

func (r *SQLiteReminderRepository) Insert(ctx context.Context, rec *model.ReminderRecord) error {
	query := `INSERT INTO reminders (event_id, fire_at) VALUES (?, ?)
		ON CONFLICT(event_id) DO UPDATE SET fire_at = excluded.fire_at`
	if _, err := r.db.ExecContext(ctx, query, rec.EventID, rec.FireAt.UnixMilli()); err != nil {
		return fmt.Errorf("store: upsert reminder: %w", err)
	}
	return nil
}

func (r *SQLiteReminderRepository) DeleteByEventID(ctx context.Context, eventID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("store: delete reminder: %w", err)
	}
	return nil
}

func (r *SQLiteReminderRepository) FindAll(ctx context.Context) ([]model.ReminderRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT event_id, fire_at FROM reminders ORDER BY fire_at`)
	if err != nil {
		return nil, fmt.Errorf("store: select reminders: %w", err)
	}
	defer rows.Close()

	var out []model.ReminderRecord
	for rows.Next() {
		var rec model.ReminderRecord
		var fireAt int64
		if err := rows.Scan(&rec.EventID, &fireAt); err != nil {
			return nil, err
		}
		rec.FireAt = time.UnixMilli(fireAt).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
