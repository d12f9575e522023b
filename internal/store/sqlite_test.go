package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"caldesk/internal/dbx"
	"caldesk/internal/model"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func sampleEvent(uid string) model.Event {
	return model.Event{
		UID:        uid,
		Title:      "Title " + uid,
		Start:      time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC),
		End:        time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC),
		Timezone:   "Asia/Shanghai",
		Cadence:    model.CadenceWeekly,
		CreatedAt:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ModifiedAt: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestEventInsertAndFindByUID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteEventRepository(db)
	ctx := context.Background()

	lead := 20
	e := sampleEvent("uid-1")
	e.ReminderLead = &lead
	e.RingsAloud = true

	id, err := r.Insert(ctx, &e)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, id, e.ID)

	got, err := r.FindByUID(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, e.Title, got.Title)
	assert.True(t, got.Start.Equal(e.Start))
	assert.True(t, got.End.Equal(e.End))
	assert.Equal(t, "Asia/Shanghai", got.Timezone)
	assert.Equal(t, model.CadenceWeekly, got.Cadence)
	assert.True(t, got.RingsAloud)
	require.NotNil(t, got.ReminderLead)
	assert.Equal(t, 20, *got.ReminderLead)
}

func TestEventFindByUIDNotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteEventRepository(db)

	_, err := r.FindByUID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventInsertMany(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteEventRepository(db)
	ctx := context.Background()

	batch := make([]model.Event, 0, 3)
	for i, uid := range []string{"bulk-a", "bulk-a_1", "bulk-a_2"} {
		e := sampleEvent(uid)
		e.Start = e.Start.AddDate(0, 0, i)
		e.End = e.End.AddDate(0, 0, i)
		batch = append(batch, e)
	}

	ids, err := r.InsertMany(ctx, batch)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	for i, id := range ids {
		assert.Positive(t, id)
		assert.Equal(t, id, batch[i].ID, "element %d id set in place", i)
	}

	got, err := r.FindBySeries(ctx, "bulk-a")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestEventUpdate(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteEventRepository(db)
	ctx := context.Background()

	e := sampleEvent("uid-upd")
	_, err := r.Insert(ctx, &e)
	require.NoError(t, err)

	e.Title = "changed"
	e.ReminderLead = nil
	require.NoError(t, r.Update(ctx, &e))

	got, err := r.FindByUID(ctx, "uid-upd")
	require.NoError(t, err)
	assert.Equal(t, "changed", got.Title)
	assert.Nil(t, got.ReminderLead)

	missing := sampleEvent("ghost")
	missing.ID = 9999
	assert.ErrorIs(t, r.Update(ctx, &missing), ErrNotFound)
}

func TestEventFindBySeries(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteEventRepository(db)
	ctx := context.Background()

	for i, uid := range []string{"series-a", "series-a_1", "series-a_2", "other"} {
		e := sampleEvent(uid)
		e.Start = e.Start.AddDate(0, 0, i)
		e.End = e.End.AddDate(0, 0, i)
		_, err := r.Insert(ctx, &e)
		require.NoError(t, err)
	}

	got, err := r.FindBySeries(ctx, "series-a")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "series-a", got[0].UID)
	assert.Equal(t, "series-a_1", got[1].UID)
	assert.Equal(t, "series-a_2", got[2].UID)
}

func TestEventDeleteIsIdempotent(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteEventRepository(db)
	ctx := context.Background()

	e := sampleEvent("uid-del")
	id, err := r.Insert(ctx, &e)
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, id))
	require.NoError(t, r.Delete(ctx, id))

	all, err := r.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestReminderUpsertAndDelete(t *testing.T) {
	db := setupDB(t)
	events := NewSQLiteEventRepository(db)
	reminders := NewSQLiteReminderRepository(db)
	ctx := context.Background()

	e := sampleEvent("uid-rem")
	id, err := events.Insert(ctx, &e)
	require.NoError(t, err)

	fire := time.Date(2024, 4, 1, 8, 40, 0, 0, time.UTC)
	require.NoError(t, reminders.Insert(ctx, &model.ReminderRecord{EventID: id, FireAt: fire}))

	// re-insert replaces rather than duplicates
	fire2 := fire.Add(10 * time.Minute)
	require.NoError(t, reminders.Insert(ctx, &model.ReminderRecord{EventID: id, FireAt: fire2}))

	all, err := reminders.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].FireAt.Equal(fire2))

	require.NoError(t, reminders.DeleteByEventID(ctx, id))
	require.NoError(t, reminders.DeleteByEventID(ctx, id)) // no-op

	all, err = reminders.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRepositoriesInsideTransaction(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	// a failing transaction leaves no partial series behind
	err := dbx.WithTx(ctx, db, func(ctx context.Context, tx dbx.DBTX) error {
		r := NewSQLiteEventRepository(tx)
		e1 := sampleEvent("tx-1")
		if _, err := r.Insert(ctx, &e1); err != nil {
			return err
		}
		dup := sampleEvent("tx-1") // uid is unique, must fail
		_, err := r.Insert(ctx, &dup)
		return err
	})
	require.Error(t, err)

	all, err := NewSQLiteEventRepository(db).FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
