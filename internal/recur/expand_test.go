package recur

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caldesk/internal/model"
	"caldesk/internal/tz"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(cap int) *Engine {
	g := NewEngine(tz.New("UTC"), cap)
	g.Now = func() time.Time { return fixedNow }
	return g
}

func baseEvent() model.Event {
	return model.Event{
		ID:        41,
		UID:       "base-uid",
		Title:     "Gym",
		Start:     time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 6, 3, 19, 30, 0, 0, time.UTC),
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestExpandNoneReturnsBaseUnchanged(t *testing.T) {
	base := baseEvent()
	out, err := newTestEngine(0).Expand(base, model.CadenceNone)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, base, out[0])
}

func TestExpandDailyCapAndUIDs(t *testing.T) {
	base := baseEvent()
	out, err := newTestEngine(365).Expand(base, model.CadenceDaily)
	require.NoError(t, err)
	require.Len(t, out, 365)

	assert.Equal(t, "base-uid", out[0].UID)
	assert.Equal(t, int64(41), out[0].ID)
	assert.Equal(t, base.CreatedAt, out[0].CreatedAt)
	assert.True(t, out[0].Start.Equal(base.Start))

	for i := 1; i < len(out); i++ {
		assert.Equal(t, fmt.Sprintf("base-uid_%d", i), out[i].UID)
		assert.Equal(t, int64(0), out[i].ID)
		assert.Equal(t, fixedNow, out[i].CreatedAt)
		assert.True(t, out[i].Start.Equal(base.Start.AddDate(0, 0, i)), "occurrence %d start", i)
		assert.Equal(t, 90*time.Minute, out[i].End.Sub(out[i].Start))
	}

	for _, occ := range out {
		assert.Equal(t, model.CadenceDaily, occ.Cadence)
		assert.Equal(t, fixedNow, occ.ModifiedAt)
		assert.Equal(t, "base-uid", model.BaseUID(occ.UID))
	}
}

func TestExpandFromSuffixedOccurrenceRootsAtBaseUID(t *testing.T) {
	base := baseEvent()
	base.UID = "base-uid_2"

	out, err := newTestEngine(3).Expand(base, model.CadenceWeekly)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "base-uid", out[0].UID)
	assert.Equal(t, int64(41), out[0].ID)
	assert.Equal(t, "base-uid_1", out[1].UID)
	assert.Equal(t, "base-uid_2", out[2].UID)

	seen := make(map[string]bool, len(out))
	for _, occ := range out {
		assert.False(t, seen[occ.UID], "duplicate uid %s", occ.UID)
		seen[occ.UID] = true
	}
}

func TestExpandWeeklyStep(t *testing.T) {
	base := baseEvent()
	out, err := newTestEngine(4).Expand(base, model.CadenceWeekly)
	require.NoError(t, err)
	require.Len(t, out, 4)

	for i := 1; i < len(out); i++ {
		assert.True(t, out[i].Start.Equal(base.Start.AddDate(0, 0, 7*i)), "occurrence %d", i)
	}
}

func TestExpandMonthlyStep(t *testing.T) {
	base := baseEvent() // starts on the 3rd, present in every month
	out, err := newTestEngine(6).Expand(base, model.CadenceMonthly)
	require.NoError(t, err)
	require.Len(t, out, 6)

	for i, occ := range out {
		assert.Equal(t, 3, occ.Start.Day(), "occurrence %d day", i)
		assert.Equal(t, 18, occ.Start.Hour(), "occurrence %d hour", i)
	}
	assert.Equal(t, time.July, out[1].Start.Month())
	assert.Equal(t, time.November, out[5].Start.Month())
}

func TestExpandPreservesWallClockAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Daily series starting two days before the US spring-forward on
	// 2024-03-10. Every occurrence must stay 09:00-10:00 local.
	base := model.Event{
		UID:      "dst-uid",
		Title:    "Morning sync",
		Start:    time.Date(2024, 3, 8, 9, 0, 0, 0, ny),
		End:      time.Date(2024, 3, 8, 10, 0, 0, 0, ny),
		Timezone: "America/New_York",
	}

	g := NewEngine(tz.New("UTC"), 5)
	g.Now = func() time.Time { return fixedNow }
	out, err := g.Expand(base, model.CadenceDaily)
	require.NoError(t, err)
	require.Len(t, out, 5)

	for i, occ := range out {
		local := occ.Start.In(ny)
		assert.Equal(t, 9, local.Hour(), "occurrence %d start hour", i)
		assert.Equal(t, 10, occ.End.In(ny).Hour(), "occurrence %d end hour", i)
	}
}

func TestExpandCapDefaultsWhenUnset(t *testing.T) {
	g := NewEngine(tz.New("UTC"), 0)
	assert.Equal(t, DefaultCap, g.Cap)
}
