// Package recur materializes a recurring series: given a base event and a
// cadence it produces the bounded list of concrete occurrences that the
// lifecycle coordinator persists as one series.
package recur

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	applog "caldesk/internal/log"
	"caldesk/internal/model"
	"caldesk/internal/tz"
)

// DefaultCap bounds expansion when no explicit cap is configured. The cap
// counts occurrences, not time, so a daily series covers about a year while
// a monthly one covers thirty.
const DefaultCap = 365

// Engine expands events. Zones supplies the wall-clock context for
// duration arithmetic; Now stamps audit fields and defaults to time.Now.
type Engine struct {
	Zones *tz.Codec
	Cap   int
	Now   func() time.Time
}

func NewEngine(zones *tz.Codec, cap int) *Engine {
	if cap <= 0 {
		cap = DefaultCap
	}
	return &Engine{Zones: zones, Cap: cap, Now: time.Now}
}

// Expand generates the occurrence series for base under cadence.
//
// CadenceNone returns the base event untouched. Otherwise up to Cap
// occurrences are generated, stepping one day, week or calendar month from
// the base start. Each occurrence keeps the base duration in wall-clock
// terms: the end is recomputed against the new start in the event's zone,
// so a series crossing a DST shift still ends at the same local time.
//
// Occurrence 0 keeps the base id, createdAt and exact instants, rooted at
// the base uid even when the input carries a suffixed one; occurrence
// i >= 1 gets the derived uid "{baseUid}_{i}" and a fresh createdAt. Every
// occurrence gets a fresh lastModifiedAt and carries the cadence.
func (g *Engine) Expand(base model.Event, cadence model.Cadence) ([]model.Event, error) {
	if cadence == model.CadenceNone {
		return []model.Event{base}, nil
	}

	loc := g.Zones.Location(base.Timezone)
	start := base.Start.In(loc)

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    freqFor(cadence),
		Dtstart: start,
		Count:   g.Cap,
	})
	if err != nil {
		return nil, fmt.Errorf("recur: build rule for cadence %s: %w", cadence, err)
	}

	starts := r.All()
	now := g.Now()
	baseUID := model.BaseUID(base.UID)
	durMin := int(base.End.Sub(base.Start) / time.Minute)

	out := make([]model.Event, 0, len(starts))
	for i, occStart := range starts {
		occ := base
		occ.Cadence = cadence
		occ.ModifiedAt = now

		if i == 0 {
			// The base event is its own first occurrence; it keeps its
			// exact instants and identity under the base uid, disjoint
			// from the derived uids below.
			occ.UID = baseUID
			out = append(out, occ)
			continue
		}

		occ.ID = 0
		occ.UID = model.OccurrenceUID(baseUID, i)
		occ.CreatedAt = now
		occ.Start = occStart
		occ.End = wallAdd(occStart, durMin)
		out = append(out, occ)
	}

	applog.Debug("recur: expanded series",
		"uid", base.UID, "cadence", cadence.String(), "occurrences", len(out))
	return out, nil
}

func freqFor(c model.Cadence) rrule.Frequency {
	switch c {
	case model.CadenceWeekly:
		return rrule.WEEKLY
	case model.CadenceMonthly:
		return rrule.MONTHLY
	default:
		return rrule.DAILY
	}
}

// wallAdd adds minutes to t in wall-clock terms: time.Date normalizes the
// overflow in t's location, so the result lands on the expected local time
// even when the interval spans a DST transition.
func wallAdd(t time.Time, minutes int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute()+minutes, t.Second(), t.Nanosecond(), t.Location())
}
