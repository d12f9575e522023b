// Package model holds the central calendar types shared by the codec,
// the recurrence engine and the lifecycle coordinator.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Cadence is the recurrence step of a series.
type Cadence int

const (
	CadenceNone Cadence = iota
	CadenceDaily
	CadenceWeekly
	CadenceMonthly
)

// Wire codes used by callers (and the original storage format) to select a
// cadence: 0=none, 1=daily, 7=weekly, 30=monthly.
const (
	CadenceCodeNone    = 0
	CadenceCodeDaily   = 1
	CadenceCodeWeekly  = 7
	CadenceCodeMonthly = 30
)

// CadenceFromCode maps a wire code to a Cadence. Unknown codes map to
// CadenceNone; callers never see an error for a bad code.
func CadenceFromCode(code int) Cadence {
	switch code {
	case CadenceCodeDaily:
		return CadenceDaily
	case CadenceCodeWeekly:
		return CadenceWeekly
	case CadenceCodeMonthly:
		return CadenceMonthly
	default:
		return CadenceNone
	}
}

// Code returns the wire code for c.
func (c Cadence) Code() int {
	switch c {
	case CadenceDaily:
		return CadenceCodeDaily
	case CadenceWeekly:
		return CadenceCodeWeekly
	case CadenceMonthly:
		return CadenceCodeMonthly
	default:
		return CadenceCodeNone
	}
}

func (c Cadence) String() string {
	switch c {
	case CadenceDaily:
		return "daily"
	case CadenceWeekly:
		return "weekly"
	case CadenceMonthly:
		return "monthly"
	default:
		return "none"
	}
}

// Event is a single scheduled occurrence. For a recurring series,
// occurrence N>0 carries the derived uid "{baseUid}_{N}" while occurrence 0
// keeps the original uid; BaseUID reverses that convention.
type Event struct {
	ID  int64  // storage-assigned surrogate key; 0 until persisted
	UID string // stable external identity (RFC5545 UID)

	Title       string
	Description string
	Location    string

	// Start/End are absolute instants. Timezone is the IANA zone used for
	// display and wall-clock recurrence arithmetic; it never alters the
	// stored instant.
	Start    time.Time
	End      time.Time
	Timezone string

	// ReminderLead is the reminder lead time in minutes before Start;
	// nil means no reminder.
	ReminderLead *int

	Cadence    Cadence
	RingsAloud bool

	CreatedAt  time.Time
	ModifiedAt time.Time
}

// BaseUID strips a trailing "_{N}" numeric suffix from uid, yielding the
// identity shared by every occurrence of a series. A uid without the suffix
// is returned unchanged.
func BaseUID(uid string) string {
	i := strings.LastIndexByte(uid, '_')
	if i < 0 || i == len(uid)-1 {
		return uid
	}
	for _, r := range uid[i+1:] {
		if r < '0' || r > '9' {
			return uid
		}
	}
	return uid[:i]
}

// OccurrenceUID derives the uid of occurrence n of the series rooted at
// baseUID. Occurrence 0 is the base event itself and keeps its own uid.
func OccurrenceUID(baseUID string, n int) string {
	if n == 0 {
		return baseUID
	}
	return fmt.Sprintf("%s_%d", baseUID, n)
}

// NormalizeRange enforces the editor-side invariant End >= Start: a
// violating end is bumped to Start + 1h. Imported data is deliberately not
// run through this.
func (e *Event) NormalizeRange() {
	if e.End.Before(e.Start) {
		e.End = e.Start.Add(time.Hour)
	}
}

// Duration returns the event length.
func (e *Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// ReminderRecord is the persisted reminder derived from an event. At most
// one record exists per event id at any time.
type ReminderRecord struct {
	EventID int64
	// FireAt is Start minus the lead time.
	FireAt time.Time
}

// ReminderFor computes the reminder record for e, or nil when e carries no
// lead time.
func ReminderFor(e *Event) *ReminderRecord {
	if e.ReminderLead == nil {
		return nil
	}
	return &ReminderRecord{
		EventID: e.ID,
		FireAt:  e.Start.Add(-time.Duration(*e.ReminderLead) * time.Minute),
	}
}

// ImportResult summarizes one import run. It is never persisted.
type ImportResult struct {
	Total    int
	Imported int
	Skipped  int
	Errors   []string
}
