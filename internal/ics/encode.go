package ics

import (
	"fmt"
	"strings"
	"time"

	"caldesk/internal/model"
)

// Encode serializes events into a single VCALENDAR document. Output is
// deterministic given input order: fixed property order, LF line endings,
// every timestamp in UTC. The stored display zone is intentionally not
// round-tripped; re-importing an exported file preserves absolute instants
// but loses the named zone.
//
// Round-trip contract with Decode: for any event list, decoding the encoded
// document reproduces start/end instants, title, description, location and
// reminder lead.
func Encode(events []model.Event) string {
	var b strings.Builder

	writeLine(&b, "BEGIN:VCALENDAR")
	writeLine(&b, "VERSION:2.0")
	writeLine(&b, "CALSCALE:GREGORIAN")
	writeLine(&b, "METHOD:PUBLISH")

	for i := range events {
		encodeEvent(&b, &events[i])
	}

	writeLine(&b, "END:VCALENDAR")
	return b.String()
}

func encodeEvent(b *strings.Builder, e *model.Event) {
	writeLine(b, "BEGIN:VEVENT")
	writeLine(b, "UID:"+e.UID)
	writeLine(b, "DTSTART:"+formatUTC(e.Start))
	writeLine(b, "DTEND:"+formatUTC(e.End))
	writeLine(b, "SUMMARY:"+escapeText(e.Title))
	// Blank optional text fields are omitted, not emitted empty.
	if e.Description != "" {
		writeLine(b, "DESCRIPTION:"+escapeText(e.Description))
	}
	if e.Location != "" {
		writeLine(b, "LOCATION:"+escapeText(e.Location))
	}
	if !e.CreatedAt.IsZero() {
		writeLine(b, "CREATED:"+formatUTC(e.CreatedAt))
	}
	if !e.ModifiedAt.IsZero() {
		writeLine(b, "LAST-MODIFIED:"+formatUTC(e.ModifiedAt))
	}
	if e.ReminderLead != nil {
		writeLine(b, "BEGIN:VALARM")
		writeLine(b, "ACTION:DISPLAY")
		writeLine(b, fmt.Sprintf("TRIGGER:-PT%dM", *e.ReminderLead))
		writeLine(b, "END:VALARM")
	}
	writeLine(b, "END:VEVENT")
}

func formatUTC(t time.Time) string {
	return t.UTC().Format(layoutUTC)
}

func writeLine(b *strings.Builder, line string) {
	b.WriteString(line)
	b.WriteByte('\n')
}

// escapeText applies the RFC5545 TEXT escapes, backslash first so later
// replacements cannot corrupt it.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, ",", `\,`)
	s = strings.ReplaceAll(s, ";", `\;`)
	return s
}
