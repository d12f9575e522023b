// Package ics implements the iCalendar (RFC5545 subset) codec: a tolerant
// decoder for loosely formatted .ics text and a deterministic encoder.
// The two sides form a round-trip pair; see encode.go for the contract.
package ics

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "caldesk/internal/log"
	"caldesk/internal/model"
	"caldesk/internal/tz"
)

var (
	// ErrEmptyDocument is returned when the input contains no text at all.
	ErrEmptyDocument = errors.New("ics: empty document")

	// ErrMissingSummary and ErrMissingStart are per-event validation
	// failures; the offending VEVENT is dropped from the result.
	ErrMissingSummary = errors.New("ics: missing SUMMARY")
	ErrMissingStart   = errors.New("ics: missing DTSTART")
)

const (
	layoutUTC      = "20060102T150405Z"
	layoutLocal    = "20060102T150405"
	layoutDateOnly = "20060102"
)

// Decoder parses iCalendar text into events. Datetimes without an explicit
// zone are interpreted in the codec's default location.
type Decoder struct {
	zones *tz.Codec
}

func NewDecoder(zones *tz.Codec) *Decoder {
	return &Decoder{zones: zones}
}

// Decode parses an entire document. A malformed individual VEVENT is
// logged and skipped; only a document-level failure (empty input) yields an
// error. VALARM sub-blocks contribute the reminder lead of their event and
// are otherwise opaque.
func (d *Decoder) Decode(text string) ([]model.Event, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	lines := unfold(text)
	events := make([]model.Event, 0)

	for i := 0; i < len(lines); i++ {
		if lines[i] != "BEGIN:VEVENT" {
			continue
		}
		end := -1
		for j := i + 1; j < len(lines); j++ {
			if lines[j] == "END:VEVENT" {
				end = j
				break
			}
		}
		if end < 0 {
			// Unterminated block; nothing after it can be a valid event.
			applog.Error("ics: unterminated VEVENT block", errors.New("missing END:VEVENT"))
			break
		}

		ev, err := d.decodeEvent(lines[i+1 : end])
		if err != nil {
			applog.Error("ics: skipping malformed VEVENT", err)
		} else {
			events = append(events, ev)
		}
		i = end
	}

	applog.Debug("ics: decode completed", "event_count", len(events))
	return events, nil
}

// unfold splits raw text into logical lines, joining RFC5545 continuation
// lines (a leading space or tab marks a continuation; exactly one leading
// whitespace character is stripped). CRLF and LF are both accepted.
func unfold(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	out := make([]string, 0, len(raw))
	for _, line := range raw {
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') && len(out) > 0 {
			out[len(out)-1] += line[1:]
			continue
		}
		out = append(out, line)
	}
	return out
}

// decodeEvent builds one event from the logical lines between BEGIN:VEVENT
// and END:VEVENT. Lines inside a VALARM sub-block are not interpreted as
// VEVENT properties; only their TRIGGER is extracted.
func (d *Decoder) decodeEvent(lines []string) (model.Event, error) {
	var (
		ev       model.Event
		hasStart bool
		hasEnd   bool
		inAlarm  bool
	)

	for _, line := range lines {
		if line == "BEGIN:VALARM" {
			inAlarm = true
			continue
		}
		if line == "END:VALARM" {
			inAlarm = false
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		if inAlarm {
			if strings.HasPrefix(key, "TRIGGER") {
				ev.ReminderLead = ParseTrigger(value)
			}
			continue
		}

		// Prefix matching on the key lets parameterized forms such as
		// "DTSTART;TZID=Asia/Shanghai" hit the DTSTART case.
		switch {
		case strings.HasPrefix(key, "UID"):
			ev.UID = value
		case strings.HasPrefix(key, "SUMMARY"):
			ev.Title = unescapeText(value)
		case strings.HasPrefix(key, "DESCRIPTION"):
			ev.Description = unescapeText(value)
		case strings.HasPrefix(key, "LOCATION"):
			ev.Location = unescapeText(value)
		case strings.HasPrefix(key, "DTSTART"):
			t, zone, err := d.parseDateTime(key, value)
			if err != nil {
				return ev, fmt.Errorf("ics: bad DTSTART %q: %w", value, err)
			}
			ev.Start = t
			ev.Timezone = zone
			hasStart = true
		case strings.HasPrefix(key, "DTEND"):
			t, _, err := d.parseDateTime(key, value)
			if err != nil {
				return ev, fmt.Errorf("ics: bad DTEND %q: %w", value, err)
			}
			ev.End = t
			hasEnd = true
		case strings.HasPrefix(key, "CREATED"):
			if t, _, err := d.parseDateTime(key, value); err == nil {
				ev.CreatedAt = t
			}
		case strings.HasPrefix(key, "LAST-MODIFIED"):
			if t, _, err := d.parseDateTime(key, value); err == nil {
				ev.ModifiedAt = t
			}
		}
		// Unrecognized properties are ignored.
	}

	if strings.TrimSpace(ev.UID) == "" {
		ev.UID = uuid.NewString()
	}
	if strings.TrimSpace(ev.Title) == "" {
		return ev, ErrMissingSummary
	}
	if !hasStart {
		return ev, ErrMissingStart
	}
	if !hasEnd {
		ev.End = ev.Start.Add(60 * time.Minute)
	}

	return ev, nil
}

// parseDateTime interprets an iCalendar DATE-TIME (or DATE) value. The key
// may carry a TZID parameter, in which case the value is wall-clock time in
// that zone; a trailing Z means UTC; otherwise the value is wall-clock time
// in the default zone. The returned zone name is the TZID if one was given.
func (d *Decoder) parseDateTime(key, value string) (time.Time, string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, "", errors.New("empty datetime value")
	}

	if zone := tzidParam(key); zone != "" {
		t, err := parseWall(value, d.zones.Location(zone))
		return t, zone, err
	}

	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse(layoutUTC, value)
		return t, "", err
	}

	t, err := parseWall(value, d.zones.Default())
	return t, "", err
}

func parseWall(value string, loc *time.Location) (time.Time, error) {
	if strings.Contains(value, "T") {
		return time.ParseInLocation(layoutLocal, value, loc)
	}
	return time.ParseInLocation(layoutDateOnly, value, loc)
}

// tzidParam extracts the TZID parameter from a property key such as
// "DTSTART;TZID=Asia/Shanghai;VALUE=DATE-TIME".
func tzidParam(key string) string {
	for _, part := range strings.Split(key, ";")[1:] {
		if rest, ok := strings.CutPrefix(part, "TZID="); ok {
			return strings.Trim(rest, `"`)
		}
	}
	return ""
}

// triggerRe matches the supported negative-duration subset: -P[n]D,
// -PT[n]H, -PT[n]M and -PT[n]H[n]M.
var triggerRe = regexp.MustCompile(`^-P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?)?$`)

// ParseTrigger converts a VALARM TRIGGER value into a reminder lead in
// whole minutes. Non-negative triggers (no leading '-') and anything
// outside the supported subset yield nil, never an error.
func ParseTrigger(value string) *int {
	m := triggerRe.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return nil
	}
	if m[1] == "" && m[2] == "" && m[3] == "" {
		return nil
	}

	minutes := 0
	if m[1] != "" {
		n, _ := strconv.Atoi(m[1])
		minutes += n * 24 * 60
	}
	if m[2] != "" {
		n, _ := strconv.Atoi(m[2])
		minutes += n * 60
	}
	if m[3] != "" {
		n, _ := strconv.Atoi(m[3])
		minutes += n
	}
	return &minutes
}

// unescapeText reverses the RFC5545 TEXT escapes in a single pass so an
// escaped backslash is never unescaped twice.
func unescapeText(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case 'n', 'N':
			b.WriteByte('\n')
			i++
		case ',', ';', '\\':
			b.WriteByte(s[i+1])
			i++
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
