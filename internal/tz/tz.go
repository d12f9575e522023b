// Package tz converts between absolute instants and wall-clock time in
// named zones. Unknown zone identifiers never fail; they fall back to the
// codec's default location so a bad TZID in an imported file cannot take
// the whole event down.
package tz

import (
	"time"

	applog "caldesk/internal/log"
)

// Codec resolves IANA zone names with a configured fallback.
type Codec struct {
	def *time.Location
}

// New returns a Codec whose default zone is the named one, falling back to
// time.Local when the name does not resolve.
func New(defaultZone string) *Codec {
	return &Codec{def: resolve(defaultZone, time.Local)}
}

// Default returns the codec's default location.
func (c *Codec) Default() *time.Location {
	return c.def
}

// Location resolves name, returning the default location for an empty or
// unknown name.
func (c *Codec) Location(name string) *time.Location {
	return resolve(name, c.def)
}

// ToWall converts an absolute instant into wall-clock time in the named
// zone (or the default zone when the name is unknown).
func (c *Codec) ToWall(t time.Time, zone string) time.Time {
	return t.In(c.Location(zone))
}

func resolve(name string, fallback *time.Location) *time.Location {
	if name == "" {
		return fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		applog.Debug("unknown timezone, using fallback", "zone", name, "fallback", fallback.String())
		return fallback
	}
	return loc
}
