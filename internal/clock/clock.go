package clock

import (
	"fmt"
	"time"

	// Embedded zoneinfo: timestamps must not depend on the host's tz database or TZ setting.
	_ "time/tzdata"
)

// DefaultZone is the civil timezone every timestamp is rendered in.
const DefaultZone = "Europe/Oslo"

// Resolution selects the granularity of a rendered timestamp.
type Resolution int

const (
	Day    Resolution = iota // 2006-01-02
	Minute                   // 2006-01, year-month despite the name
	Second                   // 2006-01-02 15:04:05
)

var layouts = map[Resolution]string{
	Day:    "2006-01-02",
	Minute: "2006-01",
	Second: "2006-01-02 15:04:05",
}

// ParseResolution maps the short tags "d", "m" and "s". Anything else is Day.
func ParseResolution(tag string) Resolution {
	switch tag {
	case "m":
		return Minute
	case "s":
		return Second
	default:
		return Day
	}
}

func (r Resolution) String() string {
	switch r {
	case Minute:
		return "minute"
	case Second:
		return "second"
	default:
		return "day"
	}
}

// Clock renders instants as civil time in a fixed location.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New returns a Clock anchored to the named IANA zone.
func New(zone string) (*Clock, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", zone, err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// MustNew is New for package-level defaults and tests.
func MustNew(zone string) *Clock {
	c, err := New(zone)
	if err != nil {
		panic(err)
	}
	return c
}

// WithNow returns a copy of c that reads the current instant from now.
func (c *Clock) WithNow(now func() time.Time) *Clock {
	cp := *c
	cp.now = now
	return &cp
}

// Location returns the zone timestamps are rendered in.
func (c *Clock) Location() *time.Location { return c.loc }

// Format renders t in the clock's zone at the requested resolution.
// Sub-second precision is truncated, never rounded, so 23:59:59.999 stays on the same day.
func (c *Clock) Format(res Resolution, t time.Time) string {
	layout, ok := layouts[res]
	if !ok {
		layout = layouts[Day]
	}
	return t.In(c.loc).Format(layout)
}

// Time returns the current instant.
func (c *Clock) Time() time.Time { return c.now() }

// Now renders the current instant.
func (c *Clock) Now(res Resolution) string {
	return c.Format(res, c.now())
}
