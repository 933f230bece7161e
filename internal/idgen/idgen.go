// Package idgen generates monotone per-day sequential IDs for changelog and
// scratch entries, and the handful of time helpers (ISO timestamps, month and
// week bucketing) the rest of the engine shares.
//
// The per-day counter recovers from disk on first use each calendar day by
// scanning the relevant day's log for the highest suffix already written.
// The alternative — an in-memory-only counter, never checked against disk —
// risks generating a duplicate ID after a same-day restart and is treated
// as a bug, not a
// second valid option.
package idgen

import (
	"fmt"
	"regexp"
	"sync"
	"time"
)

// ErrInvalidTime is returned when the clock reads earlier than the time at
// which this Generator last issued an ID, whether or not the day changed.
var ErrInvalidTime = fmt.Errorf("idgen: clock moved before a previously generated id's date")

// Clock abstracts "now" so tests can pin the date without sleeping.
type Clock func() time.Time

// Recoverer scans a day's backing log for already-used counters of a given
// prefix and returns the highest one found, or 0 if none. Implementations
// live closer to the changelog and scratch packages, which know their own
// on-disk formats; idgen only needs the number back.
type Recoverer func(prefix, mmdd string) (int, error)

// Generator issues sequential per-day IDs for a single prefix family ("op",
// "dec", "s", ...). One Generator instance is typically shared by everything
// that mints IDs for a given entry kind, so the in-memory counter is shared
// too.
type Generator struct {
	mu        sync.Mutex
	now       Clock
	recover   Recoverer
	day       string // MMDD of the last-seen day, "" if never used
	counters  map[string]int
	lastSeen  time.Time
}

var dayFormat = "0102"

// New creates a Generator. now defaults to time.Now if nil; recover defaults
// to an always-zero recoverer if nil (useful for packages with no backing
// log, e.g. tests).
func New(now Clock, recover Recoverer) *Generator {
	if now == nil {
		now = time.Now
	}
	if recover == nil {
		recover = func(string, string) (int, error) { return 0, nil }
	}
	return &Generator{
		now:      now,
		recover:  recover,
		counters: make(map[string]int),
	}
}

// Generate returns the next "{prefix}_{MMDD}_{NNN}" ID for prefix, recovering
// the day's counter from disk the first time prefix is used on a new day.
func (g *Generator) Generate(prefix string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UTC()
	if !g.lastSeen.IsZero() && now.Before(g.lastSeen) {
		return "", ErrInvalidTime
	}
	g.lastSeen = now

	mmdd := now.Format(dayFormat)
	if g.day != mmdd {
		// New day: drop all counters, they'll be lazily re-recovered.
		g.counters = make(map[string]int)
		g.day = mmdd
	}

	if _, seeded := g.counters[prefix]; !seeded {
		n, err := g.recover(prefix, mmdd)
		if err != nil {
			return "", fmt.Errorf("idgen: recovering counter for %q on %s: %w", prefix, mmdd, err)
		}
		g.counters[prefix] = n
	}

	g.counters[prefix]++
	return fmt.Sprintf("%s_%s_%03d", prefix, mmdd, g.counters[prefix]), nil
}

// IDPattern builds the recovery regex for a prefix on a given MMDD, matching
// the `({"op"|"dec"})_{today_MMDD}_(\d{3})` shape for a single prefix.
func IDPattern(prefix, mmdd string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(prefix) + `_` + regexp.QuoteMeta(mmdd) + `_(\d{3})`)
}

// MaxSuffix scans text for occurrences of prefix_mmdd_NNN and returns the
// largest NNN found, or 0 if none. This is the building block every package
// with its own backing log (changelog, scratch) uses to implement Recoverer.
func MaxSuffix(text, prefix, mmdd string) int {
	re := IDPattern(prefix, mmdd)
	matches := re.FindAllStringSubmatch(text, -1)
	max := 0
	for _, m := range matches {
		var n int
		fmt.Sscanf(m[1], "%d", &n)
		if n > max {
			max = n
		}
	}
	return max
}

// ISONow returns the current UTC time formatted as RFC 3339 / ISO 8601.
func ISONow() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ISOAt formats t as RFC 3339 / ISO 8601 in UTC.
func ISOAt(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// YearMonth returns "YYYY-MM" for t, or for now if t is the zero value.
func YearMonth(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format("2006-01")
}

// YearWeek returns "YYYY-Www" using the ISO week number for t.
func YearWeek(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// MMDD returns the "MMDD" stamp for t, used in L0 status lines.
func MMDD(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(dayFormat)
}
