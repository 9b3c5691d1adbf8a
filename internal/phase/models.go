// Package phase provides the daily lunar phase records and the rules for
// choosing which record to display for a date.
package phase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoData is returned when no usable phase record exists.
var ErrNoData = errors.New("phase data unavailable")

// Record is one day of lunar/solar measurements.
type Record struct {
	Date  time.Time // UTC midnight
	Phase string    // e.g. "Waning Gibbous"

	// Optional measurements; nil means the source cell was empty or invalid.
	Illumination   *float64 // percent, 0-100
	AgeDays        *float64
	MoonAngleDeg   *float64
	SunAngleDeg    *float64
	MoonDistanceKm *float64
	SunDistanceKm  *float64

	SourceURL string
}

// Source looks up the record to display for a target date.
type Source interface {
	Lookup(ctx context.Context, target time.Time) (Record, error)
}

// Hemisphere of the observer. The southern hemisphere sees the lit limb
// on the opposite side.
type Hemisphere int

const (
	North Hemisphere = iota
	South
)

// String returns the hemisphere name.
func (h Hemisphere) String() string {
	if h == South {
		return "south"
	}
	return "north"
}

// ParseHemisphere parses a hemisphere name. Anything not starting with
// "south" is treated as north.
func ParseHemisphere(s string) Hemisphere {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(s)), "south") {
		return South
	}
	return North
}

// Day truncates t to a calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// HasIllumination reports whether the record can drive shading.
func (r Record) HasIllumination() bool {
	return r.Illumination != nil
}

// Fraction returns the illuminated fraction k clamped to [0,1].
// ok is false when the record has no illumination value.
func (r Record) Fraction() (k float64, ok bool) {
	if r.Illumination == nil {
		return 0, false
	}
	k = *r.Illumination / 100.0
	if k < 0 {
		k = 0
	} else if k > 1 {
		k = 1
	}
	return k, true
}

// Waxing reports which limb is lit for the given hemisphere.
func (r Record) Waxing(h Hemisphere) bool {
	w := IsWaxing(r.Phase)
	if h == South {
		w = !w
	}
	return w
}

// IsWaxing infers waxing/waning from a phase label. Full moon and unknown
// labels count as waxing.
func IsWaxing(name string) bool {
	if name == "" {
		return true
	}
	p := strings.ToLower(name)
	if strings.Contains(p, "waxing") || strings.Contains(p, "first quarter") || strings.Contains(p, "new moon") {
		return true
	}
	if strings.Contains(p, "waning") || strings.Contains(p, "last quarter") {
		return false
	}
	return true
}

// InfoLine renders "MM/DD/YYYY • Phase • XX% • Age Y.Y d".
func (r Record) InfoLine() string {
	illum := "?"
	if r.Illumination != nil {
		illum = fmt.Sprintf("%d%%", int(*r.Illumination))
	}
	age := "?"
	if r.AgeDays != nil {
		age = fmt.Sprintf("%.1f", *r.AgeDays)
	}
	return fmt.Sprintf("%s • %s • %s • Age %s d", r.Date.Format("01/02/2006"), r.Phase, illum, age)
}
