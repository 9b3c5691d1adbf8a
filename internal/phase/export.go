package phase

import (
	"encoding/json"
	"io"
	"time"
)

// RecordExport is the JSON-serializable representation of a selected
// record and the shading parameters derived from it.
type RecordExport struct {
	Date           string   `json:"date"`
	TargetDate     string   `json:"target_date"`
	Phase          string   `json:"phase"`
	Illumination   *float64 `json:"illumination_pct"`
	AgeDays        *float64 `json:"moon_age_days"`
	MoonAngleDeg   *float64 `json:"moon_angle_deg"`
	MoonDistanceKm *float64 `json:"moon_distance_km"`
	SunAngleDeg    *float64 `json:"sun_angle_deg"`
	SunDistanceKm  *float64 `json:"sun_distance_km"`
	SourceURL      string   `json:"source_url,omitempty"`

	Hemisphere string   `json:"hemisphere"`
	Waxing     bool     `json:"waxing"`
	Fraction   *float64 `json:"fraction"` // nil when shading is unavailable
	Info       string   `json:"info"`
}

// Export converts a record to its exportable form.
func Export(r Record, target time.Time, h Hemisphere) *RecordExport {
	e := &RecordExport{
		Date:           r.Date.Format("2006-01-02"),
		TargetDate:     Day(target).Format("2006-01-02"),
		Phase:          r.Phase,
		Illumination:   r.Illumination,
		AgeDays:        r.AgeDays,
		MoonAngleDeg:   r.MoonAngleDeg,
		MoonDistanceKm: r.MoonDistanceKm,
		SunAngleDeg:    r.SunAngleDeg,
		SunDistanceKm:  r.SunDistanceKm,
		SourceURL:      r.SourceURL,
		Hemisphere:     h.String(),
		Waxing:         r.Waxing(h),
		Info:           r.InfoLine(),
	}
	if k, ok := r.Fraction(); ok {
		e.Fraction = &k
	}
	return e
}

// WriteJSON writes the export as indented JSON.
func (e *RecordExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
