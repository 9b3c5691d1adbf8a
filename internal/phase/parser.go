package phase

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Dataset column names.
const (
	ColDate           = "date"
	ColPhase          = "phase"
	ColIllumination   = "illumination_pct"
	ColAge            = "moon_age_days"
	ColMoonAngle      = "moon_angle_deg"
	ColMoonDistance   = "moon_distance_km"
	ColSunAngle       = "sun_angle_deg"
	ColSunDistance    = "sun_distance_km"
	ColSourceURL      = "source_url"
	utf8BOM           = "\ufeff"
	datasetDateLayout = "01/02/2006"
)

// Dataset date layouts, tried in order. Single-digit months and days are
// accepted. ISO dates are what the dataset scraper writes.
var datasetLayouts = []string{"1/2/2006", "1/2/06", "2006-1-2"}

// LoadReport summarizes one dataset ingestion.
type LoadReport struct {
	Rows       int      // data rows read
	Kept       int      // records in the store
	BadDates   int      // rows dropped for an unparsable date
	Duplicates int      // rows dropped because their date was already seen
	Errors     []string // per-row diagnostics
}

// ParseCSV reads a phase dataset. Columns are located by header name.
// Rows with unparsable dates are dropped and reported, not fatal.
func ParseCSV(r io.Reader) ([]Record, LoadReport, error) {
	var report LoadReport

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, report, fmt.Errorf("read header: empty dataset")
		}
		return nil, report, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, utf8BOM)))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	if _, ok := cols[ColDate]; !ok {
		return nil, report, fmt.Errorf("dataset has no %q column", ColDate)
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []Record
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return records, report, fmt.Errorf("read row %d: %w", line, err)
		}
		report.Rows++

		raw := field(row, ColDate)
		d, err := ParseDatasetDate(raw)
		if err != nil {
			report.BadDates++
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}

		records = append(records, Record{
			Date:           d,
			Phase:          field(row, ColPhase),
			Illumination:   parseNumber(field(row, ColIllumination)),
			AgeDays:        parseNumber(field(row, ColAge)),
			MoonAngleDeg:   parseNumber(field(row, ColMoonAngle)),
			MoonDistanceKm: parseNumber(field(row, ColMoonDistance)),
			SunAngleDeg:    parseNumber(field(row, ColSunAngle)),
			SunDistanceKm:  parseNumber(field(row, ColSunDistance)),
			SourceURL:      field(row, ColSourceURL),
		})
	}

	return records, report, nil
}

// LoadFile reads a phase dataset from disk into a Store.
func LoadFile(path string) (*Store, LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	records, report, err := ParseCSV(f)
	if err != nil {
		return nil, report, err
	}

	store := NewStore(records)
	report.Kept = store.Len()
	report.Duplicates = len(records) - store.Len()
	return store, report, nil
}

// ParseDatasetDate parses a dataset date cell.
func ParseDatasetDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range datasetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", s)
}

// FormatDatasetDate formats a date the way the dataset does.
func FormatDatasetDate(t time.Time) string {
	return t.Format(datasetDateLayout)
}

// parseNumber parses a locale-neutral decimal, tolerating thousands
// separators. Empty, invalid, NaN and infinite values are absent.
func parseNumber(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
