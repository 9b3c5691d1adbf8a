package phase

import (
	"context"
	"sort"
	"time"
)

// Store is an in-memory, read-only set of phase records keyed by date.
type Store struct {
	records []Record // ascending by date, unique dates
}

// NewStore builds a store. When a date appears more than once the first
// record seen wins and later ones are dropped.
func NewStore(records []Record) *Store {
	seen := make(map[time.Time]bool, len(records))
	kept := make([]Record, 0, len(records))
	for _, r := range records {
		d := Day(r.Date)
		if seen[d] {
			continue
		}
		seen[d] = true
		r.Date = d
		kept = append(kept, r)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Date.Before(kept[j].Date)
	})
	return &Store{records: kept}
}

// Len returns the number of records.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Records returns a copy of all records in date order.
func (s *Store) Records() []Record {
	if s == nil {
		return nil
	}
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Span returns the first and last dates in the store.
func (s *Store) Span() (first, last time.Time, ok bool) {
	if s.Len() == 0 {
		return time.Time{}, time.Time{}, false
	}
	return s.records[0].Date, s.records[len(s.records)-1].Date, true
}

// Select picks the record to show for target: an exact date match, else
// the closest past date, else the earliest record.
func (s *Store) Select(target time.Time) (Record, bool) {
	if s.Len() == 0 {
		return Record{}, false
	}
	target = Day(target)

	// First index with date > target.
	i := sort.Search(len(s.records), func(i int) bool {
		return s.records[i].Date.After(target)
	})
	if i == 0 {
		return s.records[0], true
	}
	return s.records[i-1], true
}

// Lookup implements Source.
func (s *Store) Lookup(_ context.Context, target time.Time) (Record, error) {
	r, ok := s.Select(target)
	if !ok {
		return Record{}, ErrNoData
	}
	return r, nil
}

// Select applies the store's selection policy to an unsorted slice.
// Duplicate dates resolve to the first occurrence.
func Select(records []Record, target time.Time) (Record, bool) {
	return NewStore(records).Select(target)
}
