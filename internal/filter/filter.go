// Package filter narrows a clinician's record history by name, age and date
// range. All supplied clauses are ANDed; when the full predicate set matches
// nothing but a date range was given, the engine relaxes to the date-range
// clause alone and tags the result so the caller can surface a "no exact
// match, showing date range" notice.
package filter

import (
	"strings"
	"time"

	"github.com/pneumoscan/pneumoscan/internal/domain/record"
)

// Spec is the user-supplied filter. Nil / empty fields mean "no constraint".
type Spec struct {
	NamePattern string
	Age         *int
	StartDate   *time.Time
	EndDate     *time.Time
}

func (s Spec) IsZero() bool {
	return s.NamePattern == "" && s.Age == nil && s.StartDate == nil && s.EndDate == nil
}

func (s Spec) HasDateRange() bool {
	return s.StartDate != nil || s.EndDate != nil
}

// dateOnly strips the name and age clauses, keeping the date range.
func (s Spec) dateOnly() Spec {
	return Spec{StartDate: s.StartDate, EndDate: s.EndDate}
}

type Result struct {
	Records []*record.ScanRecord
	// Fallback is set when the full predicate set matched nothing and the
	// result was recomputed from the date-range clause alone.
	Fallback bool
}

// Apply evaluates the spec against the records. The input is not mutated.
func Apply(records []*record.ScanRecord, spec Spec) Result {
	matched := apply(records, spec)
	if len(matched) > 0 || !spec.HasDateRange() {
		return Result{Records: matched}
	}
	return Result{Records: apply(records, spec.dateOnly()), Fallback: true}
}

func apply(records []*record.ScanRecord, spec Spec) []*record.ScanRecord {
	out := make([]*record.ScanRecord, 0, len(records))
	for _, r := range records {
		if matches(r, spec) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r *record.ScanRecord, spec Spec) bool {
	if spec.NamePattern != "" &&
		!strings.Contains(strings.ToLower(r.FullName()), strings.ToLower(spec.NamePattern)) {
		return false
	}
	if spec.Age != nil && r.Age != *spec.Age {
		return false
	}
	if spec.StartDate != nil && r.CreatedAt.Before(*spec.StartDate) {
		return false
	}
	if spec.EndDate != nil && r.CreatedAt.After(EndOfDay(*spec.EndDate)) {
		return false
	}
	return true
}

// EndOfDay extends a date to the last instant of its calendar day, making the
// end of a range inclusive through that whole day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
