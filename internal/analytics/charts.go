// Package analytics projects record sequences into the chart series the
// visualization page renders. Every projection is a pure function of its
// input: same records in, same series out, regardless of where the request
// originated.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/pneumoscan/pneumoscan/internal/domain/record"
)

// Dates on chart labels follow the original dd/MM/yyyy display format.
const dateLayout = "02/01/2006"

// Engine renders chart series against a fixed reference timezone so daily
// buckets are deterministic no matter which host or caller computes them.
type Engine struct {
	loc *time.Location
}

func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{loc: loc}
}

// PercentagePoint is one record's diagnostic percentage pair.
type PercentagePoint struct {
	Label     string  `json:"label"`
	Pneumonia float64 `json:"pneumonia_percentage"`
	Normal    float64 `json:"normal_percentage"`
}

// LabelDistribution counts records per prediction label, zero-filled for
// labels that never occur.
type LabelDistribution struct {
	Pneumonia int `json:"pneumonia"`
	Normal    int `json:"normal"`
}

// DailyCount is one calendar day's label counts in the reference timezone.
type DailyCount struct {
	Date      string `json:"date"`
	Pneumonia int    `json:"pneumonia"`
	Normal    int    `json:"normal"`
}

// ScatterPoint pairs a patient's age with their pneumonia percentage.
type ScatterPoint struct {
	Age       int     `json:"age"`
	Pneumonia float64 `json:"pneumonia_percentage"`
	Label     string  `json:"label"`
}

// ChartData bundles the four series the UI draws: percentage bars, label
// pie, daily time series and age scatter.
type ChartData struct {
	Percentages  []PercentagePoint `json:"percentages"`
	Distribution LabelDistribution `json:"distribution"`
	Daily        []DailyCount      `json:"daily"`
	AgeScatter   []ScatterPoint    `json:"age_scatter"`
}

// Charts derives all four series from the records. The input order does not
// matter: the engine sorts an internal copy ascending by creation time to
// guarantee a monotonic time axis.
func (e *Engine) Charts(records []*record.ScanRecord) *ChartData {
	sorted := sortAscending(records)

	data := &ChartData{
		Percentages: make([]PercentagePoint, 0, len(sorted)),
		Daily:       make([]DailyCount, 0),
		AgeScatter:  make([]ScatterPoint, 0, len(sorted)),
	}

	dayIndex := map[string]int{}

	for _, r := range sorted {
		day := r.CreatedAt.In(e.loc).Format(dateLayout)

		data.Percentages = append(data.Percentages, PercentagePoint{
			Label:     fmt.Sprintf("%s (%s)", r.FullName(), day),
			Pneumonia: r.PneumoniaPercentage,
			Normal:    r.NormalPercentage,
		})

		switch r.PredictionLabel {
		case record.LabelPneumonia:
			data.Distribution.Pneumonia++
		case record.LabelNormal:
			data.Distribution.Normal++
		}

		idx, ok := dayIndex[day]
		if !ok {
			idx = len(data.Daily)
			dayIndex[day] = idx
			data.Daily = append(data.Daily, DailyCount{Date: day})
		}
		switch r.PredictionLabel {
		case record.LabelPneumonia:
			data.Daily[idx].Pneumonia++
		case record.LabelNormal:
			data.Daily[idx].Normal++
		}

		data.AgeScatter = append(data.AgeScatter, ScatterPoint{
			Age:       r.Age,
			Pneumonia: r.PneumoniaPercentage,
			Label:     r.FullName(),
		})
	}

	return data
}

func sortAscending(records []*record.ScanRecord) []*record.ScanRecord {
	sorted := make([]*record.ScanRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}
