package dashboard

import (
	"sort"
	"strings"
	"time"

	"recruitment-portal/internal/models"
)

const (
	trendDays         = 7
	topPositionsLimit = 5
	unspecified       = "Unspecified"
)

// TrendPoint is the number of applications received on one day.
type TrendPoint struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// EducationSlice is one bucket of the education chart.
type EducationSlice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

// PositionCount is the number of applicants for one applied position.
type PositionCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type GenderSplit struct {
	Male   int `json:"laki_laki"`
	Female int `json:"perempuan"`
}

// Charts is the aggregated chart data of the metrics view.
type Charts struct {
	Trend        []TrendPoint     `json:"trend"`
	Education    []EducationSlice `json:"education"`
	TopPositions []PositionCount  `json:"top_positions"`
	Gender       GenderSplit      `json:"gender"`
}

// PipelineCounters are the headline numbers of the metrics view.
type PipelineCounters struct {
	Total    int64 `json:"total"`
	New      int64 `json:"new"`
	Process  int64 `json:"process"`
	Hired    int64 `json:"hired"`
	Rejected int64 `json:"rejected"`
}

var shortWeekdays = [...]string{"Min", "Sen", "Sel", "Rab", "Kam", "Jum", "Sab"}

// Aggregate computes every chart from the metrics projection.
func Aggregate(rows []models.MetricsRow, now time.Time) Charts {
	return Charts{
		Trend:        Trend(rows, now),
		Education:    EducationDistribution(rows),
		TopPositions: TopPositions(rows, topPositionsLimit),
		Gender:       Genders(rows),
	}
}

// Trend counts rows per calendar day for the seven days ending at now,
// oldest first. A row belongs to a day when its timestamp, rendered in
// now's location, starts with that day's YYYY-MM-DD.
func Trend(rows []models.MetricsRow, now time.Time) []TrendPoint {
	loc := now.Location()
	stamps := make([]string, len(rows))
	for i, r := range rows {
		stamps[i] = r.CreatedAt.In(loc).Format(time.RFC3339)
	}

	points := make([]TrendPoint, 0, trendDays)
	for i := trendDays - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		prefix := day.Format("2006-01-02")
		count := 0
		for _, s := range stamps {
			if strings.HasPrefix(s, prefix) {
				count++
			}
		}
		points = append(points, TrendPoint{
			Date:  prefix,
			Label: shortWeekdays[day.Weekday()],
			Count: count,
		})
	}
	return points
}

type educationBucket struct {
	name   string
	color  string
	levels []string
}

var educationBuckets = []educationBucket{
	{name: "SMA/SMK", color: "#3b82f6", levels: []string{"SMA/SMK"}},
	{name: "D3", color: "#10b981", levels: []string{"D3"}},
	{name: "S1", color: "#f59e0b", levels: []string{"S1"}},
	{name: "Lainnya", color: "#8b5cf6", levels: []string{"SD", "SMP", "S2"}},
}

// EducationDistribution buckets rows by education level. Empty buckets are
// left out.
func EducationDistribution(rows []models.MetricsRow) []EducationSlice {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[r.PendidikanTerakhir]++
	}

	out := make([]EducationSlice, 0, len(educationBuckets))
	for _, b := range educationBuckets {
		total := 0
		for _, lvl := range b.levels {
			total += counts[lvl]
		}
		if total == 0 {
			continue
		}
		out = append(out, EducationSlice{Name: b.name, Value: total, Color: b.color})
	}
	return out
}

// TopPositions returns the n most applied-for positions by descending
// count. Ties keep the order in which positions first appear.
func TopPositions(rows []models.MetricsRow, n int) []PositionCount {
	index := make(map[string]int)
	var out []PositionCount
	for _, r := range rows {
		name := strings.TrimSpace(r.PosisiDilamar)
		if name == "" {
			name = unspecified
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, PositionCount{Name: name})
		}
		out[i].Count++
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []PositionCount{}
	}
	return out
}

// Genders counts exact matches of the two recorded genders.
func Genders(rows []models.MetricsRow) GenderSplit {
	var g GenderSplit
	for _, r := range rows {
		switch r.JenisKelamin {
		case models.GenderMale:
			g.Male++
		case models.GenderFemale:
			g.Female++
		}
	}
	return g
}
