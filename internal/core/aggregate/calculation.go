package aggregate

import (
	"sort"
	"strings"

	"insightsdb/internal/core/record"
	perr "insightsdb/internal/platform/errors"
)

// Calculation is what is computed per partition
type Calculation string

const (
	// Count counts matching records
	Count Calculation = "count"
	// Duration computes count, sum, min, max and median over a numeric field
	Duration Calculation = "duration"
	// Distinct lists the distinct values of a field
	Distinct Calculation = "distinct"
	// StoryPoints totals story points and counts unestimated records
	StoryPoints Calculation = "story_points"
)

// ParseCalculation resolves a calculation name; empty means Count
func ParseCalculation(s string) (Calculation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "count", "ticket_count":
		return Count, nil
	case "duration", "duration_stats", "duration-stats":
		return Duration, nil
	case "distinct", "distinct_list", "distinct-list":
		return Distinct, nil
	case "story_points", "story_point_report":
		return StoryPoints, nil
	}
	return "", perr.WithField(perr.Configf("unknown calculation %q", s), "calculation")
}

// MedianPolicy picks the median of an even sized set
type MedianPolicy uint8

const (
	// MedianLower takes the lower of the two central values,
	// like percentile_disc(0.5)
	MedianLower MedianPolicy = iota
	// MedianMean averages the two central values
	MedianMean
)

// ParseMedianPolicy accepts lower and mean
func ParseMedianPolicy(s string) (MedianPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lower", "disc":
		return MedianLower, nil
	case "mean", "cont", "average":
		return MedianMean, nil
	}
	return 0, perr.Configf("unknown median policy %q", s)
}

// Median of an ascending sorted slice; 0 for an empty one
func Median(sorted []float64, p MedianPolicy) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 || p == MedianLower {
		return sorted[(n-1)/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// acc accumulates one partition or sub partition
type acc struct {
	calc       Calculation
	valueField string
	distinct   string

	count       int64
	values      []float64
	seen        map[string]struct{}
	points      float64
	unestimated int64
}

func newAcc(calc Calculation, valueField, distinctField string) *acc {
	a := &acc{calc: calc, valueField: valueField, distinct: distinctField}
	if calc == Distinct {
		a.seen = map[string]struct{}{}
	}
	return a
}

func (a *acc) add(r *record.Record) {
	switch a.calc {
	case Duration:
		v, ok := r.Number(a.valueField)
		if !ok {
			return
		}
		if v < 0 {
			// upstream clock skew; clamp rather than fail
			v = 0
		}
		a.count++
		a.values = append(a.values, v)
	case Distinct:
		a.count++
		for _, v := range r.Values(a.distinct) {
			a.seen[v] = struct{}{}
		}
	case StoryPoints:
		a.count++
		v, ok := r.Number(a.valueField)
		if !ok || v == 0 {
			a.unestimated++
		}
		if ok {
			a.points += v
		}
	default:
		a.count++
	}
}

func (a *acc) fill(out *Result, p MedianPolicy) {
	out.Count = a.count
	switch a.calc {
	case Duration:
		sort.Float64s(a.values)
		var sum, lo, hi float64
		for _, v := range a.values {
			sum += v
		}
		if n := len(a.values); n > 0 {
			lo, hi = a.values[0], a.values[n-1]
		}
		med := Median(a.values, p)
		out.Sum, out.Min, out.Max, out.Median = &sum, &lo, &hi, &med
	case Distinct:
		vals := make([]string, 0, len(a.seen))
		for v := range a.seen {
			vals = append(vals, v)
		}
		sort.Strings(vals)
		out.DistinctValues = vals
	case StoryPoints:
		pts, un := a.points, a.unestimated
		out.TotalStoryPoints = &pts
		out.UnestimatedCount = &un
	}
}
