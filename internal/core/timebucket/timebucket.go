// Package timebucket maps instants to calendar aligned buckets with a sortable
// epoch key and a display label. All math is done in UTC
package timebucket

import (
	"fmt"
	"strings"
	"time"

	perr "insightsdb/internal/platform/errors"
)

// Interval is a bucketing granularity
type Interval string

const (
	Day      Interval = "day"
	Week     Interval = "week"
	Biweekly Interval = "biweekly"
	Month    Interval = "month"
	Quarter  Interval = "quarter"
	Year     Interval = "year"
)

// Intervals lists every supported granularity, finest first
var Intervals = []Interval{Day, Week, Biweekly, Month, Quarter, Year}

// Parse resolves a granularity name; unknown names are configuration errors
func Parse(s string) (Interval, error) {
	iv := Interval(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Intervals {
		if iv == known {
			return iv, nil
		}
	}
	return "", perr.WithField(perr.Configf("unknown interval %q", s), "interval")
}

// Bucket is one calendar bucket
type Bucket struct {
	// Key is the bucket start as unix seconds
	Key int64
	// Label is D-M-YYYY, W-YYYY, biweekly-N-YYYY, M-YYYY, QN-YYYY or YYYY
	Label string
}

// Start returns the bucket start instant
func (b Bucket) Start() time.Time { return time.Unix(b.Key, 0).UTC() }

// KeyString is the decimal key used as an aggregation partition key
func (b Bucket) KeyString() string { return fmt.Sprint(b.Key) }

// Of buckets t at granularity iv
// Of(Of(t).Start()) == Of(t) for every interval
func Of(t time.Time, iv Interval) (Bucket, error) {
	t = t.UTC()
	var start time.Time
	var label string
	switch iv {
	case Day:
		start = midnight(t)
		label = fmt.Sprintf("%d-%d-%d", start.Day(), int(start.Month()), start.Year())
	case Week:
		start = weekStart(t)
		y, w := start.ISOWeek()
		label = fmt.Sprintf("%d-%d", w, y)
	case Biweekly:
		y, w := t.ISOWeek()
		pair := w / 2
		first := 2 * pair
		if first < 1 {
			first = 1
		}
		start = isoWeekStart(y, first)
		label = fmt.Sprintf("biweekly-%d-%d", pair+1, y)
	case Month:
		start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		label = fmt.Sprintf("%d-%d", int(start.Month()), start.Year())
	case Quarter:
		q := (int(t.Month())-1)/3 + 1
		start = time.Date(t.Year(), time.Month(3*(q-1)+1), 1, 0, 0, 0, 0, time.UTC)
		label = fmt.Sprintf("Q%d-%d", q, start.Year())
	case Year:
		start = time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		label = fmt.Sprintf("%d", start.Year())
	default:
		return Bucket{}, perr.Configf("unknown interval %q", iv)
	}
	return Bucket{Key: start.Unix(), Label: label}, nil
}

// OfUnix buckets a unix seconds timestamp
func OfUnix(sec int64, iv Interval) (Bucket, error) {
	return Of(time.Unix(sec, 0), iv)
}

// Next returns the bucket after b
func Next(b Bucket, iv Interval) (Bucket, error) {
	s := b.Start()
	switch iv {
	case Day:
		return Of(s.AddDate(0, 0, 1), iv)
	case Week:
		return Of(s.AddDate(0, 0, 7), iv)
	case Biweekly:
		// the first pair of an ISO year is a single week
		y, w := s.ISOWeek()
		if w == 1 {
			return Of(s.AddDate(0, 0, 7), iv)
		}
		nb, err := Of(s.AddDate(0, 0, 14), iv)
		if err != nil {
			return nb, err
		}
		if ny, _ := nb.Start().ISOWeek(); ny != y {
			return Of(isoWeekStart(y+1, 1), iv)
		}
		return nb, nil
	case Month:
		return Of(s.AddDate(0, 1, 0), iv)
	case Quarter:
		return Of(s.AddDate(0, 3, 0), iv)
	case Year:
		return Of(s.AddDate(1, 0, 0), iv)
	}
	return Bucket{}, perr.Configf("unknown interval %q", iv)
}

// Span lists the buckets touching [from, to], both inclusive
func Span(from, to time.Time, iv Interval) ([]Bucket, error) {
	if to.Before(from) {
		return nil, nil
	}
	b, err := Of(from, iv)
	if err != nil {
		return nil, err
	}
	end := to.UTC().Unix()
	var out []Bucket
	for b.Key <= end {
		out = append(out, b)
		if b, err = Next(b, iv); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// weekStart is the Monday at or before t
func weekStart(t time.Time) time.Time {
	d := midnight(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// isoWeekStart is the Monday of ISO week w in ISO year y
func isoWeekStart(y, w int) time.Time {
	// Jan 4th is always in ISO week 1
	return weekStart(time.Date(y, 1, 4, 0, 0, 0, 0, time.UTC)).AddDate(0, 0, 7*(w-1))
}
