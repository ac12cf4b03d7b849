// Package interval answers who held a role at an instant or during a window,
// over append-only (subject, owner, start, end) assignment histories such as
// assignee history, status history and sprint membership
package interval

import (
	"sort"
	"time"

	"insightsdb/internal/core/predicate"
	"insightsdb/internal/core/record"
)

// Assignment is one interval of a subject being held by an owner
// End nil means still active
type Assignment struct {
	SubjectID string     `json:"subject_id"`
	OwnerID   string     `json:"owner_id"`
	Start     time.Time  `json:"start_time"`
	End       *time.Time `json:"end_time,omitempty"`
}

// UTC returns a copy with both bounds in UTC
func (a Assignment) UTC() Assignment {
	a.Start = a.Start.UTC()
	if a.End != nil {
		end := a.End.UTC()
		a.End = &end
	}
	return a
}

// ActiveAt reports start <= t < end, with an open end always active after start
func (a Assignment) ActiveAt(t time.Time) bool {
	if a.Start.After(t) {
		return false
	}
	return a.End == nil || a.End.After(t)
}

// Overlaps reports start < t1 AND (end IS NULL OR end > t0)
func (a Assignment) Overlaps(t0, t1 time.Time) bool {
	if !a.Start.Before(t1) {
		return false
	}
	return a.End == nil || a.End.After(t0)
}

// AtPoint returns, per subject, the assignment active at t
// malformed histories with several active intervals resolve to the latest
// start; equal starts prefer the open or later end, then the lower owner id.
// Subjects with no active interval are omitted. A nil subjects list means
// every subject in the history. Results are ordered by subject id
func AtPoint(history []Assignment, subjects []string, t time.Time) []Assignment {
	var want map[string]bool
	if subjects != nil {
		want = make(map[string]bool, len(subjects))
		for _, s := range subjects {
			want[s] = true
		}
	}
	best := map[string]Assignment{}
	for _, a := range history {
		if want != nil && !want[a.SubjectID] {
			continue
		}
		if !a.ActiveAt(t) {
			continue
		}
		cur, ok := best[a.SubjectID]
		if !ok || supersedes(a, cur) {
			best[a.SubjectID] = a
		}
	}
	out := make([]Assignment, 0, len(best))
	for _, a := range best {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectID < out[j].SubjectID })
	return out
}

// supersedes reports whether a wins over b for the same subject
func supersedes(a, b Assignment) bool {
	if !a.Start.Equal(b.Start) {
		return a.Start.After(b.Start)
	}
	switch {
	case a.End == nil && b.End != nil:
		return true
	case a.End != nil && b.End == nil:
		return false
	case a.End != nil && b.End != nil && !a.End.Equal(*b.End):
		return a.End.After(*b.End)
	}
	return a.OwnerID < b.OwnerID
}

// Overlap is the result of a range overlap query
type Overlap struct {
	Owners   []string `json:"owners"`
	Subjects int      `json:"subjects"`
}

// InRange returns the distinct owners, sorted, of every assignment intersecting
// [t0, t1) plus the number of distinct subjects touched. t1 <= t0 is an empty
// result, not an error
func InRange(history []Assignment, t0, t1 time.Time) Overlap {
	out := Overlap{Owners: []string{}}
	if !t1.After(t0) {
		return out
	}
	owners := map[string]bool{}
	subjects := map[string]bool{}
	for _, a := range history {
		if !a.Overlaps(t0, t1) {
			continue
		}
		subjects[a.SubjectID] = true
		if a.OwnerID != "" && !owners[a.OwnerID] {
			owners[a.OwnerID] = true
			out.Owners = append(out.Owners, a.OwnerID)
		}
	}
	sort.Strings(out.Owners)
	out.Subjects = len(subjects)
	return out
}

// Fields names the start and end columns of a history for predicate building
type Fields struct {
	Start string
	End   string
}

// ActiveAtPredicate is ActiveAt as a predicate tree for store push down
func (f Fields) ActiveAtPredicate(t time.Time) predicate.Node {
	ts := record.UnixSeconds(t)
	return predicate.AllOf(
		predicate.Cmp{Field: f.Start, Op: predicate.Lte, Value: ts},
		predicate.AnyOf(
			predicate.IsNull{Field: f.End},
			predicate.Cmp{Field: f.End, Op: predicate.Gt, Value: ts},
		),
	)
}

// OverlapPredicate is Overlaps as a predicate tree for store push down
// an empty window compiles to False
func (f Fields) OverlapPredicate(t0, t1 time.Time) predicate.Node {
	if !t1.After(t0) {
		return predicate.False
	}
	return predicate.AllOf(
		predicate.Cmp{Field: f.Start, Op: predicate.Lt, Value: record.UnixSeconds(t1)},
		predicate.AnyOf(
			predicate.IsNull{Field: f.End},
			predicate.Cmp{Field: f.End, Op: predicate.Gt, Value: record.UnixSeconds(t0)},
		),
	)
}
