package interval

import (
	"testing"
	"time"

	"insightsdb/internal/core/record"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time { return t0.AddDate(0, 0, n) }

func ptr(t time.Time) *time.Time { return &t }

func history() []Assignment {
	return []Assignment{
		{SubjectID: "ISS-1", OwnerID: "alice", Start: day(0), End: ptr(day(5))},
		{SubjectID: "ISS-1", OwnerID: "bob", Start: day(5)},
		{SubjectID: "ISS-2", OwnerID: "carol", Start: day(2), End: ptr(day(4))},
		{SubjectID: "ISS-3", OwnerID: "dave", Start: day(10)},
	}
}

func TestAtPoint(t *testing.T) {
	t.Parallel()
	got := AtPoint(history(), []string{"ISS-1", "ISS-2", "ISS-3"}, day(3))
	require.Len(t, got, 2, "ISS-3 has not started yet")
	assert.Equal(t, "alice", got[0].OwnerID)
	assert.Equal(t, "carol", got[1].OwnerID)

	// end is exclusive
	got = AtPoint(history(), []string{"ISS-1"}, day(5))
	require.Len(t, got, 1)
	assert.Equal(t, "bob", got[0].OwnerID)

	// nil subjects means all
	got = AtPoint(history(), nil, day(11))
	require.Len(t, got, 2)
	assert.Equal(t, []string{"ISS-1", "ISS-3"}, []string{got[0].SubjectID, got[1].SubjectID})

	assert.Empty(t, AtPoint(history(), []string{}, day(3)))
}

func TestAtPointLatestStartWins(t *testing.T) {
	t.Parallel()
	malformed := []Assignment{
		{SubjectID: "S", OwnerID: "old", Start: day(0)},
		{SubjectID: "S", OwnerID: "new", Start: day(2)},
		{SubjectID: "S", OwnerID: "closed", Start: day(2), End: ptr(day(9))},
		{SubjectID: "S", OwnerID: "aaa", Start: day(2)},
	}
	got := AtPoint(malformed, []string{"S"}, day(3))
	require.Len(t, got, 1)
	assert.Equal(t, "aaa", got[0].OwnerID, "open end then lowest owner on equal start")

	// deterministic under input order
	rev := []Assignment{malformed[3], malformed[2], malformed[1], malformed[0]}
	assert.Equal(t, got, AtPoint(rev, []string{"S"}, day(3)))
}

func TestInRange(t *testing.T) {
	t.Parallel()
	o := InRange(history(), day(3), day(6))
	assert.Equal(t, []string{"alice", "bob", "carol"}, o.Owners)
	assert.Equal(t, 2, o.Subjects)

	// open interval intersects anything ending after its start
	o = InRange(history(), day(30), day(31))
	assert.Equal(t, []string{"bob", "dave"}, o.Owners)
	assert.Equal(t, 2, o.Subjects)

	// touching boundaries do not overlap
	o = InRange(history(), day(4), day(5))
	assert.Equal(t, []string{"alice"}, o.Owners)
}

func TestInRangeEmptyWindow(t *testing.T) {
	t.Parallel()
	for _, w := range [][2]time.Time{{day(5), day(5)}, {day(6), day(1)}} {
		o := InRange(history(), w[0], w[1])
		assert.Empty(t, o.Owners)
		assert.NotNil(t, o.Owners)
		assert.Zero(t, o.Subjects)
	}
}

type row map[string]*time.Time

func (r row) Values(string) []string { return nil }

func (r row) Number(f string) (float64, bool) {
	if v := r[f]; v != nil {
		return record.UnixSeconds(*v), true
	}
	return 0, false
}

func TestPredicatesAgreeWithInMemory(t *testing.T) {
	t.Parallel()
	f := Fields{Start: "start_time", End: "end_time"}
	instants := []time.Time{day(-1), day(0), day(2), day(4), day(5), day(7), day(10), day(40)}
	for _, a := range history() {
		r := row{"start_time": ptr(a.Start), "end_time": a.End}
		for _, p := range instants {
			require.Equal(t, a.ActiveAt(p), f.ActiveAtPredicate(p).Eval(r), "%s/%s at %s", a.SubjectID, a.OwnerID, p)
			for _, q := range instants {
				require.Equal(t, a.Overlaps(p, q) && q.After(p), f.OverlapPredicate(p, q).Eval(r), "%s [%s,%s)", a.OwnerID, p, q)
			}
		}
	}
}
