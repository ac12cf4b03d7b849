package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValuesResolution(t *testing.T) {
	t.Parallel()
	r := New("issues", "ISS-1").
		SetString("status", "done").
		SetList("labels", "a", "b").
		SetList("components").
		SetCustom("customfield_10020", "Sprint 4")
	r.ParentKey = "EPIC-1"

	assert.Equal(t, []string{"ISS-1"}, r.Values(FieldID))
	assert.Equal(t, []string{"EPIC-1"}, r.Values(FieldParentKey))
	assert.Equal(t, []string{"done"}, r.Values("status"))
	assert.Equal(t, []string{"a", "b"}, r.Values("labels"))
	assert.Nil(t, r.Values("components"), "empty list is null")
	assert.Equal(t, []string{"Sprint 4"}, r.Values("customfield_10020"))
	assert.Nil(t, r.Values("customfield_1"))
	assert.Nil(t, r.Values("assignee"))

	v, ok := r.Value("status")
	assert.True(t, ok)
	assert.Equal(t, "done", v)
}

func TestNumbersAndTimes(t *testing.T) {
	t.Parallel()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 500_000_000, time.FixedZone("X", 3600))
	r := New("job_runs", "1").SetNumber("duration", 12.5).SetTime("start_time", ts)

	d, ok := r.Number("duration")
	assert.True(t, ok)
	assert.Equal(t, 12.5, d)

	s, ok := r.Number("start_time")
	assert.True(t, ok)
	assert.Equal(t, float64(ts.Unix())+0.5, s)
	assert.True(t, FromUnixSeconds(s).Equal(ts))

	got, ok := r.Time("start_time")
	assert.True(t, ok)
	assert.Equal(t, time.UTC, got.Location())

	_, ok = r.Number("story_points")
	assert.False(t, ok)
}
