package aggregate

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"insightsdb/internal/core/categorize"
	"insightsdb/internal/core/criteria"
	"insightsdb/internal/core/page"
	"insightsdb/internal/core/record"
	perr "insightsdb/internal/platform/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dims = Dimensions{
	"job_name":   {Kind: Categorical, Field: "job_name"},
	"status":     {Kind: Categorical, Field: "status"},
	"instance":   {Kind: Categorical, Field: "instance_name"},
	"labels":     {Kind: List, Field: "labels"},
	"start_time": {Kind: Time, Field: "start_time"},
	"category":   {Kind: Category},
	"assignee":   {Kind: Categorical, Field: "assignee"},
	"qualified_job_name": {
		Kind: Composite, Parts: []string{"instance_name", "job_name"}, Separator: "/", AdditionalField: "instance_name",
	},
}

var opts = Options{
	ValueFields: map[Calculation]string{Duration: "duration", StoryPoints: "story_points"},
}

func run(id, job, status string, duration float64) *record.Record {
	return record.New("job_runs", id).
		SetString("job_name", job).
		SetString("status", status).
		SetNumber("duration", duration)
}

func mustCompile(t *testing.T, req Request, o Options) *Plan {
	t.Helper()
	p, err := Compile(req, dims, o)
	require.NoError(t, err)
	return p
}

func TestDurationStats(t *testing.T) {
	t.Parallel()
	rows := []*record.Record{run("1", "A", "SUCCESS", 10), run("2", "A", "SUCCESS", 20), run("3", "A", "FAILURE", 30)}

	got := mustCompile(t, Request{Across: "job_name", Calculation: "duration"}, opts).Aggregate(rows)
	require.Equal(t, 1, got.TotalCount)
	r := got.Records[0]
	assert.Equal(t, "A", r.KeyString())
	assert.EqualValues(t, 3, r.Count)
	assert.Equal(t, 10.0, *r.Min)
	assert.Equal(t, 30.0, *r.Max)
	assert.Equal(t, 20.0, *r.Median)
	assert.Equal(t, 60.0, *r.Sum)
}

func TestDurationClampsAndSkipsNulls(t *testing.T) {
	t.Parallel()
	rows := []*record.Record{
		run("1", "A", "SUCCESS", -5),
		run("2", "A", "SUCCESS", 4),
		record.New("job_runs", "3").SetString("job_name", "A"),
		run("4", "A", "SUCCESS", 8),
		run("5", "A", "SUCCESS", 2),
	}
	r := mustCompile(t, Request{Across: "job_name", Calculation: "duration"}, opts).Aggregate(rows).Records[0]
	assert.EqualValues(t, 4, r.Count, "null durations are not counted")
	assert.Equal(t, 0.0, *r.Min, "negative clamps to zero")
	assert.Equal(t, 2.0, *r.Median, "lower of the two central values")
	assert.Equal(t, 14.0, *r.Sum)

	mean := opts
	mean.Median = MedianMean
	r = mustCompile(t, Request{Across: "job_name", Calculation: "duration"}, mean).Aggregate(rows).Records[0]
	assert.Equal(t, 3.0, *r.Median)
}

func TestStoryPointsByCategory(t *testing.T) {
	t.Parallel()
	scheme, err := categorize.NewScheme("s", []categorize.Rule{
		{Name: "Completed", Priority: 0, Filter: criteria.New().Include("status", "done").Build()},
	})
	require.NoError(t, err)
	rows := []*record.Record{
		record.New("issues", "1").SetString("status", "done").SetNumber("story_points", 2),
		record.New("issues", "2").SetString("status", "done"),
	}
	o := opts
	o.Scheme = scheme

	got := mustCompile(t, Request{Across: "category", Calculation: "story_points"}, o).Aggregate(rows)
	require.Len(t, got.Records, 1)
	r := got.Records[0]
	assert.Equal(t, "Completed", r.KeyString())
	assert.EqualValues(t, 2, r.Count)
	assert.Equal(t, 2.0, *r.TotalStoryPoints)
	assert.EqualValues(t, 1, *r.UnestimatedCount)
}

func TestEmptySchemeGroupsEverythingAsOther(t *testing.T) {
	t.Parallel()
	rows := []*record.Record{run("1", "A", "x", 1), run("2", "B", "y", 1)}
	got := mustCompile(t, Request{Across: "category"}, opts).Aggregate(rows)
	require.Len(t, got.Records, 1)
	assert.Equal(t, categorize.Other, got.Records[0].KeyString())
	assert.EqualValues(t, 2, got.Records[0].Count)
}

func TestIncludeExcludeSameIsEmpty(t *testing.T) {
	t.Parallel()
	rows := []*record.Record{run("1", "A", "SUCCESS", 1), run("2", "B", "FAILURE", 1)}
	f := criteria.New().Include("status", "SUCCESS").Exclude("status", "SUCCESS").Build()
	got := mustCompile(t, Request{Across: "job_name", Filter: f}, opts).Aggregate(rows)
	assert.Equal(t, 0, got.Count)
	assert.Equal(t, 0, got.TotalCount)
	assert.Equal(t, []Result{}, got.Records)
}

func TestTimeAcrossUsesBuckets(t *testing.T) {
	t.Parallel()
	at := func(id string, ts time.Time) *record.Record {
		return record.New("job_runs", id).SetTime("start_time", ts)
	}
	rows := []*record.Record{
		at("1", time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC)),
		at("2", time.Date(2024, 1, 30, 10, 0, 0, 0, time.UTC)),
		at("3", time.Date(2023, 12, 31, 10, 0, 0, 0, time.UTC)),
		record.New("job_runs", "4"),
	}
	got := mustCompile(t, Request{Across: "start_time", Interval: "month"}, opts).Aggregate(rows)
	require.Len(t, got.Records, 3)
	assert.Nil(t, got.Records[0].Key, "null partition sorts first ascending")
	assert.Equal(t, "12-2023", got.Records[1].AdditionalKey)
	assert.Equal(t, "1-2024", got.Records[2].AdditionalKey)
	assert.EqualValues(t, 2, got.Records[2].Count)
	assert.Equal(t, fmt.Sprint(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix()), got.Records[2].KeyString())
}

func TestQualifiedJobName(t *testing.T) {
	t.Parallel()
	rows := []*record.Record{
		run("1", "build", "SUCCESS", 1).SetString("instance_name", "jenkins-a"),
		run("2", "build", "SUCCESS", 1).SetString("instance_name", "jenkins-b"),
		run("3", "build", "SUCCESS", 1),
	}
	got := mustCompile(t, Request{Across: "qualified_job_name"}, opts).Aggregate(rows)
	require.Len(t, got.Records, 3)
	assert.Equal(t, "build", got.Records[0].KeyString())
	assert.Equal(t, "", got.Records[0].AdditionalKey)
	assert.Equal(t, "jenkins-a/build", got.Records[1].KeyString())
	assert.Equal(t, "jenkins-a", got.Records[1].AdditionalKey)
	assert.Equal(t, "jenkins-b/build", got.Records[2].KeyString())
}

func TestListAcrossAndDistinct(t *testing.T) {
	t.Parallel()
	rows := []*record.Record{
		record.New("issues", "1").SetList("labels", "api", "ui").SetString("assignee", "bob"),
		record.New("issues", "2").SetList("labels", "api").SetString("assignee", "alice"),
		record.New("issues", "3").SetString("assignee", "alice"),
	}
	got := mustCompile(t, Request{Across: "labels", Calculation: "distinct", DistinctField: "assignee"}, opts).Aggregate(rows)
	require.Len(t, got.Records, 3)
	assert.Nil(t, got.Records[0].Key)
	assert.Equal(t, "api", got.Records[1].KeyString())
	assert.EqualValues(t, 2, got.Records[1].Count)
	assert.Equal(t, []string{"alice", "bob"}, got.Records[1].DistinctValues)
	assert.Equal(t, []string{"bob"}, got.Records[2].DistinctValues)
}

func TestSortAndPaging(t *testing.T) {
	t.Parallel()
	var rows []*record.Record
	counts := map[string]int{"a": 3, "B": 1, "c": 5, "D": 3}
	i := 0
	for job, n := range counts {
		for k := 0; k < n; k++ {
			i++
			rows = append(rows, run(fmt.Sprint(i), job, "SUCCESS", float64(k)))
		}
	}

	byKey := mustCompile(t, Request{Across: "job_name"}, opts).Aggregate(rows)
	assert.Equal(t, []string{"a", "B", "c", "D"}, keys(byKey.Records), "case-insensitive key order")

	desc := mustCompile(t, Request{Across: "job_name", Page: page.Request{Sort: []page.Sort{{Field: "count", Desc: true}}}}, opts).Aggregate(rows)
	assert.Equal(t, []string{"c", "a", "D", "B"}, keys(desc.Records), "ties break by key")

	p1 := mustCompile(t, Request{Across: "job_name", Page: page.Request{Page: 1, PageSize: 3}}, opts).Aggregate(rows)
	assert.Equal(t, 1, p1.Count)
	assert.Equal(t, 4, p1.TotalCount)
	assert.Equal(t, []string{"D"}, keys(p1.Records))
}

func TestStackCountsSumToParent(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(3))
	jobs := []string{"a", "b", "c"}
	statuses := []string{"SUCCESS", "FAILURE", ""}
	var rows []*record.Record
	for i := 0; i < 400; i++ {
		r := record.New("job_runs", fmt.Sprint(i)).SetString("job_name", jobs[rng.Intn(3)])
		if s := statuses[rng.Intn(3)]; s != "" {
			r.SetString("status", s)
		}
		if rng.Intn(5) > 0 {
			r.SetNumber("duration", float64(rng.Intn(500)-20))
		}
		r.SetTime("start_time", time.Unix(1_700_000_000+int64(rng.Intn(90*86400)), 0))
		rows = append(rows, r)
	}
	for _, calc := range []string{"count", "duration"} {
		for _, stack := range []string{"status", "start_time", "category"} {
			res := mustCompile(t, Request{Across: "job_name", Stack: stack, Calculation: calc, Interval: "week"}, opts).Run(rows)
			for _, parent := range res {
				var sum int64
				for _, s := range parent.Stacks {
					sum += s.Count
					assert.Empty(t, s.Stacks, "stacks nest one level")
				}
				require.Equal(t, parent.Count, sum, "%s/%s key %s", calc, stack, parent.KeyString())
				if calc == "duration" {
					assert.LessOrEqual(t, *parent.Min, *parent.Median)
					assert.LessOrEqual(t, *parent.Median, *parent.Max)
					assert.GreaterOrEqual(t, *parent.Sum, 0.0)
				}
			}
		}
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()
	bad := []Request{
		{Across: "nope"},
		{Across: "job_name", Stack: "nope"},
		{Across: "job_name", Stack: "job_name"},
		{Across: "job_name", Stack: "labels"},
		{Across: "job_name", Calculation: "p95"},
		{Across: "start_time", Interval: "hour"},
		{Across: "job_name", Calculation: "distinct"},
		{Across: "job_name", Page: page.Request{Sort: []page.Sort{{Field: "colour"}}}},
		{Across: "job_name", Filter: criteria.New().Partial("job_name", "regex", "x").Build()},
	}
	for i, req := range bad {
		_, err := Compile(req, dims, opts)
		require.Error(t, err, "case %d", i)
		assert.True(t, perr.IsCode(err, perr.ErrorCodeConfiguration), "case %d: %v", i, err)
	}

	_, err := Compile(Request{Across: "job_name", Calculation: "duration"}, dims, Options{})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeConfiguration), "duration without value field")
}

func TestPlanFields(t *testing.T) {
	t.Parallel()
	scheme, err := categorize.NewScheme("s", []categorize.Rule{
		{Name: "Bugs", Filter: criteria.New().Include("issue_type", "BUG").Build()},
	})
	require.NoError(t, err)
	o := opts
	o.Scheme = scheme
	p := mustCompile(t, Request{Across: "qualified_job_name", Stack: "category", Calculation: "duration"}, o)
	assert.Equal(t, []string{"instance_name", "job_name", "issue_type", "duration"}, p.Fields())
}

func TestMedian(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0.0, Median(nil, MedianLower))
	assert.Equal(t, 5.0, Median([]float64{5}, MedianMean))
	assert.Equal(t, 1.0, Median([]float64{1, 3}, MedianLower))
	assert.Equal(t, 2.0, Median([]float64{1, 3}, MedianMean))

	p, err := ParseMedianPolicy("mean")
	require.NoError(t, err)
	assert.Equal(t, MedianMean, p)
	_, err = ParseMedianPolicy("mode")
	assert.Error(t, err)
}

func keys(rs []Result) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.KeyString()
	}
	return out
}
