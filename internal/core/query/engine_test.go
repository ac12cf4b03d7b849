package query

import (
	"context"
	"testing"
	"time"

	"insightsdb/internal/core/aggregate"
	"insightsdb/internal/core/categorize"
	"insightsdb/internal/core/criteria"
	"insightsdb/internal/core/entity"
	"insightsdb/internal/core/page"
	"insightsdb/internal/core/record"
	perr "insightsdb/internal/platform/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schemes map[string]*categorize.Scheme

func (s schemes) Scheme(name string) (*categorize.Scheme, error) {
	sc, ok := s[name]
	if !ok {
		return nil, perr.Configf("unknown categorization scheme %q", name)
	}
	return sc, nil
}

func issue(tenant, id, status string) *record.Record {
	r := record.New(entity.Issues, id).SetString("status", status)
	r.Tenant = tenant
	return r
}

func fixture(t *testing.T) *Engine {
	t.Helper()
	done, err := categorize.NewScheme("default", []categorize.Rule{
		{Name: "Completed", Priority: 0, Filter: criteria.New().Include("status", "done").Build()},
		{Name: "Active", Priority: 1, Filter: criteria.New().Include("status", "in progress", "review").Build()},
	})
	require.NoError(t, err)

	mem := NewMemory(
		issue("acme", "ACME-1", "done").SetNumber("story_points", 2),
		issue("acme", "ACME-2", "done"),
		issue("acme", "ACME-3", "review").SetNumber("story_points", 5),
		issue("acme", "ACME-4", "todo").SetNumber("story_points", 1),
		issue("acme", "ACME-5", "in progress").SetNumber("story_points", 3),
		issue("globex", "GLX-1", "done").SetNumber("story_points", 40),
	)
	return New(mem, schemes{"": done, "default": done}, Options{})
}

func TestAggregateByCategory(t *testing.T) {
	t.Parallel()
	e := fixture(t)
	got, err := e.Aggregate(context.Background(), "acme", entity.Issues, aggregate.Request{
		Across:      "ticket_category",
		Calculation: "story_points",
		Page:        page.Request{Sort: []page.Sort{{Field: "count", Desc: true}}},
	})
	require.NoError(t, err)
	require.Equal(t, 3, got.TotalCount)

	byKey := map[string]aggregate.Result{}
	for _, r := range got.Records {
		byKey[r.KeyString()] = r
	}
	completed := byKey["Completed"]
	assert.EqualValues(t, 2, completed.Count)
	assert.Equal(t, 2.0, *completed.TotalStoryPoints)
	assert.EqualValues(t, 1, *completed.UnestimatedCount)
	assert.EqualValues(t, 2, byKey["Active"].Count)
	assert.EqualValues(t, 1, byKey[categorize.Other].Count)
	assert.Equal(t, 8.0, *byKey["Active"].TotalStoryPoints)
}

func TestCategoryFilterPushesMembership(t *testing.T) {
	t.Parallel()
	e := fixture(t)
	ctx := context.Background()

	got, err := e.List(ctx, "acme", entity.Issues, ListRequest{
		Filter: criteria.New().Include(entity.CategoryField, "Completed", categorize.Other).Build(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME-1", "ACME-2", "ACME-4"}, ids(got.Records))

	got, err = e.List(ctx, "acme", entity.Issues, ListRequest{
		Filter: criteria.New().Exclude(entity.CategoryField, "Completed").Build(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME-3", "ACME-4", "ACME-5"}, ids(got.Records))

	_, err = e.List(ctx, "acme", entity.Issues, ListRequest{
		Filter: criteria.New().Include(entity.CategoryField, "Blocked").Build(),
	})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeConfiguration))
}

func TestListPagingAndSort(t *testing.T) {
	t.Parallel()
	e := fixture(t)
	ctx := context.Background()

	got, err := e.List(ctx, "acme", entity.Issues, ListRequest{Page: page.Request{Page: 1, PageSize: 2}})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, 5, got.TotalCount)
	assert.Equal(t, []string{"ACME-3", "ACME-4"}, ids(got.Records))

	got, err = e.List(ctx, "acme", entity.Issues, ListRequest{
		Page: page.Request{Sort: []page.Sort{{Field: "story_points", Desc: true}}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME-3", "ACME-5", "ACME-1", "ACME-4", "ACME-2"}, ids(got.Records), "nulls last descending")

	// repeated calls give the same order
	again, err := e.List(ctx, "acme", entity.Issues, ListRequest{
		Page: page.Request{Sort: []page.Sort{{Field: "story_points", Desc: true}}},
	})
	require.NoError(t, err)
	assert.Equal(t, ids(got.Records), ids(again.Records))
}

func TestTenantIsolation(t *testing.T) {
	t.Parallel()
	e := fixture(t)
	got, err := e.List(context.Background(), "globex", entity.Issues, ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"GLX-1"}, ids(got.Records))

	agg, err := e.Aggregate(context.Background(), "initech", entity.Issues, aggregate.Request{Across: "status"})
	require.NoError(t, err)
	assert.Equal(t, 0, agg.TotalCount)
	assert.NotNil(t, agg.Records)
}

func TestZeroMatchIsWellFormed(t *testing.T) {
	t.Parallel()
	e := fixture(t)
	f := criteria.New().Include("status", "done").Exclude("status", "done").Build()

	agg, err := e.Aggregate(context.Background(), "acme", entity.Issues, aggregate.Request{Across: "status", Filter: f})
	require.NoError(t, err)
	assert.Equal(t, page.Response[aggregate.Result]{Records: []aggregate.Result{}}, agg)

	list, err := e.List(context.Background(), "acme", entity.Issues, ListRequest{Filter: f})
	require.NoError(t, err)
	assert.Equal(t, 0, list.Count)
	assert.Equal(t, []record.Record{}, list.Records)
}

func TestConfigurationErrors(t *testing.T) {
	t.Parallel()
	e := fixture(t)
	ctx := context.Background()

	cases := map[string]func() error{
		"unknown kind": func() error {
			_, err := e.List(ctx, "acme", "pull_requests", ListRequest{})
			return err
		},
		"unknown filter field": func() error {
			_, err := e.List(ctx, "acme", entity.Issues, ListRequest{Filter: criteria.New().Include("colour", "red").Build()})
			return err
		},
		"unsortable list field": func() error {
			_, err := e.List(ctx, "acme", entity.Issues, ListRequest{Page: page.Request{Sort: []page.Sort{{Field: "labels"}}}})
			return err
		},
		"unknown across": func() error {
			_, err := e.Aggregate(ctx, "acme", entity.Issues, aggregate.Request{Across: "colour"})
			return err
		},
		"category on uncategorized kind": func() error {
			_, err := e.Aggregate(ctx, "acme", entity.JobRuns, aggregate.Request{Across: "ticket_category"})
			return err
		},
		"scheme on uncategorized kind": func() error {
			_, err := e.Aggregate(ctx, "acme", entity.JobRuns, aggregate.Request{Across: "job_name", Scheme: "default"})
			return err
		},
		"unknown scheme": func() error {
			_, err := e.Aggregate(ctx, "acme", entity.Issues, aggregate.Request{Across: "status", Scheme: "nope"})
			return err
		},
		"category partial match": func() error {
			_, err := e.List(ctx, "acme", entity.Issues, ListRequest{
				Filter: criteria.New().Partial(entity.CategoryField, "begins", "Comp").Build(),
			})
			return err
		},
	}
	for name, call := range cases {
		err := call()
		require.Error(t, err, name)
		assert.True(t, perr.IsCode(err, perr.ErrorCodeConfiguration), "%s: %v", name, err)
	}
}

func TestRouteServesKindFromAnotherSource(t *testing.T) {
	t.Parallel()
	e := fixture(t)
	run := record.New(entity.JobRuns, "r1").
		SetString("job_name", "build").
		SetNumber("duration", 12).
		SetTime("start_time", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	run.Tenant = "acme"
	e.Route(entity.JobRuns, NewMemory(run))

	got, err := e.Aggregate(context.Background(), "acme", entity.JobRuns, aggregate.Request{Across: "job_name", Calculation: "duration"})
	require.NoError(t, err)
	require.Len(t, got.Records, 1)
	assert.Equal(t, 12.0, *got.Records[0].Sum)

	issues, err := e.List(context.Background(), "acme", entity.Issues, ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 5, issues.TotalCount, "other kinds still use the default source")
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()
	e := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.List(ctx, "acme", entity.Issues, ListRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func ids(rs []record.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}
