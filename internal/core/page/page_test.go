package page

import (
	"sort"
	"testing"

	perr "insightsdb/internal/platform/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()
	r := Request{Page: -2}.Normalize(0, 0)
	assert.Equal(t, 0, r.Page)
	assert.Equal(t, DefaultPageSize, r.PageSize)

	r = Request{Page: 3, PageSize: 5000}.Normalize(50, 200)
	assert.Equal(t, 200, r.PageSize)
	assert.Equal(t, 600, r.Offset())
}

func TestSlice(t *testing.T) {
	t.Parallel()
	all := []int{1, 2, 3, 4, 5}

	p := Slice(all, Request{Page: 0, PageSize: 2})
	assert.Equal(t, Response[int]{Count: 2, TotalCount: 5, Records: []int{1, 2}}, p)

	p = Slice(all, Request{Page: 2, PageSize: 2})
	assert.Equal(t, []int{5}, p.Records)
	assert.Equal(t, 1, p.Count)

	p = Slice(all, Request{Page: 9, PageSize: 2})
	assert.Equal(t, 0, p.Count)
	assert.Equal(t, 5, p.TotalCount)
	assert.NotNil(t, p.Records)

	e := Empty[string]()
	assert.Equal(t, 0, e.Count)
	assert.Equal(t, 0, e.TotalCount)
	assert.Equal(t, []string{}, e.Records)
}

func TestSliceDoesNotAliasTail(t *testing.T) {
	t.Parallel()
	all := []int{1, 2, 3}
	p := Slice(all, Request{PageSize: 2})
	_ = append(p.Records, 99)
	assert.Equal(t, 3, all[2])
}

func TestParseOrder(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]Order{"": Asc, "ASC": Asc, "desc": Desc, "true": Desc} {
		got, err := ParseOrder(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseOrder("sideways")
	assert.True(t, perr.IsCode(err, perr.ErrorCodeConfiguration))
	assert.Equal(t, Desc, Sort{Field: "count", Desc: true}.Order())
}

func s(v string) *string { return &v }

func TestCompareTextNullsAndCase(t *testing.T) {
	t.Parallel()
	keys := []*string{s("beta"), nil, s("Alpha"), s("alpha"), s("Gamma")}

	asc := append([]*string(nil), keys...)
	sort.SliceStable(asc, func(i, j int) bool { return CompareText(asc[i], asc[j], Asc) < 0 })
	assert.Nil(t, asc[0], "nulls first ascending")
	assert.Equal(t, []string{"Alpha", "alpha", "beta", "Gamma"}, deref(asc[1:]))

	desc := append([]*string(nil), keys...)
	sort.SliceStable(desc, func(i, j int) bool { return CompareText(desc[i], desc[j], Desc) < 0 })
	assert.Nil(t, desc[4], "nulls last descending")
	assert.Equal(t, []string{"Gamma", "beta", "alpha", "Alpha"}, deref(desc[:4]))
}

func TestCompareKeyNumeric(t *testing.T) {
	t.Parallel()
	assert.Equal(t, -1, CompareKey(s("9"), s("10"), Asc), "numeric keys are not lexicographic")
	assert.Equal(t, 1, CompareKey(s("9"), s("10"), Desc))
	assert.Equal(t, 0, CompareKey(s("7"), s("7"), Asc))
	assert.Equal(t, 1, CompareKey(s("b"), s("A"), Asc))

	one, two := 1.0, 2.0
	assert.Equal(t, -1, CompareNumber(&one, &two, Asc))
	assert.Equal(t, -1, CompareNumber(nil, &two, Asc))
	assert.Equal(t, 1, CompareNumber(nil, &two, Desc))
}

func deref(in []*string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = *v
	}
	return out
}
