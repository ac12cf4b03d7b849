package config

import (
	"slices"
	"testing"
	"time"

	"insightsdb/internal/platform/testkit"
)

func TestPrefixScopesKeys(t *testing.T) {
	t.Setenv("ANALYTICS_PAGE_SIZE", " 50 ")
	t.Setenv("PAGE_SIZE", "7")

	an := New().Prefix("ANALYTICS_")
	if got := an.MayInt("PAGE_SIZE", 100); got != 50 {
		t.Fatalf("scoped = %d", got)
	}
	if got := New().MayInt("PAGE_SIZE", 100); got != 7 {
		t.Fatalf("root = %d", got)
	}
	if got := an.Prefix("ROLLUP_").MayInt("PAGE_SIZE", 100); got != 100 {
		t.Fatalf("nested prefix fell back to %d", got)
	}
}

func TestMayFallsBackOnBadValues(t *testing.T) {
	t.Setenv("X_PAGE_SIZE", "fifty")
	t.Setenv("X_LOG_SQL", "sometimes")
	t.Setenv("X_READ_TIMEOUT", "30")
	t.Setenv("X_PING_TIMEOUT", "250ms")
	t.Setenv("X_MIGRATE", "false")
	c := New().Prefix("X_")

	if c.MayInt("PAGE_SIZE", 100) != 100 || c.MayBool("LOG_SQL", true) != true {
		t.Fatal("unparsable values must give the default")
	}
	if c.MayDuration("READ_TIMEOUT", time.Second) != time.Second {
		t.Fatal("a bare number is not a duration")
	}
	if c.MayDuration("PING_TIMEOUT", time.Second) != 250*time.Millisecond || c.MayBool("MIGRATE", true) {
		t.Fatal("valid values must win")
	}
	if c.MayString("MISSING", "def") != "def" {
		t.Fatal("unset string")
	}
}

func TestMayCSV(t *testing.T) {
	t.Setenv("ANALYTICS_TENANTS", " acme, ,globex ,")
	t.Setenv("ANALYTICS_ORIGINS", " , ")
	c := New().Prefix("ANALYTICS_")

	if got := c.MayCSV("TENANTS", nil); !slices.Equal(got, []string{"acme", "globex"}) {
		t.Fatalf("tenants = %q", got)
	}
	if got := c.MayCSV("ORIGINS", []string{"*"}); !slices.Equal(got, []string{"*"}) {
		t.Fatalf("blank list = %q", got)
	}
}

func TestMayEnum(t *testing.T) {
	t.Setenv("ANALYTICS_MEDIAN", "MEAN")
	c := New().Prefix("ANALYTICS_")

	if got := c.MayEnum("MEDIAN", "lower", "lower", "mean"); got != "mean" {
		t.Fatalf("median = %q", got)
	}
	if got := c.MayEnum("UNSET", "lower", "lower", "mean"); got != "lower" {
		t.Fatalf("default = %q", got)
	}
	t.Setenv("ANALYTICS_MEDIAN", "mode")
	testkit.MustPanic(t, func() { c.MayEnum("MEDIAN", "lower", "lower", "mean") })
}

func TestMustString(t *testing.T) {
	t.Setenv("SERVICE_PGSQL_DBURL", "postgres://localhost/insights")
	t.Setenv("SERVICE_PGSQL_BLANK", "  ")
	c := New().Prefix("SERVICE_PGSQL_")

	if c.MustString("DBURL") != "postgres://localhost/insights" {
		t.Fatal("set value")
	}
	testkit.MustPanic(t, func() { c.MustString("BLANK") })
	testkit.MustPanic(t, func() { c.MustString("MISSING") })
}
