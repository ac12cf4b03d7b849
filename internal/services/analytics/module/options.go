package module

import (
	"insightsdb/internal/core/aggregate"
	"insightsdb/internal/core/catalog"
	"insightsdb/internal/core/page"
	"insightsdb/internal/core/rollup"
	"insightsdb/internal/platform/config"
	"insightsdb/internal/platform/metrics"
	"insightsdb/internal/platform/net/middleware"
)

// Options controls the analytics module
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
	// Median is lower or mean
	Median string

	// CatalogFile overrides the embedded categorization catalog
	CatalogFile string

	RollupPageSize   int
	RollupWriteBatch int

	// TenantHeader names the gateway header carrying the tenant id
	TenantHeader string
	// Tenants restricts the served tenants; empty serves all
	Tenants []string
	// MaxInFlight caps concurrent analytics requests; 0 is unbounded
	MaxInFlight int

	// set by the binary, not read from config
	Catalog *catalog.Catalog
	Metrics *metrics.Collector
}

// FromConfig reads with ANALYTICS_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("ANALYTICS_")
	return Options{
		DefaultPageSize:  c.MayInt("PAGE_SIZE", page.DefaultPageSize),
		MaxPageSize:      c.MayInt("MAX_PAGE_SIZE", page.MaxPageSize),
		Median:           c.MayEnum("MEDIAN", "lower", "lower", "mean"),
		CatalogFile:      c.MayString("CATALOG_FILE", ""),
		RollupPageSize:   c.MayInt("ROLLUP_PAGE_SIZE", rollup.DefaultPageSize),
		RollupWriteBatch: c.MayInt("ROLLUP_WRITE_BATCH", rollup.DefaultWriteBatch),
		TenantHeader:     c.MayString("TENANT_HEADER", middleware.DefaultTenantHeader),
		Tenants:          c.MayCSV("TENANTS", nil),
		MaxInFlight:      c.MayInt("MAX_IN_FLIGHT", 64),
	}
}

// merge applies non zero overrides on top of o
func (o Options) merge(over Options) Options {
	if over.DefaultPageSize != 0 {
		o.DefaultPageSize = over.DefaultPageSize
	}
	if over.MaxPageSize != 0 {
		o.MaxPageSize = over.MaxPageSize
	}
	if over.Median != "" {
		o.Median = over.Median
	}
	if over.CatalogFile != "" {
		o.CatalogFile = over.CatalogFile
	}
	if over.RollupPageSize != 0 {
		o.RollupPageSize = over.RollupPageSize
	}
	if over.RollupWriteBatch != 0 {
		o.RollupWriteBatch = over.RollupWriteBatch
	}
	if over.TenantHeader != "" {
		o.TenantHeader = over.TenantHeader
	}
	if len(over.Tenants) > 0 {
		o.Tenants = over.Tenants
	}
	if over.MaxInFlight != 0 {
		o.MaxInFlight = over.MaxInFlight
	}
	if over.Catalog != nil {
		o.Catalog = over.Catalog
	}
	if over.Metrics != nil {
		o.Metrics = over.Metrics
	}
	return o
}

func (o Options) median() aggregate.MedianPolicy {
	p, err := aggregate.ParseMedianPolicy(o.Median)
	if err != nil {
		return aggregate.MedianLower
	}
	return p
}
