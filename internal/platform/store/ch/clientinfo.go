package ch

import (
	"cmp"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo describes this process to the server so system.query_log
// can tell api reads from rollup writes. role is "api" or "rollup"
func BuildClientInfo(role, tag string) clickhouse.ClientInfo {
	host, _ := os.Hostname()
	return clickhouse.ClientInfo{Products: []struct{ Name, Version string }{
		{"insightsdb", orUnknown(tag)},
		{"role", orUnknown(role)},
		{"go", runtime.Version()},
		{"commit", revision()},
		{"host", orUnknown(host)},
	}}
}

// revision is the short vcs revision stamped by go build
func revision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return "unknown"
}

func orUnknown(s string) string { return cmp.Or(strings.TrimSpace(s), "unknown") }
