// Package config reads prefixed environment variables. Every service scopes
// its view, i.e. root.Prefix("ANALYTICS_"), and reads keys relative to it
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"insightsdb/internal/platform/logger"
)

// Conf is an environment view under a prefix
type Conf struct{ prefix string }

func New() Conf                       { return Conf{} }
func (c Conf) Prefix(p string) Conf   { return Conf{prefix: c.prefix + p} }
func (c Conf) lookup(k string) string { return strings.TrimSpace(os.Getenv(c.prefix + k)) }

// MustString panics when key is unset or blank
func (c Conf) MustString(key string) string {
	v := c.lookup(key)
	if v == "" {
		logger.Get().Panic().Str("key", c.prefix+key).Msg("missing required env")
	}
	return v
}

func (c Conf) MayString(key, def string) string {
	if v := c.lookup(key); v != "" {
		return v
	}
	return def
}

// may parses key with parse. Unset keys give def; unparsable ones are logged
// and give def too, so a typo never takes a service down
func may[T any](c Conf, key string, def T, parse func(string) (T, error)) T {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.prefix+key).Str("value", s).Interface("default", def).Msg("invalid env value; using default")
		return def
	}
	return v
}

func (c Conf) MayInt(key string, def int) int { return may(c, key, def, strconv.Atoi) }

func (c Conf) MayBool(key string, def bool) bool { return may(c, key, def, strconv.ParseBool) }

// MayDuration takes Go durations, i.e. 250ms or 30s
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, def, time.ParseDuration)
}

// MayCSV splits a comma separated list, dropping blank entries
func (c Conf) MayCSV(key string, def []string) []string {
	var out []string
	for _, p := range strings.Split(c.lookup(key), ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayEnum returns the allowed value key names, matched case insensitively,
// or def when unset. Any other value panics
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.lookup(key)
	if v == "" {
		return def
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return a
		}
	}
	logger.Get().Panic().Str("key", c.prefix+key).Str("value", v).Strs("allowed", allowed).Msg("invalid env value")
	return ""
}
