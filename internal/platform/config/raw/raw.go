// Package raw reads the LOG_ environment before the logger exists. It must
// not import the logger, which is configured from it
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Conf is an environment view under a prefix
type Conf struct{ prefix string }

func New() Conf                     { return Conf{} }
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) Get(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(c.prefix + key)); v != "" {
		return v
	}
	return def
}

// GetBool is true for 1, true and yes in any case
func (c Conf) GetBool(key string, def bool) bool {
	switch strings.ToLower(c.Get(key, "")) {
	case "":
		return def
	case "1", "true", "yes":
		return true
	}
	return false
}

// GetInt takes non negative integers; anything else gives def
func (c Conf) GetInt(key string, def int) int {
	n, err := strconv.Atoi(c.Get(key, ""))
	if err != nil || n < 0 {
		return def
	}
	return n
}
