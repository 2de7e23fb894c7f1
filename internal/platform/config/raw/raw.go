// Package raw is the bootstrap env reader used by the logger itself
// It must not import logger
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Conf is a prefixed view over the process environment
type Conf struct{ prefix string }

// New returns a root Conf
func New() Conf { return Conf{} }

// Prefix returns a child Conf, eg "LOG_"
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) val(k string) string { return strings.TrimSpace(os.Getenv(c.prefix + k)) }

// Get returns the trimmed value or def
func (c Conf) Get(key, def string) string {
	if v := c.val(key); v != "" {
		return v
	}
	return def
}

// GetBool accepts 1, true, yes and on; anything else set is false
func (c Conf) GetBool(key string, def bool) bool {
	switch v := strings.ToLower(c.val(key)); v {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// GetInt parses a non-negative int, falling back to def
func (c Conf) GetInt(key string, def int) int {
	n, err := strconv.ParseUint(c.val(key), 10, 31)
	if err != nil {
		return def
	}
	return int(n)
}
