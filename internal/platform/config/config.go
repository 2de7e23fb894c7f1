// Package config reads typed settings from the environment under namespaced prefixes
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"enrollcam/internal/platform/logger"
)

// Conf is a namespaced view over a key source, normally the process env
// New() reads os env; FromMap is used by the CLI for flag overrides and by tests
type Conf struct {
	prefix string
	lookup func(string) (string, bool)
}

// New creates a root Conf over the process environment
func New() Conf { return Conf{lookup: os.LookupEnv} }

// FromMap creates a root Conf over a fixed map; keys are fully qualified
func FromMap(m map[string]string) Conf {
	return Conf{lookup: func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}}
}

// Overlay returns a Conf that consults m first and falls back to c
func (c Conf) Overlay(m map[string]string) Conf {
	base := c.source()
	return Conf{prefix: c.prefix, lookup: func(k string) (string, bool) {
		if v, ok := m[k]; ok && strings.TrimSpace(v) != "" {
			return v, true
		}
		return base(k)
	}}
}

// Prefix creates a child Conf, eg cfg.Prefix("CAPTURE_")
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p, lookup: c.lookup} }

func (c Conf) key(k string) string { return c.prefix + k }

func (c Conf) source() func(string) (string, bool) {
	if c.lookup == nil {
		return os.LookupEnv
	}
	return c.lookup
}

func (c Conf) get(k string) string {
	v, _ := c.source()(c.key(k))
	return strings.TrimSpace(v)
}

// MustString panics if the key is missing or empty
func (c Conf) MustString(key string) string {
	v := c.get(key)
	if v == "" {
		logger.Get().Panic().Str("key", c.key(key)).Msg("missing required env")
	}
	return v
}

// MustURL panics unless the key holds an absolute URL
func (c Conf) MustURL(key string) *url.URL {
	s := c.MustString(key)
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		logger.Get().Panic().Str("key", c.key(key)).Str("value", s).Msg("invalid absolute URL")
	}
	return u
}

// MustPort returns a listen addr like ":4000" after checking 1..65535
func (c Conf) MustPort(key string) string {
	s := c.MustString(key)
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 65535 {
		logger.Get().Panic().Str("key", c.key(key)).Str("value", s).Msg("invalid TCP port; expected 1..65535")
	}
	return ":" + s
}

// Require panics on the first missing key
func (c Conf) Require(keys ...string) {
	for _, k := range keys {
		if c.get(k) == "" {
			logger.Get().Panic().Str("key", c.key(k)).Msg("missing required env")
		}
	}
}

// MayString returns the value or def
func (c Conf) MayString(key, def string) string {
	if v := c.get(key); v != "" {
		return v
	}
	return def
}

// MayInt returns the value or def; invalid values warn and fall back
func (c Conf) MayInt(key string, def int) int {
	s := c.get(key)
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Int("default", def).Msg("invalid int; using default")
	return def
}

// MayFloat64 returns the value or def; invalid values warn and fall back
func (c Conf) MayFloat64(key string, def float64) float64 {
	s := c.get(key)
	if s == "" {
		return def
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Float64("default", def).
		Msg("invalid float64; using default")
	return def
}

// MayBool returns the value or def; invalid values warn and fall back
func (c Conf) MayBool(key string, def bool) bool {
	s := c.get(key)
	if s == "" {
		return def
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Bool("default", def).Msg("invalid bool; using default")
	return def
}

// MayDuration returns the value or def; invalid values warn and fall back
// A bare integer is read as milliseconds, so CAPTURE_BURST_CADENCE=20 works
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	s := c.get(key)
	if s == "" {
		return def
	}
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Dur("default", def).Msg("invalid duration; using default")
	return def
}

// MayEnum returns the value if it is one of allowed, def if empty, and panics otherwise
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.MayString(key, def)
	if v == "" {
		return v
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return strings.ToLower(a)
		}
	}
	logger.Get().Panic().Str("key", c.key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return ""
}
