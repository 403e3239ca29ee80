// Package config builds the harness configuration once at startup. Values
// come from environment-style key/value lookups with eager validation:
// malformed or out-of-range values clamp to documented defaults with a
// warning rather than failing the run.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/user/gridlock/internal/worker"
)

// Recognized keys
const (
	KeyTargetURL     = "TARGET_URL"
	KeyWorkerCount   = "WORKER_COUNT"
	KeyPoolSize      = "POOL_SIZE"
	KeyIDPrefix      = "ID_PREFIX"
	KeyUpdateTypes   = "UPDATE_TYPES"
	KeyRetryCount    = "RETRY_COUNT"
	KeyBackoffBase   = "RETRY_BACKOFF_BASE"
	KeyBackoffMax    = "RETRY_BACKOFF_MAX"
	KeyBackoffPolicy = "RETRY_BACKOFF_POLICY"
	KeyDuration      = "RUN_DURATION"
	KeyInterval      = "REQUEST_INTERVAL"
	KeyCountNoops    = "COUNT_NOOPS"
)

// Defaults
const (
	DefaultWorkers     = 1
	DefaultPoolSize    = 10
	DefaultIDPrefix    = "task"
	DefaultBackoffBase = 2
	DefaultBackoffMax  = 16
	DefaultDuration    = 10 * time.Second
)

// Config is the fully-resolved harness configuration.
type Config struct {
	TargetURL   string
	Workers     int
	PoolSize    int
	IDPrefix    string
	UpdateTypes []string

	RetryCount    int
	BackoffBase   int
	BackoffMax    int
	BackoffPolicy string

	Duration time.Duration
	// Interval is the per-worker pacing between request cycles; zero means
	// unpaced. When CountNoops is false, noop cycles do not consume the
	// pacing budget.
	Interval   time.Duration
	CountNoops bool
}

// Lookup resolves a configuration key, reporting whether it was set.
type Lookup func(key string) (string, bool)

// FromEnv loads configuration from process environment variables.
func FromEnv() Config {
	return Load(os.LookupEnv)
}

// Load resolves every recognized key through lookup, applying defaults and
// clamping. It never fails: misconfiguration degrades to defaults with a
// warning, keeping load generation robust at the cost of silently degraded
// partitioning.
func Load(lookup Lookup) Config {
	c := Config{
		TargetURL:  stringOrDefault(lookup, KeyTargetURL, "http://localhost:8080"),
		IDPrefix:   stringOrDefault(lookup, KeyIDPrefix, DefaultIDPrefix),
		CountNoops: boolOrDefault(lookup, KeyCountNoops, true),
	}

	c.Workers = clampMin(intKey(lookup, KeyWorkerCount, DefaultWorkers), 1, KeyWorkerCount, DefaultWorkers)
	c.PoolSize = clampMin(intKey(lookup, KeyPoolSize, DefaultPoolSize), 1, KeyPoolSize, DefaultPoolSize)
	c.UpdateTypes = updateTypes(lookup)

	// The status-transition variant retries by default; the field variant
	// leaves retries opt-in.
	retryDefault := 0
	if contains(c.UpdateTypes, worker.ModeStatus) {
		retryDefault = 1
	}
	c.RetryCount = clampMin(intKey(lookup, KeyRetryCount, retryDefault), 0, KeyRetryCount, retryDefault)
	c.BackoffBase = clampMin(intKey(lookup, KeyBackoffBase, DefaultBackoffBase), 1, KeyBackoffBase, DefaultBackoffBase)
	c.BackoffMax = clampMin(intKey(lookup, KeyBackoffMax, DefaultBackoffMax), 0, KeyBackoffMax, DefaultBackoffMax)
	c.BackoffPolicy = backoffPolicy(lookup)

	c.Duration = durationKey(lookup, KeyDuration, DefaultDuration)
	c.Interval = durationKey(lookup, KeyInterval, 0)
	return c
}

// IntOrDefault parses an integer key, reporting whether the default was used.
func IntOrDefault(lookup Lookup, key string, def int) (int, bool) {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return def, true
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		slog.Warn("invalid integer value, using default", "key", key, "value", raw, "default", def)
		return def, true
	}
	return v, false
}

func intKey(lookup Lookup, key string, def int) int {
	v, _ := IntOrDefault(lookup, key, def)
	return v
}

func clampMin(v, min int, key string, def int) int {
	if v < min {
		slog.Warn("value out of range, using default", "key", key, "value", v, "default", def)
		return def
	}
	return v
}

func stringOrDefault(lookup Lookup, key, def string) string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return def
	}
	return strings.TrimSpace(raw)
}

func boolOrDefault(lookup Lookup, key string, def bool) bool {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return def
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		slog.Warn("invalid boolean value, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return v
}

func durationKey(lookup Lookup, key string, def time.Duration) time.Duration {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d < 0 {
		slog.Warn("invalid duration value, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return d
}

func updateTypes(lookup Lookup) []string {
	raw, ok := lookup(KeyUpdateTypes)
	if !ok || strings.TrimSpace(raw) == "" {
		return []string{worker.ModeField}
	}
	var types []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(strings.ToLower(t))
		switch t {
		case worker.ModeField, worker.ModeStatus:
			if !contains(types, t) {
				types = append(types, t)
			}
		case "":
		default:
			slog.Warn("unknown update type ignored", "type", t)
		}
	}
	if len(types) == 0 {
		slog.Warn("no valid update types configured, using default", "default", worker.ModeField)
		return []string{worker.ModeField}
	}
	return types
}

func backoffPolicy(lookup Lookup) string {
	raw := strings.TrimSpace(strings.ToLower(stringOrDefault(lookup, KeyBackoffPolicy, worker.BackoffFullJitter)))
	switch raw {
	case worker.BackoffFixed, worker.BackoffFullJitter:
		return raw
	}
	slog.Warn("unknown backoff policy, using default", "policy", raw, "default", worker.BackoffFullJitter)
	return worker.BackoffFullJitter
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
