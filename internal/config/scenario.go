package config

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaFS embed.FS

// Scenario is the optional file-based configuration surface. Fields left
// unset keep the environment-derived value. Unlike environment values,
// scenario files are validated strictly: a file that fails schema validation
// aborts the run before it starts.
type Scenario struct {
	TargetURL     *string  `json:"target_url,omitempty"`
	Workers       *int     `json:"workers,omitempty"`
	PoolSize      *int     `json:"pool_size,omitempty"`
	IDPrefix      *string  `json:"id_prefix,omitempty"`
	UpdateTypes   []string `json:"update_types,omitempty"`
	RetryCount    *int     `json:"retry_count,omitempty"`
	BackoffBase   *int     `json:"backoff_base,omitempty"`
	BackoffMax    *int     `json:"backoff_max,omitempty"`
	BackoffPolicy *string  `json:"backoff_policy,omitempty"`
	Duration      *string  `json:"duration,omitempty"`
	Interval      *string  `json:"interval,omitempty"`
	CountNoops    *bool    `json:"count_noops,omitempty"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	if err := ValidateScenario(data); err != nil {
		return nil, err
	}
	var sc Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &sc, nil
}

// ValidateScenario checks raw scenario JSON against the embedded schema.
func ValidateScenario(data []byte) error {
	schemaBytes, err := schemaFS.ReadFile("schema.json")
	if err != nil {
		return fmt.Errorf("load embedded schema: %w", err)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validate scenario: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid scenario: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// Apply overlays the scenario onto a resolved config.
func (sc *Scenario) Apply(c *Config) error {
	if sc.TargetURL != nil {
		c.TargetURL = *sc.TargetURL
	}
	if sc.Workers != nil {
		c.Workers = *sc.Workers
	}
	if sc.PoolSize != nil {
		c.PoolSize = *sc.PoolSize
	}
	if sc.IDPrefix != nil {
		c.IDPrefix = *sc.IDPrefix
	}
	if len(sc.UpdateTypes) > 0 {
		c.UpdateTypes = sc.UpdateTypes
	}
	if sc.RetryCount != nil {
		c.RetryCount = *sc.RetryCount
	}
	if sc.BackoffBase != nil {
		c.BackoffBase = *sc.BackoffBase
	}
	if sc.BackoffMax != nil {
		c.BackoffMax = *sc.BackoffMax
	}
	if sc.BackoffPolicy != nil {
		c.BackoffPolicy = *sc.BackoffPolicy
	}
	if sc.Duration != nil {
		d, err := time.ParseDuration(*sc.Duration)
		if err != nil {
			return fmt.Errorf("scenario duration: %w", err)
		}
		c.Duration = d
	}
	if sc.Interval != nil {
		d, err := time.ParseDuration(*sc.Interval)
		if err != nil {
			return fmt.Errorf("scenario interval: %w", err)
		}
		c.Interval = d
	}
	if sc.CountNoops != nil {
		c.CountNoops = *sc.CountNoops
	}
	return nil
}
