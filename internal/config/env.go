package config

import (
	"fmt"
	"os"
	"strings"
)

// loadFromEnv overrides config from environment variables.
func loadFromEnv(cfg *Config) {
	loadFromEnvHelper(cfg, nil, "")
}

// loadFromEnvHelper is the shared implementation for env loading.
// If sources is non-nil, it tracks the source of each value.
// Malformed numbers are ignored.
func loadFromEnvHelper(cfg *Config, sources map[string]ConfigSource, source ConfigSource) {
	track := func(field string) {
		if sources != nil {
			sources[field] = source
		}
	}
	envString := func(name, field string, target *string) {
		if v := os.Getenv(name); v != "" {
			*target = v
			track(field)
		}
	}
	envInt := func(name, field string, target *int) {
		if v := os.Getenv(name); v != "" {
			var i int
			if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
				*target = i
				track(field)
			}
		}
	}
	envBool := func(name, field string, target *bool) {
		if v := os.Getenv(name); v != "" {
			*target = boolFromString(v)
			track(field)
		}
	}

	envString("TASKMD_FILE", "file", &cfg.File)
	envString("TASKMD_SCHEMA", "schema_file", &cfg.SchemaFile)
	envString("TASKMD_DIALECT", "dialect", &cfg.Dialect)
	envInt("TASKMD_INDENT", "grammar.indent_unit", &cfg.Grammar.IndentUnit)
	envString("TASKMD_ID_KIND", "grammar.id_kind", &cfg.Grammar.IDKind)
	if v := os.Getenv("TASKMD_CROSS_REF"); v != "" {
		b := boolFromString(v)
		cfg.Grammar.CrossReference = &b
		track("grammar.cross_reference")
	}
	envString("TASKMD_TIME_LAYOUT", "grammar.time_layout", &cfg.Grammar.TimeLayout)
	envString("TASKMD_MARKER", "grammar.marker", &cfg.Grammar.Marker)
	envString("TASKMD_TIMEZONE", "timezone", &cfg.Timezone)
	envInt("TASKMD_WORKERS", "workers", &cfg.Workers)
	envBool("TASKMD_FAIL_FAST", "fail_fast", &cfg.FailFast)
	envInt("TASKMD_REFRESH", "refresh_seconds", &cfg.RefreshSeconds)

	// Logging configuration
	envString("TASKMD_LOG_LEVEL", "log_level", &cfg.LogLevel)
	envString("TASKMD_LOG_FORMAT", "log_format", &cfg.LogFormat)
	envBool("TASKMD_LOG_TIMESTAMPS", "log_timestamps", &cfg.LogTimestamps)
	envBool("TASKMD_LOG_CALLER", "log_caller", &cfg.LogCaller)
}

func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
