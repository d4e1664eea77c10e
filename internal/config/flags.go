package config

import (
	"flag"
)

// flagToSource maps global flag names to source field names.
var flagToSource = map[string]string{
	"file":           "file",
	"schema":         "schema_file",
	"dialect":        "dialect",
	"indent":         "grammar.indent_unit",
	"id-kind":        "grammar.id_kind",
	"cross-ref":      "grammar.cross_reference",
	"time-layout":    "grammar.time_layout",
	"marker":         "grammar.marker",
	"timezone":       "timezone",
	"workers":        "workers",
	"fail-fast":      "fail_fast",
	"refresh":        "refresh_seconds",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"log-caller":     "log_caller",
}

// parseFlags defines and parses CLI flags.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string) error {
	return parseFlagsHelper(cfg, fs, args, nil, "")
}

// parseFlagsHelper is the shared implementation for flag parsing. Only flags
// that appear in args are applied, so lower layers survive unset flags.
// If sources is non-nil, it tracks the source of each value.
func parseFlagsHelper(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource, source ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("taskmd", flag.ContinueOnError)
	}

	var (
		file, schemaFile, dialect      string
		idKind, timeLayout, marker, tz string
		logLevel, logFormat            string
		indent, workers, refresh       int
		crossRef, failFast             bool
		logTimestamps, logCaller       bool
	)

	// Paths
	fs.StringVar(&file, "file", cfg.File, "Path to the task document (- for stdin)")
	fs.StringVar(&schemaFile, "schema", cfg.SchemaFile, "Path to a JSON Schema file (default: embedded schema)")

	// Grammar
	fs.StringVar(&dialect, "dialect", cfg.Dialect, "Grammar preset (standard, indexed, legacy)")
	fs.IntVar(&indent, "indent", cfg.Grammar.IndentUnit, "Spaces per nesting level (0: preset default)")
	fs.StringVar(&idKind, "id-kind", cfg.Grammar.IDKind, "Task id kind (string, integer)")
	fs.BoolVar(&crossRef, "cross-ref", cfg.Grammar.CrossReference != nil && *cfg.Grammar.CrossReference, "Require a detail header for every task")
	fs.StringVar(&timeLayout, "time-layout", cfg.Grammar.TimeLayout, "Timestamp layout (Go reference time)")
	fs.StringVar(&marker, "marker", cfg.Grammar.Marker, "List item marker")
	fs.StringVar(&tz, "timezone", cfg.Timezone, "IANA timezone for timestamps (default: UTC)")

	// check / tui
	fs.IntVar(&workers, "workers", cfg.Workers, "Number of files checked in parallel")
	fs.BoolVar(&failFast, "fail-fast", cfg.FailFast, "Stop checking after the first failure")
	fs.IntVar(&refresh, "refresh", cfg.RefreshSeconds, "TUI reload interval in seconds (0 disables)")

	// Logging
	fs.StringVar(&logLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&logFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&logTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&logCaller, "log-caller", cfg.LogCaller, "Show caller location in logs")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		field, ok := flagToSource[f.Name]
		if !ok {
			return
		}
		switch f.Name {
		case "file":
			cfg.File = file
		case "schema":
			cfg.SchemaFile = schemaFile
		case "dialect":
			cfg.Dialect = dialect
		case "indent":
			cfg.Grammar.IndentUnit = indent
		case "id-kind":
			cfg.Grammar.IDKind = idKind
		case "cross-ref":
			v := crossRef
			cfg.Grammar.CrossReference = &v
		case "time-layout":
			cfg.Grammar.TimeLayout = timeLayout
		case "marker":
			cfg.Grammar.Marker = marker
		case "timezone":
			cfg.Timezone = tz
		case "workers":
			cfg.Workers = workers
		case "fail-fast":
			cfg.FailFast = failFast
		case "refresh":
			cfg.RefreshSeconds = refresh
		case "log-level":
			cfg.LogLevel = logLevel
		case "log-format":
			cfg.LogFormat = logFormat
		case "log-timestamps":
			cfg.LogTimestamps = logTimestamps
		case "log-caller":
			cfg.LogCaller = logCaller
		}
		if sources != nil {
			sources[field] = source
		}
	})

	return nil
}
