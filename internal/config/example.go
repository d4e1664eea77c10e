package config

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
)

// WriteTOML encodes the effective configuration as TOML.
func (c *Config) WriteTOML(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# taskmd configuration file
# Values can be overridden by environment variables (TASKMD_*) or CLI flags

# Task document (relative to project root, "-" for stdin)
file = "TODO.md"

# JSON Schema used by "taskmd validate" (empty: embedded schema)
# schema_file = "taskmd.schema.json"

# Grammar preset: standard, indexed, or legacy
dialect = "standard"

# Timezone used to read and write timestamps (default: UTC)
# timezone = "Europe/Berlin"

# Number of files "taskmd check" parses in parallel
workers = 4

# Stop "taskmd check" after the first failing file
fail_fast = false

# TUI reload interval in seconds (0 disables reloading)
refresh_seconds = 2

# Logging
log_level = "info"       # debug, info, warn, error
log_format = "text"      # text, json, logfmt
log_timestamps = false
log_caller = false

# Overrides applied on top of the preset
[grammar]
# indent_unit = 2
# id_kind = "string"            # string or integer
# cross_reference = false       # require a "# id" header for every task
# time_layout = "2006-01-02 15:04"
# marker = "-"

# Detail field keys: literal key = field name
# [grammar.fields]
# started = "start-time"
# finished = "end-time"
# notes = "comment"
`
}
