package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nibzard/taskmd/internal/todo"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// UserFile and ProjectFile are the config files that were read, if any.
	UserFile    string
	ProjectFile string
}

// Default values.
const (
	DefaultTodoFile       = "TODO.md"
	DefaultWorkers        = 4
	DefaultRefreshSeconds = 2
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// Config holds the full configuration for taskmd.
type Config struct {
	// Paths
	File       string `toml:"file"`
	SchemaFile string `toml:"schema_file"`

	// Grammar
	Dialect  string        `toml:"dialect"`
	Grammar  GrammarConfig `toml:"grammar"`
	Timezone string        `toml:"timezone"`

	// check
	Workers  int  `toml:"workers"`
	FailFast bool `toml:"fail_fast"`

	// tui
	RefreshSeconds int `toml:"refresh_seconds"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
}

// GrammarConfig overrides individual parameters of the selected dialect.
// Zero values leave the preset untouched.
type GrammarConfig struct {
	IndentUnit     int    `toml:"indent_unit,omitempty"`
	IDKind         string `toml:"id_kind,omitempty"`
	CrossReference *bool  `toml:"cross_reference,omitempty"`
	TimeLayout     string `toml:"time_layout,omitempty"`
	Marker         string `toml:"marker,omitempty"`
	// Fields maps the literal key written after "##" to a field name
	// (start-time, end-time, comment, name). It replaces the preset keys.
	Fields map[string]string `toml:"fields,omitempty"`
}

// TodoDialect resolves the configured preset, grammar overrides, and
// timezone into a validated dialect.
func (c *Config) TodoDialect() (todo.Dialect, error) {
	d, err := todo.LookupDialect(c.Dialect)
	if err != nil {
		return todo.Dialect{}, err
	}

	g := c.Grammar
	if g.IndentUnit != 0 {
		d.IndentUnit = g.IndentUnit
	}
	if g.IDKind != "" {
		d.IDKind = todo.IDKind(strings.ToLower(strings.TrimSpace(g.IDKind)))
	}
	if g.CrossReference != nil {
		d.RequiresCrossReference = *g.CrossReference
	}
	if g.TimeLayout != "" {
		d.TimeLayout = g.TimeLayout
	}
	if g.Marker != "" {
		d.Marker = g.Marker
	}
	if len(g.Fields) > 0 {
		keys := make([]string, 0, len(g.Fields))
		for key := range g.Fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fields := make(map[string]todo.Field, len(g.Fields))
		for _, key := range keys {
			f, err := todo.ParseField(g.Fields[key])
			if err != nil {
				return todo.Dialect{}, fmt.Errorf("grammar.fields.%s: %w", key, err)
			}
			fields[key] = f
		}
		d.Fields = fields
	}

	if c.Timezone != "" {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return todo.Dialect{}, fmt.Errorf("timezone %q: %w", c.Timezone, err)
		}
		d.Location = loc
	}

	if err := d.Validate(); err != nil {
		return todo.Dialect{}, err
	}
	return d, nil
}
