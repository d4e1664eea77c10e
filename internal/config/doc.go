// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. User config file (~/.taskmd/taskmd.toml or OS-specific config directory)
// 3. Project config file (taskmd.toml or .taskmd.toml in the project root)
// 4. Environment variables (TASKMD_*)
// 5. CLI flags
//
// Each level overrides the previous one, so CLI flags take precedence.
//
// User-level config locations:
// - ~/.taskmd/taskmd.toml (preferred)
// - Windows: %APPDATA%\taskmd\taskmd.toml
// - macOS: ~/Library/Application Support/taskmd/taskmd.toml
// - Linux/BSD: $XDG_CONFIG_HOME/taskmd/taskmd.toml or ~/.config/taskmd/taskmd.toml
//
// Project-level config locations (overrides user config):
// - ./taskmd.toml (preferred)
// - ./.taskmd.toml
//
// The grammar settings resolve to a todo.Dialect through Config.TodoDialect:
// the "dialect" preset first, then the [grammar] overrides, then "timezone".
package config
