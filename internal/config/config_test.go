// Package config tests configuration loading.
package config

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"

	"github.com/nibzard/taskmd/internal/todo"
)

// isolate points every config location at empty temp directories.
func isolate(t *testing.T) (home, project string) {
	t.Helper()
	home = t.TempDir()
	project = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))
	t.Setenv("APPDATA", filepath.Join(home, "appdata"))
	for _, name := range []string{
		"TASKMD_FILE", "TASKMD_SCHEMA", "TASKMD_DIALECT", "TASKMD_INDENT",
		"TASKMD_ID_KIND", "TASKMD_CROSS_REF", "TASKMD_TIME_LAYOUT", "TASKMD_MARKER",
		"TASKMD_TIMEZONE", "TASKMD_WORKERS", "TASKMD_FAIL_FAST", "TASKMD_REFRESH",
		"TASKMD_LOG_LEVEL", "TASKMD_LOG_FORMAT", "TASKMD_LOG_TIMESTAMPS", "TASKMD_LOG_CALLER",
	} {
		t.Setenv(name, "")
	}
	chdir(t, project)
	return home, project
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if cfg.File != DefaultTodoFile {
		t.Errorf("File: got %q, want %q", cfg.File, DefaultTodoFile)
	}
	if cfg.Workers != DefaultWorkers {
		t.Errorf("Workers: got %d, want %d", cfg.Workers, DefaultWorkers)
	}
	if cfg.RefreshSeconds != DefaultRefreshSeconds {
		t.Errorf("RefreshSeconds: got %d, want %d", cfg.RefreshSeconds, DefaultRefreshSeconds)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("logging: got %q/%q, want info/text", cfg.LogLevel, cfg.LogFormat)
	}

	d, err := cfg.TodoDialect()
	if err != nil {
		t.Fatalf("TodoDialect: %v", err)
	}
	if d.Name != todo.DialectStandard {
		t.Errorf("dialect: got %q, want standard", d.Name)
	}
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("TASKMD_FILE", "PLAN.md")
	t.Setenv("TASKMD_DIALECT", "indexed")
	t.Setenv("TASKMD_INDENT", "3")
	t.Setenv("TASKMD_CROSS_REF", "no")
	t.Setenv("TASKMD_WORKERS", "8")
	t.Setenv("TASKMD_REFRESH", "not-a-number")
	t.Setenv("TASKMD_LOG_CALLER", "yes")

	cfg := &Config{}
	setDefaults(cfg)
	loadFromEnv(cfg)

	if cfg.File != "PLAN.md" {
		t.Errorf("File: got %q, want PLAN.md", cfg.File)
	}
	if cfg.Dialect != "indexed" {
		t.Errorf("Dialect: got %q, want indexed", cfg.Dialect)
	}
	if cfg.Grammar.IndentUnit != 3 {
		t.Errorf("IndentUnit: got %d, want 3", cfg.Grammar.IndentUnit)
	}
	if cfg.Grammar.CrossReference == nil || *cfg.Grammar.CrossReference {
		t.Errorf("CrossReference: got %v, want explicit false", cfg.Grammar.CrossReference)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers: got %d, want 8", cfg.Workers)
	}
	if cfg.RefreshSeconds != DefaultRefreshSeconds {
		t.Errorf("RefreshSeconds: got %d, want default for malformed value", cfg.RefreshSeconds)
	}
	if !cfg.LogCaller {
		t.Error("LogCaller: got false, want true")
	}
}

func TestLoadConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "taskmd.toml")

	writeFile(t, configFile, `file = "PLAN.md"
dialect = "legacy"
workers = 2

[grammar]
indent_unit = 4
cross_reference = true

[grammar.fields]
started = "start-time"
notes = "comment"
`)

	cfg := &Config{}
	setDefaults(cfg)
	if err := loadConfigFile(cfg, configFile); err != nil {
		t.Fatalf("loadConfigFile: %v", err)
	}

	if cfg.File != "PLAN.md" {
		t.Errorf("File: got %q, want PLAN.md", cfg.File)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers: got %d, want 2", cfg.Workers)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel: got %q, want default kept", cfg.LogLevel)
	}
	if cfg.Grammar.IndentUnit != 4 {
		t.Errorf("IndentUnit: got %d, want 4", cfg.Grammar.IndentUnit)
	}
	if cfg.Grammar.CrossReference == nil || !*cfg.Grammar.CrossReference {
		t.Errorf("CrossReference: got %v, want true", cfg.Grammar.CrossReference)
	}
	if len(cfg.Grammar.Fields) != 2 || cfg.Grammar.Fields["notes"] != "comment" {
		t.Errorf("Fields: got %v", cfg.Grammar.Fields)
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"unknown key", "file = \"a.md\"\nmax_iterations = 3\n", "unknown config keys: max_iterations"},
		{"wrong type", "workers = \"four\"\n", "workers"},
		{"syntax", "file = \n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "taskmd.toml")
			writeFile(t, path, tt.content)

			cfg := &Config{}
			err := loadConfigFile(cfg, path)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error %q does not contain %q", err, tt.errMsg)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"~", home},
		{"/absolute/path", "/absolute/path"},
		{"relative", "relative"},
	}
	if runtime.GOOS == "windows" {
		t.Setenv("TASKMD_TEST_HOME", home)
		tests = append(tests, struct {
			input string
			want  string
		}{
			input: `%TASKMD_TEST_HOME%\tasks`,
			want:  filepath.Join(home, "tasks"),
		})
	} else {
		t.Setenv("TASKMD_TEST_DIR", "/srv/tasks")
		tests = append(tests, struct {
			input string
			want  string
		}{
			input: "$TASKMD_TEST_DIR/TODO.md",
			want:  "/srv/tasks/TODO.md",
		}, struct {
			input string
			want  string
		}{
			input: `~\test`,
			want:  `~\test`,
		})
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := expandPath(tt.input)
			if got != tt.want {
				t.Errorf("expandPath(%q): got %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFlags(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.LogLevel = "warn"

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	args := []string{
		"-file", "flag.md",
		"-dialect", "indexed",
		"-cross-ref=false",
		"-workers", "9",
		"check", "a.md",
	}

	if err := parseFlags(cfg, fs, args); err != nil {
		t.Fatalf("parseFlags: %v", err)
	}

	if cfg.File != "flag.md" {
		t.Errorf("File: got %q, want flag.md", cfg.File)
	}
	if cfg.Dialect != "indexed" {
		t.Errorf("Dialect: got %q, want indexed", cfg.Dialect)
	}
	if cfg.Grammar.CrossReference == nil || *cfg.Grammar.CrossReference {
		t.Errorf("CrossReference: got %v, want explicit false", cfg.Grammar.CrossReference)
	}
	if cfg.Workers != 9 {
		t.Errorf("Workers: got %d, want 9", cfg.Workers)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel: got %q, want unset flag to keep warn", cfg.LogLevel)
	}
	if got := fs.Args(); len(got) != 2 || got[0] != "check" {
		t.Errorf("remaining args: got %v", got)
	}
}

func TestBoolFromString(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"yes", true},
		{"on", true},
		{"0", false},
		{"false", false},
		{"no", false},
		{"off", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := boolFromString(tt.input)
			if got != tt.want {
				t.Errorf("boolFromString(%q): got %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTodoDialect(t *testing.T) {
	yes := true

	tests := []struct {
		name    string
		cfg     Config
		check   func(t *testing.T, d todo.Dialect)
		wantErr string
	}{
		{
			name: "preset",
			cfg:  Config{Dialect: "indexed"},
			check: func(t *testing.T, d todo.Dialect) {
				if d.IndentUnit != 4 || d.IDKind != todo.IDInteger || !d.RequiresCrossReference {
					t.Errorf("got %+v", d)
				}
			},
		},
		{
			name: "overrides",
			cfg: Config{Grammar: GrammarConfig{
				IndentUnit:     3,
				IDKind:         "Integer",
				CrossReference: &yes,
				TimeLayout:     "2006-01-02",
				Marker:         "*",
			}},
			check: func(t *testing.T, d todo.Dialect) {
				if d.IndentUnit != 3 || d.IDKind != todo.IDInteger || !d.RequiresCrossReference {
					t.Errorf("got %+v", d)
				}
				if d.TimeLayout != "2006-01-02" || d.Marker != "*" {
					t.Errorf("got layout %q marker %q", d.TimeLayout, d.Marker)
				}
			},
		},
		{
			name: "field keys",
			cfg:  Config{Grammar: GrammarConfig{Fields: map[string]string{"started": "start-time", "notes": "Comment"}}},
			check: func(t *testing.T, d todo.Dialect) {
				if len(d.Fields) != 2 || d.Fields["started"] != todo.FieldStartTime || d.Fields["notes"] != todo.FieldComment {
					t.Errorf("got %v", d.Fields)
				}
			},
		},
		{
			name: "timezone",
			cfg:  Config{Timezone: "UTC"},
			check: func(t *testing.T, d todo.Dialect) {
				if d.Location == nil || d.Location.String() != "UTC" {
					t.Errorf("got location %v", d.Location)
				}
			},
		},
		{name: "unknown preset", cfg: Config{Dialect: "yaml"}, wantErr: "unknown dialect"},
		{name: "unknown field", cfg: Config{Grammar: GrammarConfig{Fields: map[string]string{"p": "priority"}}}, wantErr: "grammar.fields.p"},
		{name: "field key starting with hash", cfg: Config{Grammar: GrammarConfig{Fields: map[string]string{"#x": "comment"}}}, wantErr: `invalid field key "#x"`},
		{name: "bad timezone", cfg: Config{Timezone: "Mars/Olympus"}, wantErr: "timezone"},
		{name: "bad id kind", cfg: Config{Grammar: GrammarConfig{IDKind: "uuid"}}, wantErr: "invalid id kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := tt.cfg.TodoDialect()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("TodoDialect error: got %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("TodoDialect: %v", err)
			}
			tt.check(t, d)
		})
	}
}

func TestLoadWithSourcesLayering(t *testing.T) {
	home, project := isolate(t)

	writeFile(t, filepath.Join(home, ".taskmd", "taskmd.toml"), `dialect = "legacy"
timezone = "UTC"
workers = 2
`)
	writeFile(t, filepath.Join(project, "taskmd.toml"), `dialect = "indexed"
workers = 3

[grammar.fields]
notes = "comment"
`)
	t.Setenv("TASKMD_WORKERS", "6")

	fs := flag.NewFlagSet("taskmd", flag.ContinueOnError)
	cws, err := LoadWithSources(fs, []string{"-dialect", "standard", "check"})
	if err != nil {
		t.Fatalf("LoadWithSources: %v", err)
	}
	cfg := cws.Config

	if cfg.Dialect != "standard" {
		t.Errorf("Dialect: got %q, want standard", cfg.Dialect)
	}
	if cfg.Workers != 6 {
		t.Errorf("Workers: got %d, want 6", cfg.Workers)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Timezone: got %q, want UTC", cfg.Timezone)
	}
	if cfg.File != filepath.Join(cfg.ProjectRoot, DefaultTodoFile) {
		t.Errorf("File: got %q, want absolute default", cfg.File)
	}

	want := map[string]ConfigSource{
		"dialect":        SourceFlag,
		"workers":        SourceEnv,
		"timezone":       SourceUserFile,
		"grammar.fields": SourceProjFile,
		"log_level":      SourceDefault,
		"file":           SourceDefault,
	}
	for field, source := range want {
		if got := cws.Sources[field]; got != source {
			t.Errorf("source of %s: got %q, want %q", field, got, source)
		}
	}

	if cws.GetConfigFile() != "taskmd.toml" {
		t.Errorf("GetConfigFile: got %q, want taskmd.toml", cws.GetConfigFile())
	}
	if got := fs.Args(); len(got) != 1 || got[0] != "check" {
		t.Errorf("remaining args: got %v", got)
	}
}

func TestLoadUserFileOnly(t *testing.T) {
	home, _ := isolate(t)
	writeFile(t, filepath.Join(home, "xdg", "taskmd", "taskmd.toml"), "log_level = \"debug\"\n")

	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup is Linux/BSD only")
	}

	cws, err := LoadWithSources(nil, nil)
	if err != nil {
		t.Fatalf("LoadWithSources: %v", err)
	}
	if cws.Config.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q, want debug", cws.Config.LogLevel)
	}
	if cws.Sources["log_level"] != SourceUserFile {
		t.Errorf("source: got %q, want user file", cws.Sources["log_level"])
	}
	if cws.GetConfigFile() != filepath.Join(home, "xdg", "taskmd", "taskmd.toml") {
		t.Errorf("GetConfigFile: got %q", cws.GetConfigFile())
	}
}

func TestLoadRejectsBadProjectFile(t *testing.T) {
	_, project := isolate(t)
	writeFile(t, filepath.Join(project, ".taskmd.toml"), "schedule = \"codex\"\n")

	_, err := Load(nil, nil)
	if err == nil || !strings.Contains(err.Error(), "loading project config file") {
		t.Fatalf("Load error: got %v", err)
	}
}

func TestFinalizeConfig(t *testing.T) {
	t.Run("stdin path kept", func(t *testing.T) {
		cfg := &Config{File: "-", Workers: 1, ProjectRoot: "/work"}
		if err := finalizeConfig(cfg); err != nil {
			t.Fatal(err)
		}
		if cfg.File != "-" {
			t.Errorf("File: got %q, want -", cfg.File)
		}
	})

	t.Run("relative paths joined", func(t *testing.T) {
		root := t.TempDir()
		cfg := &Config{File: "TODO.md", SchemaFile: "s.json", Workers: 1, ProjectRoot: root}
		if err := finalizeConfig(cfg); err != nil {
			t.Fatal(err)
		}
		if cfg.File != filepath.Join(root, "TODO.md") || cfg.SchemaFile != filepath.Join(root, "s.json") {
			t.Errorf("got %q and %q", cfg.File, cfg.SchemaFile)
		}
	})

	t.Run("workers", func(t *testing.T) {
		cfg := &Config{File: "-", Workers: 0}
		if err := finalizeConfig(cfg); err == nil {
			t.Error("expected error for zero workers")
		}
	})

	t.Run("refresh", func(t *testing.T) {
		cfg := &Config{File: "-", Workers: 1, RefreshSeconds: -1}
		if err := finalizeConfig(cfg); err == nil {
			t.Error("expected error for negative refresh")
		}
	})
}

func TestWriteTOML(t *testing.T) {
	yes := true
	cfg := &Config{
		File:    "TODO.md",
		Dialect: "indexed",
		Workers: 3,
		Grammar: GrammarConfig{
			CrossReference: &yes,
			Fields:         map[string]string{"notes": "comment"},
		},
		ProjectRoot: "/not/encoded",
	}

	var buf bytes.Buffer
	if err := cfg.WriteTOML(&buf); err != nil {
		t.Fatalf("WriteTOML: %v", err)
	}
	if strings.Contains(buf.String(), "/not/encoded") {
		t.Errorf("ProjectRoot should not be encoded:\n%s", buf.String())
	}

	var decoded Config
	if _, err := toml.Decode(buf.String(), &decoded); err != nil {
		t.Fatalf("decode: %v\n%s", err, buf.String())
	}
	if decoded.Dialect != "indexed" || decoded.Workers != 3 {
		t.Errorf("decoded: %+v", decoded)
	}
	if decoded.Grammar.CrossReference == nil || !*decoded.Grammar.CrossReference {
		t.Errorf("CrossReference lost in round trip")
	}
	if decoded.Grammar.Fields["notes"] != "comment" {
		t.Errorf("Fields lost in round trip: %v", decoded.Grammar.Fields)
	}
}

func TestExampleConfig(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	md, err := toml.Decode(ExampleConfig(), cfg)
	if err != nil {
		t.Fatalf("example config does not parse: %v", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		t.Errorf("example config has unknown keys: %v", undecoded)
	}
	if _, err := cfg.TodoDialect(); err != nil {
		t.Errorf("example config dialect: %v", err)
	}
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
