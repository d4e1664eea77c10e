// Package cmd implements the CLI command structure for taskmd.
package cmd

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskmd/internal/config"
	"github.com/nibzard/taskmd/internal/logging"
	"github.com/nibzard/taskmd/internal/parallel"
	"github.com/nibzard/taskmd/internal/render"
	"github.com/nibzard/taskmd/internal/todo"
	"github.com/nibzard/taskmd/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// stdinPath selects standard input instead of a file.
const stdinPath = "-"

// Run executes the taskmd CLI.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taskmd", flag.ContinueOnError)
	fs.Usage = func() {
		printUsage(fs, os.Stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cws.Config
	if *help {
		printUsage(fs, os.Stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	logger := logging.FromConfig(os.Stderr, cfg)
	if file := cws.GetConfigFile(); file != "" {
		logger.Debug("loaded config", "file", file)
	}

	remainingArgs := fs.Args()
	if len(remainingArgs) == 0 {
		printUsage(fs, os.Stderr)
		return errors.New("no command given")
	}
	subcommand := remainingArgs[0]
	remainingArgs = remainingArgs[1:]

	switch subcommand {
	case "check":
		return checkCommand(ctx, cfg, logger, remainingArgs)
	case "fmt":
		return fmtCommand(cfg, logger, remainingArgs)
	case "ls":
		return lsCommand(cfg, remainingArgs)
	case "export":
		return exportCommand(cfg, remainingArgs)
	case "validate":
		return validateCommand(cfg, logger, remainingArgs)
	case "tui":
		return tuiCommand(ctx, cfg, remainingArgs)
	case "config":
		return configCommand(cws, remainingArgs)
	case "version", "--version", "-v":
		return versionCommand()
	case "help", "--help", "-h":
		printUsage(fs, os.Stdout)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, os.Stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// fileArg returns the single optional file argument, or the configured file.
func fileArg(cfg *config.Config, remaining []string) (string, error) {
	if len(remaining) > 1 {
		return "", fmt.Errorf("unexpected arguments: %v", remaining[1:])
	}
	if len(remaining) == 1 {
		return remaining[0], nil
	}
	return cfg.File, nil
}

// loadDocument parses path, reading standard input for "-".
func loadDocument(path string, d todo.Dialect) (*todo.Document, error) {
	if path != stdinPath {
		return todo.Load(path, d)
	}
	doc, err := todo.ParseReader(os.Stdin, d)
	if err != nil {
		return nil, fmt.Errorf("parse standard input: %w", err)
	}
	return doc, nil
}

func readInput(path string) ([]byte, error) {
	if path == stdinPath {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read standard input: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}
	return data, nil
}

// checkCommand parses every file concurrently and reports each result.
func checkCommand(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("taskmd check", flag.ContinueOnError)
	workers := fs.Int("workers", cfg.Workers, "Number of files parsed in parallel")
	failFast := fs.Bool("fail-fast", cfg.FailFast, "Stop after the first failing file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *workers)
	}

	d, err := cfg.TodoDialect()
	if err != nil {
		return err
	}

	paths := fs.Args()
	if len(paths) == 0 {
		paths = []string{cfg.File}
	}
	if countStdin(paths) > 1 {
		return errors.New("standard input can only be checked once")
	}

	start := time.Now()
	load := parallel.LoadFunc(func(path string) (*todo.Document, error) {
		return loadDocument(path, d)
	})
	results := parallel.CheckFiles(ctx, paths, *workers, *failFast, load)

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			fmt.Printf("FAIL %s: %v\n", r.Path, r.Error)
			fields := append([]any{"path", r.Path}, logging.ErrorFields(r.Error)...)
			logger.Error("parse failed", fields...)
			continue
		}
		total, done := r.Doc.Stats()
		fmt.Printf("ok   %s (%d tasks, %d done)\n", r.Path, total, done)
		for _, id := range r.Doc.Unreferenced {
			logger.Warn("detail header not referenced by any task", "path", r.Path, "id", string(id))
		}
		logger.Debug("parsed", "path", r.Path, "tasks", total, "duration", r.Duration)
	}
	logger.Debug("check finished", "files", len(results), "failed", failed, "elapsed", time.Since(start))

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func countStdin(paths []string) int {
	n := 0
	for _, p := range paths {
		if p == stdinPath {
			n++
		}
	}
	return n
}

// fmtCommand re-emits a document in canonical form.
func fmtCommand(cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("taskmd fmt", flag.ContinueOnError)
	write := fs.Bool("w", false, "Write the result back to the file")
	check := fs.Bool("check", false, "Fail if the file is not already formatted")

	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := fileArg(cfg, fs.Args())
	if err != nil {
		return err
	}
	if *write && path == stdinPath {
		return errors.New("cannot use -w with standard input")
	}

	d, err := cfg.TodoDialect()
	if err != nil {
		return err
	}

	data, err := readInput(path)
	if err != nil {
		return err
	}
	doc, err := todo.ParseReader(bytes.NewReader(data), d)
	if err != nil {
		return fmt.Errorf("parse task file %s: %w", path, err)
	}

	// The serializer only writes blocks reachable from the list, so
	// unreferenced detail blocks would be lost.
	if len(doc.Unreferenced) > 0 {
		ids := joinIDs(doc.Unreferenced)
		if *write || *check {
			return fmt.Errorf("%s has detail blocks not referenced by any task (%s); formatting would drop them", path, ids)
		}
		logger.Warn("output drops unreferenced detail blocks", "path", path, "ids", ids)
	}

	var formatted bytes.Buffer
	if err := todo.Write(&formatted, doc.Tasks, d); err != nil {
		return fmt.Errorf("format: %w", err)
	}

	switch {
	case *check:
		if !bytes.Equal(formatted.Bytes(), data) {
			return fmt.Errorf("%s is not formatted", path)
		}
		return nil
	case *write:
		if bytes.Equal(formatted.Bytes(), data) {
			return nil
		}
		return todo.Save(path, doc, d)
	default:
		_, err := os.Stdout.Write(formatted.Bytes())
		return err
	}
}

func joinIDs(ids []todo.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}

// lsCommand prints the task tree.
func lsCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("taskmd ls", flag.ContinueOnError)
	statusFilter := fs.String("status", "", "Filter by status (open|done)")
	verbose := fs.Bool("v", false, "Show timestamps and comments")

	if err := fs.Parse(args); err != nil {
		return err
	}
	filter, err := parseFilter(*statusFilter)
	if err != nil {
		return err
	}

	path, err := fileArg(cfg, fs.Args())
	if err != nil {
		return err
	}
	d, err := cfg.TodoDialect()
	if err != nil {
		return err
	}
	doc, err := loadDocument(path, d)
	if err != nil {
		return err
	}

	if !printTree(os.Stdout, doc.Tasks, 0, filter, *verbose, d) {
		fmt.Println("No tasks found.")
	}
	return nil
}

func parseFilter(status string) (ui.Filter, error) {
	switch f := ui.Filter(strings.ToLower(status)); f {
	case ui.FilterAll, ui.FilterOpen, ui.FilterDone:
		return f, nil
	default:
		return "", fmt.Errorf("invalid status %q (want open or done)", status)
	}
}

// printTree prints tasks matching filter along with their ancestors and
// reports whether anything was printed.
func printTree(w io.Writer, tasks []*todo.Task, depth int, filter ui.Filter, verbose bool, d todo.Dialect) bool {
	printed := false
	for _, t := range tasks {
		if !hasMatch(t, filter) {
			continue
		}
		printed = true
		printTask(w, t, depth, verbose, d)
		printTree(w, t.Children, depth+1, filter, verbose, d)
	}
	return printed
}

func hasMatch(t *todo.Task, filter ui.Filter) bool {
	switch {
	case filter == ui.FilterAll:
		return true
	case filter == ui.FilterDone && t.Completed:
		return true
	case filter == ui.FilterOpen && !t.Completed:
		return true
	}
	for _, c := range t.Children {
		if hasMatch(c, filter) {
			return true
		}
	}
	return false
}

func printTask(w io.Writer, t *todo.Task, depth int, verbose bool, d todo.Dialect) {
	pad := strings.Repeat("  ", depth)
	mark := "[ ]"
	if t.Completed {
		mark = "[x]"
	}
	fmt.Fprintf(w, "%s%s %s %s\n", pad, mark, t.ID, t.Name)

	if !verbose {
		return
	}
	if t.StartTime != nil {
		fmt.Fprintf(w, "%s    started: %s\n", pad, t.StartTime.Format(d.TimeLayout))
	}
	if t.EndTime != nil {
		fmt.Fprintf(w, "%s    ended:   %s\n", pad, t.EndTime.Format(d.TimeLayout))
	}
	if t.Comment != nil && *t.Comment != "" {
		for _, line := range strings.Split(*t.Comment, "\n") {
			fmt.Fprintf(w, "%s    | %s\n", pad, line)
		}
	}
}

// exportCommand writes the tree as JSON, YAML or HTML.
func exportCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("taskmd export", flag.ContinueOnError)
	format := fs.String("format", "json", "Output format (json|yaml|html)")
	out := fs.String("o", "", "Output file (default: stdout)")
	title := fs.String("title", "Tasks", "Page title for html output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := fileArg(cfg, fs.Args())
	if err != nil {
		return err
	}

	var encode func(w io.Writer, doc *todo.Document) error
	switch strings.ToLower(*format) {
	case "json":
		encode = todo.ExportJSON
	case "yaml", "yml":
		encode = todo.ExportYAML
	case "html":
		encode = func(w io.Writer, doc *todo.Document) error {
			opts := render.DefaultOptions()
			opts.Title = *title
			_, err := w.Write(render.HTML(doc, opts))
			return err
		}
	default:
		return fmt.Errorf("unknown export format %q (want json, yaml or html)", *format)
	}

	d, err := cfg.TodoDialect()
	if err != nil {
		return err
	}
	doc, err := loadDocument(path, d)
	if err != nil {
		return err
	}

	if *out == "" {
		return encode(os.Stdout, doc)
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := encode(f, doc); err != nil {
		f.Close()
		return fmt.Errorf("export %s: %w", *out, err)
	}
	return f.Close()
}

// validateCommand parses a document and validates the tree.
func validateCommand(cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("taskmd validate", flag.ContinueOnError)
	schema := fs.String("schema", cfg.SchemaFile, "JSON Schema file (default: embedded schema)")
	noSchema := fs.Bool("no-schema", false, "Run the structural checks only")
	printSchema := fs.Bool("print-schema", false, "Print the embedded JSON Schema and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *printSchema {
		_, err := os.Stdout.Write(todo.EmbeddedSchema())
		return err
	}
	path, err := fileArg(cfg, fs.Args())
	if err != nil {
		return err
	}
	d, err := cfg.TodoDialect()
	if err != nil {
		return err
	}
	doc, err := loadDocument(path, d)
	if err != nil {
		return err
	}

	result := todo.ValidateDocument(doc, todo.ValidationOptions{
		SchemaPath: *schema,
		SkipSchema: *noSchema,
	})
	for _, w := range result.Warnings {
		logger.Warn(w, "path", path)
	}
	if !result.Valid {
		fmt.Printf("%s: invalid\n", path)
		for _, e := range result.Errors {
			fmt.Printf("  %v\n", e)
		}
		return fmt.Errorf("validation failed with %d errors", len(result.Errors))
	}

	total, _ := doc.Stats()
	fmt.Printf("%s: valid (%d tasks)\n", path, total)
	return nil
}

func tuiCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("taskmd tui", flag.ContinueOnError)
	statusFilter := fs.String("status", "", "Initial filter (open|done)")
	refresh := fs.Int("refresh", cfg.RefreshSeconds, "Reload interval in seconds (0 disables)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	filter, err := parseFilter(*statusFilter)
	if err != nil {
		return err
	}
	path, err := fileArg(cfg, fs.Args())
	if err != nil {
		return err
	}

	return ui.RunTUI(ctx, cfg, path,
		ui.WithFilter(filter),
		ui.WithRefresh(time.Duration(*refresh)*time.Second),
	)
}

// configCommand prints the effective configuration.
func configCommand(cws *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("taskmd config", flag.ContinueOnError)
	showSources := fs.Bool("sources", false, "Show where each value came from")
	example := fs.Bool("example", false, "Print an example configuration file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if *example {
		fmt.Print(config.ExampleConfig())
		return nil
	}
	if err := cws.Config.WriteTOML(os.Stdout); err != nil {
		return err
	}
	if !*showSources {
		return nil
	}

	fmt.Println()
	fmt.Println("# Sources")
	if cws.UserFile != "" {
		fmt.Printf("# user file:    %s\n", cws.UserFile)
	}
	if cws.ProjectFile != "" {
		fmt.Printf("# project file: %s\n", cws.ProjectFile)
	}
	keys := make([]string, 0, len(cws.Sources))
	for k := range cws.Sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("# %-24s %s\n", k, cws.Sources[k])
	}
	return nil
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Printf("taskmd version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "taskmd - read, check and rewrite Markdown task lists")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  taskmd [global options] <command> [options] [file]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  check [files...]   Parse files and report errors")
	fmt.Fprintln(w, "  fmt [file]         Print the canonical form of a task file")
	fmt.Fprintln(w, "  ls [file]          List the task tree")
	fmt.Fprintln(w, "  export [file]      Export the task tree as JSON, YAML or HTML")
	fmt.Fprintln(w, "  validate [file]    Check tree invariants and the JSON Schema")
	fmt.Fprintln(w, "  tui [file]         Launch the terminal viewer")
	fmt.Fprintln(w, "  config             Show the effective configuration")
	fmt.Fprintln(w, "  version            Show version information")
	fmt.Fprintln(w, "  help               Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The file defaults to the configured file (TODO.md). Use - for stdin.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check Options:")
	fmt.Fprintln(w, "  -workers int    Files parsed in parallel")
	fmt.Fprintln(w, "  -fail-fast      Stop after the first failing file")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fmt Options:")
	fmt.Fprintln(w, "  -w              Write the result back to the file")
	fmt.Fprintln(w, "  -check          Fail if the file is not formatted")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ls Options:")
	fmt.Fprintln(w, "  -status string  Filter by status (open|done)")
	fmt.Fprintln(w, "  -v              Show timestamps and comments")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Export Options:")
	fmt.Fprintln(w, "  -format string  json, yaml or html (default json)")
	fmt.Fprintln(w, "  -o string       Output file (default stdout)")
	fmt.Fprintln(w, "  -title string   Page title for html (default Tasks)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Validate Options:")
	fmt.Fprintln(w, "  -schema string  JSON Schema file (default embedded)")
	fmt.Fprintln(w, "  -no-schema      Structural checks only")
	fmt.Fprintln(w, "  -print-schema   Print the embedded JSON Schema")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tui Options:")
	fmt.Fprintln(w, "  -status string  Initial filter (open|done)")
	fmt.Fprintln(w, "  -refresh int    Reload interval in seconds")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config Options:")
	fmt.Fprintln(w, "  -sources        Show where each value came from")
	fmt.Fprintln(w, "  -example        Print an example configuration file")
}
