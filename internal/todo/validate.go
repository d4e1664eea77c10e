package todo

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var embeddedSchema []byte

const embeddedSchemaURL = "https://github.com/nibzard/taskmd/schema.json"

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // dotted path to the error location
	Err  error  // Underlying error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationOptions controls validation behavior.
type ValidationOptions struct {
	// SchemaPath is the path to a JSON Schema file. If empty, the embedded
	// schema is used.
	SchemaPath string
	// SkipSchema limits validation to the structural checks.
	SkipSchema bool
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Valid      bool
	Errors     []error
	Warnings   []string
	UsedSchema bool // true if JSON Schema validation was performed
}

// EmbeddedSchema returns the JSON Schema compiled into the binary.
func EmbeddedSchema() []byte {
	return bytes.Clone(embeddedSchema)
}

// ValidateDocument checks a task tree. Structural checks always run; the
// JSON export is then validated against a JSON Schema unless opts.SkipSchema
// is set.
func ValidateDocument(doc *Document, opts ValidationOptions) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   make([]error, 0),
		Warnings: make([]string, 0),
	}

	validateStructure(doc, result)

	for _, id := range doc.Unreferenced {
		result.Warnings = append(result.Warnings, fmt.Sprintf("detail header %q is not referenced by any task", id))
	}

	if opts.SkipSchema {
		return result
	}

	schemaResult := validateWithSchema(doc, opts.SchemaPath)
	result.UsedSchema = schemaResult.UsedSchema
	result.Warnings = append(result.Warnings, schemaResult.Warnings...)
	if !schemaResult.Valid {
		result.Valid = false
		result.Errors = append(result.Errors, schemaResult.Errors...)
	}
	if !schemaResult.UsedSchema {
		result.Warnings = append(result.Warnings, "JSON Schema validation not available, using structural checks only")
	}
	return result
}

// validateStructure checks the invariants Parse guarantees, for trees built
// by hand.
func validateStructure(doc *Document, result *ValidationResult) {
	seen := make(map[ID]string)
	var visit func(tasks []*Task, level int, prefix string)
	visit = func(tasks []*Task, level int, prefix string) {
		for i, t := range tasks {
			path := fmt.Sprintf("%s[%d]", prefix, i)
			if err := validateTaskMinimal(t, level, path); err != nil {
				result.Valid = false
				result.Errors = append(result.Errors, err)
			}
			if t.ID != "" {
				if first, dup := seen[t.ID]; dup {
					result.Valid = false
					result.Errors = append(result.Errors, &ValidationError{
						Path: path + ".id",
						Err:  fmt.Errorf("%w: %q also used at %s", ErrDuplicateID, t.ID, first),
					})
				} else {
					seen[t.ID] = path
				}
			}
			visit(t.Children, level+1, path+".children")
		}
	}
	visit(doc.Tasks, 0, "tasks")
}

func validateTaskMinimal(t *Task, level int, path string) *ValidationError {
	if t.ID == "" {
		return &ValidationError{
			Path: path + ".id",
			Err:  fmt.Errorf("missing required field"),
		}
	}
	if strings.ContainsAny(string(t.ID), " \t\r\n]") {
		return &ValidationError{
			Path: path + ".id",
			Err:  fmt.Errorf("%w: %q contains whitespace or ']'", ErrInvalidID, t.ID),
		}
	}
	if strings.ContainsAny(t.Name, "\r\n") {
		return &ValidationError{
			Path: path + ".name",
			Err:  fmt.Errorf("name must be a single line"),
		}
	}
	if t.Level != level {
		return &ValidationError{
			Path: path + ".level",
			Err:  fmt.Errorf("expected %d, got %d", level, t.Level),
		}
	}
	if t.StartTime != nil && t.EndTime != nil && t.EndTime.Before(*t.StartTime) {
		return &ValidationError{
			Path: path + ".end_time",
			Err:  fmt.Errorf("end time %s is before start time %s", t.EndTime.Format("2006-01-02 15:04"), t.StartTime.Format("2006-01-02 15:04")),
		}
	}
	return nil
}

// validateWithSchema attempts JSON Schema validation.
func validateWithSchema(doc *Document, schemaPath string) *ValidationResult {
	result := &ValidationResult{
		Valid:      true,
		Errors:     make([]error, 0),
		Warnings:   make([]string, 0),
		UsedSchema: false,
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	var (
		schema *jsonschema.Schema
		err    error
	)
	if schemaPath == "" {
		if err := compiler.AddResource(embeddedSchemaURL, bytes.NewReader(embeddedSchema)); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("invalid embedded schema: %v", err))
			return result
		}
		schema, err = compiler.Compile(embeddedSchemaURL)
	} else {
		absPath, absErr := filepath.Abs(schemaPath)
		if absErr != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("invalid schema path: %v", absErr))
			return result
		}
		if _, statErr := os.Stat(absPath); statErr != nil {
			if os.IsNotExist(statErr) {
				result.Warnings = append(result.Warnings, fmt.Sprintf("schema file not found: %s", absPath))
			} else {
				result.Warnings = append(result.Warnings, fmt.Sprintf("failed to read schema file: %v", statErr))
			}
			return result
		}
		schema, err = compiler.Compile(absPath)
	}
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("invalid schema file: %v", err))
		return result
	}

	result.UsedSchema = true

	data, err := json.Marshal(Export(doc))
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Err: fmt.Errorf("failed to marshal document for validation: %w", err),
		})
		return result
	}

	var obj interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Err: fmt.Errorf("failed to unmarshal document for validation: %w", err),
		})
		return result
	}

	if err := schema.Validate(obj); err != nil {
		result.Valid = false
		appendSchemaErrors(result, err)
	}

	return result
}

func appendSchemaErrors(result *ValidationResult, err error) {
	if err == nil {
		return
	}

	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		result.Errors = append(result.Errors, err)
		return
	}

	collectSchemaErrors(result, ve)
}

func collectSchemaErrors(result *ValidationResult, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}

	if len(err.Causes) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Path: jsonPointerToPath(err.InstanceLocation),
			Err:  fmt.Errorf("%s", err.Message),
		})
		return
	}

	for _, cause := range err.Causes {
		collectSchemaErrors(result, cause)
	}
}

// jsonPointerToPath turns "/tasks/0/children/1/id" into
// "tasks[0].children[1].id".
func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	var b strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			fmt.Fprintf(&b, "[%d]", idx)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}
