package todo

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// IDKind selects how id tokens are interpreted.
type IDKind string

const (
	IDString  IDKind = "string"
	IDInteger IDKind = "integer"
)

// Field identifies a detail field independently of the key spelling a
// dialect uses for it.
type Field int

const (
	FieldStartTime Field = iota + 1
	FieldEndTime
	FieldComment
	FieldName
)

var fieldNames = map[Field]string{
	FieldStartTime: "start-time",
	FieldEndTime:   "end-time",
	FieldComment:   "comment",
	FieldName:      "name",
}

// String returns the canonical name of the field.
func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// ParseField maps a canonical field name ("start-time", "comment", ...) to a Field.
func ParseField(name string) (Field, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	for f, n := range fieldNames {
		if n == normalized {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown field %q", name)
}

func (f Field) isText() bool {
	return f == FieldComment || f == FieldName
}

// Dialect parameterizes the task document grammar.
type Dialect struct {
	Name                   string
	IndentUnit             int
	IDKind                 IDKind
	RequiresCrossReference bool
	// Fields maps the literal key written after "##" to the field it fills.
	Fields     map[string]Field
	TimeLayout string
	// Location is used to interpret timestamps. Nil means UTC.
	Location *time.Location
	Marker   string
}

// Dialect preset names.
const (
	DialectStandard = "standard"
	DialectIndexed  = "indexed"
	DialectLegacy   = "legacy"
)

// DefaultDialect returns the standard dialect.
func DefaultDialect() Dialect {
	return Dialect{
		Name:       DialectStandard,
		IndentUnit: 2,
		IDKind:     IDString,
		Fields: map[string]Field{
			"start-time": FieldStartTime,
			"end-time":   FieldEndTime,
			"comment":    FieldComment,
		},
		TimeLayout: "2006-01-02 15:04",
		Marker:     "-",
	}
}

// LookupDialect returns a fresh copy of the named preset.
func LookupDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", DialectStandard:
		return DefaultDialect(), nil
	case DialectIndexed:
		return Dialect{
			Name:                   DialectIndexed,
			IndentUnit:             4,
			IDKind:                 IDInteger,
			RequiresCrossReference: true,
			Fields: map[string]Field{
				"start-time": FieldStartTime,
				"end-time":   FieldEndTime,
				"comment":    FieldComment,
				"name":       FieldName,
			},
			TimeLayout: "2006-01-02",
			Marker:     "-",
		}, nil
	case DialectLegacy:
		return Dialect{
			Name:       DialectLegacy,
			IndentUnit: 2,
			IDKind:     IDString,
			Fields: map[string]Field{
				"StartTime": FieldStartTime,
				"EndTime":   FieldEndTime,
				"Comment":   FieldComment,
			},
			TimeLayout: "2006-01-02 15:04",
			Marker:     "-",
		}, nil
	default:
		return Dialect{}, fmt.Errorf("unknown dialect %q (expected %s)", name, strings.Join(DialectNames(), ", "))
	}
}

// DialectNames lists the preset names.
func DialectNames() []string {
	return []string{DialectStandard, DialectIndexed, DialectLegacy}
}

// Validate reports whether the dialect is usable.
func (d Dialect) Validate() error {
	if d.IndentUnit < 1 {
		return fmt.Errorf("indent unit must be at least 1, got %d", d.IndentUnit)
	}
	switch d.IDKind {
	case IDString, IDInteger:
	default:
		return fmt.Errorf("invalid id kind %q, must be one of: string, integer", d.IDKind)
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("no detail fields recognized")
	}
	seen := make(map[Field]string, len(d.Fields))
	for _, key := range d.sortedKeys() {
		f := d.Fields[key]
		// A key starting with "#" would read as a detail header.
		if key == "" || strings.ContainsAny(key, " \t") || strings.HasPrefix(key, "#") {
			return fmt.Errorf("invalid field key %q", key)
		}
		if _, ok := fieldNames[f]; !ok {
			return fmt.Errorf("field key %q maps to unknown field %d", key, int(f))
		}
		if other, dup := seen[f]; dup {
			return fmt.Errorf("field %s has two keys: %q and %q", f, other, key)
		}
		seen[f] = key
	}
	if d.TimeLayout == "" {
		return fmt.Errorf("time layout is empty")
	}
	if strings.TrimSpace(d.Marker) == "" || strings.ContainsAny(d.Marker, " \t") {
		return fmt.Errorf("invalid list marker %q", d.Marker)
	}
	return nil
}

// KeyFor returns the key the dialect writes for f, if it recognizes f.
func (d Dialect) KeyFor(f Field) (string, bool) {
	for key, field := range d.Fields {
		if field == f {
			return key, true
		}
	}
	return "", false
}

// sortedKeys returns the recognized field keys in sorted order.
func (d Dialect) sortedKeys() []string {
	keys := make([]string, 0, len(d.Fields))
	for key := range d.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (d Dialect) location() *time.Location {
	if d.Location == nil {
		return time.UTC
	}
	return d.Location
}
