package todo

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// detail holds the fields collected under one detail header.
type detail struct {
	id      ID
	line    int
	name    *string
	start   *time.Time
	end     *time.Time
	comment *string
	fields  map[Field]bool
}

// mergeInto copies the descriptive fields onto a list-discovered task. The
// inline list name wins; the detail name only fills an empty one.
func (r *detail) mergeInto(t *Task) {
	if t.Name == "" && r.name != nil {
		t.Name = *r.name
	}
	t.StartTime = r.start
	t.EndTime = r.end
	t.Comment = r.comment
}

func (g *grammar) canonicalID(token string, line int, text string) (ID, error) {
	if g.dialect.IDKind != IDInteger {
		return ID(token), nil
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		e := lineError(ErrInvalidID, line, text, "id %q is not an integer", token)
		e.ID = ID(token)
		return "", e
	}
	return ID(strconv.Itoa(n)), nil
}

// collectDetails reads the detail region. offset is the index of lines[0]
// within the whole document.
func (g *grammar) collectDetails(lines []string, offset int) (map[ID]*detail, []ID, error) {
	details := make(map[ID]*detail)
	var order []ID

	i := 0
	for i < len(lines) {
		text := lines[i]
		lineNo := offset + i + 1
		kind := g.classify(text)
		if kind == lineBlank {
			i++
			continue
		}
		if kind != lineHeader {
			return nil, nil, lineError(ErrUnrecognizedLine, lineNo, text, "expected a detail header")
		}

		token, _ := parseHeader(text)
		id, err := g.canonicalID(token, lineNo, text)
		if err != nil {
			return nil, nil, err
		}
		if first, dup := details[id]; dup {
			e := lineError(ErrDuplicateID, lineNo, text, "header for %q already defined on line %d", id, first.line)
			e.ID = id
			return nil, nil, e
		}
		rec := &detail{id: id, line: lineNo, fields: make(map[Field]bool)}
		details[id] = rec
		order = append(order, id)
		i++

		for i < len(lines) {
			text = lines[i]
			lineNo = offset + i + 1
			kind = g.classify(text)
			if kind == lineBlank {
				i++
				continue
			}
			if kind == lineHeader {
				break
			}
			if kind != lineField {
				e := lineError(ErrUnrecognizedLine, lineNo, text, "expected a detail field under %q", "# "+string(id))
				e.ID = id
				return nil, nil, e
			}

			key, inline, _ := parseField(text)
			field, ok := g.dialect.Fields[key]
			if !ok {
				e := lineError(ErrUnknownField, lineNo, text, "unknown detail field %q in %q", key, "# "+string(id))
				e.ID = id
				e.Key = key
				return nil, nil, e
			}
			if rec.fields[field] {
				e := lineError(ErrDuplicateField, lineNo, text, "field %q repeated in %q", key, "# "+string(id))
				e.ID = id
				e.Key = key
				return nil, nil, e
			}
			rec.fields[field] = true

			fieldLine, fieldText := lineNo, text
			i++
			start := i
			for i < len(lines) && !strings.HasPrefix(lines[i], "#") {
				i++
			}
			if err := g.setField(rec, field, inline, lines[start:i]); err != nil {
				e := lineError(ErrMalformedTimestamp, fieldLine, fieldText, "%v", err)
				e.ID = id
				e.Key = key
				return nil, nil, e
			}
		}
	}

	return details, order, nil
}

func (g *grammar) setField(rec *detail, field Field, inline string, block []string) error {
	parts := make([]string, 0, len(block)+1)
	if inline != "" {
		parts = append(parts, inline)
	}
	parts = append(parts, block...)

	if field.isText() {
		text := textValue(parts)
		if field == FieldName {
			name := strings.Join(strings.Fields(text), " ")
			rec.name = &name
			return nil
		}
		rec.comment = &text
		return nil
	}

	raw := strings.TrimSpace(strings.Join(parts, "\n"))
	ts, err := time.ParseInLocation(g.dialect.TimeLayout, raw, g.dialect.location())
	if err != nil {
		return fmt.Errorf("%s value %q does not match layout %q", field, raw, g.dialect.TimeLayout)
	}
	switch field {
	case FieldStartTime:
		rec.start = &ts
	case FieldEndTime:
		rec.end = &ts
	}
	return nil
}

// textValue joins free-text lines, dropping trailing blank lines and
// unescaping a leading `\#` or `\\`.
func textValue(parts []string) string {
	end := len(parts)
	for end > 0 && isBlank(parts[end-1]) {
		end--
	}
	out := make([]string, end)
	for i, p := range parts[:end] {
		out[i] = unescapeLine(p)
	}
	return strings.Join(out, "\n")
}

func unescapeLine(s string) string {
	if strings.HasPrefix(s, `\#`) || strings.HasPrefix(s, `\\`) {
		return s[1:]
	}
	return s
}

func escapeLine(s string) string {
	if strings.HasPrefix(s, "#") || strings.HasPrefix(s, `\#`) || strings.HasPrefix(s, `\\`) {
		return `\` + s
	}
	return s
}
