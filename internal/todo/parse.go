package todo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// cursor walks the list region. Line numbers it reports are 1-based within
// the whole document.
type cursor struct {
	lines []string
	pos   int
}

func (c *cursor) done() bool {
	return c.pos >= len(c.lines)
}

func (c *cursor) peek() (string, int) {
	return c.lines[c.pos], c.pos + 1
}

func (c *cursor) advance() {
	c.pos++
}

func (c *cursor) skipBlank() {
	for !c.done() && isBlank(c.lines[c.pos]) {
		c.pos++
	}
}

// builder holds the state shared by the recursive descent. details is
// read-only once building starts.
type builder struct {
	g          *grammar
	details    map[ID]*detail
	seen       map[ID]int
	referenced map[ID]bool
}

// parseChildren consumes the subtree under parent. A line shallower than
// parent's children is left unconsumed for an ancestor.
func (b *builder) parseChildren(c *cursor, parent *Task) error {
	want := parent.Level + 1
	for {
		c.skipBlank()
		if c.done() {
			return nil
		}
		text, lineNo := c.peek()

		depth, ok := b.g.depth(text)
		if !ok {
			return lineError(ErrUnrecognizedLine, lineNo, text, "indent is not a multiple of %d", b.g.dialect.IndentUnit)
		}
		if depth < want {
			return nil
		}
		if depth > want {
			e := lineError(ErrIndentJump, lineNo, text, "depth %d where at most %d is allowed", depth, want)
			e.ID = parent.ID
			return e
		}

		item, ok := b.g.parseItem(text)
		if !ok {
			return lineError(ErrUnrecognizedLine, lineNo, text, "expected a list item")
		}
		c.advance()

		id, err := b.g.canonicalID(item.id, lineNo, text)
		if err != nil {
			return err
		}
		if first, dup := b.seen[id]; dup {
			e := lineError(ErrDuplicateID, lineNo, text, "id %q already used on line %d", id, first)
			e.ID = id
			return e
		}
		b.seen[id] = lineNo

		task := &Task{ID: id, Name: item.name, Completed: item.completed}
		if rec, ok := b.details[id]; ok {
			b.referenced[id] = true
			rec.mergeInto(task)
		} else if b.g.dialect.RequiresCrossReference {
			e := lineError(ErrUnresolvedReference, lineNo, text, "no detail header for id %q", id)
			e.ID = id
			return e
		}

		parent.AddChild(task)
		if err := b.parseChildren(c, task); err != nil {
			return err
		}
	}
}

// Parse builds a task tree from the lines of a document.
func Parse(lines []string, d Dialect) (*Document, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dialect: %w", err)
	}
	g := newGrammar(d)

	normalized := make([]string, len(lines))
	for i, l := range lines {
		normalized[i] = strings.TrimSuffix(l, "\r")
	}

	boundary := len(normalized)
	for i, l := range normalized {
		if g.classify(l) == lineHeader {
			boundary = i
			break
		}
	}
	listRegion := normalized[:boundary]

	details, order, err := g.collectDetails(normalized[boundary:], boundary)
	if err != nil {
		return nil, err
	}

	if d.RequiresCrossReference && boundary == len(normalized) {
		for i, l := range listRegion {
			if !isBlank(l) {
				return nil, lineError(ErrMissingRegion, i+1, l, "dialect %q requires a detail header for every task but the document has none", d.Name)
			}
		}
	}

	b := &builder{
		g:          g,
		details:    details,
		seen:       make(map[ID]int),
		referenced: make(map[ID]bool),
	}
	root := NewRoot()
	c := &cursor{lines: listRegion}
	if err := b.parseChildren(c, root); err != nil {
		return nil, err
	}
	if !c.done() {
		text, lineNo := c.peek()
		return nil, lineError(ErrUnrecognizedLine, lineNo, text, "unexpected line")
	}

	doc := &Document{Tasks: root.Children}
	for _, id := range order {
		if !b.referenced[id] {
			doc.Unreferenced = append(doc.Unreferenced, id)
		}
	}
	return doc, nil
}

// ParseString parses a whole document held in memory.
func ParseString(s string, d Dialect) (*Document, error) {
	return Parse(SplitLines(s), d)
}

// ParseReader reads all lines from r and parses them.
func ParseReader(r io.Reader, d Dialect) (*Document, error) {
	lines, err := ReadLines(r)
	if err != nil {
		return nil, err
	}
	return Parse(lines, d)
}

// Load reads and parses a task document from path.
func Load(path string, d Dialect) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}
	defer f.Close()

	doc, err := ParseReader(f, d)
	if err != nil {
		return nil, fmt.Errorf("parse task file %s: %w", path, err)
	}
	return doc, nil
}

// ReadLines reads r to the end and returns its lines without terminators.
func ReadLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	return lines, nil
}

// SplitLines splits s on newlines. A single trailing newline does not
// produce an extra empty line.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
