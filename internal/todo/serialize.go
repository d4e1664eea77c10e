package todo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Serialize renders tasks as a document: the list region, then the detail
// region. Both are pre-order walks of the same forest.
func Serialize(tasks []*Task, d Dialect) []string {
	var lines []string
	serializeList(&lines, tasks, 0, d)

	serializeDetails(&lines, tasks, d)
	return lines
}

func serializeList(lines *[]string, tasks []*Task, depth int, d Dialect) {
	unit := d.IndentUnit
	if unit < 1 {
		unit = 1
	}
	for _, t := range tasks {
		box := "[ ]"
		if t.Completed {
			box = "[x]"
		}
		line := strings.Repeat(" ", depth*unit) + d.Marker + " " + box + " [#" + string(t.ID) + "]"
		if t.Name != "" {
			line += " " + t.Name
		}
		*lines = append(*lines, line)
		serializeList(lines, t.Children, depth+1, d)
	}
}

func serializeDetails(lines *[]string, tasks []*Task, d Dialect) {
	for _, t := range tasks {
		if t.HasDetails() || d.RequiresCrossReference {
			// A blank line separates the list region and every block.
			*lines = append(*lines, "")
			*lines = append(*lines, "# "+string(t.ID))
			appendDetailFields(lines, t, d)
		}
		serializeDetails(lines, t.Children, d)
	}
}

func appendDetailFields(lines *[]string, t *Task, d Dialect) {
	loc := d.location()
	if t.StartTime != nil {
		if key, ok := d.KeyFor(FieldStartTime); ok {
			*lines = append(*lines, "## "+key+" "+t.StartTime.In(loc).Format(d.TimeLayout))
		}
	}
	if t.EndTime != nil {
		if key, ok := d.KeyFor(FieldEndTime); ok {
			*lines = append(*lines, "## "+key+" "+t.EndTime.In(loc).Format(d.TimeLayout))
		}
	}
	if t.Comment != nil {
		if key, ok := d.KeyFor(FieldComment); ok {
			*lines = append(*lines, "## "+key)
			if *t.Comment != "" {
				for _, l := range strings.Split(*t.Comment, "\n") {
					*lines = append(*lines, escapeLine(l))
				}
			}
		}
	}
}

// Write streams the serialized document to w, one line per row.
func Write(w io.Writer, tasks []*Task, d Dialect) error {
	bw := bufio.NewWriter(w)
	for _, line := range Serialize(tasks, d) {
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Save writes the document to path.
func Save(path string, doc *Document, d Dialect) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write task file: %w", err)
	}
	if err := Write(f, doc.Tasks, d); err != nil {
		f.Close()
		return fmt.Errorf("write task file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write task file: %w", err)
	}
	return nil
}
