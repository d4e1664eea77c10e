package todo

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// ExportTask is the serialization-friendly form of a Task.
type ExportTask struct {
	ID        string       `json:"id" yaml:"id"`
	Name      string       `json:"name,omitempty" yaml:"name,omitempty"`
	Completed bool         `json:"completed" yaml:"completed"`
	Level     int          `json:"level" yaml:"level"`
	StartTime *string      `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime   *string      `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Comment   *string      `json:"comment,omitempty" yaml:"comment,omitempty"`
	Children  []ExportTask `json:"children,omitempty" yaml:"children,omitempty"`
}

// ExportDocument wraps the exported forest.
type ExportDocument struct {
	Tasks        []ExportTask `json:"tasks" yaml:"tasks"`
	Unreferenced []string     `json:"unreferenced,omitempty" yaml:"unreferenced,omitempty"`
}

// Export converts the document into its exported form. Timestamps are
// formatted as RFC 3339.
func Export(doc *Document) ExportDocument {
	out := ExportDocument{Tasks: exportTasks(doc.Tasks, 0)}
	for _, id := range doc.Unreferenced {
		out.Unreferenced = append(out.Unreferenced, string(id))
	}
	return out
}

func exportTasks(tasks []*Task, level int) []ExportTask {
	out := make([]ExportTask, 0, len(tasks))
	for _, t := range tasks {
		et := ExportTask{
			ID:        string(t.ID),
			Name:      t.Name,
			Completed: t.Completed,
			Level:     level,
			StartTime: formatTime(t.StartTime),
			EndTime:   formatTime(t.EndTime),
			Comment:   t.Comment,
		}
		if len(t.Children) > 0 {
			et.Children = exportTasks(t.Children, level+1)
		}
		out = append(out, et)
	}
	return out
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// ExportJSON writes the document as JSON with 2-space indentation and a
// trailing newline.
func ExportJSON(w io.Writer, doc *Document) error {
	data, err := json.MarshalIndent(Export(doc), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// ExportYAML writes the document as YAML.
func ExportYAML(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Export(doc)); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return nil
}
