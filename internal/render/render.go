// Package render turns a task tree into a read-only HTML page.
//
// The tree is first written as plain Markdown (nested lists, one item per
// task) and then converted with gomarkdown. Raw HTML in task text is never
// passed through.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/nibzard/taskmd/internal/todo"
)

const (
	doneMark = "✔"
	openMark = "☐"
)

// Options controls rendering.
type Options struct {
	Title      string // page heading, omitted when empty
	Details    bool   // include timestamps and comments
	TimeLayout string // layout for timestamps, defaults to DefaultTimeLayout
	FullPage   bool   // wrap the fragment in a complete HTML document
}

// DefaultTimeLayout formats timestamps when Options.TimeLayout is empty.
const DefaultTimeLayout = "2006-01-02 15:04"

// DefaultOptions returns the options used by "taskmd export -format html".
func DefaultOptions() Options {
	return Options{
		Title:      "Tasks",
		Details:    true,
		TimeLayout: DefaultTimeLayout,
		FullPage:   true,
	}
}

// Markdown writes doc as a human-readable Markdown outline.
func Markdown(doc *todo.Document, opts Options) []byte {
	if opts.TimeLayout == "" {
		opts.TimeLayout = DefaultTimeLayout
	}

	var b bytes.Buffer
	if opts.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", escape(opts.Title))
	}

	total, done := doc.Stats()
	if total == 0 {
		b.WriteString("No tasks.\n")
	} else {
		fmt.Fprintf(&b, "%d of %d tasks done.\n\n", done, total)
		writeTasks(&b, doc.Tasks, 0, opts)
	}

	if len(doc.Unreferenced) > 0 {
		names := make([]string, len(doc.Unreferenced))
		for i, id := range doc.Unreferenced {
			names[i] = escape(string(id))
		}
		fmt.Fprintf(&b, "\nUnreferenced detail headers: %s\n", strings.Join(names, ", "))
	}
	return b.Bytes()
}

func writeTasks(b *bytes.Buffer, tasks []*todo.Task, depth int, opts Options) {
	pad := strings.Repeat("  ", depth)
	for _, t := range tasks {
		mark := openMark
		if t.Completed {
			mark = doneMark
		}
		name := escape(t.Name)
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(b, "%s- %s %s (#%s)\n", pad, mark, name, escape(string(t.ID)))

		if opts.Details {
			writeDetails(b, t, pad+"  ", opts.TimeLayout)
		}
		writeTasks(b, t.Children, depth+1, opts)
	}
}

func writeDetails(b *bytes.Buffer, t *todo.Task, pad, layout string) {
	var times []string
	if t.StartTime != nil {
		times = append(times, "started "+t.StartTime.Format(layout))
	}
	if t.EndTime != nil {
		times = append(times, "finished "+t.EndTime.Format(layout))
	}
	if len(times) > 0 {
		fmt.Fprintf(b, "%s*%s*\n", pad, strings.Join(times, ", "))
	}
	if t.Comment == nil || *t.Comment == "" {
		return
	}
	b.WriteString("\n")
	for _, line := range strings.Split(*t.Comment, "\n") {
		if strings.TrimSpace(line) == "" {
			fmt.Fprintf(b, "%s>\n", pad)
			continue
		}
		fmt.Fprintf(b, "%s> %s\n", pad, escape(line))
	}
	b.WriteString("\n")
}

// HTML renders doc through Markdown and gomarkdown.
func HTML(doc *todo.Document, opts Options) []byte {
	md := Markdown(doc, opts)

	p := parser.NewWithExtensions(parser.CommonExtensions)

	flags := html.CommonFlags | html.SkipHTML
	if opts.FullPage {
		flags |= html.CompletePage
	}
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: flags,
		Title: opts.Title,
	})

	return markdown.ToHTML(md, p, renderer)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"#", `\#`,
	"|", `\|`,
	"~", `\~`,
	"!", `\!`,
)

// escape neutralizes Markdown syntax in task text.
func escape(s string) string {
	return markdownEscaper.Replace(s)
}
