package todo

import (
	"time"
)

// ID identifies a task. It is an opaque, comparable token; integer dialects
// store the canonical decimal form.
type ID string

// String returns the id token.
func (id ID) String() string {
	return string(id)
}

// Task is a node in the task tree.
type Task struct {
	ID        ID
	Name      string
	StartTime *time.Time
	EndTime   *time.Time
	Comment   *string
	Completed bool
	// Level is the hierarchy depth. Children of the root are level 0.
	Level    int
	Children []*Task
}

// RootLevel is the level of the sentinel root node.
const RootLevel = -1

// NewRoot returns a sentinel root node. It is never emitted.
func NewRoot() *Task {
	return &Task{Level: RootLevel}
}

// AddChild appends child and fixes the levels of child's subtree.
func (t *Task) AddChild(child *Task) {
	child.setLevel(t.Level + 1)
	t.Children = append(t.Children, child)
}

func (t *Task) setLevel(level int) {
	t.Level = level
	for _, c := range t.Children {
		c.setLevel(level + 1)
	}
}

// HasDetails reports whether the task carries any optional detail field.
func (t *Task) HasDetails() bool {
	return t.StartTime != nil || t.EndTime != nil || t.Comment != nil
}

// Document is a parsed task document.
type Document struct {
	// Tasks are the top-level tasks in source order.
	Tasks []*Task
	// Unreferenced lists detail header ids no list item refers to, in
	// the order they appear.
	Unreferenced []ID
}

// Walk visits every task depth-first, parents before children. parent is nil
// for top-level tasks. Returning false skips the task's children.
func (d *Document) Walk(fn func(t, parent *Task) bool) {
	walk(d.Tasks, nil, fn)
}

func walk(tasks []*Task, parent *Task, fn func(t, parent *Task) bool) {
	for _, t := range tasks {
		if fn(t, parent) {
			walk(t.Children, t, fn)
		}
	}
}

// Find returns the task with the given id, or nil if not found.
func (d *Document) Find(id ID) *Task {
	var found *Task
	d.Walk(func(t, _ *Task) bool {
		if found != nil {
			return false
		}
		if t.ID == id {
			found = t
			return false
		}
		return true
	})
	return found
}

// Len returns the number of tasks in the tree.
func (d *Document) Len() int {
	total, _ := d.Stats()
	return total
}

// Stats returns the total and completed task counts.
func (d *Document) Stats() (total, completed int) {
	d.Walk(func(t, _ *Task) bool {
		total++
		if t.Completed {
			completed++
		}
		return true
	})
	return total, completed
}
