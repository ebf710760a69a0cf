package req

import (
	"fmt"
	"log/slog"
)

// Document owns a set of named tasks, the variable store shared by them and the default
// transport Config. It is read-only once loaded.
type Document struct {
	Tasks  map[string]Task
	Values map[string]string
	Config *Config
}

// ListTasks returns the name and description of every task, sorted by name.
func (d *Document) ListTasks() []TaskInfo {
	infos := make([]TaskInfo, 0, len(d.Tasks))
	for _, name := range sortedKeys(d.Tasks) {
		infos = append(infos, TaskInfo{Name: name, Description: d.Tasks[name].Description})
	}
	return infos
}

// EnvFile returns the environment file configured at document level, if any.
func (d *Document) EnvFile() (string, bool) {
	if d.Config == nil || d.Config.EnvFile.Path == "" {
		return "", false
	}
	return d.Config.EnvFile.Path, true
}

// WithValues returns a copy of the document whose variable store has vals merged over it.
// Each map overrides the ones before it.
func (d *Document) WithValues(vals ...map[string]string) *Document {
	merged := make(map[string]string, len(d.Values))
	for k, v := range d.Values {
		merged[k] = v
	}
	for _, m := range vals {
		for k, v := range m {
			merged[k] = v
		}
	}
	return &Document{Tasks: d.Tasks, Values: merged, Config: d.Config}
}

// Context resolves the document's variable store.
func (d *Document) Context() (*Context, error) {
	ctx, err := NewContext(d.Values)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve context: %w", err)
	}
	return ctx, nil
}

// Resolve builds the interpolation context and resolves the named task. A task without its own
// Config inherits the document default.
func (d *Document) Resolve(name string) (*ResolvedTask, error) {
	task, ok := d.Tasks[name]
	if !ok {
		return nil, fmt.Errorf("task %q: %w", name, ErrTaskNotFound)
	}
	ctx, err := d.Context()
	if err != nil {
		return nil, err
	}
	return d.ResolveWith(task, ctx)
}

// ResolveWith resolves task against an already built context.
func (d *Document) ResolveWith(task Task, ctx *Context) (*ResolvedTask, error) {
	if task.Config == nil {
		task.Config = d.Config
	}
	resolved, err := task.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	slog.Debug("Document.ResolveWith: resolved", "task", task.Name)
	return resolved, nil
}
