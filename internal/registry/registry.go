// Package registry resolves (task, language) pairs to configured model specs.
package registry

import (
	"fmt"

	"summaryd/pkg/types"
)

// Known task names.
const (
	TaskSummarize = "summarize"
	TaskQA        = "qa"
)

// Registry holds the immutable model specs declared in configuration.
type Registry struct {
	specs []types.ModelSpec
}

// New validates specs and builds a registry. Every task must have at least
// one model with an empty (any) language.
func New(specs []types.ModelSpec) (*Registry, error) {
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if s.ID == "" {
			return nil, fmt.Errorf("model spec missing id")
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate model id: %s", s.ID)
		}
		seen[s.ID] = true
		switch s.Task {
		case TaskSummarize, TaskQA:
		default:
			return nil, fmt.Errorf("model %s: unknown task %q", s.ID, s.Task)
		}
		if s.Family == "" {
			return nil, fmt.Errorf("model %s: missing family", s.ID)
		}
		if s.BaseURL == "" {
			return nil, fmt.Errorf("model %s: missing base_url", s.ID)
		}
	}
	r := &Registry{specs: append([]types.ModelSpec(nil), specs...)}
	for _, task := range []string{TaskSummarize, TaskQA} {
		if _, ok := r.ForTask(task, ""); !ok {
			return nil, fmt.Errorf("no model configured for task %q", task)
		}
	}
	return r, nil
}

// List returns a copy of all specs.
func (r *Registry) List() []types.ModelSpec {
	out := make([]types.ModelSpec, len(r.specs))
	copy(out, r.specs)
	return out
}

// ByID looks up a spec by model id.
func (r *Registry) ByID(id string) (types.ModelSpec, bool) {
	for _, s := range r.specs {
		if s.ID == id {
			return s, true
		}
	}
	return types.ModelSpec{}, false
}

// ForTask picks the spec serving a task, preferring an exact language match
// and falling back to a spec with no language restriction.
func (r *Registry) ForTask(task, language string) (types.ModelSpec, bool) {
	var fallback types.ModelSpec
	haveFallback := false
	for _, s := range r.specs {
		if s.Task != task {
			continue
		}
		if language != "" && s.Language == language {
			return s, true
		}
		if s.Language == "" || s.Language == "en" {
			if !haveFallback {
				fallback = s
				haveFallback = true
			}
		}
	}
	return fallback, haveFallback
}
