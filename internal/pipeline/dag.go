package pipeline

import "fmt"

// Registry holds every registered stage, keyed by name, and produces the
// topologically sorted run order.
type Registry struct {
	stages map[string]Stage
	order  []string // insertion order, used to break ties deterministically
}

func NewRegistry() *Registry {
	return &Registry{stages: make(map[string]Stage)}
}

func (r *Registry) Register(s Stage) {
	if _, exists := r.stages[s.Name()]; !exists {
		r.order = append(r.order, s.Name())
	}
	r.stages[s.Name()] = s
}

// TopoSort returns stages in dependency order (Kahn's algorithm), breaking
// ties by registration order for a deterministic, reproducible plan.
func (r *Registry) TopoSort() ([]Stage, error) {
	inDegree := make(map[string]int, len(r.stages))
	dependents := make(map[string][]string, len(r.stages))

	for _, name := range r.order {
		s := r.stages[name]
		for _, dep := range s.DependsOn() {
			if _, ok := r.stages[dep]; !ok {
				return nil, fmt.Errorf("pipeline: stage %q depends on unregistered stage %q", name, dep)
			}
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
		if _, ok := inDegree[name]; !ok {
			inDegree[name] = 0
		}
	}

	var ready []string
	for _, name := range r.order {
		if inDegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	var sorted []Stage
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		sorted = append(sorted, r.stages[name])

		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(sorted) != len(r.stages) {
		return nil, fmt.Errorf("pipeline: dependency cycle detected among stages")
	}
	return sorted, nil
}

// Slice cuts a topologically sorted stage list down to [from, to] inclusive,
// by stage name. Empty from/to means "no cut" on that end.
func Slice(sorted []Stage, from, to string) ([]Stage, error) {
	start, end := 0, len(sorted)

	if from != "" {
		idx := indexOf(sorted, from)
		if idx < 0 {
			return nil, fmt.Errorf("pipeline: unknown --from stage %q", from)
		}
		start = idx
	}
	if to != "" {
		idx := indexOf(sorted, to)
		if idx < 0 {
			return nil, fmt.Errorf("pipeline: unknown --to stage %q", to)
		}
		end = idx + 1
	}
	if start >= end {
		return nil, fmt.Errorf("pipeline: --from %q occurs after --to %q in dependency order", from, to)
	}
	return sorted[start:end], nil
}

func indexOf(stages []Stage, name string) int {
	for i, s := range stages {
		if s.Name() == name {
			return i
		}
	}
	return -1
}
