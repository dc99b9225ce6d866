package lint

import "sort"

// Registry holds every registered Linter.
type Registry struct {
	linters []Linter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry { return &Registry{} }

// Register adds a linter.
func (r *Registry) Register(l Linter) { r.linters = append(r.linters, l) }

// Linters returns every registered linter.
func (r *Registry) Linters() []Linter { return r.linters }

// priorityGroup pairs a priority level with the linters registered at it.
type priorityGroup struct {
	priority uint32
	linters  []Linter
}

// byPriorityGroupsDescending groups linters by priority, highest first,
// matching the original's by_priority_groups().into_iter().rev().
func (r *Registry) byPriorityGroupsDescending() []priorityGroup {
	byPriority := map[uint32][]Linter{}
	for _, l := range r.linters {
		p := l.Priority()
		byPriority[p] = append(byPriority[p], l)
	}
	priorities := make([]uint32, 0, len(byPriority))
	for p := range byPriority {
		priorities = append(priorities, p)
	}
	sort.Slice(priorities, func(i, j int) bool { return priorities[i] > priorities[j] })

	groups := make([]priorityGroup, len(priorities))
	for i, p := range priorities {
		groups[i] = priorityGroup{priority: p, linters: byPriority[p]}
	}
	return groups
}
