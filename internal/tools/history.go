package tools

// Namespace separates undo streams that belong to different visual layers.
type Namespace string

const (
	// NamespaceDraw is the single chronological stack shared by freehand
	// paths and line studies.
	NamespaceDraw  Namespace = "draw"
	NamespaceFib   Namespace = "fib"
	NamespaceEmoji Namespace = "emoji"
)

// MarkerKind tags which committed list an undo marker belongs to.
type MarkerKind string

const (
	MarkerPath MarkerKind = "drawPath"
	MarkerLine MarkerKind = "lineDrawing"
	MarkerFib  MarkerKind = "fibDrawing"
)

// Marker identifies one committed drawing.
type Marker struct {
	Kind MarkerKind
	ID   string
}

// Stack is a LIFO with an optional size limit. When the limit is reached the
// oldest entry is dropped.
type Stack[T any] struct {
	items []T
	limit int
}

// NewStack creates a stack. A limit of zero means unbounded.
func NewStack[T any](limit int) *Stack[T] {
	return &Stack[T]{limit: limit}
}

func (s *Stack[T]) Push(item T) {
	s.items = append(s.items, item)
	if s.limit > 0 && len(s.items) > s.limit {
		s.items = s.items[len(s.items)-s.limit:]
	}
}

func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	item := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return item, true
}

func (s *Stack[T]) Len() int {
	return len(s.items)
}

func (s *Stack[T]) Clear() {
	s.items = nil
}

// RemoveFunc drops every entry matching the predicate.
func (s *Stack[T]) RemoveFunc(match func(T) bool) {
	kept := s.items[:0]
	for _, item := range s.items {
		if !match(item) {
			kept = append(kept, item)
		}
	}
	s.items = kept
}

// History holds the undo streams of every tool family.
type History struct {
	stacks map[Namespace]*Stack[Marker]
}

func NewHistory() *History {
	return &History{
		stacks: map[Namespace]*Stack[Marker]{
			NamespaceDraw: NewStack[Marker](0),
			NamespaceFib:  NewStack[Marker](0),
		},
	}
}

// Stack returns the marker stack of a namespace, creating it on first use.
func (h *History) Stack(ns Namespace) *Stack[Marker] {
	s, ok := h.stacks[ns]
	if !ok {
		s = NewStack[Marker](0)
		h.stacks[ns] = s
	}
	return s
}

func (h *History) Push(ns Namespace, m Marker) {
	h.Stack(ns).Push(m)
}

func (h *History) Pop(ns Namespace) (Marker, bool) {
	return h.Stack(ns).Pop()
}

func (h *History) Depth(ns Namespace) int {
	return h.Stack(ns).Len()
}

func (h *History) Clear(ns Namespace) {
	h.Stack(ns).Clear()
}

// Forget removes the marker of a drawing that was deleted by other means.
func (h *History) Forget(ns Namespace, id string) {
	h.Stack(ns).RemoveFunc(func(m Marker) bool { return m.ID == id })
}
