// Package tools implements the annotation tool state machines: freehand ink,
// line studies, the eraser, Fibonacci studies and emoji stickers. All of them
// share one exclusivity arbiter and one namespaced undo history.
package tools

import (
	log "github.com/sirupsen/logrus"

	"LiveChartBoard/internal/state"
)

var logger = log.WithField("component", "tools")

// Family groups the mutually exclusive annotation tools.
type Family string

const (
	FamilyNone      Family = ""
	FamilyFreehand  Family = "freehand"
	FamilyLine      Family = "line"
	FamilyFibonacci Family = "fibonacci"
	FamilyEraser    Family = "eraser"
	FamilyEmoji     Family = "emoji"
)

// Authorizer decides whether the local participant may mutate drawing state.
type Authorizer interface {
	CanMutate() bool
}

// Role is the participant role resolved once at session start.
type Role struct {
	Host       bool
	Replicated bool
}

// CanMutate is false only for a viewer of a replicated session.
func (r Role) CanMutate() bool {
	return !r.Replicated || r.Host
}

// Selection is the exclusivity arbiter: at most one tool across all families is
// active. Activating a member deactivates every other family.
type Selection struct {
	family   Family
	freehand state.FreehandTool
	line     state.LineKind
	fib      state.FibKind

	changeCallbacks []func(family Family)
}

// NewSelection returns a selection with no active tool.
func NewSelection() *Selection {
	return &Selection{}
}

// Active returns the active family.
func (s *Selection) Active() Family {
	return s.family
}

func (s *Selection) Freehand() state.FreehandTool {
	if s.family != FamilyFreehand {
		return ""
	}
	return s.freehand
}

func (s *Selection) Line() state.LineKind {
	if s.family != FamilyLine {
		return ""
	}
	return s.line
}

func (s *Selection) Fibonacci() state.FibKind {
	if s.family != FamilyFibonacci {
		return ""
	}
	return s.fib
}

func (s *Selection) Eraser() bool {
	return s.family == FamilyEraser
}

func (s *Selection) Emoji() bool {
	return s.family == FamilyEmoji
}

// SelectFreehand activates a freehand tool. An empty tool deactivates the
// family if it is the active one.
func (s *Selection) SelectFreehand(tool state.FreehandTool) {
	if tool == "" {
		s.deactivate(FamilyFreehand)
		return
	}
	s.freehand = tool
	s.activate(FamilyFreehand)
}

func (s *Selection) SelectLine(kind state.LineKind) {
	if kind == "" {
		s.deactivate(FamilyLine)
		return
	}
	s.line = kind
	s.activate(FamilyLine)
}

func (s *Selection) SelectFibonacci(kind state.FibKind) {
	if kind == "" {
		s.deactivate(FamilyFibonacci)
		return
	}
	s.fib = kind
	s.activate(FamilyFibonacci)
}

func (s *Selection) SelectEraser(on bool) {
	if !on {
		s.deactivate(FamilyEraser)
		return
	}
	s.activate(FamilyEraser)
}

func (s *Selection) SelectEmoji(on bool) {
	if !on {
		s.deactivate(FamilyEmoji)
		return
	}
	s.activate(FamilyEmoji)
}

// Clear deactivates every family.
func (s *Selection) Clear() {
	if s.family == FamilyNone {
		return
	}
	s.family = FamilyNone
	s.EmitChange(FamilyNone)
}

func (s *Selection) activate(family Family) {
	if s.family != family && s.family != FamilyNone {
		logger.Debugf("tool %s replaces %s", family, s.family)
	}
	s.family = family
	s.EmitChange(family)
}

func (s *Selection) deactivate(family Family) {
	if s.family != family {
		return
	}
	s.family = FamilyNone
	s.EmitChange(FamilyNone)
}
