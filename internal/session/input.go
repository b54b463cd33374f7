package session

import (
	"LiveChartBoard/internal/geometry"
	"LiveChartBoard/internal/state"
)

// PointerDown routes a press to the first engine that claims it. An armed
// Fibonacci tool takes every click; otherwise the handles of the last study
// win over the active drawing tool.
func (s *Session) PointerDown(x, y float64) {
	s.update(func() {
		switch {
		case s.fib.Tool() != "":
			s.fib.Start(x, y)

		case s.fib.BeginDrag(x, y, false):

		case s.lines.Eraser():
			s.erasing = true
			s.lines.Erase(x, y)

		case s.lines.FreehandTool() != "":
			s.lines.StartPath(x, y)

		case s.lines.LineTool() != "":
			s.lines.StartLine(x, y)

		case s.fib.BeginDrag(x, y, !s.emoji.Active()):

		default:
			s.emoji.PointerDown(x, y)
		}
	})
}

// PointerMove feeds the gesture in progress. Engines without one ignore it.
func (s *Session) PointerMove(x, y float64) {
	s.update(func() {
		s.fib.Move(x, y)
		if s.erasing {
			s.lines.Erase(x, y)
		}
		s.lines.MovePath(x, y)
		s.lines.MoveLine(x, y)
		s.emoji.PointerMove(x, y)
	})
}

// PointerUp finalizes the gesture in progress. A pending Fibonacci click
// sequence stays open.
func (s *Session) PointerUp() {
	s.update(s.release)
}

// PointerLeave is handled like a release so that a drag leaving the chart
// never leaves a half drawn shape behind.
func (s *Session) PointerLeave() {
	s.update(s.release)
}

func (s *Session) release() {
	s.erasing = false
	s.lines.EndPath()
	s.lines.EndLine()
	s.fib.EndDrag()
	s.emoji.PointerUp()
}

// Escape discards a pending Fibonacci click sequence.
func (s *Session) Escape() {
	s.update(s.fib.Cancel)
}

// Undo pops the shared freehand and line stack.
func (s *Session) Undo() {
	s.update(s.lines.Undo)
}

// UndoFibonacci pops the Fibonacci stack.
func (s *Session) UndoFibonacci() {
	s.update(s.fib.Undo)
}

// UndoEmoji restores the previous sticker layout.
func (s *Session) UndoEmoji() {
	s.update(s.emoji.Undo)
}

// UndoLast undoes in the family of the active tool, falling back to the
// shared drawing stack.
func (s *Session) UndoLast() {
	s.update(func() {
		switch {
		case s.emoji.Active():
			s.emoji.Undo()
		case s.fib.Tool() != "":
			s.fib.Undo()
		case s.lines.CanUndo():
			s.lines.Undo()
		default:
			s.fib.Undo()
		}
	})
}

func (s *Session) SetCursor(c state.CursorMode) {
	s.update(func() { s.lines.SetCursor(c) })
}

// SetColor sets the stroke color of new lines, pens and Fibonacci studies.
func (s *Session) SetColor(color string) {
	s.update(func() {
		s.lines.SetColor(color)
		s.fib.SetColor(color)
	})
}

func (s *Session) SetHighlighterColor(color string) {
	s.update(func() { s.lines.SetHighlighterColor(color) })
}

func (s *Session) SelectFreehand(tool state.FreehandTool) {
	s.update(func() { s.lines.SetFreehandTool(tool) })
}

func (s *Session) SelectLine(kind state.LineKind) {
	s.update(func() { s.lines.SetLineTool(kind) })
}

func (s *Session) SelectFibonacci(kind state.FibKind) {
	s.update(func() { s.fib.SetTool(kind) })
}

func (s *Session) SetEraser(on bool) {
	s.update(func() { s.lines.SetEraser(on) })
}

func (s *Session) SetEmojiTool(on bool) {
	s.update(func() { s.emoji.SetActive(on) })
}

func (s *Session) SetEmoji(emoji string) {
	s.update(func() { s.emoji.SetEmoji(emoji) })
}

func (s *Session) DeleteSelectedEmoji() {
	s.update(s.emoji.DeleteSelected)
}

func (s *Session) SetFibonacciLevels(levels []float64) {
	s.update(func() { s.fib.SetLevels(levels) })
}

func (s *Session) ToggleFibonacciVisible() {
	s.update(s.fib.ToggleVisible)
}

// ClearAll removes every path, line and Fibonacci study and resets the tool
// selection. Stickers are cleared separately with ClearEmojis.
func (s *Session) ClearAll() {
	s.update(func() {
		s.lines.ClearAll()
		s.fib.ClearAll()
	})
}

func (s *Session) ClearEmojis() {
	s.update(s.emoji.ClearAll)
}

// SetViewport follows a resize or a zoom of the host chart. The viewport is
// local to every participant and is never broadcast.
func (s *Session) SetViewport(vp geometry.Viewport) {
	s.update(func() {
		s.viewport = vp
		s.lines.SetCanvasSize(vp.Width, vp.Height)
	})
}

func (s *Session) Viewport() geometry.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

// SetChart records the chart period and type shown by the host.
func (s *Session) SetChart(period, chartType string) {
	s.update(func() {
		if !s.role.CanMutate() || (period == s.period && chartType == s.chartType) {
			return
		}
		s.period, s.chartType = period, chartType
		s.dirtyFull = true
	})
}
