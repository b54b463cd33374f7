package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LiveChartBoard/internal/state"
)

type board struct {
	sel   *Selection
	hist  *History
	lines *LineTools
	fib   *FibonacciTools
	emoji *EmojiTools
}

func newBoard(role Role) *board {
	sel := NewSelection()
	hist := NewHistory()
	b := &board{
		sel:   sel,
		hist:  hist,
		lines: NewLineTools(sel, hist, role),
		fib:   NewFibonacciTools(sel, hist, role),
		emoji: NewEmojiTools(sel, role),
	}
	b.lines.SetCanvasSize(800, 600)
	return b
}

func host() Role { return Role{Host: true, Replicated: true} }

func drawPath(t *LineTools, moves int) {
	t.StartPath(10, 10)
	for i := 0; i < moves; i++ {
		t.MovePath(float64(11+i), float64(12+i))
	}
	t.EndPath()
}

func drawLine(t *LineTools, x1, y1, x2, y2 float64) {
	t.StartLine(x1, y1)
	t.MoveLine(x2, y2)
	t.EndLine()
}

func TestFreehandPathPointCount(t *testing.T) {
	for _, moves := range []int{0, 1, 7, 50} {
		b := newBoard(host())
		b.lines.SetFreehandTool(state.ToolPencil)
		drawPath(b.lines, 3)
		drawPath(b.lines, moves)

		paths := b.lines.Paths()
		require.Len(t, paths, 2)
		assert.Len(t, paths[1].Points, moves+1)
		assert.Nil(t, b.lines.CurrentPath())
	}
}

func TestFreehandToolStyle(t *testing.T) {
	b := newBoard(host())
	b.lines.SetColor("#ff0000")
	b.lines.SetHighlighterColor("#00ff00")

	b.lines.SetFreehandTool(state.ToolPencil)
	drawPath(b.lines, 1)
	b.lines.SetFreehandTool(state.ToolHighlighter)
	drawPath(b.lines, 1)

	paths := b.lines.Paths()
	assert.Equal(t, "#ff0000", paths[0].Color)
	assert.Equal(t, 2.0, paths[0].Width)
	assert.Equal(t, 1.0, paths[0].Opacity)
	assert.Equal(t, "#00ff00", paths[1].Color)
	assert.Equal(t, 12.0, paths[1].Width)
	assert.Less(t, paths[1].Opacity, 1.0)
}

func TestGestureWithoutStartIsNoop(t *testing.T) {
	b := newBoard(host())
	b.lines.MovePath(1, 1)
	b.lines.EndPath()
	b.lines.MoveLine(1, 1)
	b.lines.EndLine()

	b.lines.SetFreehandTool(state.ToolPencil)
	b.lines.StartLine(1, 1)
	assert.Nil(t, b.lines.Preview(), "line start without an armed line tool")

	assert.Empty(t, b.lines.Paths())
	assert.Empty(t, b.lines.Lines())
	assert.False(t, b.lines.CanUndo())
}

func TestHorizontalLineScenario(t *testing.T) {
	b := newBoard(host())
	b.lines.SetLineTool(state.LineHorizontal)

	b.lines.StartLine(100, 50)
	preview := b.lines.Preview()
	require.NotNil(t, preview)
	assert.Equal(t, []state.Point{{X: 0, Y: 50}, {X: 800, Y: 50}}, preview.Points)
	b.lines.EndLine()

	lines := b.lines.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, state.LineHorizontal, lines[0].Type)
	assert.Equal(t, []state.Point{{X: 0, Y: 50}, {X: 800, Y: 50}}, lines[0].Points)
	assert.Nil(t, b.lines.Preview())
	assert.Equal(t, state.LineHorizontal, b.lines.LineTool(), "line tools stay armed")
}

func TestTwoPointLinePreview(t *testing.T) {
	b := newBoard(host())
	b.lines.SetLineTool(state.LineTrend)

	b.lines.StartLine(10, 20)
	assert.Equal(t, []state.Point{{X: 10, Y: 20}, {X: 10, Y: 20}}, b.lines.Preview().Points)
	b.lines.MoveLine(30, 40)
	b.lines.MoveLine(50, 60)
	assert.Equal(t, []state.Point{{X: 10, Y: 20}, {X: 50, Y: 60}}, b.lines.Preview().Points)

	b.lines.SetLineTool(state.LineVertical)
	b.lines.StartLine(10, 20)
	b.lines.MoveLine(70, 90)
	assert.Equal(t, []state.Point{{X: 70, Y: 0}, {X: 70, Y: 600}}, b.lines.Preview().Points)
}

func TestUndoIsGlobalAcrossFreehandAndLines(t *testing.T) {
	b := newBoard(host())

	b.lines.SetFreehandTool(state.ToolPencil)
	drawPath(b.lines, 2)
	b.lines.SetLineTool(state.LineTrend)
	drawLine(b.lines, 0, 0, 10, 10)
	b.lines.SetFreehandTool(state.ToolHighlighter)
	drawPath(b.lines, 2)
	b.lines.SetLineTool(state.LineRay)
	drawLine(b.lines, 5, 5, 10, 10)

	b.lines.Undo()
	assert.Len(t, b.lines.Paths(), 2)
	assert.Len(t, b.lines.Lines(), 1)

	b.lines.Undo()
	assert.Len(t, b.lines.Paths(), 1)
	assert.Len(t, b.lines.Lines(), 1)

	b.lines.Undo()
	assert.Len(t, b.lines.Paths(), 1)
	assert.Empty(t, b.lines.Lines())

	b.lines.Undo()
	b.lines.Undo()
	b.lines.Undo()
	assert.Empty(t, b.lines.Paths())
	assert.False(t, b.lines.CanUndo())
}

func TestToolExclusivity(t *testing.T) {
	b := newBoard(host())

	b.lines.SetFreehandTool(state.ToolPencil)
	b.lines.SetLineTool(state.LineTrend)
	assert.Equal(t, FamilyLine, b.sel.Active())
	assert.Equal(t, state.FreehandTool(""), b.lines.FreehandTool())

	b.emoji.SetActive(true)
	assert.True(t, b.emoji.Active())
	assert.Equal(t, state.LineKind(""), b.lines.LineTool())
	assert.False(t, b.lines.Eraser())

	b.lines.SetEraser(true)
	assert.False(t, b.emoji.Active())

	b.fib.SetTool(state.FibRetracement)
	assert.False(t, b.lines.Eraser())
	assert.Equal(t, state.FibRetracement, b.fib.Tool())

	b.lines.SetFreehandTool(state.ToolHighlighter)
	assert.Equal(t, state.FibKind(""), b.fib.Tool())
	assert.Equal(t, FamilyFreehand, b.sel.Active())

	b.lines.SetFreehandTool("")
	assert.Equal(t, FamilyNone, b.sel.Active())
}

func TestSelectingAnotherFamilyDropsInFlightGestures(t *testing.T) {
	b := newBoard(host())
	b.lines.SetLineTool(state.LineTrend)
	b.lines.StartLine(1, 1)
	b.fib.SetTool(state.FibRetracement)
	assert.Nil(t, b.lines.Preview())

	b.fib.Start(1, 1)
	require.NotNil(t, b.fib.Preview())
	b.lines.SetLineTool(state.LineRay)
	assert.Nil(t, b.fib.Preview())
	assert.False(t, b.fib.Pending())
}

func TestClearAllScenario(t *testing.T) {
	b := newBoard(host())

	b.lines.SetFreehandTool(state.ToolPencil)
	drawPath(b.lines, 1)
	drawPath(b.lines, 1)
	drawPath(b.lines, 1)
	b.lines.SetLineTool(state.LineTrend)
	drawLine(b.lines, 0, 0, 5, 5)
	drawLine(b.lines, 0, 0, 6, 6)
	b.fib.SetTool(state.FibRetracement)
	b.fib.Start(10, 400)
	b.fib.Start(10, 100)
	b.lines.SetEraser(true)
	require.Equal(t, 5, b.hist.Depth(NamespaceDraw))

	b.lines.ClearAll()
	b.fib.ClearAll()

	assert.Empty(t, b.lines.Paths())
	assert.Empty(t, b.lines.Lines())
	assert.Empty(t, b.fib.Drawings())
	assert.Equal(t, 0, b.hist.Depth(NamespaceDraw))
	assert.Equal(t, FamilyNone, b.sel.Active())

	// idempotent
	changes := 0
	b.lines.OnChange(func() { changes++ })
	b.lines.ClearAll()
	assert.Equal(t, 0, changes)
	assert.Empty(t, b.lines.Paths())
}

func TestViewerMutationsAreIgnored(t *testing.T) {
	b := newBoard(Role{Host: false, Replicated: true})

	changes := 0
	b.lines.OnChange(func() { changes++ })
	b.fib.OnChange(func() { changes++ })
	b.emoji.OnChange(func() { changes++ })

	b.lines.SetColor("#000000")
	b.lines.SetFreehandTool(state.ToolPencil)
	drawPath(b.lines, 3)
	b.lines.SetLineTool(state.LineTrend)
	drawLine(b.lines, 0, 0, 1, 1)
	b.lines.Undo()
	b.lines.ClearAll()
	b.fib.SetTool(state.FibRetracement)
	b.fib.Start(1, 1)
	b.emoji.SetEmoji("🔥")
	b.emoji.PointerDown(50, 50)

	assert.Equal(t, 0, changes)
	assert.Equal(t, FamilyNone, b.sel.Active())
	assert.Equal(t, DefaultColor, b.lines.Color())
	assert.Empty(t, b.lines.Paths())
	assert.Empty(t, b.fib.Drawings())
	assert.Empty(t, b.emoji.Emojis())
}

func TestLocalSessionAllowsEveryone(t *testing.T) {
	b := newBoard(Role{})
	b.lines.SetFreehandTool(state.ToolPencil)
	drawPath(b.lines, 1)
	assert.Len(t, b.lines.Paths(), 1)
}

func TestEraser(t *testing.T) {
	b := newBoard(host())
	b.lines.SetFreehandTool(state.ToolPencil)
	drawPath(b.lines, 5) // 10,10 .. 15,16
	b.lines.SetLineTool(state.LineHorizontal)
	b.lines.StartLine(300, 300)
	b.lines.EndLine()
	b.lines.SetLineTool(state.LineTrend)
	drawLine(b.lines, 500, 500, 600, 500)

	assert.False(t, b.lines.Erase(700, 300), "eraser must be armed")

	b.lines.SetEraser(true)
	assert.True(t, b.lines.Erase(700, 303))
	assert.Len(t, b.lines.Lines(), 1)
	assert.False(t, b.lines.Erase(400, 100))
	assert.True(t, b.lines.Erase(12, 12))
	assert.Empty(t, b.lines.Paths())

	assert.Equal(t, 1, b.hist.Depth(NamespaceDraw))
	b.lines.Undo()
	assert.Empty(t, b.lines.Lines())
}

func TestEraserReachesLinesOnAGrownCanvas(t *testing.T) {
	b := newBoard(host())
	b.lines.SetLineTool(state.LineHorizontal)
	b.lines.StartLine(100, 50)
	b.lines.EndLine()
	b.lines.SetLineTool(state.LineVertical)
	b.lines.StartLine(100, 50)
	b.lines.EndLine()

	b.lines.SetCanvasSize(1200, 900)
	b.lines.SetEraser(true)
	assert.True(t, b.lines.Erase(1100, 52))
	assert.True(t, b.lines.Erase(98, 850))
	assert.Empty(t, b.lines.Lines())
}

func TestFibonacciTwoClickCommit(t *testing.T) {
	b := newBoard(host())
	b.fib.SetTool(state.FibRetracement)

	b.fib.Move(5, 5)
	assert.Nil(t, b.fib.Preview(), "no preview before the first click")

	b.fib.Start(10, 400)
	preview := b.fib.Preview()
	require.NotNil(t, preview)
	assert.Equal(t, state.Point{X: 10, Y: 400}, preview.Anchor)
	assert.Equal(t, state.Point{X: 10, Y: 400}, preview.Drag)

	b.fib.Move(20, 150)
	b.fib.Move(30, 100)
	assert.Equal(t, state.Point{X: 30, Y: 100}, b.fib.Preview().Drag)

	b.fib.Start(40, 90)
	drawings := b.fib.Drawings()
	require.Len(t, drawings, 1)
	assert.Equal(t, []state.Point{{X: 10, Y: 400}, {X: 40, Y: 90}}, drawings[0].Points)
	assert.Equal(t, state.FibRetracement.DefaultLevels(), drawings[0].Levels)
	assert.True(t, drawings[0].Visible)
	assert.Nil(t, b.fib.Preview())
	assert.Equal(t, state.FibKind(""), b.fib.Tool(), "tool auto resets after commit")

	b.fib.Start(1, 1)
	assert.Len(t, b.fib.Drawings(), 1)
}

func TestFibonacciWedgeNeedsThreeClicks(t *testing.T) {
	b := newBoard(host())
	b.fib.SetTool(state.FibWedge)
	b.fib.Start(0, 0)
	b.fib.Start(100, 0)
	assert.Empty(t, b.fib.Drawings())
	require.NotNil(t, b.fib.Preview())
	assert.Len(t, b.fib.Preview().Fixed, 2)

	b.fib.Start(100, 100)
	require.Len(t, b.fib.Drawings(), 1)
	assert.Len(t, b.fib.Drawings()[0].Points, 3)
}

func TestFibonacciOnlyLastDrawingIsDraggable(t *testing.T) {
	b := newBoard(host())
	for _, y := range []float64{100, 300} {
		b.fib.SetTool(state.FibRetracement)
		b.fib.Start(100, y)
		b.fib.Start(200, y+50)
	}

	assert.Equal(t, DragNone, b.fib.HitTest(100, 100, true), "older study is not editable")
	assert.Equal(t, DragAnchor, b.fib.HitTest(105, 302, true))
	assert.Equal(t, DragPoint, b.fib.HitTest(198, 350, true))
	assert.Equal(t, DragArea, b.fib.HitTest(150, 325, true))
	assert.Equal(t, DragNone, b.fib.HitTest(150, 325, false))

	require.True(t, b.fib.BeginDrag(200, 350, true))
	assert.Equal(t, DragPoint, b.fib.Dragging())
	b.fib.Move(250, 400)
	b.fib.EndDrag()

	drawings := b.fib.Drawings()
	assert.Equal(t, []state.Point{{X: 100, Y: 100}, {X: 200, Y: 150}}, drawings[0].Points)
	assert.Equal(t, []state.Point{{X: 100, Y: 300}, {X: 250, Y: 400}}, drawings[1].Points)
}

func TestFibonacciAreaDragMovesBothPoints(t *testing.T) {
	b := newBoard(host())
	b.fib.SetTool(state.FibRetracement)
	b.fib.Start(100, 100)
	b.fib.Start(200, 200)

	require.True(t, b.fib.BeginDrag(150, 150, true))
	assert.Equal(t, DragArea, b.fib.Dragging())
	b.fib.Move(160, 130)
	b.fib.Move(170, 120)
	b.fib.EndDrag()

	d := b.fib.Drawings()[0]
	assert.Equal(t, []state.Point{{X: 120, Y: 70}, {X: 220, Y: 170}}, d.Points)
	assert.Equal(t, DragNone, b.fib.Dragging())
}

func TestFibonacciUndoIsIndependent(t *testing.T) {
	b := newBoard(host())
	b.fib.SetTool(state.FibRetracement)
	b.fib.Start(0, 0)
	b.fib.Start(10, 10)
	b.lines.SetFreehandTool(state.ToolPencil)
	drawPath(b.lines, 1)

	b.fib.Undo()
	assert.Empty(t, b.fib.Drawings())
	assert.Len(t, b.lines.Paths(), 1)

	b.fib.Undo()
	assert.Empty(t, b.fib.Drawings())
}

func TestFibonacciLevelsAndVisibility(t *testing.T) {
	b := newBoard(host())
	b.fib.SetTool(state.FibRetracement)
	b.fib.Start(0, 0)
	b.fib.Start(10, 10)

	b.fib.SetLevels([]float64{0, 0.5, 1})
	assert.Equal(t, []float64{0, 0.5, 1}, b.fib.Drawings()[0].Levels)

	b.fib.ToggleVisible()
	assert.False(t, b.fib.Drawings()[0].Visible)
	assert.Equal(t, DragNone, b.fib.HitTest(0, 0, true), "hidden studies are not editable")
}

func TestFibonacciCancel(t *testing.T) {
	b := newBoard(host())
	b.fib.SetTool(state.FibRetracement)
	b.fib.Start(0, 0)
	b.fib.Cancel()
	assert.Nil(t, b.fib.Preview())
	assert.Equal(t, state.FibRetracement, b.fib.Tool())
	b.fib.Start(5, 5)
	assert.NotNil(t, b.fib.Preview())
}

func TestEmojiPlaceDragResize(t *testing.T) {
	b := newBoard(host())
	b.emoji.SetEmoji("🔥")

	require.True(t, b.emoji.PointerDown(100, 100))
	b.emoji.PointerUp()
	emojis := b.emoji.Emojis()
	require.Len(t, emojis, 1)
	assert.Equal(t, "🔥", emojis[0].Emoji)
	assert.Equal(t, 84.0, emojis[0].X)
	assert.Equal(t, emojis[0].ID, b.emoji.SelectedID())

	// drag by body keeps the grab offset
	require.True(t, b.emoji.PointerDown(90, 90))
	b.emoji.PointerMove(190, 140)
	b.emoji.PointerUp()
	emojis = b.emoji.Emojis()
	assert.Equal(t, 184.0, emojis[0].X)
	assert.Equal(t, 134.0, emojis[0].Y)

	// resize by corner handle
	corner := emojis[0].ResizeHandle()
	require.True(t, b.emoji.PointerDown(corner.X, corner.Y))
	assert.True(t, b.emoji.Busy())
	b.emoji.PointerMove(corner.X+20, corner.Y+5)
	b.emoji.PointerUp()
	assert.Equal(t, 52.0, b.emoji.Emojis()[0].Size)
	assert.False(t, b.emoji.Busy())

	b.emoji.Undo()
	assert.Equal(t, DefaultEmojiSize, b.emoji.Emojis()[0].Size)
	b.emoji.Undo()
	assert.Equal(t, 84.0, b.emoji.Emojis()[0].X)
	b.emoji.Undo()
	assert.Empty(t, b.emoji.Emojis())
	b.emoji.Undo()
	assert.Empty(t, b.emoji.Emojis())
}

func TestEmojiResizeIsClamped(t *testing.T) {
	b := newBoard(host())
	b.emoji.SetEmoji("🔥")
	b.emoji.PointerDown(100, 100)
	b.emoji.PointerUp()

	corner := b.emoji.Emojis()[0].ResizeHandle()
	b.emoji.PointerDown(corner.X, corner.Y)
	b.emoji.PointerMove(corner.X-500, corner.Y-500)
	b.emoji.PointerUp()
	assert.Equal(t, MinEmojiSize, b.emoji.Emojis()[0].Size)
}

func TestEmojiUndoIsBounded(t *testing.T) {
	b := newBoard(host())
	b.emoji.SetEmoji("⭐")
	for i := 0; i < EmojiUndoLimit+10; i++ {
		b.emoji.PointerDown(float64(i*40%800)+500, float64(i*40/800*40)+500)
		b.emoji.PointerUp()
	}
	assert.Equal(t, EmojiUndoLimit, b.emoji.UndoDepth())
}

func TestEmojiDeleteAndClickOutside(t *testing.T) {
	b := newBoard(host())
	b.emoji.SetEmoji("⭐")
	b.emoji.PointerDown(100, 100)
	b.emoji.PointerUp()

	b.emoji.SetActive(false)
	assert.Equal(t, "", b.emoji.SelectedID())
	assert.False(t, b.emoji.PointerDown(400, 400))

	assert.True(t, b.emoji.PointerDown(100, 100), "stickers are draggable without the tool")
	b.emoji.PointerUp()
	b.emoji.DeleteSelected()
	assert.Empty(t, b.emoji.Emojis())
	b.emoji.Undo()
	assert.Len(t, b.emoji.Emojis(), 1)
}

func TestStack(t *testing.T) {
	s := NewStack[int](3)
	for i := 1; i <= 5; i++ {
		s.Push(i)
	}
	assert.Equal(t, 3, s.Len())
	v, ok := s.Pop()
	assert.True(t, ok)
	assert.Equal(t, 5, v)

	s.RemoveFunc(func(i int) bool { return i == 3 })
	v, _ = s.Pop()
	assert.Equal(t, 4, v)
	_, ok = s.Pop()
	assert.False(t, ok)
}
