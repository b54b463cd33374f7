package ui

import (
	"image/color"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"LiveChartBoard/internal/export"
	"LiveChartBoard/internal/session"
	"LiveChartBoard/internal/state"
)

// palette maps the swatch colors to the css colors stored in drawings.
var palette = []struct {
	color color.NRGBA
	css   string
}{
	{color.NRGBA{R: 41, G: 98, B: 255, A: 255}, "#2962ff"},
	{color.NRGBA{R: 242, G: 54, B: 69, A: 255}, "#f23645"},
	{color.NRGBA{R: 8, G: 153, B: 129, A: 255}, "#089981"},
	{color.NRGBA{R: 255, G: 152, B: 0, A: 255}, "#ff9800"},
	{color.NRGBA{R: 19, G: 23, B: 34, A: 255}, "#131722"},
}

var highlighterColors = []string{"#ffeb3b", "#76ff03", "#ff4081", "#18ffff"}

var emojis = []string{"🚀", "🔥", "🎯", "💰", "📈", "📉", "⚠️", "✅", "❌", "👀"}

var cursorModes = []state.CursorMode{state.CursorDefault, state.CursorCrosshair, state.CursorDot, state.CursorArrow}

var freehandTools = []state.FreehandTool{state.ToolPencil, state.ToolHighlighter}

type colorSwatch struct {
	widget.BaseWidget
	Color    color.Color
	OnTapped func(color.Color)
}

func newColorSwatch(c color.Color, tapped func(color.Color)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(24, 24))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

func names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// Toolbar drives the session tools. Its selectors follow the session state so
// that activating one tool family visibly clears the others.
type Toolbar struct {
	session *session.Session
	window  fyne.Window

	freehand *widget.Select
	line     *widget.Select
	fib      *widget.Select
	emoji    *widget.Select
	eraser   *widget.Check
	levels   *widget.Entry

	syncing bool
	content fyne.CanvasObject
}

func NewToolbar(s *session.Session, w fyne.Window) *Toolbar {
	t := &Toolbar{session: s, window: w}

	cursor := widget.NewSelect(names(cursorModes), func(v string) { s.SetCursor(state.CursorMode(v)) })
	cursor.SetSelected(string(state.CursorDefault))

	t.freehand = widget.NewSelect(names(freehandTools), func(v string) {
		t.apply(func() { s.SelectFreehand(state.FreehandTool(v)) })
	})
	t.freehand.PlaceHolder = "Draw"
	t.line = widget.NewSelect(names(state.LineKinds), func(v string) {
		t.apply(func() { s.SelectLine(state.LineKind(v)) })
	})
	t.line.PlaceHolder = "Lines"
	t.fib = widget.NewSelect(names(state.FibKinds), func(v string) {
		t.apply(func() { s.SelectFibonacci(state.FibKind(v)) })
	})
	t.fib.PlaceHolder = "Fibonacci"
	t.emoji = widget.NewSelect(emojis, func(v string) {
		t.apply(func() { s.SetEmoji(v) })
	})
	t.emoji.PlaceHolder = "Sticker"
	t.eraser = widget.NewCheck("Eraser", func(on bool) {
		t.apply(func() { s.SetEraser(on) })
	})

	swatches := container.NewHBox()
	for _, p := range palette {
		css := p.css
		swatches.Add(newColorSwatch(p.color, func(color.Color) { s.SetColor(css) }))
	}
	highlighter := widget.NewSelect(highlighterColors, s.SetHighlighterColor)
	highlighter.PlaceHolder = "Highlight"

	t.levels = widget.NewEntry()
	t.levels.SetPlaceHolder("0, 0.382, 0.5, 0.618, 1")
	t.levels.OnSubmitted = func(text string) {
		if levels, ok := parseLevels(text); ok {
			s.SetFibonacciLevels(levels)
		}
	}

	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentUndoIcon(), s.UndoLast),
		widget.NewToolbarAction(theme.VisibilityIcon(), s.ToggleFibonacciVisible),
		widget.NewToolbarAction(theme.DeleteIcon(), s.DeleteSelectedEmoji),
		widget.NewToolbarAction(theme.ContentClearIcon(), func() {
			s.ClearAll()
			s.ClearEmojis()
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), t.export),
	)

	controls := []fyne.Disableable{cursor, t.freehand, t.line, t.fib, t.emoji, t.eraser, highlighter, t.levels}
	if !s.CanDraw() {
		for _, c := range controls {
			c.Disable()
		}
	}

	t.content = container.NewHScroll(container.NewHBox(
		cursor, t.freehand, t.line, t.fib, t.eraser, t.emoji,
		widget.NewSeparator(),
		swatches, highlighter,
		widget.NewSeparator(),
		container.New(layout.NewGridWrapLayout(fyne.NewSize(180, 36)), t.levels),
		tb,
	))

	s.OnChange(func() { fyne.Do(t.sync) })
	return t
}

func (t *Toolbar) Content() fyne.CanvasObject { return t.content }

func (t *Toolbar) apply(fn func()) {
	if t.syncing {
		return
	}
	fn()
}

// sync clears the selectors of inactive families without feeding the change
// back into the session.
func (t *Toolbar) sync() {
	snap := t.session.Snapshot()

	t.syncing = true
	defer func() { t.syncing = false }()

	if snap.FreehandTool == "" {
		t.freehand.ClearSelected()
	}
	if snap.LineTool == "" {
		t.line.ClearSelected()
	}
	if snap.FibTool == "" {
		t.fib.ClearSelected()
	}
	if !snap.EmojiTool {
		t.emoji.ClearSelected()
	}
	t.eraser.SetChecked(snap.Eraser)
}

func (t *Toolbar) export() {
	dialog.ShowFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil || w == nil {
			return
		}
		defer w.Close()

		format, err := export.FormatFromPath(w.URI().Name())
		if err == nil {
			err = export.Write(w, format, export.NewFrame(t.session.Snapshot(), t.session.Viewport()))
		}
		if err != nil {
			dialog.ShowError(err, t.window)
		}
	}, t.window)
}

func parseLevels(text string) ([]float64, bool) {
	var levels []float64
	for _, field := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ' ' }) {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, false
		}
		levels = append(levels, v)
	}
	return levels, len(levels) > 0
}
