package tools

import (
	"math"

	"LiveChartBoard/internal/geometry"
	"LiveChartBoard/internal/metrics"
	"LiveChartBoard/internal/state"
)

const (
	DefaultEmoji     = "🚀"
	DefaultEmojiSize = 32.0
	MinEmojiSize     = 12.0
	MaxEmojiSize     = 256.0

	// EmojiHandleSize is the side of the square resize handle.
	EmojiHandleSize = 12.0

	// EmojiUndoLimit bounds the emoji snapshot stack.
	EmojiUndoLimit = 50
)

type emojiDrag struct {
	id     string
	offset geometry.Point
	saved  bool
}

type emojiResize struct {
	id        string
	start     geometry.Point
	startSize float64
	saved     bool
}

// EmojiTools places, moves and resizes emoji stickers. Every mutation pushes a
// snapshot of the whole sticker list onto a bounded undo stack; a drag or
// resize is saved once, on its first move.
type EmojiTools struct {
	sel  *Selection
	auth Authorizer

	emoji      string
	emojis     []state.EmojiDrawing
	selectedID string

	drag   *emojiDrag
	resize *emojiResize
	undo   *Stack[[]state.EmojiDrawing]

	changeCallbacks []func()
}

func NewEmojiTools(sel *Selection, auth Authorizer) *EmojiTools {
	e := &EmojiTools{
		sel:   sel,
		auth:  auth,
		emoji: DefaultEmoji,
		undo:  NewStack[[]state.EmojiDrawing](EmojiUndoLimit),
	}
	sel.OnChange(func(family Family) {
		if family != FamilyEmoji {
			e.selectedID = ""
		}
	})
	return e
}

func (e *EmojiTools) allowed() bool {
	if e.auth != nil && !e.auth.CanMutate() {
		logger.Debug("ignoring emoji mutation from a viewer")
		return false
	}
	return true
}

func (e *EmojiTools) Active() bool { return e.sel.Emoji() }

// SetActive arms or disarms the emoji tool.
func (e *EmojiTools) SetActive(on bool) {
	if !e.allowed() {
		return
	}
	e.sel.SelectEmoji(on)
	e.EmitChange()
}

func (e *EmojiTools) Emoji() string { return e.emoji }

// SetEmoji picks the sticker placed by the next click and arms the tool.
func (e *EmojiTools) SetEmoji(emoji string) {
	if !e.allowed() || emoji == "" {
		return
	}
	e.emoji = emoji
	e.sel.SelectEmoji(true)
	e.EmitChange()
}

// Emojis returns a copy of the placed stickers.
func (e *EmojiTools) Emojis() []state.EmojiDrawing {
	out := make([]state.EmojiDrawing, len(e.emojis))
	copy(out, e.emojis)
	return out
}

func (e *EmojiTools) SelectedID() string { return e.selectedID }

func (e *EmojiTools) UndoDepth() int { return e.undo.Len() }

// Busy reports whether a drag or resize is running.
func (e *EmojiTools) Busy() bool {
	return e.drag != nil || e.resize != nil
}

func (e *EmojiTools) snapshot() {
	saved := make([]state.EmojiDrawing, len(e.emojis))
	copy(saved, e.emojis)
	e.undo.Push(saved)
}

func (e *EmojiTools) index(id string) int {
	for i := range e.emojis {
		if e.emojis[i].ID == id {
			return i
		}
	}
	return -1
}

// hit returns the index of the topmost sticker under p.
func (e *EmojiTools) hit(p geometry.Point) int {
	for i := len(e.emojis) - 1; i >= 0; i-- {
		if e.emojis[i].Box().Contains(p) {
			return i
		}
	}
	return -1
}

// HitTest reports whether a pointer down at (x, y) would grab a sticker.
func (e *EmojiTools) HitTest(x, y float64) bool {
	p := geometry.Pt(x, y)
	if i := e.index(e.selectedID); i >= 0 && geometry.HitSquare(p, e.emojis[i].ResizeHandle(), EmojiHandleSize) {
		return true
	}
	return e.hit(p) >= 0
}

// PointerDown starts a resize on the selected sticker's corner handle, a drag on
// a sticker body, or places a new sticker when the tool is armed. It reports
// whether the event was consumed.
func (e *EmojiTools) PointerDown(x, y float64) bool {
	if !e.allowed() {
		return false
	}

	p := geometry.Pt(x, y)
	if i := e.index(e.selectedID); i >= 0 && geometry.HitSquare(p, e.emojis[i].ResizeHandle(), EmojiHandleSize) {
		e.resize = &emojiResize{id: e.selectedID, start: p, startSize: e.emojis[i].Size}
		return true
	}

	if i := e.hit(p); i >= 0 {
		e.selectedID = e.emojis[i].ID
		e.drag = &emojiDrag{id: e.selectedID, offset: p.Sub(geometry.Pt(e.emojis[i].X, e.emojis[i].Y))}
		e.EmitChange()
		return true
	}

	if !e.sel.Emoji() {
		if e.selectedID != "" {
			e.selectedID = ""
			e.EmitChange()
		}
		return false
	}

	e.snapshot()
	sticker := state.EmojiDrawing{
		ID:    state.NewID("emoji"),
		X:     x - DefaultEmojiSize/2,
		Y:     y - DefaultEmojiSize/2,
		Emoji: e.emoji,
		Size:  DefaultEmojiSize,
	}
	e.emojis = append(e.emojis, sticker)
	metrics.CommittedDrawings.WithLabelValues(string(FamilyEmoji)).Inc()
	e.selectedID = sticker.ID
	e.EmitChange()
	return true
}

// PointerMove moves or resizes the grabbed sticker.
func (e *EmojiTools) PointerMove(x, y float64) {
	if !e.allowed() {
		return
	}

	p := geometry.Pt(x, y)
	switch {
	case e.drag != nil:
		i := e.index(e.drag.id)
		if i < 0 {
			e.drag = nil
			return
		}
		if !e.drag.saved {
			e.snapshot()
			e.drag.saved = true
		}
		origin := p.Sub(e.drag.offset)
		e.emojis[i].X, e.emojis[i].Y = origin.X, origin.Y
		e.EmitChange()

	case e.resize != nil:
		i := e.index(e.resize.id)
		if i < 0 {
			e.resize = nil
			return
		}
		if !e.resize.saved {
			e.snapshot()
			e.resize.saved = true
		}
		delta := p.Sub(e.resize.start)
		size := e.resize.startSize + math.Max(delta.X, delta.Y)
		e.emojis[i].Size = math.Max(MinEmojiSize, math.Min(MaxEmojiSize, size))
		e.EmitChange()
	}
}

// PointerUp ends a drag or resize. Pointer leave behaves the same way.
func (e *EmojiTools) PointerUp() {
	e.drag = nil
	e.resize = nil
}

// DeleteSelected removes the selected sticker.
func (e *EmojiTools) DeleteSelected() {
	if !e.allowed() {
		return
	}
	i := e.index(e.selectedID)
	if i < 0 {
		return
	}
	e.snapshot()
	e.emojis = append(e.emojis[:i], e.emojis[i+1:]...)
	e.selectedID = ""
	e.EmitChange()
}

// Undo restores the sticker list saved before the last mutation.
func (e *EmojiTools) Undo() {
	if !e.allowed() {
		return
	}
	saved, ok := e.undo.Pop()
	if !ok {
		return
	}
	e.emojis = saved
	e.drag = nil
	e.resize = nil
	if e.index(e.selectedID) < 0 {
		e.selectedID = ""
	}
	e.EmitChange()
}

// ClearAll removes every sticker. The removal itself can be undone.
func (e *EmojiTools) ClearAll() {
	if !e.allowed() || len(e.emojis) == 0 {
		return
	}
	e.snapshot()
	e.emojis = nil
	e.selectedID = ""
	e.drag = nil
	e.resize = nil
	e.EmitChange()
}
