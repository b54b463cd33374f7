package state

// Snapshot is the host's full replicated drawing state. It is broadcast verbatim
// after every host mutation and replaces the viewer mirror on receipt.
type Snapshot struct {
	Cursor           CursorMode   `json:"cursor"`
	FreehandTool     FreehandTool `json:"freehandTool,omitempty"`
	LineTool         LineKind     `json:"lineTool,omitempty"`
	FibTool          FibKind      `json:"fibTool,omitempty"`
	Eraser           bool         `json:"eraser"`
	EmojiTool        bool         `json:"emojiTool"`
	SelectedEmoji    string       `json:"selectedEmoji,omitempty"`
	Color            string       `json:"color"`
	HighlighterColor string       `json:"highlighterColor"`

	Paths []FreehandPath `json:"paths"`
	Lines []LineDrawing  `json:"lines"`

	Period    string `json:"period,omitempty"`
	ChartType string `json:"chartType,omitempty"`

	FibDrawings     []FibonacciDrawing `json:"fibDrawings"`
	FibPreview      *FibPreview        `json:"fibPreview"`
	EmojiDrawings   []EmojiDrawing     `json:"emojiDrawings"`
	SelectedEmojiID string             `json:"selectedEmojiId,omitempty"`

	Revision uint64 `json:"revision"`
}

// Clone returns a deep copy so that the receiver can be handed to another
// goroutine while the source keeps mutating.
func (s Snapshot) Clone() Snapshot {
	c := s
	c.Paths = make([]FreehandPath, len(s.Paths))
	for i, p := range s.Paths {
		c.Paths[i] = p.Clone()
	}
	c.Lines = make([]LineDrawing, len(s.Lines))
	for i, l := range s.Lines {
		c.Lines[i] = l.Clone()
	}
	c.FibDrawings = cloneFibDrawings(s.FibDrawings)
	c.FibPreview = s.FibPreview.Clone()
	c.EmojiDrawings = cloneEmojis(s.EmojiDrawings)
	return c
}

// FibState is the Fibonacci family block of a partial snapshot.
type FibState struct {
	Tool     FibKind            `json:"tool,omitempty"`
	Drawings []FibonacciDrawing `json:"drawings"`
	Preview  *FibPreview        `json:"preview"`
}

// EmojiState is the emoji family block of a partial snapshot.
type EmojiState struct {
	Tool       bool           `json:"tool"`
	Selected   string         `json:"selected,omitempty"`
	Drawings   []EmojiDrawing `json:"drawings"`
	SelectedID string         `json:"selectedId,omitempty"`
}

// PartialSnapshot carries the high frequency sub-streams. Only the family blocks
// that are present are merged into the mirror.
type PartialSnapshot struct {
	Fib      *FibState   `json:"fib,omitempty"`
	Emoji    *EmojiState `json:"emoji,omitempty"`
	Revision uint64      `json:"revision"`
}

// Empty reports whether the partial carries no family block.
func (p PartialSnapshot) Empty() bool {
	return p.Fib == nil && p.Emoji == nil
}

// ApplyPartial merges the present family blocks of p into s.
func (s *Snapshot) ApplyPartial(p PartialSnapshot) {
	if p.Fib != nil {
		s.FibTool = p.Fib.Tool
		s.FibDrawings = cloneFibDrawings(p.Fib.Drawings)
		s.FibPreview = p.Fib.Preview.Clone()
	}
	if p.Emoji != nil {
		s.EmojiTool = p.Emoji.Tool
		s.SelectedEmoji = p.Emoji.Selected
		s.EmojiDrawings = cloneEmojis(p.Emoji.Drawings)
		s.SelectedEmojiID = p.Emoji.SelectedID
	}
	if p.Revision > s.Revision {
		s.Revision = p.Revision
	}
}

func cloneFibDrawings(in []FibonacciDrawing) []FibonacciDrawing {
	out := make([]FibonacciDrawing, len(in))
	for i, d := range in {
		out[i] = d.Clone()
	}
	return out
}

func cloneEmojis(in []EmojiDrawing) []EmojiDrawing {
	out := make([]EmojiDrawing, len(in))
	copy(out, in)
	return out
}
