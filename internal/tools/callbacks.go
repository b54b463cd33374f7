package tools

func (s *Selection) OnChange(cb func(family Family)) {
	s.changeCallbacks = append(s.changeCallbacks, cb)
}

func (s *Selection) EmitChange(family Family) {
	for _, cb := range s.changeCallbacks {
		cb(family)
	}
}

func (t *LineTools) OnChange(cb func()) {
	t.changeCallbacks = append(t.changeCallbacks, cb)
}

func (t *LineTools) EmitChange() {
	for _, cb := range t.changeCallbacks {
		cb()
	}
}

func (f *FibonacciTools) OnChange(cb func()) {
	f.changeCallbacks = append(f.changeCallbacks, cb)
}

func (f *FibonacciTools) EmitChange() {
	for _, cb := range f.changeCallbacks {
		cb()
	}
}

func (e *EmojiTools) OnChange(cb func()) {
	e.changeCallbacks = append(e.changeCallbacks, cb)
}

func (e *EmojiTools) EmitChange() {
	for _, cb := range e.changeCallbacks {
		cb()
	}
}
