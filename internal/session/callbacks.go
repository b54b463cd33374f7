package session

// OnChange registers a callback fired after every local mutation and every
// applied remote payload.
func (s *Session) OnChange(cb func()) {
	s.changeCallbacks = append(s.changeCallbacks, cb)
}

func (s *Session) EmitChange() {
	for _, cb := range s.changeCallbacks {
		cb()
	}
}
