package scheduler

// Session tracks the single logged-in identity for one REPL process.
// It is held by the command dispatcher rather than living in package
// globals, so the invariant that at most one of the patient or
// caregiver slots is set at a time is enforced in one place.
type Session struct {
	current *Account
}

// Active reports whether anyone is logged in.
func (s *Session) Active() bool { return s.current != nil }

// Current returns the logged-in account, or nil.
func (s *Session) Current() *Account { return s.current }

// Patient returns the logged-in account only when it is a patient.
func (s *Session) Patient() *Account {
	if s.current != nil && s.current.Kind == KindPatient {
		return s.current
	}
	return nil
}

// Caregiver returns the logged-in account only when it is a caregiver.
func (s *Session) Caregiver() *Account {
	if s.current != nil && s.current.Kind == KindCaregiver {
		return s.current
	}
	return nil
}

// Login binds an authenticated account to the session. The previous
// user must log out first.
func (s *Session) Login(a *Account) error {
	if s.current != nil {
		return ErrSessionActive
	}
	s.current = a
	return nil
}

// Logout clears the session and reports whether anyone was logged in.
func (s *Session) Logout() bool {
	was := s.current != nil
	s.current = nil
	return was
}
