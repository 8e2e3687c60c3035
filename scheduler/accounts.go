package scheduler

// Register creates a new patient or caregiver account: uniqueness
// check, password-strength check, salt generation, key derivation,
// then one durable insert.
//
// Strength rules always apply to patients; whether they apply to
// caregivers is configurable and defaults to enforced.
func (m *Manager) Register(kind AccountKind, username, password string) error {
	exists, err := m.db.AccountExists(kind, username)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyExists
	}

	if kind == KindPatient || m.cfg.CaregiverStrengthEnforced() {
		if err := ValidatePassword(password); err != nil {
			return err
		}
	}

	salt, err := GenerateSalt()
	if err != nil {
		return err
	}
	return m.db.InsertAccount(&Account{
		Kind:     kind,
		Username: username,
		Salt:     salt,
		Hash:     DeriveKey(password, salt),
	})
}

// Authenticate verifies a username/password pair against the stored
// salt and derived key and returns the account handle on success.
// Candidate and stored keys are compared in constant time.
func (m *Manager) Authenticate(kind AccountKind, username, password string) (*Account, error) {
	acct, err := m.db.Credentials(kind, username)
	if err != nil {
		return nil, err
	}
	if !KeysEqual(DeriveKey(password, acct.Salt), acct.Hash) {
		return nil, ErrWrongPassword
	}
	return acct, nil
}
