package scheduler

import (
	"errors"
	"fmt"
)

// Domain and authentication errors are sentinels so the command layer
// can match them with errors.Is and turn them into user-facing
// messages. Store failures wrap ErrStore and are fatal at that layer.
var (
	ErrAlreadyExists = errors.New("username already exists")
	ErrNotFound      = errors.New("account not found")
	ErrWrongPassword = errors.New("incorrect username or password")
	ErrWeakPassword  = errors.New("weak password")

	ErrSessionActive = errors.New("another user is already logged in")

	ErrMustActAsPatient     = errors.New("a patient login is required to reserve")
	ErrInvalidDate          = errors.New("date must be a real calendar date in YYYY-MM-DD form")
	ErrPastDate             = errors.New("appointment date is before today")
	ErrUnknownVaccine       = errors.New("vaccine does not exist in the inventory")
	ErrNoCaregiverAvailable = errors.New("no caregiver is available on that date")
	ErrNotValidated         = errors.New("appointment has not been validated")

	ErrNegativeDoses = errors.New("dose count must be a non-negative integer")

	// ErrStore marks connection or query failures from the backing
	// store. Continuing against an unreliable store risks inconsistent
	// state, so callers terminate rather than retry.
	ErrStore = errors.New("store failure")
)

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStore, op, err)
}
