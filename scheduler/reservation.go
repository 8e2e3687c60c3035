package scheduler

import (
	"strconv"
	"strings"
	"time"
)

type requestState int

const (
	stateUnvalidated requestState = iota
	stateValidated
	stateCommitted
)

// AppointmentRequest walks a patient's reservation through validation
// and commit against the backing store. A request moves Unvalidated →
// Validated → Committed; a failed validation leaves no side effect.
type AppointmentRequest struct {
	Vaccine string
	Date    string
	Patient *Account

	// ID is set once the store has assigned an identifier. A request
	// hydrated with an ID is trusted as already validated.
	ID int64

	state requestState
}

// NewAppointmentRequest builds an unvalidated request for the given
// patient identity.
func NewAppointmentRequest(vaccine, date string, patient *Account) *AppointmentRequest {
	return &AppointmentRequest{Vaccine: vaccine, Date: date, Patient: patient}
}

// Validate runs the reservation checks in order and reports the first
// failure: patient identity, date format, date not in the past, the
// vaccine exists, and at least one caregiver has the date open.
func (r *AppointmentRequest) Validate(db *Database) error {
	if r.ID != 0 {
		// Already carries a store identifier, so it has been through
		// validation before.
		r.state = stateValidated
		return nil
	}
	if r.Patient == nil || r.Patient.Kind != KindPatient {
		return ErrMustActAsPatient
	}

	day, err := parseDate(r.Date)
	if err != nil {
		return err
	}
	if day.Before(today()) {
		return ErrPastDate
	}

	n, err := db.VaccineCount(r.Vaccine)
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrUnknownVaccine
	}

	n, err = db.AvailabilityCount(r.Date)
	if err != nil {
		return err
	}
	if n < 1 {
		return ErrNoCaregiverAvailable
	}

	r.state = stateValidated
	return nil
}

// Commit books the appointment: the store picks one availability row
// for the date uniformly at random and inserts the appointment.
// Calling Commit before a successful Validate is programmer error and
// yields ErrNotValidated.
func (r *AppointmentRequest) Commit(db *Database) (*Appointment, error) {
	if r.state != stateValidated {
		return nil, ErrNotValidated
	}
	appt, err := db.CreateAppointment(r.Patient.Username, r.Date, r.Vaccine)
	if err != nil {
		return nil, err
	}
	r.ID = appt.ID
	r.state = stateCommitted
	return appt, nil
}

// parseDate accepts exactly three hyphen-separated integer components
// forming a real calendar date and returns it at midnight local time.
func parseDate(s string) (time.Time, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return time.Time{}, ErrInvalidDate
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, ErrInvalidDate
		}
		nums[i] = n
	}

	year, month, day := nums[0], nums[1], nums[2]
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	// time.Date normalizes out-of-range components, so 2030-13-45
	// silently rolls over; reject anything that did not round-trip.
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// today returns the current date at midnight local time. Same-day
// appointments are allowed; only strictly earlier dates are rejected.
func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
}
