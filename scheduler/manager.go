package scheduler

import (
	"go.uber.org/zap"
)

// Manager is a thin façade over the Database, keeping CLI code simple.
// Account operations live in accounts.go.
type Manager struct {
	db  *Database
	cfg *Config
}

// NewManager opens (or creates) the scheduler store described by cfg.
func NewManager(cfg *Config, log *zap.Logger) (*Manager, error) {
	db, err := NewDatabase(cfg.Database.Path, log)
	if err != nil {
		return nil, err
	}
	return &Manager{db: db, cfg: cfg}, nil
}

// Close closes the underlying database.
func (m *Manager) Close() error { return m.db.Close() }

// ------------------ Availability & doses ------------------

// UploadAvailability records that a caregiver is bookable on a date.
// The date must be well-formed; duplicates accumulate.
func (m *Manager) UploadAvailability(caregiver *Account, date string) error {
	if _, err := parseDate(date); err != nil {
		return err
	}
	return m.db.RecordAvailability(caregiver.Username, date)
}

// AddDoses creates or tops up a vaccine's inventory.
func (m *Manager) AddDoses(name string, delta int64) error {
	return m.db.AddDoses(name, delta)
}

// Schedule returns the caregivers open on a date along with the full
// dose inventory, for the search_caregiver_schedule command.
func (m *Manager) Schedule(date string) ([]string, []*Vaccine, error) {
	if _, err := parseDate(date); err != nil {
		return nil, nil, err
	}
	caregivers, err := m.db.AvailableCaregivers(date)
	if err != nil {
		return nil, nil, err
	}
	vaccines, err := m.db.ListVaccines()
	if err != nil {
		return nil, nil, err
	}
	return caregivers, vaccines, nil
}

// GetVaccine fetches one inventory entry; absence returns (nil, nil).
func (m *Manager) GetVaccine(name string) (*Vaccine, error) {
	return m.db.GetVaccine(name)
}

// ------------------ Reservation ------------------

// Reserve validates and commits an appointment request for the patient.
// Validation and commit stay separate store round-trips, as two
// processes racing between them are not coordinated.
func (m *Manager) Reserve(patient *Account, vaccine, date string) (*Appointment, error) {
	req := NewAppointmentRequest(vaccine, date, patient)
	if err := req.Validate(m.db); err != nil {
		return nil, err
	}
	return req.Commit(m.db)
}

// AppointmentsForPatient lists a patient's booked appointments.
func (m *Manager) AppointmentsForPatient(username string) ([]*Appointment, error) {
	return m.db.AppointmentsForPatient(username)
}

// AppointmentsForCaregiver lists the appointments assigned to a caregiver.
func (m *Manager) AppointmentsForCaregiver(username string) ([]*Appointment, error) {
	return m.db.AppointmentsForCaregiver(username)
}
