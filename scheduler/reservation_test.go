package scheduler

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	valid := []string{"2030-01-01", "2030-1-5", "2028-02-29", "1999-12-31"}
	for _, s := range valid {
		_, err := parseDate(s)
		assert.NoError(t, err, s)
	}

	invalid := []string{
		"2030-13-45", // no such month or day
		"2030-02-30", // February has no 30th
		"2030-01",    // two components
		"2030-01-01-01",
		"2030/01/01",
		"not-a-date",
		"2030-ab-01",
		"",
	}
	for _, s := range invalid {
		_, err := parseDate(s)
		assert.ErrorIs(t, err, ErrInvalidDate, s)
	}
}

func patientHandle(username string) *Account {
	return &Account{Kind: KindPatient, Username: username}
}

// seedReservation registers alice, caregiver bob with an open date, and
// a stocked vaccine.
func seedReservation(t *testing.T, mgr *Manager, date string) {
	t.Helper()
	require.NoError(t, mgr.Register(KindPatient, "alice", "Passw0rd!"))
	require.NoError(t, mgr.Register(KindCaregiver, "bob", "Passw0rd!"))
	require.NoError(t, mgr.AddDoses("Pfizer", 10))
	require.NoError(t, mgr.db.RecordAvailability("bob", date))
}

func TestValidateRequiresPatientIdentity(t *testing.T) {
	mgr := newTestManager(t)

	req := NewAppointmentRequest("Pfizer", "2030-01-01", nil)
	assert.ErrorIs(t, req.Validate(mgr.db), ErrMustActAsPatient)

	caregiver := &Account{Kind: KindCaregiver, Username: "bob"}
	req = NewAppointmentRequest("Pfizer", "2030-01-01", caregiver)
	assert.ErrorIs(t, req.Validate(mgr.db), ErrMustActAsPatient)
}

func TestValidatePastDateAlwaysRejected(t *testing.T) {
	mgr := newTestManager(t)
	// No vaccine and no availability exist; the date check still wins.
	req := NewAppointmentRequest("Pfizer", "2000-01-01", patientHandle("alice"))
	assert.ErrorIs(t, req.Validate(mgr.db), ErrPastDate)
}

func TestValidateSameDayAllowed(t *testing.T) {
	mgr := newTestManager(t)
	today := time.Now().Format("2006-01-02")
	seedReservation(t, mgr, today)

	req := NewAppointmentRequest("Pfizer", today, patientHandle("alice"))
	assert.NoError(t, req.Validate(mgr.db))
}

func TestValidateMalformedDate(t *testing.T) {
	mgr := newTestManager(t)
	req := NewAppointmentRequest("Pfizer", "2030-13-45", patientHandle("alice"))
	assert.ErrorIs(t, req.Validate(mgr.db), ErrInvalidDate)
}

func TestValidateUnknownVaccine(t *testing.T) {
	mgr := newTestManager(t)
	seedReservation(t, mgr, "2030-01-01")

	req := NewAppointmentRequest("Unknown", "2030-01-01", patientHandle("alice"))
	assert.ErrorIs(t, req.Validate(mgr.db), ErrUnknownVaccine)
}

func TestValidateNoCaregiverAvailable(t *testing.T) {
	mgr := newTestManager(t)
	seedReservation(t, mgr, "2030-01-01")

	// Vaccine exists but nobody opened up 2030-01-02.
	req := NewAppointmentRequest("Pfizer", "2030-01-02", patientHandle("alice"))
	assert.ErrorIs(t, req.Validate(mgr.db), ErrNoCaregiverAvailable)
}

func TestValidateTrustedHandleShortCircuit(t *testing.T) {
	mgr := newTestManager(t)
	// A request hydrated with a store identifier skips the checks.
	req := &AppointmentRequest{ID: 42}
	assert.NoError(t, req.Validate(mgr.db))
}

func TestCommitWithoutValidate(t *testing.T) {
	mgr := newTestManager(t)
	seedReservation(t, mgr, "2030-01-01")

	req := NewAppointmentRequest("Pfizer", "2030-01-01", patientHandle("alice"))
	_, err := req.Commit(mgr.db)
	assert.ErrorIs(t, err, ErrNotValidated)
}

func TestReserveEndToEnd(t *testing.T) {
	mgr := newTestManager(t)
	seedReservation(t, mgr, "2030-01-01")

	appt, err := mgr.Reserve(patientHandle("alice"), "Pfizer", "2030-01-01")
	require.NoError(t, err)
	assert.Equal(t, "bob", appt.Caregiver)
	assert.Equal(t, "alice", appt.Patient)
	assert.NotZero(t, appt.ID)

	appts, err := mgr.AppointmentsForPatient("alice")
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, "bob", appts[0].Caregiver)
	assert.Equal(t, "2030-01-01", appts[0].Date)
	assert.Equal(t, "Pfizer", appts[0].Vaccine)

	// Booking neither removes the availability row nor decrements the
	// inventory.
	n, err := mgr.db.AvailabilityCount("2030-01-01")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	v, err := mgr.GetVaccine("Pfizer")
	require.NoError(t, err)
	assert.EqualValues(t, 10, v.Doses)
}

func TestCommitPicksFromAvailableCaregivers(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, mgr.Register(KindPatient, "alice", "Passw0rd!"))
	require.NoError(t, mgr.AddDoses("Pfizer", 100))

	available := map[string]bool{}
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("cg%d", i)
		require.NoError(t, mgr.Register(KindCaregiver, name, "Passw0rd!"))
		require.NoError(t, mgr.db.RecordAvailability(name, "2030-01-01"))
		available[name] = true
	}

	for i := 0; i < 20; i++ {
		appt, err := mgr.Reserve(patientHandle("alice"), "Pfizer", "2030-01-01")
		require.NoError(t, err)
		assert.True(t, available[appt.Caregiver], "caregiver %q was never available", appt.Caregiver)
	}
}

func TestCommitDistributionRoughlyUniform(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, mgr.Register(KindPatient, "alice", "Passw0rd!"))
	require.NoError(t, mgr.AddDoses("Pfizer", 1000))

	names := []string{"ann", "bob", "cat"}
	for _, name := range names {
		require.NoError(t, mgr.Register(KindCaregiver, name, "Passw0rd!"))
		require.NoError(t, mgr.db.RecordAvailability(name, "2030-01-01"))
	}

	const rounds = 300
	counts := map[string]int{}
	for i := 0; i < rounds; i++ {
		appt, err := mgr.Reserve(patientHandle("alice"), "Pfizer", "2030-01-01")
		require.NoError(t, err)
		counts[appt.Caregiver]++
	}

	// Expected 100 each; the bounds are loose enough that a false
	// failure is overwhelmingly unlikely.
	for _, name := range names {
		assert.Greater(t, counts[name], 50, "caregiver %s undersampled: %v", name, counts)
		assert.Less(t, counts[name], 170, "caregiver %s oversampled: %v", name, counts)
	}
}

func TestCommitWeightedByDuplicateRows(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, mgr.Register(KindPatient, "alice", "Passw0rd!"))
	require.NoError(t, mgr.AddDoses("Pfizer", 1000))
	require.NoError(t, mgr.Register(KindCaregiver, "ann", "Passw0rd!"))
	require.NoError(t, mgr.Register(KindCaregiver, "bob", "Passw0rd!"))

	// bob uploaded the date three times, ann once: bob carries three
	// of the four rows and should win about 75% of assignments.
	require.NoError(t, mgr.db.RecordAvailability("ann", "2030-01-01"))
	for i := 0; i < 3; i++ {
		require.NoError(t, mgr.db.RecordAvailability("bob", "2030-01-01"))
	}

	const rounds = 200
	counts := map[string]int{}
	for i := 0; i < rounds; i++ {
		appt, err := mgr.Reserve(patientHandle("alice"), "Pfizer", "2030-01-01")
		require.NoError(t, err)
		counts[appt.Caregiver]++
	}

	assert.Greater(t, counts["bob"], counts["ann"], "duplicate rows must weight the pick: %v", counts)
	assert.Greater(t, counts["bob"], 110, "bob holds 3 of 4 rows: %v", counts)
}
