package scheduler

// AccountKind selects which identity namespace an operation targets.
// Patients and caregivers share the same credential shape but live in
// disjoint tables.
type AccountKind int

const (
	KindPatient AccountKind = iota
	KindCaregiver
)

func (k AccountKind) String() string {
	if k == KindCaregiver {
		return "caregiver"
	}
	return "patient"
}

// Account is an in-memory view of a stored patient or caregiver row.
// The password itself is never stored; only the salt and the derived
// key survive registration.
type Account struct {
	Kind     AccountKind
	Username string
	Salt     []byte
	Hash     []byte
}

// Vaccine tracks the dose inventory for one vaccine name.
type Vaccine struct {
	Name  string
	Doses int64
}

// Availability is a caregiver's declaration of being bookable on a
// specific date. Duplicate rows for the same pair are permitted.
type Availability struct {
	Date     string
	Username string
}

// Appointment binds a patient, an assigned caregiver, a date, and a
// vaccine. The store assigns the identifier on insert.
type Appointment struct {
	ID        int64
	Patient   string
	Caregiver string
	Date      string
	Vaccine   string
}
