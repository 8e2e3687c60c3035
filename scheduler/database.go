package scheduler

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Database provides high-level helpers around a SQLite connection.
// Every failure it returns wraps ErrStore; the command layer treats
// those as fatal rather than retrying against an unreliable store.
type Database struct {
	db  *sql.DB
	log *zap.Logger

	addAvailabilityStmt *sql.Stmt
	addAppointmentStmt  *sql.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies
// schema migrations, and prepares common statements.
func NewDatabase(dbPath string, log *zap.Logger) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storeErr("create db dir", err)
		}
	}

	// Enable busy_timeout and foreign keys.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, storeErr("open sqlite", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db, log: log}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("scheduler store ready", zap.String("path", dbPath))
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.addAvailabilityStmt != nil {
		d.addAvailabilityStmt.Close()
	}
	if d.addAppointmentStmt != nil {
		d.addAppointmentStmt.Close()
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return storeErr("enable WAL", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return storeErr("create meta table", err)
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return storeErr("begin migration", err)
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS patients (
            username TEXT PRIMARY KEY,
            salt BLOB NOT NULL,
            hash BLOB NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS caregivers (
            username TEXT PRIMARY KEY,
            salt BLOB NOT NULL,
            hash BLOB NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS vaccines (
            name TEXT PRIMARY KEY,
            doses INTEGER NOT NULL CHECK (doses >= 0)
        );`,
		// Deliberately no primary key: a caregiver may upload the same
		// date more than once, and each row stays independently
		// eligible for the random assignment.
		`CREATE TABLE IF NOT EXISTS availabilities (
            date TEXT NOT NULL,
            username TEXT NOT NULL REFERENCES caregivers(username)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_availabilities_date ON availabilities(date);`,
		`CREATE TABLE IF NOT EXISTS appointments (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            patient_username TEXT NOT NULL REFERENCES patients(username),
            caregiver_username TEXT NOT NULL REFERENCES caregivers(username),
            date TEXT NOT NULL,
            vaccine_name TEXT NOT NULL REFERENCES vaccines(name)
        );`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return storeErr("apply migration", err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return storeErr("record schema version", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.addAvailabilityStmt, err = d.db.Prepare(`INSERT INTO availabilities(date,username) VALUES(?,?)`); err != nil {
		return storeErr("prepare availability insert", err)
	}
	if d.addAppointmentStmt, err = d.db.Prepare(`INSERT INTO appointments(patient_username,caregiver_username,date,vaccine_name) VALUES(?,?,?,?)`); err != nil {
		return storeErr("prepare appointment insert", err)
	}
	return nil
}

func accountTable(kind AccountKind) string {
	if kind == KindCaregiver {
		return "caregivers"
	}
	return "patients"
}

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

// AccountExists reports whether a username is taken in the given
// namespace. Absence of rows is a normal result, not an error.
func (d *Database) AccountExists(kind AccountKind, username string) (bool, error) {
	var exists bool
	q := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE username=?)`, accountTable(kind))
	if err := d.db.QueryRow(q, username).Scan(&exists); err != nil {
		return false, storeErr("account existence check", err)
	}
	return exists, nil
}

// InsertAccount persists a new account row. The salt and hash must
// already be set.
func (d *Database) InsertAccount(a *Account) error {
	q := fmt.Sprintf(`INSERT INTO %s(username,salt,hash) VALUES(?,?,?)`, accountTable(a.Kind))
	if _, err := d.db.Exec(q, a.Username, a.Salt, a.Hash); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrAlreadyExists
		}
		return storeErr("insert account", err)
	}
	d.log.Info("account created",
		zap.String("kind", a.Kind.String()),
		zap.String("username", a.Username))
	return nil
}

// Credentials fetches the stored salt and hash for a username.
func (d *Database) Credentials(kind AccountKind, username string) (*Account, error) {
	a := &Account{Kind: kind, Username: username}
	q := fmt.Sprintf(`SELECT salt,hash FROM %s WHERE username=?`, accountTable(kind))
	err := d.db.QueryRow(q, username).Scan(&a.Salt, &a.Hash)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("fetch credentials", err)
	}
	return a, nil
}

// ---------------------------------------------------------------------------
// Availability & dose ledger
// ---------------------------------------------------------------------------

// RecordAvailability appends an availability row. Repeated uploads for
// the same (caregiver,date) accumulate; idempotence is not guaranteed.
func (d *Database) RecordAvailability(caregiver, date string) error {
	if _, err := d.addAvailabilityStmt.Exec(date, caregiver); err != nil {
		return storeErr("record availability", err)
	}
	return nil
}

// AvailableCaregivers returns the usernames of every availability row
// matching the exact date string, duplicates included.
func (d *Database) AvailableCaregivers(date string) ([]string, error) {
	rows, err := d.db.Query(`SELECT username FROM availabilities WHERE date=?`, date)
	if err != nil {
		return nil, storeErr("list available caregivers", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storeErr("scan caregiver row", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate caregiver rows", err)
	}
	return names, nil
}

// AvailabilityCount counts availability rows for a date.
func (d *Database) AvailabilityCount(date string) (int, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM availabilities WHERE date=?`, date).Scan(&n); err != nil {
		return 0, storeErr("count availabilities", err)
	}
	return n, nil
}

// VaccineCount counts inventory rows matching a name. With the primary
// key this is zero or one; the reservation protocol insists on exactly
// one.
func (d *Database) VaccineCount(name string) (int, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM vaccines WHERE name=?`, name).Scan(&n); err != nil {
		return 0, storeErr("count vaccines", err)
	}
	return n, nil
}

// GetVaccine fetches one inventory row. Absence is a normal result and
// returns (nil, nil).
func (d *Database) GetVaccine(name string) (*Vaccine, error) {
	var v Vaccine
	err := d.db.QueryRow(`SELECT name,doses FROM vaccines WHERE name=?`, name).Scan(&v.Name, &v.Doses)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("fetch vaccine", err)
	}
	return &v, nil
}

// ListVaccines returns the whole dose inventory.
func (d *Database) ListVaccines() ([]*Vaccine, error) {
	rows, err := d.db.Query(`SELECT name,doses FROM vaccines ORDER BY name`)
	if err != nil {
		return nil, storeErr("list vaccines", err)
	}
	defer rows.Close()

	var vaccines []*Vaccine
	for rows.Next() {
		var v Vaccine
		if err := rows.Scan(&v.Name, &v.Doses); err != nil {
			return nil, storeErr("scan vaccine row", err)
		}
		vaccines = append(vaccines, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate vaccine rows", err)
	}
	return vaccines, nil
}

// AddDoses creates the vaccine with delta doses, or increments an
// existing entry by delta.
func (d *Database) AddDoses(name string, delta int64) error {
	if delta < 0 {
		return ErrNegativeDoses
	}
	_, err := d.db.Exec(`INSERT INTO vaccines(name,doses) VALUES(?,?)
        ON CONFLICT(name) DO UPDATE SET doses = doses + excluded.doses`, name, delta)
	if err != nil {
		return storeErr("add doses", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Appointments
// ---------------------------------------------------------------------------

// CreateAppointment picks one availability row for the date uniformly
// at random, assigns that caregiver, and inserts the appointment, all
// in one transaction. A caregiver with duplicate availability rows has
// proportionally higher selection probability. The booked caregiver's
// availability row is not removed and no dose is decremented.
func (d *Database) CreateAppointment(patient, date, vaccine string) (*Appointment, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return nil, storeErr("begin appointment", err)
	}
	defer tx.Rollback()

	var caregiver string
	err = tx.QueryRow(`SELECT username FROM availabilities WHERE date=? ORDER BY RANDOM() LIMIT 1`, date).
		Scan(&caregiver)
	if err == sql.ErrNoRows {
		return nil, ErrNoCaregiverAvailable
	}
	if err != nil {
		return nil, storeErr("pick caregiver", err)
	}

	res, err := tx.Stmt(d.addAppointmentStmt).Exec(patient, caregiver, date, vaccine)
	if err != nil {
		return nil, storeErr("insert appointment", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storeErr("appointment id", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storeErr("commit appointment", err)
	}

	d.log.Info("appointment booked",
		zap.Int64("id", id),
		zap.String("patient", patient),
		zap.String("caregiver", caregiver),
		zap.String("date", date),
		zap.String("vaccine", vaccine))
	return &Appointment{ID: id, Patient: patient, Caregiver: caregiver, Date: date, Vaccine: vaccine}, nil
}

// AppointmentsForPatient returns a patient's appointments ordered by id.
func (d *Database) AppointmentsForPatient(username string) ([]*Appointment, error) {
	return d.appointments(`SELECT id,patient_username,caregiver_username,date,vaccine_name
        FROM appointments WHERE patient_username=? ORDER BY id`, username)
}

// AppointmentsForCaregiver returns a caregiver's appointments ordered by id.
func (d *Database) AppointmentsForCaregiver(username string) ([]*Appointment, error) {
	return d.appointments(`SELECT id,patient_username,caregiver_username,date,vaccine_name
        FROM appointments WHERE caregiver_username=? ORDER BY id`, username)
}

func (d *Database) appointments(query, username string) ([]*Appointment, error) {
	rows, err := d.db.Query(query, username)
	if err != nil {
		return nil, storeErr("list appointments", err)
	}
	defer rows.Close()

	var appts []*Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.Patient, &a.Caregiver, &a.Date, &a.Vaccine); err != nil {
			return nil, storeErr("scan appointment row", err)
		}
		appts = append(appts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate appointment rows", err)
	}
	return appts, nil
}
