package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"vaccine-scheduler/scheduler"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func main() {
	var cfgPath, dbPath string

	root := &cobra.Command{
		Use:           "vaccine-scheduler",
		Short:         "Interactive vaccine appointment scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfgPath, dbPath)
		},
	}
	root.Flags().StringVar(&cfgPath, "config", "config.yml", "path to the YAML config file")
	root.Flags().StringVar(&dbPath, "db", "", "database file (overrides config)")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath, dbPath string) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := scheduler.LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	mgr, err := scheduler.NewManager(cfg, logger)
	if err != nil {
		logger.Fatal("Error opening the scheduler store", zap.Error(err))
	}
	defer mgr.Close()

	r := &repl{mgr: mgr, session: &scheduler.Session{}, log: logger}
	r.run()
	return nil
}

// repl dispatches one line-oriented command at a time against the
// manager. The session object replaces the original's process globals.
type repl struct {
	mgr     *scheduler.Manager
	session *scheduler.Session
	log     *zap.Logger
}

func (r *repl) run() {
	fmt.Println("Welcome to the Vaccine Reservation Scheduling Application!")
	printMenu()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tokens := strings.Fields(line)
		tokens[0] = strings.ToLower(tokens[0])

		switch tokens[0] {
		case "create_patient":
			r.handleCreate(scheduler.KindPatient, tokens)
		case "create_caregiver":
			r.handleCreate(scheduler.KindCaregiver, tokens)
		case "login_patient":
			r.handleLogin(scheduler.KindPatient, tokens)
		case "login_caregiver":
			r.handleLogin(scheduler.KindCaregiver, tokens)
		case "search_caregiver_schedule":
			r.handleSchedule(tokens)
		case "reserve":
			r.handleReserve(tokens)
		case "upload_availability":
			r.handleUploadAvailability(tokens)
		case "add_doses":
			r.handleAddDoses(tokens)
		case "show_appointments":
			r.handleShowAppointments()
		case "logout":
			r.handleLogout()
		case "quit":
			fmt.Println("Thank you for using the scheduler, goodbye!")
			return
		default:
			fmt.Println("Unknown command.")
			printMenu()
		}
	}
}

func printMenu() {
	fmt.Println(" *** Please enter one of the following commands *** ")
	fmt.Println("> create_patient <username> <password>")
	fmt.Println("> create_caregiver <username> <password>")
	fmt.Println("> login_patient <username> <password>")
	fmt.Println("> login_caregiver <username> <password>")
	fmt.Println("> search_caregiver_schedule <date>")
	fmt.Println("> reserve <vaccine> <date>")
	fmt.Println("> upload_availability <date>")
	fmt.Println("> add_doses <vaccine> <number>")
	fmt.Println("> show_appointments")
	fmt.Println("> logout")
	fmt.Println("> quit")
}

// report prints domain errors and terminates on store failures:
// continuing against an unreliable store risks inconsistent state.
func (r *repl) report(err error) {
	if errors.Is(err, scheduler.ErrStore) {
		r.log.Fatal("store failure, terminating", zap.Error(err))
	}
	fmt.Printf("Error: %v\n", err)
}

// readPassword securely reads a password with masking.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}

// passwordArg returns the password from the third token, or prompts
// with masking when it was omitted.
func passwordArg(tokens []string, username string) (string, error) {
	if len(tokens) == 3 {
		return tokens[2], nil
	}
	return readPassword(fmt.Sprintf("Enter password for %s: ", username))
}

func (r *repl) handleCreate(kind scheduler.AccountKind, tokens []string) {
	if r.session.Active() {
		fmt.Println("Please logout first.")
		return
	}
	if len(tokens) != 2 && len(tokens) != 3 {
		fmt.Printf("Usage: create_%s <username> <password>\n", kind)
		return
	}
	username := tokens[1]
	password, err := passwordArg(tokens, username)
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}

	if err := r.mgr.Register(kind, username, password); err != nil {
		r.report(err)
		return
	}
	fmt.Printf(" *** %s account created successfully *** \n", kind)
}

func (r *repl) handleLogin(kind scheduler.AccountKind, tokens []string) {
	if r.session.Active() {
		fmt.Printf("Can't login because %s is currently logged in. Please logout first.\n",
			r.session.Current().Username)
		return
	}
	if len(tokens) != 2 && len(tokens) != 3 {
		fmt.Printf("Usage: login_%s <username> <password>\n", kind)
		return
	}
	username := tokens[1]
	password, err := passwordArg(tokens, username)
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}

	acct, err := r.mgr.Authenticate(kind, username, password)
	if err != nil {
		// Report unknown users and wrong passwords identically.
		if errors.Is(err, scheduler.ErrNotFound) || errors.Is(err, scheduler.ErrWrongPassword) {
			fmt.Println("Error: incorrect username or password")
			return
		}
		r.report(err)
		return
	}
	if err := r.session.Login(acct); err != nil {
		r.report(err)
		return
	}
	fmt.Printf("Logged in as %s: %s\n", kind, username)
}

func (r *repl) handleSchedule(tokens []string) {
	if !r.session.Active() {
		fmt.Println("Please login first to retrieve schedule info.")
		return
	}
	if len(tokens) != 2 {
		fmt.Println("Usage: search_caregiver_schedule <date>")
		return
	}

	caregivers, vaccines, err := r.mgr.Schedule(tokens[1])
	if err != nil {
		r.report(err)
		return
	}

	fmt.Println("------------------------------------------")
	fmt.Printf("Caregivers available for date %s:\n", tokens[1])
	if len(caregivers) == 0 {
		fmt.Println("(none)")
	}
	for _, name := range caregivers {
		fmt.Printf("- %s\n", name)
	}
	fmt.Println("------------------------------------------")
	fmt.Printf("%-20s %s\n", "Vaccine", "Doses")
	for _, v := range vaccines {
		fmt.Printf("%-20s %d\n", v.Name, v.Doses)
	}
}

func (r *repl) handleReserve(tokens []string) {
	patient := r.session.Patient()
	if patient == nil {
		fmt.Println("Please login as a patient first.")
		return
	}
	if len(tokens) != 3 {
		fmt.Println("Usage: reserve <vaccine> <date>")
		return
	}

	appt, err := r.mgr.Reserve(patient, tokens[1], tokens[2])
	if err != nil {
		r.report(err)
		return
	}
	fmt.Println(" ***** Appointment added ***** ")
	fmt.Printf("Appointment ID %d with caregiver %s on %s for %s\n",
		appt.ID, appt.Caregiver, appt.Date, appt.Vaccine)
}

func (r *repl) handleUploadAvailability(tokens []string) {
	caregiver := r.session.Caregiver()
	if caregiver == nil {
		fmt.Println("Please login as a caregiver first.")
		return
	}
	if len(tokens) != 2 {
		fmt.Println("Usage: upload_availability <date>")
		return
	}

	if err := r.mgr.UploadAvailability(caregiver, tokens[1]); err != nil {
		r.report(err)
		return
	}
	fmt.Println("Availability uploaded!")
}

func (r *repl) handleAddDoses(tokens []string) {
	if r.session.Caregiver() == nil {
		fmt.Println("Please login as a caregiver first.")
		return
	}
	if len(tokens) != 3 {
		fmt.Println("Usage: add_doses <vaccine> <number>")
		return
	}
	count, err := strconv.ParseInt(tokens[2], 10, 64)
	if err != nil {
		fmt.Printf("Invalid dose count: %s\n", tokens[2])
		return
	}

	if err := r.mgr.AddDoses(tokens[1], count); err != nil {
		r.report(err)
		return
	}
	fmt.Println("Doses updated!")
}

func (r *repl) handleShowAppointments() {
	current := r.session.Current()
	if current == nil {
		fmt.Println("Please login as a caregiver or a patient first.")
		return
	}

	var (
		appts []*scheduler.Appointment
		err   error
	)
	if current.Kind == scheduler.KindPatient {
		appts, err = r.mgr.AppointmentsForPatient(current.Username)
	} else {
		appts, err = r.mgr.AppointmentsForCaregiver(current.Username)
	}
	if err != nil {
		r.report(err)
		return
	}

	if len(appts) == 0 {
		fmt.Println("No appointments scheduled.")
		return
	}

	if current.Kind == scheduler.KindPatient {
		fmt.Printf("%-5s %-20s %-12s %s\n", "ID", "Caregiver", "Date", "Vaccine")
		for _, a := range appts {
			fmt.Printf("%-5d %-20s %-12s %s\n", a.ID, a.Caregiver, a.Date, a.Vaccine)
		}
		return
	}
	fmt.Printf("%-5s %-20s %-12s %s\n", "ID", "Patient", "Date", "Vaccine")
	for _, a := range appts {
		fmt.Printf("%-5d %-20s %-12s %s\n", a.ID, a.Patient, a.Date, a.Vaccine)
	}
}

func (r *repl) handleLogout() {
	if r.session.Logout() {
		fmt.Println("Logged out.")
	} else {
		fmt.Println("No account is currently logged in, logout does nothing.")
	}
}
