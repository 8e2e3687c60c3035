package main

import (
	"fmt"
	"os"

	"vaccine-scheduler/scheduler"

	"go.uber.org/zap"
)

// Seeds the pre-authorized vaccine types into a fresh inventory so the
// scheduler starts with known names. Doses are topped up separately by
// caregivers with add_doses.
func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := scheduler.LoadConfig("config.yml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	mgr, err := scheduler.NewManager(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer mgr.Close()

	seed := map[string]int64{
		"Pfizer":  0,
		"Moderna": 0,
		"Janssen": 0,
	}

	for name, doses := range seed {
		fmt.Printf("Seeding vaccine %s... ", name)
		if err := mgr.AddDoses(name, doses); err != nil {
			fmt.Printf("ERROR - %v\n", err)
			continue
		}
		fmt.Println("OK")
	}

	_, vaccines, err := mgr.Schedule("2099-01-01")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing inventory: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nCurrent inventory:")
	fmt.Printf("%-20s %s\n", "Vaccine", "Doses")
	for _, v := range vaccines {
		fmt.Printf("%-20s %d\n", v.Name, v.Doses)
	}
}
