package scheduler

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultDBPath = "scheduler.db"

// Config holds the runtime settings for the scheduler CLI.
type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Passwords struct {
		// EnforceCaregiverStrength applies the password-strength rules
		// to caregiver accounts as well as patients. Left unset it
		// defaults to true.
		EnforceCaregiverStrength *bool `yaml:"enforce_caregiver_strength"`
	} `yaml:"passwords"`
}

// LoadConfig reads the YAML file at path and applies environment
// overrides. A missing config file is not an error; defaults apply.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode config file: %w", err)
		}
	case os.IsNotExist(err):
		// Fall through to defaults.
	default:
		return nil, fmt.Errorf("open config file: %w", err)
	}

	if v := os.Getenv("SCHEDULER_DB"); v != "" {
		cfg.Database.Path = v
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = defaultDBPath
	}
	return cfg, nil
}

// CaregiverStrengthEnforced reports whether caregiver passwords go
// through the same strength rules as patient passwords.
func (c *Config) CaregiverStrengthEnforced() bool {
	if c.Passwords.EnforceCaregiverStrength == nil {
		return true
	}
	return *c.Passwords.EnforceCaregiverStrength
}
