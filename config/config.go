package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Reporting struct {
	Sentry *Sentry `yaml:"sentry"`
}

type Sentry struct {
	DSN string `yaml:"dsn"`
}

type Metrics struct {
	Namespace string   `yaml:"namespace"`
	Tags      []string `yaml:"tags"`
}

// Settings configures the integration-test harnesses, one backend section per supported source.
type Settings struct {
	PostgreSQL *PostgreSQL `yaml:"postgresql"`
	MySQL      *MySQL      `yaml:"mysql"`
	MongoDB    *MongoDB    `yaml:"mongodb"`
	Reporting  *Reporting  `yaml:"reporting"`
	Metrics    *Metrics    `yaml:"metrics"`
}

func (s *Settings) Validate() error {
	if s == nil {
		return fmt.Errorf("config is nil")
	}

	if s.PostgreSQL == nil && s.MySQL == nil && s.MongoDB == nil {
		return fmt.Errorf("no backend configured")
	}

	if s.PostgreSQL != nil {
		if err := s.PostgreSQL.Validate(); err != nil {
			return fmt.Errorf("postgresql validation failed: %w", err)
		}
	}

	if s.MySQL != nil {
		if err := s.MySQL.Validate(); err != nil {
			return fmt.Errorf("mysql validation failed: %w", err)
		}
	}

	if s.MongoDB != nil {
		if err := s.MongoDB.Validate(); err != nil {
			return fmt.Errorf("mongodb validation failed: %w", err)
		}
	}

	return nil
}

func ReadConfig(fp string) (*Settings, error) {
	bytes, err := os.ReadFile(fp)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var settings Settings
	if err = yaml.Unmarshal(bytes, &settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
	}

	if err = settings.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config file: %w", err)
	}

	return &settings, nil
}
