// Copyright 2024-2026 Aiku AI

package botkit

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode"

	"go.mau.fi/zeroconfig"
	"gopkg.in/yaml.v3"
)

//go:embed example-config.yaml
var ExampleConfig string

// ErrConfigCreated is returned by LoadConfig when no config file existed
// and a template was written in its place. The caller should tell the
// operator to fill it out and exit instead of running with defaults.
var ErrConfigCreated = errors.New("config file created, edit it and restart")

// Config is the full bot configuration.
type Config struct {
	Matrix  MatrixConfig      `yaml:"matrix"`
	Logging zeroconfig.Config `yaml:"logging"`
}

// MatrixConfig holds the homeserver connection and bot identity settings.
type MatrixConfig struct {
	Homeserver   string `yaml:"homeserver"`
	UserID       string `yaml:"user_id"`
	UserPassword string `yaml:"user_password"`
	DeviceID     string `yaml:"device_id"`
	DeviceName   string `yaml:"device_name"`
	// CommandPrefix is the token that must lead a non-direct-room message
	// for it to be treated as a command. A single token, no whitespace.
	CommandPrefix  string `yaml:"command_prefix"`
	DisplayName    string `yaml:"display_name"`
	BotDescription string `yaml:"bot_description"`
}

// LoadConfig reads and validates the config file at path. If the file
// does not exist, the embedded template is written there and
// ErrConfigCreated is returned.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if writeErr := os.WriteFile(path, []byte(ExampleConfig), 0o600); writeErr != nil {
			return nil, fmt.Errorf("write config template to %q: %w", path, writeErr)
		}
		return nil, fmt.Errorf("%q: %w", path, ErrConfigCreated)
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err = cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	m := &c.Matrix
	required := []struct {
		name, value string
	}{
		{"matrix.homeserver", m.Homeserver},
		{"matrix.user_id", m.UserID},
		{"matrix.user_password", m.UserPassword},
		{"matrix.device_name", m.DeviceName},
		{"matrix.command_prefix", m.CommandPrefix},
	}
	for _, field := range required {
		if field.value == "" {
			return fmt.Errorf("%s is required", field.name)
		}
	}
	if strings.ContainsFunc(m.CommandPrefix, unicode.IsSpace) {
		return fmt.Errorf("matrix.command_prefix %q must be a single token", m.CommandPrefix)
	}
	return nil
}
