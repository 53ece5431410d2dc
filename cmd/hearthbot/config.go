package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// duration accepts "90s" / "4m" style values in the settings file.
type duration time.Duration

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}

	*d = duration(parsed)
	return nil
}

// Settings is the bot's YAML settings file.
type Settings struct {
	Server   string   `yaml:"server"`
	Port     int      `yaml:"port"`
	Password string   `yaml:"password"`
	Nick     string   `yaml:"nick"`
	User     string   `yaml:"user"`
	RealName string   `yaml:"realname"`
	Channels []string `yaml:"channels"`

	Timeout        duration `yaml:"timeout"`
	ReconnectDelay duration `yaml:"reconnect_delay"`

	Trigger   string `yaml:"trigger"`
	CardsPath string `yaml:"cards"`
}

// LoadSettings reads and validates a settings file.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	settings := &Settings{
		Port:           6667,
		User:           "hearthbot",
		Trigger:        "!card",
		ReconnectDelay: duration(30 * time.Second),
	}
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if settings.Server == "" {
		return nil, errors.New("settings: server is required")
	}
	if settings.Nick == "" {
		return nil, errors.New("settings: nick is required")
	}
	if settings.RealName == "" {
		settings.RealName = settings.Nick
	}

	return settings, nil
}
