// Package config loads and validates the engine's yaml configuration.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port            int    `yaml:"port"`
		DataDir         string `yaml:"data_dir"`
		RetentionMonths int    `yaml:"retention_months"`
	} `yaml:"app"`

	Email struct {
		Enabled     bool   `yaml:"enabled"`
		IMAPHost    string `yaml:"imap_host"`
		IMAPPort    int    `yaml:"imap_port"`
		Username    string `yaml:"username"`
		Mailbox     string `yaml:"mailbox"`
		SinceDays   int    `yaml:"since_days"`
		MaxMessages int    `yaml:"max_messages"`
	} `yaml:"email"`

	Dedupe struct {
		// tolerance around sent_at when matching cold emails, seconds
		EmailWindowSeconds int `yaml:"email_window_seconds"`
	} `yaml:"dedupe"`

	Polling struct {
		EmailSeconds int `yaml:"email_seconds"`
	} `yaml:"polling"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// EmailWindow returns the dedup window as a duration, defaulting to 60s.
func (c Config) EmailWindow() time.Duration {
	if c.Dedupe.EmailWindowSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Dedupe.EmailWindowSeconds) * time.Second
}
