// Package config loads the application configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// StatusChoice is one selectable machine status. Its item IDs are allocated
// from [IDLo, IDHi] so a status keeps a recognizable ID band across stores.
type StatusChoice struct {
	Name string `yaml:"name"`
	IDLo int    `yaml:"id_lo"`
	IDHi int    `yaml:"id_hi"`
}

// Matching tunes the template matcher.
type Matching struct {
	Threshold float64 `yaml:"threshold" env:"HMI_MATCH_THRESHOLD" env-default:"0.9"`
	Workers   int     `yaml:"workers" env:"HMI_MATCH_WORKERS" env-default:"4"`
}

// Config is the full application configuration.
type Config struct {
	// StorePath is the JSON template document the tool edits.
	StorePath string `yaml:"store_path" env:"HMI_STORE_PATH" env-default:"templates.json"`

	Matching Matching `yaml:"matching"`

	// Statuses enumerates the machine statuses conditions may resolve to.
	Statuses []StatusChoice `yaml:"statuses"`

	// WatchInterval is how often the store file is polled for external
	// changes, in seconds. Zero disables the watcher.
	WatchInterval int `yaml:"watch_interval" env:"HMI_WATCH_INTERVAL" env-default:"2"`
}

// DefaultStatuses are used when the config file lists none.
var DefaultStatuses = []StatusChoice{
	{Name: "RUNNING", IDLo: 100, IDHi: 199},
	{Name: "STOPPED", IDLo: 200, IDHi: 299},
	{Name: "ALARM", IDLo: 300, IDHi: 399},
	{Name: "SETUP", IDLo: 400, IDHi: 499},
}

// Load reads the configuration at path. A missing file yields defaults from
// tags and DefaultStatuses; a present but malformed file is an error.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err != nil {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("reading config environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if len(cfg.Statuses) == 0 {
		cfg.Statuses = DefaultStatuses
	}
	return &cfg, nil
}

// StatusNames returns the configured status names in order.
func (c *Config) StatusNames() []string {
	names := make([]string, len(c.Statuses))
	for i, s := range c.Statuses {
		names[i] = s.Name
	}
	return names
}
