package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectConfig holds project-level settings loaded from rfpaudit.yml.
// Command-line flags override any value set here.
type ProjectConfig struct {
	RulesPath       string `yaml:"rulesPath,omitempty"`
	HistoryDB       string `yaml:"historyDB,omitempty"`
	Parallel        bool   `yaml:"parallel,omitempty"`
	StageTimeout    string `yaml:"stageTimeout,omitempty"`
	StrictConflicts bool   `yaml:"strictConflicts,omitempty"`
	Verbose         bool   `yaml:"verbose,omitempty"`
}

// StageTimeoutDuration parses the configured stage timeout. An empty or
// invalid value means no timeout.
func (c *ProjectConfig) StageTimeoutDuration() time.Duration {
	if c.StageTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.StageTimeout)
	if err != nil {
		return 0
	}
	return d
}

// Load attempts to read rfpaudit.yml or rfpaudit.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"rfpaudit.yml", "rfpaudit.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}
