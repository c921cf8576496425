package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load builds the effective configuration: defaults, then the config
// file when one exists, then environment variables. A .env file in the
// working directory is folded into the environment first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if err := loadFile(GlobalConfigPath(), cfg); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	applyEnv(cfg)
	resolvePaths(cfg)

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(cfg)
}

// applyEnv folds the environment variable surface over the config.
func applyEnv(cfg *Config) {
	setIfPresent := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setIfPresent("ORG_DIR", &cfg.OrgDir)
	setIfPresent("TASKS_FILE", &cfg.TasksFile)
	setIfPresent("JOURNAL_DIR", &cfg.JournalDir)
	setIfPresent("ACTIVE_SECTION", &cfg.Sections.Active)
	setIfPresent("COMPLETED_SECTION", &cfg.Sections.Completed)
	setIfPresent("HIGH_LEVEL_SECTION", &cfg.Sections.HighLevel)
	setIfPresent("EMACSCLIENT_PATH", &cfg.Approval.ReviewerPath)
	setIfPresent("EDIFF_SUPPORT_FILE", &cfg.Approval.SupportFile)

	if v, ok := os.LookupEnv("EMACS_EDIFF_APPROVAL"); ok {
		cfg.Approval.Enabled = IsTruthy(v)
	}
	if v, ok := os.LookupEnv("EDIFF_TIMEOUT_SECONDS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Approval.TimeoutSeconds = n
		}
	}
}

// resolvePaths fills in the derived path defaults.
func resolvePaths(cfg *Config) {
	if cfg.OrgDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.OrgDir = filepath.Join(home, "org")
	}
	if cfg.TasksFile == "" {
		cfg.TasksFile = filepath.Join(cfg.OrgDir, "tasks.org")
	}
	if cfg.JournalDir == "" {
		cfg.JournalDir = filepath.Join(cfg.OrgDir, "journal")
	}
}

// IsTruthy reports whether a flag value spells "on": true/1/yes, any case.
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// GlobalConfigPath returns the path to the config file
func GlobalConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "org-mcp", "config.yaml")
}
