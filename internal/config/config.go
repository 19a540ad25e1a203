package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultLogLevel   = "info"
	DefaultBackupSpec = "0 30 3 * * *" // 03:30 every night, seconds field first
	DefaultBackupKeep = 14
)

type Config struct {
	Telegram TelegramConfig    `json:"telegram"`
	Data     DataConfig        `json:"data"`
	Log      LogConfig         `json:"log"`
	Backup   BackupConfig      `json:"backup"`
	Sources  map[string]string `json:"sources"` // source key -> display label
}

type TelegramConfig struct {
	Token     string  `json:"token"`
	AllowFrom []int64 `json:"allowFrom"`
	Proxy     string  `json:"proxy,omitempty"`
}

type DataConfig struct {
	Dir string `json:"dir"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Pretty bool   `json:"pretty"`
}

type BackupConfig struct {
	Enabled bool   `json:"enabled"`
	Spec    string `json:"spec"`
	Dir     string `json:"dir"`
	Keep    int    `json:"keep"`
}

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".mexanbot")
	return &Config{
		Data: DataConfig{Dir: filepath.Join(base, "data")},
		Log:  LogConfig{Level: DefaultLogLevel},
		Backup: BackupConfig{
			Enabled: true,
			Spec:    DefaultBackupSpec,
			Dir:     filepath.Join(base, "backups"),
			Keep:    DefaultBackupKeep,
		},
		Sources: map[string]string{
			"avito":          "Avito",
			"website":        "Website",
			"recommendation": "Recommendation",
			"walkin":         "Walk-in",
		},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".mexanbot")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// LoadConfig reads the JSON config file if present, then applies .env and
// environment variable overrides on top of the defaults.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if token := os.Getenv("MEXANBOT_TELEGRAM_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}
	if allow := os.Getenv("MEXANBOT_ALLOW_FROM"); allow != "" {
		ids := make([]int64, 0)
		for _, part := range strings.Split(allow, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parse MEXANBOT_ALLOW_FROM entry %q: %w", part, err)
			}
			ids = append(ids, id)
		}
		cfg.Telegram.AllowFrom = ids
	}
	if dir := os.Getenv("MEXANBOT_DATA_DIR"); dir != "" {
		cfg.Data.Dir = dir
	}
	if level := os.Getenv("MEXANBOT_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if pretty := os.Getenv("MEXANBOT_LOG_PRETTY"); pretty != "" {
		if parsed, err := strconv.ParseBool(pretty); err == nil {
			cfg.Log.Pretty = parsed
		}
	}

	if cfg.Data.Dir == "" {
		cfg.Data.Dir = DefaultConfig().Data.Dir
	}
	if cfg.Backup.Spec == "" {
		cfg.Backup.Spec = DefaultBackupSpec
	}
	if cfg.Backup.Keep <= 0 {
		cfg.Backup.Keep = DefaultBackupKeep
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultConfig().Sources
	}

	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
