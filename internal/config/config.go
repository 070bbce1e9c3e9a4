package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "taskgroove.db"
)

type Config struct {
	DBPath            string `toml:"db_path"`
	Timezone          string `toml:"timezone"`
	FirstWeekday      string `toml:"first_weekday"`
	UndoWindowSeconds int    `toml:"undo_window_seconds"`
	CompletedPageSize int    `toml:"completed_page_size"`
	SeedSample        bool   `toml:"seed_sample"`
	WebEnabled        bool   `toml:"web_enabled"`
	WebPort           int    `toml:"web_port"`
}

func Default() Config {
	return Config{
		Timezone:          "Local",
		FirstWeekday:      "sunday",
		UndoWindowSeconds: 5,
		CompletedPageSize: 50,
		SeedSample:        true,
		WebPort:           8080,
	}
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "taskgroove", DefaultConfigFileName), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

// LoadOrCreate reads path, writing the defaults there first when the file
// does not exist yet.
func LoadOrCreate(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func (c Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Weekday(); err != nil {
		return err
	}
	if c.UndoWindowSeconds < 0 {
		return fmt.Errorf("undo_window_seconds must not be negative, got %d", c.UndoWindowSeconds)
	}
	if c.CompletedPageSize < 0 {
		return fmt.Errorf("completed_page_size must not be negative, got %d", c.CompletedPageSize)
	}
	return nil
}

func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", name, err)
	}
	return loc, nil
}

func (c Config) Weekday() (time.Weekday, error) {
	value := strings.ToLower(strings.TrimSpace(c.FirstWeekday))
	if value == "" {
		return time.Sunday, nil
	}
	for day := time.Sunday; day <= time.Saturday; day++ {
		name := strings.ToLower(day.String())
		if value == name || value == name[:3] {
			return day, nil
		}
	}
	return time.Sunday, fmt.Errorf("first_weekday %q is not a weekday", c.FirstWeekday)
}

func (c Config) UndoWindow() time.Duration {
	if c.UndoWindowSeconds == 0 {
		return 5 * time.Second
	}
	return time.Duration(c.UndoWindowSeconds) * time.Second
}

// ResolveDBPath places a relative db_path next to the config file.
func (c Config) ResolveDBPath(configPath string) string {
	path := c.DBPath
	if path == "" {
		path = DefaultDBName
	}
	if path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(configPath), path)
}
