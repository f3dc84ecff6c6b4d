package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/thinkwright/quickcal/internal/datefmt"
	"github.com/thinkwright/quickcal/internal/fsutil"
)

// Settings are the user-editable calendar options.
type Settings struct {
	DiaryFolder       string `json:"diary_folder"`
	DateFormat        string `json:"date_format"`
	ShowWeekends      bool   `json:"show_weekends"`
	StartWeekOnMonday bool   `json:"start_week_on_monday"`
}

type Config struct {
	Vault    string   `json:"vault,omitempty"` // empty means the working directory
	LogLevel string   `json:"log_level"`
	Settings Settings `json:"settings"`
}

// overrides are read from the environment; empty values leave the file value alone.
type overrides struct {
	Vault       string `env:"QUICKCAL_VAULT"`
	DiaryFolder string `env:"QUICKCAL_DIARY_FOLDER"`
	DateFormat  string `env:"QUICKCAL_DATE_FORMAT"`
	LogLevel    string `env:"QUICKCAL_LOG_LEVEL"`
}

var LogLevels = []string{"debug", "info", "warn", "error"}

func DefaultSettings() Settings {
	return Settings{
		DiaryFolder:       "Diary",
		DateFormat:        "YYYY-MM-DD",
		ShowWeekends:      true,
		StartWeekOnMonday: false,
	}
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Settings: DefaultSettings(),
	}
}

func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "quickcal")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "quickcal")
}

// Path is the default config file location.
func Path() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// Load reads the default config file. See LoadFrom.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom starts from defaults, overlays the JSON file at p (a missing or
// malformed file leaves the defaults), applies environment overrides and
// validates the result. On a validation error the merged config is still
// returned so callers can report what was wrong.
func LoadFrom(p string) (Config, error) {
	cfg := DefaultConfig()
	if data, err := os.ReadFile(p); err == nil {
		var fromFile Config
		fromFile.Settings = cfg.Settings
		fromFile.LogLevel = cfg.LogLevel
		if json.Unmarshal(data, &fromFile) == nil {
			cfg = fromFile
		}
	}

	var o overrides
	if err := env.Parse(&o); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	cfg.applyOverrides(o)

	return cfg, cfg.Validate()
}

func (c *Config) applyOverrides(o overrides) {
	if o.Vault != "" {
		c.Vault = o.Vault
	}
	if o.DiaryFolder != "" {
		c.Settings.DiaryFolder = o.DiaryFolder
	}
	if o.DateFormat != "" {
		c.Settings.DateFormat = o.DateFormat
	}
	if o.LogLevel != "" {
		c.LogLevel = strings.ToLower(o.LogLevel)
	}
}

// Validate checks the whole config.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.Required, validation.In(toAny(LogLevels)...)),
	); err != nil {
		return err
	}
	return c.Settings.Validate()
}

// Validate checks the calendar settings.
func (s *Settings) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.DateFormat, validation.Required, validation.By(validDateFormat)),
		validation.Field(&s.DiaryFolder, validation.By(relativeFolder)),
	)
}

func validDateFormat(v interface{}) error {
	s, _ := v.(string)
	return datefmt.Validate(s)
}

func relativeFolder(v interface{}) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	s = filepath.ToSlash(s)
	if path.IsAbs(s) || filepath.IsAbs(s) {
		return errors.New("must be relative to the vault")
	}
	if c := path.Clean(s); c == ".." || strings.HasPrefix(c, "../") {
		return errors.New("must stay inside the vault")
	}
	return nil
}

func toAny(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// Save writes the default config file.
func Save(cfg Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo replaces the file at p in one rename so a watcher reloading it never
// reads a partial file.
func SaveTo(p string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(p, data, 0o644)
}
