package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"QUICKCAL_VAULT", "QUICKCAL_DIARY_FOLDER", "QUICKCAL_DATE_FORMAT", "QUICKCAL_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Settings.DiaryFolder != "Diary" || cfg.Settings.DateFormat != "YYYY-MM-DD" {
		t.Errorf("settings = %+v", cfg.Settings)
	}
	if !cfg.Settings.ShowWeekends || cfg.Settings.StartWeekOnMonday {
		t.Error("weekends should show and weeks start on Sunday by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	// Use a temp dir as XDG_CONFIG_HOME to avoid touching real config
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	clearEnv(t)

	cfg := DefaultConfig()
	cfg.Settings.DiaryFolder = "Journal/Daily"
	cfg.Settings.DateFormat = "DD.MM.YYYY"
	cfg.Settings.StartWeekOnMonday = true
	cfg.Settings.ShowWeekends = false

	if err := Save(cfg); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "quickcal", "config.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("got %+v, want %+v", loaded, cfg)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	clearEnv(t)

	configDir := filepath.Join(dir, "quickcal")
	os.MkdirAll(configDir, 0o755)
	os.WriteFile(filepath.Join(configDir, "config.json"), []byte("not json"), 0o644)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("malformed json: got %+v, want defaults", cfg)
	}
}

func TestLoad_PartialJSON(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	clearEnv(t)

	configDir := filepath.Join(dir, "quickcal")
	os.MkdirAll(configDir, 0o755)
	os.WriteFile(filepath.Join(configDir, "config.json"), []byte(`{"settings":{"diary_folder":"Notes"}}`), 0o644)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Settings.DiaryFolder != "Notes" {
		t.Errorf("diary_folder = %q", cfg.Settings.DiaryFolder)
	}
	if cfg.Settings.DateFormat != "YYYY-MM-DD" || !cfg.Settings.ShowWeekends {
		t.Errorf("unset fields should keep defaults: %+v", cfg.Settings)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log_level = %q", cfg.LogLevel)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("QUICKCAL_VAULT", "/tmp/notes")
	t.Setenv("QUICKCAL_DIARY_FOLDER", "Daily")
	t.Setenv("QUICKCAL_DATE_FORMAT", "YYYY/MM/DD")
	t.Setenv("QUICKCAL_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Vault != "/tmp/notes" || cfg.Settings.DiaryFolder != "Daily" ||
		cfg.Settings.DateFormat != "YYYY/MM/DD" || cfg.LogLevel != "debug" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"root folder", func(c *Config) { c.Settings.DiaryFolder = "" }, true},
		{"nested folder", func(c *Config) { c.Settings.DiaryFolder = "a/b" }, true},
		{"absolute folder", func(c *Config) { c.Settings.DiaryFolder = "/abs" }, false},
		{"escaping folder", func(c *Config) { c.Settings.DiaryFolder = "../up" }, false},
		{"month only format", func(c *Config) { c.Settings.DateFormat = "YYYY-MM" }, false},
		{"empty format", func(c *Config) { c.Settings.DateFormat = "" }, false},
		{"unknown log level", func(c *Config) { c.LogLevel = "loud" }, false},
	}
	for _, c := range cases {
		cfg := DefaultConfig()
		c.mutate(&cfg)
		err := cfg.Validate()
		if (err == nil) != c.ok {
			t.Errorf("%s: err = %v, want ok=%v", c.name, err, c.ok)
		}
	}
}

func TestLoad_InvalidReturnsError(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	clearEnv(t)
	os.WriteFile(p, []byte(`{"settings":{"date_format":"MM"}}`), 0o644)

	cfg, err := LoadFrom(p)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if cfg.Settings.DateFormat != "MM" {
		t.Errorf("merged config should still be returned, got %+v", cfg.Settings)
	}
}

func TestSaveTo_ReplacesWholeFile(t *testing.T) {
	clearEnv(t)
	p := filepath.Join(t.TempDir(), "quickcal", "config.json")
	long := DefaultConfig()
	long.Settings.DiaryFolder = "A/very/long/folder/name/for/the/first/write"
	if err := SaveTo(p, long); err != nil {
		t.Fatal(err)
	}
	short := DefaultConfig()
	if err := SaveTo(p, short); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFrom(p)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded, short) {
		t.Errorf("got %+v, want %+v", loaded, short)
	}
	entries, err := os.ReadDir(filepath.Dir(p))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "config.json" {
		for _, e := range entries {
			t.Errorf("unexpected entry %s", e.Name())
		}
	}
}
