package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGetConfigValue(t *testing.T) {
	t.Setenv("TEST_CONFIG_KEY", "from-env")

	if got := getConfigValue("from-flag", "TEST_CONFIG_KEY", "default"); got != "from-flag" {
		t.Errorf("flag should win: got %q", got)
	}
	if got := getConfigValue("", "TEST_CONFIG_KEY", "default"); got != "from-env" {
		t.Errorf("env should win over default: got %q", got)
	}
	if got := getConfigValue("", "TEST_CONFIG_MISSING", "default"); got != "default" {
		t.Errorf("default should be used: got %q", got)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")

	content := strings.Join([]string{
		"# comment line",
		"",
		"ENVFILE_PLAIN=hello",
		`ENVFILE_QUOTED="quoted value"`,
		"ENVFILE_SPACED =  padded  ",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ENVFILE_PLAIN", "")
	t.Setenv("ENVFILE_QUOTED", "")
	t.Setenv("ENVFILE_SPACED", "")
	t.Setenv("ENVFILE_PRESET", "existing")

	if err := loadEnvFile(path); err != nil {
		t.Fatalf("loadEnvFile: %v", err)
	}

	if got := os.Getenv("ENVFILE_PLAIN"); got != "hello" {
		t.Errorf("plain value: got %q", got)
	}
	if got := os.Getenv("ENVFILE_QUOTED"); got != "quoted value" {
		t.Errorf("quoted value: got %q", got)
	}
	if got := os.Getenv("ENVFILE_SPACED"); got != "padded" {
		t.Errorf("spaced value: got %q", got)
	}
	if got := os.Getenv("ENVFILE_PRESET"); got != "existing" {
		t.Errorf("preset env var should not be overwritten: got %q", got)
	}
}

func TestLoadEnvFileInvalidLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("NOT A PAIR\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := loadEnvFile(path); err == nil {
		t.Error("expected error for malformed line")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}

	got, err := expandPath("~/somewhere/db.sqlite", "")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(home, "somewhere", "db.sqlite")
	if got != want {
		t.Errorf("tilde expansion: got %q, want %q", got, want)
	}

	got, err = expandPath("", "/fallback/path")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/fallback/path" {
		t.Errorf("default path: got %q", got)
	}

	got, err = expandPath("relative/dir", "")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("relative path should become absolute: got %q", got)
	}
}

func TestSplitEmailList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a@b.com", []string{"a@b.com"}},
		{"A@B.com, c@d.com;e@f.com", []string{"a@b.com", "c@d.com", "e@f.com"}},
		{"  ,  ;  ", nil},
	}

	for _, tt := range tests {
		got := splitEmailList(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("splitEmailList(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitEmailList(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestParseDurationValue(t *testing.T) {
	d, err := parseDurationValue("", "TEST_DURATION_MISSING", "15m")
	if err != nil {
		t.Fatal(err)
	}
	if d != 15*time.Minute {
		t.Errorf("default duration: got %v", d)
	}

	if _, err := parseDurationValue("not-a-duration", "TEST_DURATION_MISSING", "15m"); err == nil {
		t.Error("expected error for bad duration")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:      AppConfig{Environment: "development"},
			Logger:   LoggerConfig{Level: "info"},
			Database: DatabaseConfig{Path: "/tmp/edubase.db"},
			Uploads:  UploadsConfig{Dir: "/tmp/uploads", MaxSizeBytes: defaultMaxUploadSize},
		}
	}

	if err := valid().Validate(); err != nil {
		t.Errorf("valid config should pass: %v", err)
	}

	c := valid()
	c.App.Environment = "qa"
	if err := c.Validate(); err == nil {
		t.Error("invalid environment should fail")
	}

	c = valid()
	c.Logger.Level = "verbose"
	if err := c.Validate(); err == nil {
		t.Error("invalid log level should fail")
	}

	c = valid()
	c.Uploads.MaxSizeBytes = 0
	if err := c.Validate(); err == nil {
		t.Error("zero upload cap should fail")
	}
}
