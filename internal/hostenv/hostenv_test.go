package hostenv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTermDefault(t *testing.T) {
	t.Setenv("TERM", "")
	if got := Term(); got != "xterm-256color" {
		t.Errorf("Term = %q, want xterm-256color", got)
	}

	t.Setenv("TERM", "screen-256color")
	if got := Term(); got != "screen-256color" {
		t.Errorf("Term = %q, want screen-256color", got)
	}
}

func TestEnvironShape(t *testing.T) {
	t.Setenv("TERM", "xterm")
	t.Setenv("TZ", "Europe/Berlin")

	env := Environ()
	want := map[string]string{
		"TERM":      "xterm",
		"COLORTERM": "truecolor",
		"TZ":        "Europe/Berlin",
	}
	for _, kv := range env {
		k, v, _ := strings.Cut(kv, "=")
		if want[k] != v {
			t.Errorf("env %s = %q, want %q", k, v, want[k])
		}
		delete(want, k)
	}
	if len(want) != 0 {
		t.Errorf("missing env entries: %v", want)
	}
}

func TestResolveTimezoneFirstNonEmptyWins(t *testing.T) {
	chain := []tzResolver{
		func() string { return "" },
		func() string { return "Asia/Tokyo" },
		func() string { t.Error("later resolver should not run"); return "X" },
	}
	if got := resolveTimezone(chain); got != "Asia/Tokyo" {
		t.Errorf("timezone = %q, want Asia/Tokyo", got)
	}
}

func TestResolveTimezoneFallsBackToUTC(t *testing.T) {
	if got := resolveTimezone(nil); got != "UTC" {
		t.Errorf("timezone = %q, want UTC", got)
	}
}

func TestTzFromEnv(t *testing.T) {
	t.Setenv("TZ", "America/New_York")
	if got := tzFromEnv(); got != "America/New_York" {
		t.Errorf("tzFromEnv = %q", got)
	}
}

func TestTzFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timezone")
	os.WriteFile(path, []byte("Europe/Paris\n"), 0o644)

	if got := tzFromFile(path)(); got != "Europe/Paris" {
		t.Errorf("tzFromFile = %q, want Europe/Paris", got)
	}
	if got := tzFromFile(filepath.Join(t.TempDir(), "missing"))(); got != "" {
		t.Errorf("missing file should resolve to empty, got %q", got)
	}
}

func TestTzFromLocaltime(t *testing.T) {
	dir := t.TempDir()
	zone := filepath.Join(dir, "zoneinfo", "America", "New_York")
	os.MkdirAll(filepath.Dir(zone), 0o755)
	os.WriteFile(zone, []byte{}, 0o644)

	link := filepath.Join(dir, "localtime")
	if err := os.Symlink(zone, link); err != nil {
		t.Skipf("symlink: %v", err)
	}

	if got := tzFromLocaltime(link)(); got != "America/New_York" {
		t.Errorf("tzFromLocaltime = %q, want America/New_York", got)
	}
	if got := tzFromLocaltime(filepath.Join(dir, "missing"))(); got != "" {
		t.Errorf("missing symlink should resolve to empty, got %q", got)
	}
}
