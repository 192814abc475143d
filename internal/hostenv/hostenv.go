// Package hostenv collects ambient host facts injected into the container
// environment: terminal type, timezone, and the user's git identity.
package hostenv

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	gitconfig "github.com/go-git/go-git/v5/config"
)

// Environ returns the environment injected into engine run and exec calls.
func Environ() []string {
	return []string{
		"TERM=" + Term(),
		"COLORTERM=truecolor",
		"TZ=" + Timezone(),
	}
}

// Term returns the host terminal type, defaulting to xterm-256color.
func Term() string {
	if t := os.Getenv("TERM"); t != "" {
		return t
	}
	return "xterm-256color"
}

// GitIdentity reads user.name and user.email from the host's global git
// config. Each field is independently optional; any error yields empty
// strings rather than a failure.
func GitIdentity() (name, email string) {
	cfg, err := gitconfig.LoadConfig(gitconfig.GlobalScope)
	if err != nil {
		return "", ""
	}
	return cfg.User.Name, cfg.User.Email
}

// A tzResolver is one strategy for discovering the host timezone. It returns
// "" when it has no answer, letting the next strategy try.
type tzResolver func() string

// Timezone resolves the host timezone through an ordered chain of
// best-effort strategies, falling back to UTC.
func Timezone() string {
	return resolveTimezone([]tzResolver{
		tzFromEnv,
		tzFromFile("/etc/timezone"),
		tzFromTimedatectl,
		tzFromLocaltime("/etc/localtime"),
	})
}

func resolveTimezone(chain []tzResolver) string {
	for _, resolve := range chain {
		if tz := resolve(); tz != "" {
			return tz
		}
	}
	return "UTC"
}

func tzFromEnv() string {
	return os.Getenv("TZ")
}

// tzFromFile reads a timezone name from a file, /etc/timezone on
// Debian-family systems.
func tzFromFile(path string) tzResolver {
	return func() string {
		data, err := os.ReadFile(path)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(data))
	}
}

func tzFromTimedatectl() string {
	out, err := exec.Command("timedatectl", "show", "-p", "Timezone", "--value").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// tzFromLocaltime reverse-resolves the localtime symlink against the
// zoneinfo path convention, e.g. /usr/share/zoneinfo/America/New_York.
func tzFromLocaltime(path string) tzResolver {
	return func() string {
		target, err := filepath.EvalSymlinks(path)
		if err != nil {
			return ""
		}
		parts := strings.Split(target, string(filepath.Separator))
		for i, part := range parts {
			if part == "zoneinfo" && i+1 < len(parts) {
				return strings.Join(parts[i+1:], "/")
			}
		}
		return ""
	}
}
