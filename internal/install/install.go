// Package install manages the vibecon launcher symlink in ~/.local/bin.
package install

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#22CC66")).Bold(true)
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#33CCCC"))
	targetStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5599FF"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444")).Bold(true)
	shellStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#CC66CC"))
	cmdStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#22CC66"))
	ruleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#333333"))
)

// Symlink installs a symlink to the running executable at
// ~/.local/bin/vibecon. When the install dir is not on PATH (or
// simulatePathMissing forces that branch), a banner explains how to add it
// for the user's shell.
func Symlink(simulatePathMissing bool) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable: %w", err)
	}
	target, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return fmt.Errorf("resolving executable symlinks: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolving home directory: %w", err)
	}
	installDir := filepath.Join(home, ".local", "bin")
	link := filepath.Join(installDir, "vibecon")

	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", installDir, err)
	}

	if existing, err := filepath.EvalSymlinks(link); err == nil && existing == target {
		fmt.Printf("%s %s -> %s\n", okStyle.Render("Already installed:"),
			pathStyle.Render(link), targetStyle.Render(target))
	} else {
		// Replace whatever is there, stale links included.
		os.Remove(link)
		if err := os.Symlink(target, link); err != nil {
			return fmt.Errorf("creating symlink: %w", err)
		}
		fmt.Printf("%s %s -> %s\n", okStyle.Render("Installed:"),
			pathStyle.Render(link), targetStyle.Render(target))
	}

	if simulatePathMissing || !dirInPath(installDir, os.Getenv("PATH")) {
		printPathBanner(home, installDir)
	} else {
		fmt.Printf("\n%s You can now use vibecon by its name.\n", okStyle.Render("✓"))
	}
	return nil
}

// Unlink removes the launcher symlink.
func Unlink() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolving home directory: %w", err)
	}
	link := filepath.Join(home, ".local", "bin", "vibecon")

	if _, err := os.Lstat(link); err != nil {
		fmt.Printf("Symlink not found: %s\n", link)
		return nil
	}
	if err := os.Remove(link); err != nil {
		return fmt.Errorf("removing symlink: %w", err)
	}
	fmt.Printf("Uninstalled: %s\n", link)
	return nil
}

func dirInPath(dir, pathEnv string) bool {
	for _, p := range filepath.SplitList(pathEnv) {
		if p == dir {
			return true
		}
	}
	return false
}

// shellSetup returns the config file and PATH export line for a shell name.
func shellSetup(shell, installDirDisplay string) (configFile, exportCmd string) {
	export := fmt.Sprintf("export PATH=\"%s:$PATH\"", installDirDisplay)
	switch shell {
	case "zsh":
		return "~/.zshrc", export
	case "bash":
		return "~/.bashrc", export
	case "fish":
		return "~/.config/fish/config.fish", fmt.Sprintf("set -gx PATH \"%s\" $PATH", installDirDisplay)
	case "tcsh", "csh":
		return "~/.cshrc", fmt.Sprintf("setenv PATH \"%s:$PATH\"", installDirDisplay)
	default:
		return "~/.profile", export
	}
}

func printPathBanner(home, installDir string) {
	display := installDir
	if strings.HasPrefix(installDir, home) {
		display = "$HOME" + strings.TrimPrefix(installDir, home)
	}

	shell := filepath.Base(os.Getenv("SHELL"))
	if shell == "." || shell == "/" {
		shell = "unknown"
	}
	configFile, exportCmd := shellSetup(shell, display)

	rule := ruleStyle.Render(strings.Repeat("─", 70))
	fmt.Println()
	fmt.Println(warnStyle.Render(strings.Repeat("=", 70)))
	fmt.Println(warnStyle.Render("  WARNING: PATH CUSTOMIZATION REQUIRED"))
	fmt.Println(warnStyle.Render(strings.Repeat("=", 70)))
	fmt.Printf("\n  %s %s\n", pathStyle.Render(display), warnStyle.Render("is NOT in your PATH!"))
	fmt.Println("  You must add it to your PATH to use vibecon by name.")
	fmt.Println(rule)
	fmt.Printf("  Detected shell: %s\n", shellStyle.Render(shell))
	fmt.Println(rule)
	fmt.Println("\n  Add to PATH permanently:")
	fmt.Printf("    %s\n", cmdStyle.Render(fmt.Sprintf("echo '%s' >> %s", exportCmd, configFile)))
	fmt.Printf("    %s\n", cmdStyle.Render("source "+configFile))
	fmt.Println()
	fmt.Println(warnStyle.Render(strings.Repeat("=", 70)))
}
