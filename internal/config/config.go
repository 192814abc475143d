package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wawaka/vibecon/internal/mount"
)

// FileName is the config file looked up both in $HOME and in the project root.
const FileName = ".vibecon.json"

// Config holds the merged vibecon configuration for one workspace.
type Config struct {
	Mounts []mount.Spec `json:"mounts"`
}

// Load reads a single config file. A missing file yields an empty config;
// malformed JSON is an error naming the offending path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadMerged loads the user-wide config and the per-project config and merges
// them. Mount lists are concatenated, global entries first; nothing is
// deduplicated or reordered.
func LoadMerged(projectRoot string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}

	global, err := Load(filepath.Join(home, FileName))
	if err != nil {
		return nil, err
	}
	project, err := Load(filepath.Join(projectRoot, FileName))
	if err != nil {
		return nil, err
	}

	return &Config{
		Mounts: append(append([]mount.Spec{}, global.Mounts...), project.Mounts...),
	}, nil
}
