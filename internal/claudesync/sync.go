// Package claudesync projects a whitelisted slice of the host's Claude
// configuration into a running container. The projection is one-way and
// authoritative: files absent on the host are removed from the container.
package claudesync

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wawaka/vibecon/internal/engine"
)

const (
	// ContainerDir is where Claude config lives inside the container.
	ContainerDir = "/home/node/.claude"
	owner        = "node:node"
)

type stagedFile struct {
	name string
	data []byte
	mode int64
}

// Sync pushes the host's statusLine settings, CLAUDE.md, and commands
// directory into the container. Every step is best-effort: failures are
// warnings, never aborts — a broken sync must not block the exec.
func Sync(eng engine.Engine, containerName string) {
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: skipping Claude config sync: %v\n", err)
		return
	}
	claudeDir := filepath.Join(home, ".claude")

	var staged []stagedFile

	if settings, cmdPath := extractStatusLine(filepath.Join(claudeDir, "settings.json"), home); settings != nil {
		staged = append(staged, stagedFile{name: "settings.json", data: settings, mode: 0o644})
		if cmdPath != "" {
			if f, ok := stageFile(cmdPath); ok {
				staged = append(staged, f)
			}
		}
	}

	if err := eng.Exec(containerName, "mkdir", "-p", ContainerDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: creating %s in container: %v\n", ContainerDir, err)
	}

	// CLAUDE.md: copy when present on the host, otherwise delete any
	// previously synced copy.
	claudeMD := filepath.Join(claudeDir, "CLAUDE.md")
	if f, ok := stageFile(claudeMD); ok {
		staged = append(staged, f)
	} else {
		eng.Exec(containerName, "rm", "-f", ContainerDir+"/CLAUDE.md")
	}

	syncCommands(eng, containerName, filepath.Join(claudeDir, "commands"))

	if len(staged) > 0 {
		archive, err := tarFiles(staged)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: building config archive: %v\n", err)
		} else if err := eng.StreamArchive(containerName, ContainerDir, archive); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: copying config files: %v\n", err)
		}
	}

	// Files injected from the host carry host-side ownership; hand the whole
	// config dir back to the in-container service account.
	if err := eng.ExecAs(containerName, "root", "chown", "-R", owner, ContainerDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: fixing config ownership: %v\n", err)
	}
}

// extractStatusLine pulls the statusLine section out of the host settings
// file. It returns the marshaled container-side settings and the resolved
// status-line command path, if the section references one.
func extractStatusLine(settingsPath, home string) (settings []byte, commandPath string) {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil, ""
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(data, &parsed); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to parse %s: %v\n", settingsPath, err)
		return nil, ""
	}
	statusLine, ok := parsed["statusLine"]
	if !ok {
		return nil, ""
	}

	out, err := json.MarshalIndent(map[string]json.RawMessage{"statusLine": statusLine}, "", "  ")
	if err != nil {
		return nil, ""
	}

	var section struct {
		Command string `json:"command"`
	}
	if json.Unmarshal(statusLine, &section) == nil && section.Command != "" {
		cmd := section.Command
		if strings.HasPrefix(cmd, "~") {
			cmd = filepath.Join(home, strings.TrimPrefix(cmd, "~"))
		}
		commandPath = cmd
	}
	return out, commandPath
}

// syncCommands clean-replaces the container-side commands directory from the
// host one (resolving one level of symlink), or removes it when the host has
// none. Replace-not-merge avoids stale leftovers from an earlier sync.
func syncCommands(eng engine.Engine, containerName, hostDir string) {
	source := ""
	if target, err := filepath.EvalSymlinks(hostDir); err == nil {
		if info, err := os.Stat(target); err == nil && info.IsDir() {
			source = target
		}
	}

	containerCommands := ContainerDir + "/commands"
	eng.Exec(containerName, "rm", "-rf", containerCommands)
	if source == "" {
		return
	}
	eng.Exec(containerName, "mkdir", "-p", containerCommands)

	archive, err := tarDirectory(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: archiving commands directory: %v\n", err)
		return
	}
	if err := eng.StreamArchive(containerName, containerCommands, archive); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: copying commands directory: %v\n", err)
	}
}

// stageFile loads a host file for transfer, keeping its basename and
// reducing its mode to 0644/0755 by the executable bit.
func stageFile(path string) (stagedFile, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return stagedFile{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return stagedFile{}, false
	}
	mode := int64(0o644)
	if info.Mode()&0o111 != 0 {
		mode = 0o755
	}
	return stagedFile{name: filepath.Base(path), data: data, mode: mode}, true
}

func tarFiles(files []stagedFile) (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	tw := tar.NewWriter(buf)
	for _, f := range files {
		hdr := &tar.Header{
			Name:    f.name,
			Mode:    f.mode,
			Size:    int64(len(f.data)),
			ModTime: time.Now(),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, err
		}
		if _, err := tw.Write(f.data); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return buf, nil
}

func tarDirectory(root string) (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	tw := tar.NewWriter(buf)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() && !info.IsDir() {
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if _, err := tw.Write(data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return buf, nil
}
