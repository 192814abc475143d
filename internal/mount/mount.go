package mount

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidSpec is wrapped by every mount validation error.
var ErrInvalidSpec = errors.New("invalid mount spec")

// Kind discriminates the three supported mount kinds.
type Kind string

const (
	Bind      Kind = "bind"
	Volume    Kind = "volume"
	Anonymous Kind = "anonymous"
)

// Spec is a declarative mount description from a .vibecon.json config.
//
// All three kinds require Target (an absolute in-container path). Bind and
// Volume require Source; Anonymous ignores it. UID/GID are honored only for
// Volume and Anonymous — Docker's bind-mount primitive has no ownership
// remapping, so they are warned about and dropped for Bind.
type Spec struct {
	Kind     Kind
	Source   string
	Target   string
	ReadOnly bool
	SELinux  string // "z" or "Z"
	UID      *int
	GID      *int
	Global   bool // Volume only: use Source verbatim instead of namespacing
}

// UnmarshalJSON rejects anything that isn't a JSON object. Bare mount strings
// are ambiguous between the bind/volume/anonymous syntaxes and are refused.
func (s *Spec) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("%w: mount must be an object with an explicit \"type\" field, got: %s",
			ErrInvalidSpec, string(trimmed))
	}

	var raw struct {
		Type     string `json:"type"`
		Source   string `json:"source"`
		Target   string `json:"target"`
		ReadOnly bool   `json:"read_only"`
		SELinux  string `json:"selinux"`
		UID      *int   `json:"uid"`
		GID      *int   `json:"gid"`
		Global   bool   `json:"global"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}

	s.Kind = Kind(raw.Type)
	s.Source = raw.Source
	s.Target = raw.Target
	s.ReadOnly = raw.ReadOnly
	s.SELinux = raw.SELinux
	s.UID = raw.UID
	s.GID = raw.GID
	s.Global = raw.Global
	return nil
}

// VolumeName resolves the realized Docker volume name for a Volume spec.
// Global volumes are shared across workspaces and keep their name verbatim;
// local volumes are namespaced by container name.
func (s Spec) VolumeName(containerName string) string {
	if s.Global {
		return s.Source
	}
	return containerName + "_" + s.Source
}

// Compile validates a spec and turns it into docker invocation arguments,
// either ["-v", "..."] or ["--mount", "..."]. Validation is eager: a bad spec
// fails here, before any engine call is issued.
func Compile(s Spec, projectRoot, containerName string) ([]string, error) {
	if s.Kind == "" {
		return nil, fmt.Errorf("%w: missing required \"type\" field (target %q)", ErrInvalidSpec, s.Target)
	}
	if s.Target == "" {
		return nil, fmt.Errorf("%w: missing required \"target\" field (%s mount)", ErrInvalidSpec, s.Kind)
	}

	switch s.Kind {
	case Anonymous:
		return compileAnonymous(s), nil
	case Bind:
		return compileBind(s, projectRoot)
	case Volume:
		return compileVolume(s, containerName)
	default:
		return nil, fmt.Errorf("%w: unknown mount type %q, must be \"bind\", \"volume\", or \"anonymous\"",
			ErrInvalidSpec, s.Kind)
	}
}

func compileAnonymous(s Spec) []string {
	if s.UID == nil && s.GID == nil {
		return []string{"-v", s.Target}
	}
	return mountFlag(s, "")
}

func compileBind(s Spec, projectRoot string) ([]string, error) {
	if s.Source == "" {
		return nil, fmt.Errorf("%w: bind mount missing required \"source\" field (target %q)",
			ErrInvalidSpec, s.Target)
	}

	resolved := expandHome(s.Source)
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(projectRoot, resolved)
	}
	resolved = filepath.Clean(resolved)

	if _, err := os.Stat(resolved); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: bind mount source does not exist: %s\n", resolved)
	}
	if s.UID != nil || s.GID != nil {
		fmt.Fprintln(os.Stderr, "Warning: uid/gid options ignored for bind mount (not supported by Docker)")
	}

	return []string{"-v", resolved + ":" + s.Target + volumeSuffix(s)}, nil
}

func compileVolume(s Spec, containerName string) ([]string, error) {
	if s.Source == "" {
		return nil, fmt.Errorf("%w: volume mount missing required \"source\" field (target %q)",
			ErrInvalidSpec, s.Target)
	}

	name := s.VolumeName(containerName)
	if s.UID != nil || s.GID != nil {
		return mountFlag(s, name), nil
	}
	return []string{"-v", name + ":" + s.Target + volumeSuffix(s)}, nil
}

// mountFlag builds the verbose --mount form. The plain -v flag has no channel
// for ownership options, so uid/gid mounts are realized as tmpfs-backed
// volumes with driver options.
func mountFlag(s Spec, volumeName string) []string {
	var opts []string
	if s.UID != nil {
		opts = append(opts, fmt.Sprintf("uid=%d", *s.UID))
	}
	if s.GID != nil {
		opts = append(opts, fmt.Sprintf("gid=%d", *s.GID))
	}

	parts := []string{"type=volume"}
	if volumeName != "" {
		parts = append(parts, "source="+volumeName)
	}
	parts = append(parts,
		"target="+s.Target,
		"volume-opt=type=tmpfs",
		"volume-opt=device=tmpfs",
		fmt.Sprintf("%q", "volume-opt=o="+strings.Join(opts, ",")),
	)
	if s.ReadOnly {
		parts = append(parts, "readonly")
	}
	return []string{"--mount", strings.Join(parts, ",")}
}

// volumeSuffix renders the trailing :ro / :z options of a -v argument.
// Multiple options share one colon and are comma-separated.
func volumeSuffix(s Spec) string {
	var opts []string
	if s.ReadOnly {
		opts = append(opts, "ro")
	}
	if s.SELinux != "" {
		opts = append(opts, s.SELinux)
	}
	if len(opts) == 0 {
		return ""
	}
	return ":" + strings.Join(opts, ",")
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
