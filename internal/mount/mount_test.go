package mount

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func intp(v int) *int { return &v }

func TestUnmarshalRejectsBareString(t *testing.T) {
	var s Spec
	err := json.Unmarshal([]byte(`"~/.ssh:/home/node/.ssh"`), &s)
	if !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("expected ErrInvalidSpec, got %v", err)
	}
}

func TestUnmarshalObject(t *testing.T) {
	var s Spec
	data := `{"type": "volume", "source": "cache", "target": "/cache", "read_only": true, "uid": 1000}`
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if s.Kind != Volume || s.Source != "cache" || s.Target != "/cache" {
		t.Errorf("unexpected spec: %+v", s)
	}
	if !s.ReadOnly {
		t.Error("ReadOnly not decoded")
	}
	if s.UID == nil || *s.UID != 1000 {
		t.Errorf("UID = %v, want 1000", s.UID)
	}
	if s.GID != nil {
		t.Errorf("GID = %v, want nil", s.GID)
	}
}

func TestCompileValidation(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"missing type", Spec{Target: "/data"}},
		{"unknown type", Spec{Kind: "tmpfs", Target: "/data"}},
		{"missing target", Spec{Kind: Bind, Source: "/src"}},
		{"bind missing source", Spec{Kind: Bind, Target: "/data"}},
		{"volume missing source", Spec{Kind: Volume, Target: "/data"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.spec, "/proj", "vibecon-proj-abc12345")
			if !errors.Is(err, ErrInvalidSpec) {
				t.Errorf("expected ErrInvalidSpec, got %v", err)
			}
		})
	}
}

func TestCompileBindReadOnlySuffix(t *testing.T) {
	dir := t.TempDir()
	args, err := Compile(Spec{Kind: Bind, Source: dir, Target: "/data", ReadOnly: true}, "/proj", "c")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if args[0] != "-v" {
		t.Fatalf("args[0] = %q, want -v", args[0])
	}
	if !strings.HasSuffix(args[1], ":ro") {
		t.Errorf("arg %q should end in exactly :ro", args[1])
	}
	if strings.HasSuffix(args[1], ":ro:ro") || strings.HasSuffix(args[1], ",ro") {
		t.Errorf("duplicate or malformed suffix in %q", args[1])
	}
}

func TestCompileBindRelativeSource(t *testing.T) {
	proj := t.TempDir()
	os.Mkdir(filepath.Join(proj, "scripts"), 0o755)

	args, err := Compile(Spec{Kind: Bind, Source: "scripts", Target: "/scripts"}, proj, "c")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	want := filepath.Join(proj, "scripts") + ":/scripts"
	if args[1] != want {
		t.Errorf("arg = %q, want %q", args[1], want)
	}
}

func TestCompileBindSelinux(t *testing.T) {
	dir := t.TempDir()
	args, err := Compile(Spec{Kind: Bind, Source: dir, Target: "/data", ReadOnly: true, SELinux: "Z"}, "/proj", "c")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.HasSuffix(args[1], ":ro,Z") {
		t.Errorf("arg = %q, want :ro,Z suffix", args[1])
	}
}

func TestVolumeNameNamespacing(t *testing.T) {
	local := Spec{Kind: Volume, Source: "cache", Target: "/cache"}
	if got := local.VolumeName("vibecon-foo-abc12345"); got != "vibecon-foo-abc12345_cache" {
		t.Errorf("local volume name = %q, want vibecon-foo-abc12345_cache", got)
	}

	global := Spec{Kind: Volume, Source: "cache", Target: "/cache", Global: true}
	if got := global.VolumeName("vibecon-foo-abc12345"); got != "cache" {
		t.Errorf("global volume name = %q, want cache", got)
	}
}

func TestCompileVolumeSimpleForm(t *testing.T) {
	args, err := Compile(Spec{Kind: Volume, Source: "cache", Target: "/cache"}, "/proj", "vibecon-foo-abc12345")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if args[0] != "-v" || args[1] != "vibecon-foo-abc12345_cache:/cache" {
		t.Errorf("args = %v", args)
	}
}

func TestCompileVolumeWithOwnership(t *testing.T) {
	spec := Spec{Kind: Volume, Source: "gopath", Target: "/go", UID: intp(1000), GID: intp(1000), ReadOnly: true}
	args, err := Compile(spec, "/proj", "vibecon-foo-abc12345")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if args[0] != "--mount" {
		t.Fatalf("args[0] = %q, want --mount", args[0])
	}
	for _, want := range []string{
		"source=vibecon-foo-abc12345_gopath",
		"target=/go",
		"volume-opt=type=tmpfs",
		`"volume-opt=o=uid=1000,gid=1000"`,
		"readonly",
	} {
		if !strings.Contains(args[1], want) {
			t.Errorf("mount arg %q missing %q", args[1], want)
		}
	}
}

func TestCompileAnonymous(t *testing.T) {
	args, err := Compile(Spec{Kind: Anonymous, Target: "/scratch"}, "/proj", "c")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if args[0] != "-v" || args[1] != "/scratch" {
		t.Errorf("args = %v, want [-v /scratch]", args)
	}
}

func TestCompileAnonymousWithUID(t *testing.T) {
	args, err := Compile(Spec{Kind: Anonymous, Target: "/scratch", UID: intp(1000)}, "/proj", "c")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if args[0] != "--mount" {
		t.Fatalf("uid spec must use the --mount form, got %v", args)
	}
	if strings.Contains(args[1], "source=") {
		t.Errorf("anonymous mount must not carry a source: %q", args[1])
	}
	if !strings.Contains(args[1], `"volume-opt=o=uid=1000"`) {
		t.Errorf("mount arg %q missing uid driver opt", args[1])
	}
}
