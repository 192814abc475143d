// Package engine abstracts the container engine behind an interface so the
// lifecycle reconciler can be exercised against a fake without a real
// container runtime.
package engine

import "io"

// RunOptions describes a detached container run.
type RunOptions struct {
	Name     string
	Hostname string
	Env      []string // KEY=VALUE pairs
	// MountArgs are pre-compiled engine flag pairs ("-v", "x:y", "--mount", ...)
	// appended verbatim, in order.
	MountArgs []string
	Image     string
}

// Engine is the set of container-engine operations vibecon depends on.
// All calls block until the engine finishes; there is no timeout or
// cancellation — a hang in the engine hangs the tool.
type Engine interface {
	// ContainerRunning reports whether a container exists and is running.
	ContainerRunning(name string) bool
	// ContainerExists reports whether a container exists in any state.
	ContainerExists(name string) bool
	// StartContainer starts an existing stopped container.
	StartContainer(name string) error
	StopContainer(name string) error
	// RemoveContainer force-removes a container; missing containers are not an error.
	RemoveContainer(name string) error
	// ImageExists distinguishes "no such image" from engine failure.
	ImageExists(image string) (bool, error)
	BuildImage(contextDir string, buildArgs map[string]string, tags []string) error
	RunDetached(opts RunOptions) error
	// ExecInteractive runs a command wired to the caller's terminal and
	// returns its exit code.
	ExecInteractive(name string, env []string, command []string) (int, error)
	// Exec runs a command quietly inside the container, discarding output.
	Exec(name string, command ...string) error
	// ExecAs runs a command quietly as the given in-container user.
	ExecAs(name, user string, command ...string) error
	// StreamArchive extracts a tar stream into destDir inside the container.
	StreamArchive(name, destDir string, archive io.Reader) error
}
