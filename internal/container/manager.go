package container

import (
	"fmt"
	"os"

	"github.com/wawaka/vibecon/internal/engine"
	"github.com/wawaka/vibecon/internal/hostenv"
	"github.com/wawaka/vibecon/internal/mount"
)

// WorkspaceDir is the fixed in-container path the workspace is mounted at.
const WorkspaceDir = "/workspace"

const hostname = "vibecon"

// Manager reconciles observed container state against the desired
// "running with these mounts" state, preferring restart over recreate and
// reuse over rebuild. The image name is threaded in at construction; there
// is no package-level mutable configuration.
type Manager struct {
	eng   engine.Engine
	image string
}

// NewManager creates a manager driving the given engine.
func NewManager(eng engine.Engine, image string) *Manager {
	return &Manager{eng: eng, image: image}
}

// EnsureRunning drives the container for a workspace to the running state.
//
//   - Running: no-op.
//   - Stopped: restart; on failure remove the dead container and recreate.
//   - Absent: build the image if missing (via build), then run detached.
//
// Mount specs are compiled up front so a bad config never leaves partial
// engine state. Calling EnsureRunning again with no external change takes
// the running fast path and issues no mutating engine call.
func (m *Manager) EnsureRunning(workspace, name string, mounts []mount.Spec, build func() error) error {
	mountArgs := []string{"-v", workspace + ":" + WorkspaceDir}
	for _, spec := range mounts {
		args, err := mount.Compile(spec, workspace, name)
		if err != nil {
			return err
		}
		mountArgs = append(mountArgs, args...)
	}

	if m.eng.ContainerRunning(name) {
		return nil
	}

	if m.eng.ContainerExists(name) {
		fmt.Printf("Found stopped container %q, attempting to restart...\n", name)
		err := m.eng.StartContainer(name)
		if err == nil {
			fmt.Printf("Container %q restarted successfully.\n", name)
			return nil
		}
		fmt.Fprintf(os.Stderr, "Warning: restart failed (%v), removing container and creating a new one...\n", err)
		m.eng.RemoveContainer(name)
	}

	exists, err := m.eng.ImageExists(m.image)
	if err != nil {
		return err
	}
	if !exists {
		fmt.Printf("Image %q not found, building...\n", m.image)
		if build != nil {
			if err := build(); err != nil {
				return fmt.Errorf("building image: %w", err)
			}
		}
	}

	env := hostenv.Environ()
	if gitName, gitEmail := hostenv.GitIdentity(); gitName != "" {
		fmt.Printf("Configuring git user: %s <%s>\n", gitName, gitEmail)
		env = append(env, "GIT_USER_NAME="+gitName, "GIT_USER_EMAIL="+gitEmail)
	}

	fmt.Printf("Starting container %q with %s mounted at %s...\n", name, workspace, WorkspaceDir)
	return m.eng.RunDetached(engine.RunOptions{
		Name:      name,
		Hostname:  hostname,
		Env:       env,
		MountArgs: mountArgs,
		Image:     m.image,
	})
}

// Stop stops the workspace container; it can be restarted later.
func (m *Manager) Stop(name string) {
	fmt.Printf("Stopping container %q...\n", name)
	if err := m.eng.StopContainer(name); err != nil {
		fmt.Println("Container was not running.")
		return
	}
	fmt.Println("Container stopped.")
}

// Destroy force-removes the workspace container permanently.
func (m *Manager) Destroy(name string) {
	fmt.Printf("Destroying container %q...\n", name)
	m.eng.RemoveContainer(name)
	fmt.Println("Container destroyed.")
}

// Exec runs a command interactively inside the container and returns its
// exit code. Terminal and timezone context is re-injected per exec so a
// long-lived container tracks the host.
func (m *Manager) Exec(name string, command []string) (int, error) {
	return m.eng.ExecInteractive(name, hostenv.Environ(), command)
}
