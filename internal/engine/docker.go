package engine

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"golang.org/x/term"
)

// Docker shells out to the docker CLI. The zero value is usable.
type Docker struct{}

var _ Engine = Docker{}

func (Docker) ContainerRunning(name string) bool {
	out, err := exec.Command("docker", "inspect", "-f", "{{.State.Running}}", name).Output()
	return err == nil && strings.TrimSpace(string(out)) == "true"
}

func (Docker) ContainerExists(name string) bool {
	return exec.Command("docker", "inspect", name).Run() == nil
}

func (Docker) StartContainer(name string) error {
	out, err := exec.Command("docker", "start", name).CombinedOutput()
	if err != nil {
		return fmt.Errorf("docker start: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

func (Docker) StopContainer(name string) error {
	return exec.Command("docker", "stop", name).Run()
}

func (Docker) RemoveContainer(name string) error {
	exec.Command("docker", "rm", "-f", name).Run()
	return nil
}

func (Docker) ImageExists(image string) (bool, error) {
	var stderr bytes.Buffer
	cmd := exec.Command("docker", "image", "inspect", image)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if strings.Contains(strings.ToLower(stderr.String()), "no such image") {
			return false, nil
		}
		return false, fmt.Errorf("docker image inspect: %s: %w", strings.TrimSpace(stderr.String()), err)
	}
	return true, nil
}

func (Docker) BuildImage(contextDir string, buildArgs map[string]string, tags []string) error {
	args := []string{"build"}

	// Deterministic argument order keeps build invocations reproducible.
	keys := make([]string, 0, len(buildArgs))
	for k := range buildArgs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%s", k, buildArgs[k]))
	}
	for _, tag := range tags {
		args = append(args, "-t", tag)
	}
	args = append(args, ".")

	cmd := exec.Command("docker", args...)
	cmd.Dir = contextDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker build failed: %w", err)
	}
	return nil
}

func (Docker) RunDetached(opts RunOptions) error {
	args := []string{"run", "-d", "--name", opts.Name}
	if opts.Hostname != "" {
		args = append(args, "--hostname", opts.Hostname)
	}
	for _, e := range opts.Env {
		args = append(args, "-e", e)
	}
	args = append(args, opts.MountArgs...)
	args = append(args, opts.Image)

	out, err := exec.Command("docker", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("docker run failed: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

func (Docker) ExecInteractive(name string, env []string, command []string) (int, error) {
	args := []string{"exec", "-i"}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		args = []string{"exec", "-it"}
	}
	for _, e := range env {
		args = append(args, "-e", e)
	}
	args = append(args, name)
	args = append(args, command...)

	cmd := exec.Command("docker", args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return ee.ExitCode(), nil
		}
		return 1, fmt.Errorf("docker exec: %w", err)
	}
	return 0, nil
}

func (Docker) Exec(name string, command ...string) error {
	args := append([]string{"exec", name}, command...)
	return exec.Command("docker", args...).Run()
}

func (Docker) ExecAs(name, user string, command ...string) error {
	args := append([]string{"exec", "-u", user, name}, command...)
	return exec.Command("docker", args...).Run()
}

func (Docker) StreamArchive(name, destDir string, archive io.Reader) error {
	cmd := exec.Command("docker", "exec", "-i", name, "tar", "-xf", "-", "-C", destDir)
	cmd.Stdin = archive
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("extracting archive in container: %s: %w", strings.TrimSpace(stderr.String()), err)
	}
	return nil
}
