package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wawaka/vibecon/internal/claudesync"
	"github.com/wawaka/vibecon/internal/config"
	"github.com/wawaka/vibecon/internal/container"
	"github.com/wawaka/vibecon/internal/engine"
	"github.com/wawaka/vibecon/internal/install"
	"github.com/wawaka/vibecon/internal/version"
)

const imageName = "vibecon:latest"

var defaultCommand = []string{"claude", "--dangerously-skip-permissions"}

type options struct {
	install     bool
	installTest bool
	uninstall   bool
	stop        bool
	destroy     bool
	build       bool
	forceBuild  bool
}

func main() {
	opts := &options{}

	root := &cobra.Command{
		Use:   "vibecon [command...]",
		Short: "Persistent per-workspace Docker containers for AI coding CLIs",
		Example: `  vibecon           start claude in the workspace container
  vibecon zsh       run zsh in the container
  vibecon gemini    run Gemini CLI in the container
  vibecon codex     run OpenAI Codex in the container
  vibecon -b        check versions and rebuild if updated
  vibecon -B        force rebuild regardless of versions
  vibecon -k        stop the container (can be restarted)
  vibecon -K        destroy the container permanently`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, args)
		},
	}

	f := root.Flags()
	// Everything after the first positional arg belongs to the exec'd
	// command, flags included.
	f.SetInterspersed(false)
	f.BoolVarP(&opts.install, "install", "i", false, "install symlink to ~/.local/bin/vibecon")
	f.BoolVarP(&opts.installTest, "install-test", "I", false, "")
	f.MarkHidden("install-test")
	f.BoolVarP(&opts.uninstall, "uninstall", "u", false, "uninstall symlink from ~/.local/bin/vibecon")
	f.BoolVarP(&opts.stop, "stop", "k", false, "stop the container for the current workspace (can be restarted)")
	f.BoolVarP(&opts.destroy, "destroy", "K", false, "destroy and remove the container permanently")
	f.BoolVarP(&opts.build, "build", "b", false, "rebuild the Docker image (skips if versions unchanged)")
	f.BoolVarP(&opts.forceBuild, "force-build", "B", false, "force rebuild even if image exists")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts *options, args []string) error {
	switch {
	case opts.install:
		return install.Symlink(false)
	case opts.installTest:
		return install.Symlink(true)
	case opts.uninstall:
		return install.Unlink()
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving current directory: %w", err)
	}

	eng := engine.Docker{}
	mgr := container.NewManager(eng, imageName)
	name := container.Name(cwd)

	switch {
	case opts.build || opts.forceBuild:
		return runBuild(eng, opts.forceBuild)
	case opts.stop:
		mgr.Stop(name)
		return nil
	case opts.destroy:
		mgr.Destroy(name)
		return nil
	}

	cfg, err := config.LoadMerged(cwd)
	if err != nil {
		return err
	}

	command := args
	if len(command) == 0 {
		command = defaultCommand
	}

	build := func() error {
		root, err := vibeconRoot()
		if err != nil {
			return err
		}
		return version.Build(eng, root, imageName, nil)
	}
	if err := mgr.EnsureRunning(cwd, name, cfg.Mounts, build); err != nil {
		return err
	}

	claudesync.Sync(eng, name)

	code, err := mgr.Exec(name, command)
	if err != nil {
		return err
	}
	os.Exit(code)
	return nil
}

func runBuild(eng engine.Engine, force bool) error {
	versions := version.Fetch()
	versioned := "vibecon:" + version.CompositeTag(versions)

	exists, err := eng.ImageExists(versioned)
	if err != nil {
		return err
	}
	if exists && !force {
		fmt.Printf("\nImage already exists: %s\n", versioned)
		fmt.Println("No rebuild needed - all versions are up to date.")
		fmt.Println("Use -B/--force-build to rebuild anyway.")
		return nil
	}

	if force && exists {
		fmt.Println("\nForce rebuild requested...")
	} else {
		fmt.Println("\nNew versions detected, building image...")
	}

	root, err := vibeconRoot()
	if err != nil {
		return err
	}
	if err := version.Build(eng, root, imageName, versions); err != nil {
		return err
	}

	fmt.Printf("\nBuild complete! Image tagged as:\n")
	fmt.Printf("  - %s\n", imageName)
	fmt.Printf("  - %s\n", versioned)
	return nil
}

// vibeconRoot locates the image build context: the directory of the resolved
// executable, which must contain the Dockerfile.
func vibeconRoot() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolving executable: %w", err)
	}
	real, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving executable symlinks: %w", err)
	}

	dir := filepath.Dir(real)
	if _, err := os.Stat(filepath.Join(dir, "Dockerfile")); err != nil {
		return "", fmt.Errorf("could not find Dockerfile next to %s", real)
	}
	return dir, nil
}
