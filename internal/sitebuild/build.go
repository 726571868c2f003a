package sitebuild

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultBuildCommand installs dependencies and builds a typical
// npm-based project.
const DefaultBuildCommand = "npm install --no-audit --silent && npm run build"

// BuildError reports a build command exiting non-zero.
type BuildError struct {
	Cmd    string
	Output string
	Err    error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("sitebuild: %q failed: %v: %s", e.Cmd, e.Err, strings.TrimSpace(e.Output))
}

func (e *BuildError) Unwrap() error { return e.Err }

// runBuildCommand is injectable in tests.
var runBuildCommand = func(ctx context.Context, dir, command string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// outputDirNames are checked, in order, for the built site.
var outputDirNames = []string{"dist", "build", "out", "public"}

// Build runs command inside projectDir and returns the directory
// holding the built site's index document. An empty command means
// DefaultBuildCommand. Projects that are already plain static sites
// (index.html at the top, no package.json) skip the build step.
func Build(ctx context.Context, projectDir, command string) (string, error) {
	if command == "" {
		command = DefaultBuildCommand
	}

	if !hasFile(projectDir, "package.json") {
		if hasFile(projectDir, "index.html") {
			return projectDir, nil
		}
		return "", fmt.Errorf("sitebuild: %s has neither package.json nor index.html", projectDir)
	}

	out, err := runBuildCommand(ctx, projectDir, command)
	if err != nil {
		return "", &BuildError{Cmd: command, Output: string(out), Err: err}
	}
	return findOutputDir(projectDir)
}

// findOutputDir locates the built content directory.
func findOutputDir(projectDir string) (string, error) {
	for _, name := range outputDirNames {
		dir := filepath.Join(projectDir, name)
		if hasFile(dir, "index.html") {
			return dir, nil
		}
	}
	if hasFile(projectDir, "index.html") {
		return projectDir, nil
	}
	return "", fmt.Errorf("sitebuild: no output directory with index.html under %s", projectDir)
}

func hasFile(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && !info.IsDir()
}
