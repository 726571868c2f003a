package sitebuild

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return dir
}

func stubBuild(t *testing.T, fn func(ctx context.Context, dir, command string) ([]byte, error)) {
	t.Helper()
	prev := runBuildCommand
	runBuildCommand = fn
	t.Cleanup(func() { runBuildCommand = prev })
}

func TestBuild_StaticProjectSkipsBuildStep(t *testing.T) {
	dir := writeProject(t, map[string]string{"index.html": "<html></html>"})
	stubBuild(t, func(ctx context.Context, d, cmd string) ([]byte, error) {
		t.Fatal("build command ran for a static project")
		return nil, nil
	})

	got, err := Build(context.Background(), dir, "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got != dir {
		t.Fatalf("got=%s want=%s", got, dir)
	}
}

func TestBuild_RunsCommandAndFindsDist(t *testing.T) {
	dir := writeProject(t, map[string]string{"package.json": "{}"})
	var ranIn, ranCmd string
	stubBuild(t, func(ctx context.Context, d, cmd string) ([]byte, error) {
		ranIn, ranCmd = d, cmd
		p := filepath.Join(d, "dist", "index.html")
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, err
		}
		return []byte("ok"), os.WriteFile(p, []byte("<html></html>"), 0o644)
	})

	got, err := Build(context.Background(), dir, "make site")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got != filepath.Join(dir, "dist") {
		t.Fatalf("got=%s", got)
	}
	if ranIn != dir || ranCmd != "make site" {
		t.Fatalf("ran %q in %q", ranCmd, ranIn)
	}
}

func TestBuild_NonZeroExitIsBuildError(t *testing.T) {
	dir := writeProject(t, map[string]string{"package.json": "{}"})
	cause := errors.New("exit status 2")
	stubBuild(t, func(ctx context.Context, d, cmd string) ([]byte, error) {
		return []byte("npm ERR! missing script: build"), cause
	})

	_, err := Build(context.Background(), dir, "")
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("err=%T want *BuildError", err)
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause not preserved")
	}
}

func TestBuild_NoOutputDirectory(t *testing.T) {
	dir := writeProject(t, map[string]string{"package.json": "{}"})
	stubBuild(t, func(ctx context.Context, d, cmd string) ([]byte, error) {
		return []byte("ok"), nil
	})

	if _, err := Build(context.Background(), dir, ""); err == nil {
		t.Fatal("missing output directory accepted")
	}
}
