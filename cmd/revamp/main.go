// Command revamp captures a website, scores its accessibility, asks a
// generative service for a redesigned replacement, and scores that too.
//
//	revamp [flags] <url>
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"revamp/internal/audit"
	"revamp/internal/browser"
	"revamp/internal/capture"
	"revamp/internal/config"
	"revamp/internal/generate"
	"revamp/internal/history"
	"revamp/internal/pipeline"
	"revamp/internal/snapshotstore"
)

func main() {
	model := flag.String("model", "", "generative model id (overrides REVAMP_MODEL)")
	endpoint := flag.String("endpoint", "", "external generation endpoint (overrides GENERATE_ENDPOINT)")
	buildCmd := flag.String("build", "", "build command for the generated project (overrides BUILD_CMD)")
	workDir := flag.String("work", "", "working directory; empty uses a temp dir")
	keep := flag.Bool("keep", false, "keep the working directory after the run")
	upload := flag.Bool("upload", false, "upload snapshots to the artifact store")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: revamp [flags] <url>")
		os.Exit(2)
	}
	sourceURL := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if *model != "" {
		cfg.Model = *model
	}
	if *endpoint != "" {
		cfg.GenerateEndpoint = *endpoint
	}
	if *buildCmd != "" {
		cfg.BuildCommand = *buildCmd
	}

	ctx := context.Background()

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	opts := browser.Options{ExecPath: cfg.ChromePath}
	p := &pipeline.Pipeline{
		Capturer: &capture.Capturer{
			Browser:           opts,
			QuiescenceTimeout: cfg.QuiescenceTimeout,
			IdleInterval:      cfg.IdleInterval,
		},
		Auditor: &audit.Runner{
			Engine:            audit.EngineConfig{Path: cfg.EngineScriptPath, URL: cfg.EngineScriptURL},
			Browser:           opts,
			QuiescenceTimeout: cfg.QuiescenceTimeout,
			IdleInterval:      cfg.IdleInterval,
		},
		Generator:    gen,
		WorkDir:      *workDir,
		BuildCommand: cfg.BuildCommand,
		OnStage:      func(s pipeline.State) { log.Printf("stage: %s", s) },
	}
	if p.WorkDir == "" {
		dir, err := os.MkdirTemp("", "revamp-run-")
		if err != nil {
			log.Fatal(err)
		}
		p.WorkDir = dir
		if !*keep {
			defer os.RemoveAll(dir)
		}
	}

	runID := newRunID()
	out, runErr := p.Run(ctx, sourceURL)

	if n := browser.LiveSessions(); n != 0 {
		log.Printf("warning: %d browser session(s) still live after run", n)
	}

	recordRun(cfg, runID, sourceURL, out, runErr)

	if runErr != nil {
		log.Fatalf("run %s: %v", runID, runErr)
	}

	if *upload && cfg.Artifact.Enabled() {
		uploadSnapshots(ctx, cfg, runID, p.WorkDir, out)
	}

	fmt.Printf("before=%d after=%d\n", out.Before, out.After)
	if *keep {
		log.Printf("artifacts kept in %s", p.WorkDir)
	}
}

func newGenerator(ctx context.Context, cfg *config.Config) (generate.Generator, error) {
	if cfg.GenerateEndpoint != "" {
		return &generate.RemoteGenerator{Endpoint: cfg.GenerateEndpoint}, nil
	}
	if os.Getenv("GEMINI_API_KEY") == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set and no -endpoint given")
	}
	return generate.NewGeminiGenerator(ctx, cfg.Model)
}

func recordRun(cfg *config.Config, runID, sourceURL string, out *pipeline.Outcome, runErr error) {
	store := history.NewFromEnv(cfg.HistoryPath, cfg.HistoryDSN)
	rec := history.Run{RunID: runID, URL: sourceURL, Status: history.StatusDone}
	if runErr != nil {
		rec.Status = history.StatusFailed
		rec.Error = runErr.Error()
	} else {
		rec.Before = out.Before
		rec.After = out.After
	}
	if err := store.Add(rec); err != nil {
		log.Printf("history: %v", err)
	}
}

func uploadSnapshots(ctx context.Context, cfg *config.Config, runID, workDir string, out *pipeline.Outcome) {
	store, err := snapshotstore.New(cfg.Artifact)
	if err != nil {
		log.Printf("snapshot upload skipped: %v", err)
		return
	}
	if err := store.UploadDir(ctx, runID, snapshotstore.RoleCapture, filepath.Join(workDir, "capture")); err != nil {
		log.Printf("upload capture: %v", err)
	}
	if err := store.UploadDir(ctx, runID, snapshotstore.RoleRedesign, filepath.Join(workDir, "project")); err != nil {
		log.Printf("upload redesign: %v", err)
	}
	if err := store.PutReport(ctx, runID, out); err != nil {
		log.Printf("upload report: %v", err)
	}
}

func newRunID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "run-0"
	}
	return "run-" + hex.EncodeToString(b[:])
}
