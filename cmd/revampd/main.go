// Command revampd exposes the redesign pipeline over HTTP. Runs are
// started with POST /api/runs and observed over websocket or SSE.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"revamp/internal/audit"
	"revamp/internal/browser"
	"revamp/internal/capture"
	"revamp/internal/config"
	"revamp/internal/generate"
	"revamp/internal/history"
	"revamp/internal/pipeline"
	"revamp/internal/server"
)

type apiServer struct {
	cfg      *config.Config
	registry *runRegistry
	store    *history.Store
	gen      generate.Generator

	// launch starts a run and returns its id. Points at startRun;
	// swappable in tests.
	launch func(sourceURL string) string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	api := &apiServer{
		cfg:      cfg,
		registry: newRunRegistry(),
		store:    history.NewFromEnv(cfg.HistoryPath, cfg.HistoryDSN),
		gen:      gen,
	}
	api.launch = api.startRun

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/runs", api.handleRuns)
	mux.HandleFunc("/api/runs/watch", api.handleWatchWS)
	mux.HandleFunc("/api/watch/", api.handleWatchSSE)

	srv := server.New(config.Port(":8081"), mux)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal(err)
		}
	case <-stop:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
}

func newGenerator(ctx context.Context, cfg *config.Config) (generate.Generator, error) {
	if cfg.GenerateEndpoint != "" {
		return &generate.RemoteGenerator{Endpoint: cfg.GenerateEndpoint}, nil
	}
	return generate.NewGeminiGenerator(ctx, cfg.Model)
}

// startRun launches the pipeline in the background and streams stage
// transitions to the run's event channel.
func (s *apiServer) startRun(sourceURL string) string {
	runID := newRunID()
	ch := s.registry.open(runID)

	go func() {
		defer s.registry.finish(runID, ch)

		workDir, err := os.MkdirTemp("", "revamp-run-")
		if err != nil {
			push(ch, Event{Type: eventTypeError, RunID: runID, Error: err.Error()})
			return
		}
		defer os.RemoveAll(workDir)

		opts := browser.Options{ExecPath: s.cfg.ChromePath}
		p := &pipeline.Pipeline{
			Capturer: &capture.Capturer{
				Browser:           opts,
				QuiescenceTimeout: s.cfg.QuiescenceTimeout,
				IdleInterval:      s.cfg.IdleInterval,
			},
			Auditor: &audit.Runner{
				Engine:            audit.EngineConfig{Path: s.cfg.EngineScriptPath, URL: s.cfg.EngineScriptURL},
				Browser:           opts,
				QuiescenceTimeout: s.cfg.QuiescenceTimeout,
				IdleInterval:      s.cfg.IdleInterval,
			},
			Generator:    s.gen,
			WorkDir:      workDir,
			BuildCommand: s.cfg.BuildCommand,
			OnStage:      func(st pipeline.State) { push(ch, stageEvent(runID, st)) },
		}

		out, err := p.Run(context.Background(), sourceURL)

		rec := history.Run{RunID: runID, URL: sourceURL, Status: history.StatusDone}
		if err != nil {
			rec.Status = history.StatusFailed
			rec.Error = err.Error()
			push(ch, Event{Type: eventTypeError, RunID: runID, Error: err.Error()})
		} else {
			rec.Before = out.Before
			rec.After = out.After
			push(ch, Event{Type: eventTypeComplete, RunID: runID, Before: out.Before, After: out.After})
		}
		if herr := s.store.Add(rec); herr != nil {
			log.Printf("history: %v", herr)
		}
	}()

	return runID
}

func newRunID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "run-0"
	}
	return "run-" + hex.EncodeToString(b[:])
}
