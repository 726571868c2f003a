// Package pipeline sequences capture, before-audit, generation and
// after-audit into one strictly serial run with guaranteed teardown
// between stages.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"revamp/internal/audit"
	"revamp/internal/capture"
	"revamp/internal/generate"
	"revamp/internal/sitebuild"
	"revamp/internal/staticserve"
)

// State names the orchestrator's position. Transitions are strictly
// Capturing → AuditingBefore → Generating → AuditingAfter → Done, with
// Failed absorbing from any step.
type State string

const (
	StateCapturing      State = "capturing"
	StateAuditingBefore State = "auditing_before"
	StateGenerating     State = "generating"
	StateAuditingAfter  State = "auditing_after"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Outcome is the before/after score pair. It exists only when all four
// stages succeeded.
type Outcome struct {
	Before int `json:"before"`
	After  int `json:"after"`
}

// Capturer writes a site snapshot. Satisfied by *capture.Capturer.
type Capturer interface {
	Capture(ctx context.Context, sourceURL, destDir string) (*capture.Snapshot, error)
}

// Auditor scores a URL. Satisfied by *audit.Runner.
type Auditor interface {
	Audit(ctx context.Context, url string) (*audit.Result, error)
}

// ContentServer is a running ephemeral server for one audit pass.
type ContentServer interface {
	URL() string
	Close() error
}

// Pipeline holds the collaborators for one or more runs. Zero fields
// fall back to the real implementations.
type Pipeline struct {
	Capturer  Capturer
	Auditor   Auditor
	Generator generate.Generator

	// WorkDir holds per-run artifacts. Empty means a fresh temp dir
	// per run.
	WorkDir string
	// BuildCommand overrides the generated project's build step.
	BuildCommand string

	// StartServer and Build are injectable in tests.
	StartServer func(dir string) (ContentServer, error)
	Build       func(ctx context.Context, projectDir, command string) (string, error)

	// OnStage, when set, observes every state transition.
	OnStage func(State)
}

// Run executes the four stages for sourceURL. Exactly one server and
// one browser session are alive at any point; each stage's server is
// closed before the next stage starts. On any stage failure the
// triggering error is returned as-is and no Outcome is produced.
func (p *Pipeline) Run(ctx context.Context, sourceURL string) (*Outcome, error) {
	workDir := p.WorkDir
	if workDir == "" {
		dir, err := os.MkdirTemp("", "revamp-run-")
		if err != nil {
			return nil, fmt.Errorf("pipeline: workdir: %w", err)
		}
		workDir = dir
	}

	p.enter(StateCapturing)
	snap, err := p.Capturer.Capture(ctx, sourceURL, filepath.Join(workDir, "capture"))
	if err != nil {
		return nil, p.fail(err)
	}

	p.enter(StateAuditingBefore)
	before, err := p.serveAndAudit(ctx, snap.Dir)
	if err != nil {
		return nil, p.fail(err)
	}

	// The before-score is retained for the outcome only; generation
	// sees just the extracted content.
	p.enter(StateGenerating)
	projectDir, err := p.Generator.Generate(ctx, generate.Brief{
		SourceURL: sourceURL,
		Text:      snap.Text,
		Palette:   snap.Palette,
	}, workDir)
	if err != nil {
		return nil, p.fail(err)
	}
	buildFn := p.Build
	if buildFn == nil {
		buildFn = sitebuild.Build
	}
	contentDir, err := buildFn(ctx, projectDir, p.BuildCommand)
	if err != nil {
		return nil, p.fail(err)
	}

	p.enter(StateAuditingAfter)
	after, err := p.serveAndAudit(ctx, contentDir)
	if err != nil {
		return nil, p.fail(err)
	}

	p.enter(StateDone)
	return &Outcome{Before: before, After: after}, nil
}

// serveAndAudit serves dir on an ephemeral port for exactly one audit
// pass. The server is torn down before returning, on every path.
func (p *Pipeline) serveAndAudit(ctx context.Context, dir string) (int, error) {
	start := p.StartServer
	if start == nil {
		start = func(d string) (ContentServer, error) { return staticserve.Start(d) }
	}
	srv, err := start(dir)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := srv.Close(); cerr != nil {
			log.Printf("pipeline: close server: %v", cerr)
		}
	}()

	res, err := p.Auditor.Audit(ctx, srv.URL()+"/")
	if err != nil {
		return 0, err
	}
	return audit.Score(res), nil
}

func (p *Pipeline) enter(s State) {
	if p.OnStage != nil {
		p.OnStage(s)
	}
}

// fail marks the absorbing state and hands the stage error back
// unmodified.
func (p *Pipeline) fail(err error) error {
	p.enter(StateFailed)
	return err
}
