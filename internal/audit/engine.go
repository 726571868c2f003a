package audit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"revamp/internal/cache/memory"
)

// DefaultEngineURL is where the axe-core bundle is fetched from when no
// local copy is configured.
const DefaultEngineURL = "https://cdn.jsdelivr.net/npm/axe-core@4.10.2/axe.min.js"

// EngineConfig locates the audit engine script.
type EngineConfig struct {
	// Path is a local copy of the engine bundle. Takes precedence.
	Path string
	// URL is fetched when Path is empty. Empty means DefaultEngineURL.
	URL string
	// HTTPClient overrides the fetch client (tests).
	HTTPClient *http.Client
}

// scriptCache holds fetched engine bundles so repeated audits in one
// process fetch the CDN once.
var scriptCache = memory.NewLRUTTL[string, []byte](4, 16<<20, time.Hour)

// LoadEngineScript returns the engine's executable source. Failures are
// reported as *EngineError: without the script no audit can run.
func LoadEngineScript(ctx context.Context, cfg EngineConfig) (string, error) {
	if cfg.Path != "" {
		b, err := os.ReadFile(cfg.Path)
		if err != nil {
			return "", &EngineError{Err: fmt.Errorf("read engine script: %w", err)}
		}
		return string(b), nil
	}

	url := cfg.URL
	if url == "" {
		url = DefaultEngineURL
	}
	if b, ok := scriptCache.Get(url); ok {
		return string(b), nil
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &EngineError{Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &EngineError{Err: fmt.Errorf("fetch engine script: %w", err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &EngineError{Err: fmt.Errorf("fetch engine script: status %d from %s", resp.StatusCode, url)}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &EngineError{Err: fmt.Errorf("fetch engine script: %w", err)}
	}
	if len(b) == 0 {
		return "", &EngineError{Err: fmt.Errorf("fetch engine script: empty payload from %s", url)}
	}
	scriptCache.Set(url, b, len(b))
	return string(b), nil
}
