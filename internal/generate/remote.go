package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"revamp/internal/sitebuild"
)

// RemoteGenerator posts the brief to a generation service and receives
// the redesigned site project as a zip archive.
type RemoteGenerator struct {
	Endpoint string
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

func (g *RemoteGenerator) Generate(ctx context.Context, brief Brief, workDir string) (string, error) {
	body, err := json.Marshal(brief)
	if err != nil {
		return "", fmt.Errorf("generate: marshal brief: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := g.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &GenerationError{Msg: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &GenerationError{Status: resp.StatusCode}
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &GenerationError{Msg: "read payload", Err: err}
	}
	if len(payload) == 0 {
		return "", &GenerationError{Msg: "empty payload"}
	}

	archive := filepath.Join(workDir, "site.zip")
	if err := os.WriteFile(archive, payload, 0o644); err != nil {
		return "", fmt.Errorf("generate: write archive: %w", err)
	}
	projectDir := filepath.Join(workDir, "project")
	if err := sitebuild.ExtractZip(archive, projectDir); err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return projectDir, nil
}
