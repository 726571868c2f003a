package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	genai "google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// GeminiGenerator asks Gemini for a file manifest of a redesigned
// static site project and writes it out. It is used when no remote
// generation endpoint is configured.
type GeminiGenerator struct {
	cli   *genai.Client
	model string
}

// NewGeminiGenerator builds the client. The genai client reads
// GEMINI_API_KEY from the environment.
func NewGeminiGenerator(ctx context.Context, model string) (*GeminiGenerator, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("generate: gemini client: %w", err)
	}
	if model == "" {
		model = defaultModel
	}
	return &GeminiGenerator{cli: cli, model: model}, nil
}

const manifestPrompt = `You are a web designer. Using the page text and color palette in the
input JSON, produce an accessible redesigned static website.
Respond with JSON only, shaped as:
{"files": [{"path": "index.html", "content": "..."}, ...]}
Rules: include an index.html at the top level; use semantic HTML with
alt text, labels and sufficient color contrast; paths are relative,
forward-slash separated, no "..".`

// manifest is the model's answer.
type manifest struct {
	Files []manifestFile `json:"files"`
}

type manifestFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (g *GeminiGenerator) Generate(ctx context.Context, brief Brief, workDir string) (string, error) {
	raw, err := g.generateJSON(ctx, manifestPrompt, brief)
	if err != nil {
		return "", err
	}

	var m manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", &GenerationError{Msg: "model returned invalid JSON", Err: err}
	}
	if len(m.Files) == 0 {
		return "", &GenerationError{Msg: "model returned no files"}
	}

	projectDir := filepath.Join(workDir, "project")
	hasIndex := false
	for _, f := range m.Files {
		rel, err := safeManifestPath(f.Path)
		if err != nil {
			return "", &GenerationError{Msg: "model returned unsafe path", Err: err}
		}
		if rel == "index.html" {
			hasIndex = true
		}
		dst := filepath.Join(projectDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return "", fmt.Errorf("generate: mkdir: %w", err)
		}
		if err := os.WriteFile(dst, []byte(f.Content), 0o644); err != nil {
			return "", fmt.Errorf("generate: write %s: %w", rel, err)
		}
	}
	if !hasIndex {
		return "", &GenerationError{Msg: "manifest has no top-level index.html"}
	}
	return projectDir, nil
}

// generateJSON concatenates prompt and input and asks the model for
// application/json.
func (g *GeminiGenerator) generateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	in, _ := json.MarshalIndent(input, "", "  ")
	full := prompt + "\n\n[INPUT JSON]\n" + string(in)

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}},
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return nil, &GenerationError{Msg: "model call failed", Err: err}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &GenerationError{Msg: "model returned no candidates"}
	}
	return json.RawMessage(resp.Candidates[0].Content.Parts[0].Text), nil
}

// safeManifestPath validates a model-supplied relative path.
func safeManifestPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("empty path")
	}
	if strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", fmt.Errorf("invalid path %q", p)
	}
	clean := filepath.ToSlash(filepath.Clean(p))
	if clean == ".." || strings.HasPrefix(clean, "../") || clean == "." {
		return "", fmt.Errorf("path escapes project: %q", p)
	}
	return clean, nil
}
