// Package generate turns a captured site's text and palette into a
// buildable redesigned site project, either through a remote generation
// service or directly through Gemini.
package generate

import (
	"context"
	"fmt"

	"revamp/internal/capture"
)

// Brief is the extracted content a generator works from.
type Brief struct {
	SourceURL string                 `json:"source_url,omitempty"`
	Text      string                 `json:"text"`
	Palette   []capture.PaletteEntry `json:"palette"`
}

// Generator produces a site project directory under workDir. The
// project must be buildable by the sitebuild step.
type Generator interface {
	Generate(ctx context.Context, brief Brief, workDir string) (projectDir string, err error)
}

// GenerationError reports a generation service failure: a non-success
// response, an empty payload, or an unusable model answer.
type GenerationError struct {
	Status int
	Msg    string
	Err    error
}

func (e *GenerationError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("generate: service returned status %d", e.Status)
	case e.Err != nil:
		return fmt.Sprintf("generate: %s: %v", e.Msg, e.Err)
	default:
		return "generate: " + e.Msg
	}
}

func (e *GenerationError) Unwrap() error { return e.Err }
