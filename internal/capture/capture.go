// Package capture loads a live website in a headless browser and
// writes a servable snapshot of it: rendered markup, downloaded
// stylesheets and images, the visible text corpus, and a ranked color
// palette. Only index.html is required downstream; the rest feeds the
// generation brief.
package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"revamp/internal/browser"
	"revamp/internal/cache/memory"
)

const (
	assetsDir = "assets"
	stylesDir = "styles"

	paletteLimit = 12
)

// Capturer drives one capture pass per call.
type Capturer struct {
	Browser           browser.Options
	QuiescenceTimeout time.Duration
	IdleInterval      time.Duration
	// HTTPClient downloads referenced assets. nil means the default
	// client.
	HTTPClient *http.Client

	assetCache *memory.LRUTTL[string, []byte]
}

// Snapshot describes one written ContentDirectory.
type Snapshot struct {
	Dir     string         `json:"dir"`
	Text    string         `json:"text"`
	Palette []PaletteEntry `json:"palette"`
}

// pageAssets is what the in-page collection script returns.
type pageAssets struct {
	Styles []string `json:"styles"`
	Inline []string `json:"inline"`
	Images []string `json:"images"`
}

const collectScript = `({
  styles: [...document.querySelectorAll('link[rel="stylesheet"]')].map(l => l.href),
  inline: [...document.querySelectorAll('style')].map(s => s.textContent),
  images: [...document.images].map(i => i.src).filter(s => s.startsWith('http')),
})`

// Capture loads sourceURL, waits for network quiescence, and writes the
// snapshot under destDir. destDir is created if needed.
func (c *Capturer) Capture(ctx context.Context, sourceURL, destDir string) (*Snapshot, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("capture: mkdir %s: %w", destDir, err)
	}

	sess, err := browser.New(ctx, c.Browser)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	defer sess.Close()

	timeout := c.QuiescenceTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	idle := c.IdleInterval
	if idle <= 0 {
		idle = 500 * time.Millisecond
	}
	if _, err := sess.Load(sourceURL, timeout, idle); err != nil {
		return nil, fmt.Errorf("capture: load %s: %w", sourceURL, err)
	}

	html, err := sess.OuterHTML()
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	var assets pageAssets
	if err := sess.Evaluate(collectScript, &assets, false); err != nil {
		return nil, fmt.Errorf("capture: collect assets: %w", err)
	}

	if err := os.WriteFile(filepath.Join(destDir, "index.html"), []byte(html), 0o644); err != nil {
		return nil, fmt.Errorf("capture: write index: %w", err)
	}

	css := c.saveStylesheets(ctx, destDir, assets)
	c.saveImages(ctx, destDir, assets.Images)

	text := ExtractText(html)
	if err := os.WriteFile(filepath.Join(destDir, "corpus.txt"), []byte(text), 0o644); err != nil {
		return nil, fmt.Errorf("capture: write corpus: %w", err)
	}

	palette := ExtractPalette(css, paletteLimit)
	pb, err := json.MarshalIndent(palette, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("capture: marshal palette: %w", err)
	}
	if err := os.WriteFile(filepath.Join(destDir, "palette.json"), pb, 0o644); err != nil {
		return nil, fmt.Errorf("capture: write palette: %w", err)
	}

	return &Snapshot{Dir: destDir, Text: text, Palette: palette}, nil
}

// saveStylesheets downloads external stylesheets and writes them plus
// inline styles under styles/. Returns all CSS text for palette
// extraction. Individual download failures are logged, not fatal — the
// snapshot does not depend on them.
func (c *Capturer) saveStylesheets(ctx context.Context, destDir string, assets pageAssets) string {
	var all strings.Builder
	dir := filepath.Join(destDir, stylesDir)

	for i, href := range assets.Styles {
		b, err := c.fetch(ctx, href)
		if err != nil {
			log.Printf("capture: stylesheet %s: %v", href, err)
			continue
		}
		all.Write(b)
		all.WriteByte('\n')
		if err := writeUnder(dir, fmt.Sprintf("sheet-%02d.css", i), b); err != nil {
			log.Printf("capture: %v", err)
		}
	}
	for i, inline := range assets.Inline {
		all.WriteString(inline)
		all.WriteByte('\n')
		if err := writeUnder(dir, fmt.Sprintf("inline-%02d.css", i), []byte(inline)); err != nil {
			log.Printf("capture: %v", err)
		}
	}
	return all.String()
}

func (c *Capturer) saveImages(ctx context.Context, destDir string, urls []string) {
	dir := filepath.Join(destDir, assetsDir)
	seen := make(map[string]bool)
	for i, src := range urls {
		name := assetFileName(src, i)
		if seen[name] {
			continue
		}
		seen[name] = true
		b, err := c.fetch(ctx, src)
		if err != nil {
			log.Printf("capture: image %s: %v", src, err)
			continue
		}
		if err := writeUnder(dir, name, b); err != nil {
			log.Printf("capture: %v", err)
		}
	}
}

// fetch downloads a URL through the in-memory cache, so an asset
// referenced several times is requested once.
func (c *Capturer) fetch(ctx context.Context, url string) ([]byte, error) {
	if c.assetCache == nil {
		c.assetCache = memory.NewLRUTTL[string, []byte](256, 64<<20, 10*time.Minute)
	}
	if b, ok := c.assetCache.Get(url); ok {
		return b, nil
	}
	b, err := fetchURL(ctx, c.HTTPClient, url)
	if err != nil {
		return nil, err
	}
	c.assetCache.Set(url, b, len(b))
	return b, nil
}

func writeUnder(dir, name string, b []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
