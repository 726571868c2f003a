package generate

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"revamp/internal/capture"
)

func siteZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestRemoteGenerator_PostsBriefAndExtracts(t *testing.T) {
	payload := siteZip(t, map[string]string{"index.html": "<html><body>redesign</body></html>"})

	var gotBrief Brief
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method=%s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBrief); err != nil {
			t.Errorf("decode brief: %v", err)
		}
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	g := &RemoteGenerator{Endpoint: srv.URL, HTTPClient: srv.Client()}
	brief := Brief{
		Text:    "hello world",
		Palette: []capture.PaletteEntry{{Color: "#222222", Count: 3}},
	}
	dir, err := g.Generate(context.Background(), brief, t.TempDir())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "index.html"))
	if err != nil {
		t.Fatalf("read extracted project: %v", err)
	}
	if !bytes.Contains(b, []byte("redesign")) {
		t.Fatalf("index=%q", b)
	}
	if gotBrief.Text != "hello world" || len(gotBrief.Palette) != 1 {
		t.Fatalf("service saw brief %+v", gotBrief)
	}
}

func TestRemoteGenerator_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := &RemoteGenerator{Endpoint: srv.URL, HTTPClient: srv.Client()}
	_, err := g.Generate(context.Background(), Brief{}, t.TempDir())

	var ge *GenerationError
	if !errors.As(err, &ge) {
		t.Fatalf("err=%T want *GenerationError", err)
	}
	if ge.Status != http.StatusTooManyRequests {
		t.Fatalf("Status=%d", ge.Status)
	}
}

func TestRemoteGenerator_EmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := &RemoteGenerator{Endpoint: srv.URL, HTTPClient: srv.Client()}
	_, err := g.Generate(context.Background(), Brief{}, t.TempDir())

	var ge *GenerationError
	if !errors.As(err, &ge) {
		t.Fatalf("err=%T want *GenerationError", err)
	}
}

func TestRemoteGenerator_UnreachableService(t *testing.T) {
	g := &RemoteGenerator{Endpoint: "http://127.0.0.1:1/generate"}
	_, err := g.Generate(context.Background(), Brief{}, t.TempDir())

	var ge *GenerationError
	if !errors.As(err, &ge) {
		t.Fatalf("err=%T want *GenerationError", err)
	}
}
