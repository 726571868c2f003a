package staticserve

import (
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSite(t *testing.T, files map[string]string) string {
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

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, b
}

func TestStart_RootServesIndexBytes(t *testing.T) {
	const doc = "<!doctype html><title>snapshot</title><h1>original</h1>"
	dir := writeSite(t, map[string]string{"index.html": doc})

	s, err := Start(dir)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Close()

	resp, body := get(t, s.URL()+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	if string(body) != doc {
		t.Fatalf("body=%q want=%q", body, doc)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content-type=%q", ct)
	}
}

func TestStart_ServesNestedAssets(t *testing.T) {
	dir := writeSite(t, map[string]string{
		"index.html":      "<html></html>",
		"styles/main.css": "body{color:#222}",
	})

	s, err := Start(dir)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Close()

	resp, body := get(t, s.URL()+"/styles/main.css")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	if string(body) != "body{color:#222}" {
		t.Fatalf("body=%q", body)
	}
}

func TestStart_MissingPathIs404(t *testing.T) {
	dir := writeSite(t, map[string]string{"index.html": "<html></html>"})

	s, err := Start(dir)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Close()

	for _, p := range []string{"/missing.html", "/assets/x.png", "/../escape"} {
		resp, _ := get(t, s.URL()+p)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("GET %s: status=%d want 404", p, resp.StatusCode)
		}
	}
}

func TestClose_StopsServingAndIsIdempotent(t *testing.T) {
	dir := writeSite(t, map[string]string{"index.html": "<html></html>"})

	s, err := Start(dir)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	addr := s.Addr()

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if _, err := net.Dial("tcp", addr); err == nil {
		t.Fatal("listener still accepting after Close")
	}
}

func TestStart_ConsecutiveRunsDoNotLeakPorts(t *testing.T) {
	dir := writeSite(t, map[string]string{"index.html": "<html></html>"})

	for i := 0; i < 5; i++ {
		s, err := Start(dir)
		if err != nil {
			t.Fatalf("run %d: Start: %v", i, err)
		}
		resp, _ := get(t, s.URL()+"/")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("run %d: status=%d", i, resp.StatusCode)
		}
		addr := s.Addr()
		if err := s.Close(); err != nil {
			t.Fatalf("run %d: Close: %v", i, err)
		}
		if _, err := net.Dial("tcp", addr); err == nil {
			t.Fatalf("run %d: port %s still open", i, addr)
		}
	}
}
