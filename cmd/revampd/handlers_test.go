package main

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"revamp/internal/history"
	"revamp/internal/pipeline"
)

func newTestAPI(t *testing.T) *apiServer {
	t.Helper()
	s := &apiServer{
		registry: newRunRegistry(),
		store:    history.New(filepath.Join(t.TempDir(), "runs.json")),
	}
	s.launch = func(string) string { return "run-test" }
	return s
}

func TestValidateRunURL(t *testing.T) {
	for _, ok := range []string{"https://site.example", "http://127.0.0.1:8080/page"} {
		if err := validateRunURL(ok); err != nil {
			t.Fatalf("validateRunURL(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"", "   ", "ftp://x", "site.example", "/relative"} {
		if err := validateRunURL(bad); err == nil {
			t.Fatalf("validateRunURL(%q) accepted", bad)
		}
	}
}

func TestHandleRuns_Post(t *testing.T) {
	s := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(`{"url":"https://site.example"}`))
	rec := httptest.NewRecorder()
	s.handleRuns(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp startRunResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RunID != "run-test" {
		t.Fatalf("runId=%q", resp.RunID)
	}
}

func TestHandleRuns_PostRejectsBadURL(t *testing.T) {
	s := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(`{"url":"not-a-url"}`))
	rec := httptest.NewRecorder()
	s.handleRuns(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestHandleRuns_List(t *testing.T) {
	s := newTestAPI(t)
	if err := s.store.Add(history.Run{RunID: "r1", URL: "https://site.example", Status: history.StatusDone, Before: 80, After: 95}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=10", nil)
	rec := httptest.NewRecorder()
	s.handleRuns(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var runs []history.Run
	if err := json.NewDecoder(rec.Body).Decode(&runs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(runs) != 1 || runs[0].After != 95 {
		t.Fatalf("runs=%+v", runs)
	}
}

func TestHandleWatchSSE_UnknownRun(t *testing.T) {
	s := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/watch/nope", nil)
	rec := httptest.NewRecorder()
	s.handleWatchSSE(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestHandleWatchSSE_StreamsUntilComplete(t *testing.T) {
	s := newTestAPI(t)
	ch := s.registry.open("r1")
	push(ch, stageEvent("r1", pipeline.StateCapturing))
	push(ch, Event{Type: eventTypeComplete, RunID: "r1", Before: 80, After: 95})

	req := httptest.NewRequest(http.MethodGet, "/api/watch/r1", nil)
	rec := httptest.NewRecorder()
	s.handleWatchSSE(rec, req)

	sc := bufio.NewScanner(rec.Body)
	var events []string
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "event: ") {
			events = append(events, strings.TrimPrefix(line, "event: "))
		}
	}
	if len(events) != 2 || events[0] != eventTypeStage || events[1] != eventTypeComplete {
		t.Fatalf("events=%v", events)
	}
}

func TestRegistry_PushDropsWhenFull(t *testing.T) {
	r := newRunRegistry()
	ch := r.open("r1")
	for i := 0; i < 100; i++ {
		push(ch, stageEvent("r1", pipeline.StateCapturing))
	}
	if _, ok := r.lookup("r1"); !ok {
		t.Fatal("run should be registered")
	}
	r.finish("r1", ch)
	if _, ok := r.lookup("r1"); ok {
		t.Fatal("run should be gone after finish")
	}
}
