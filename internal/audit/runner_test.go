package audit

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"revamp/internal/browser"
)

func TestClassifyLoad_QuiescenceTimeout(t *testing.T) {
	err := classifyLoad("http://127.0.0.1:9/", 5*time.Second, nil,
		fmt.Errorf("wrapped: %w", browser.ErrQuiescenceTimeout))

	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("err=%T want *TimeoutError", err)
	}
	if te.Wait != 5*time.Second {
		t.Fatalf("Wait=%s", te.Wait)
	}
}

func TestClassifyLoad_NavigateFailure(t *testing.T) {
	cause := errors.New("net::ERR_CONNECTION_REFUSED")
	err := classifyLoad("http://127.0.0.1:9/", time.Second, nil, cause)

	var ne *NavigationError
	if !errors.As(err, &ne) {
		t.Fatalf("err=%T want *NavigationError", err)
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause not preserved through Unwrap")
	}
}

func TestClassifyLoad_ErrorStatusDocument(t *testing.T) {
	err := classifyLoad("http://site/", time.Second, &browser.LoadResult{Status: 404}, nil)

	var ne *NavigationError
	if !errors.As(err, &ne) {
		t.Fatalf("err=%T want *NavigationError", err)
	}
	if ne.Status != 404 {
		t.Fatalf("Status=%d", ne.Status)
	}
}

func TestClassifyLoad_CleanLoad(t *testing.T) {
	if err := classifyLoad("http://site/", time.Second, &browser.LoadResult{Status: 200}, nil); err != nil {
		t.Fatalf("clean load classified as %v", err)
	}
}
