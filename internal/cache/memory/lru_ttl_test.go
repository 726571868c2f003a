package memory

import (
	"testing"
	"time"
)

func TestLRUTTL_SetGet(t *testing.T) {
	c := NewLRUTTL[string, []byte](4, 0, time.Minute)
	c.Set("a", []byte("payload"), 7)

	got, ok := c.Get("a")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(got) != "payload" {
		t.Fatalf("got=%q", got)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("unexpected hit")
	}
}

func TestLRUTTL_EvictsByEntryCount(t *testing.T) {
	c := NewLRUTTL[int, int](2, 0, time.Minute)
	c.Set(1, 1, 0)
	c.Set(2, 2, 0)
	c.Set(3, 3, 0)

	if _, ok := c.Get(1); ok {
		t.Fatal("oldest entry should have been evicted")
	}
	if c.Len() != 2 {
		t.Fatalf("len=%d", c.Len())
	}
}

func TestLRUTTL_EvictsByBytes(t *testing.T) {
	c := NewLRUTTL[string, []byte](16, 10, time.Minute)
	c.Set("a", make([]byte, 6), 6)
	c.Set("b", make([]byte, 6), 6)

	if _, ok := c.Get("a"); ok {
		t.Fatal("byte cap should have evicted the oldest entry")
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("newest entry should survive")
	}
}

func TestLRUTTL_Expiry(t *testing.T) {
	c := NewLRUTTL[string, string](4, 0, 20*time.Millisecond)
	c.Set("k", "v", 0)
	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should have expired")
	}
}
