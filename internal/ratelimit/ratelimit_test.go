package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinBurst(t *testing.T) {
	krl := New(1, 3)
	defer krl.Stop()

	for i := range 3 {
		if !krl.Allow("key") {
			t.Fatalf("request %d within burst should be allowed", i)
		}
	}
	if krl.Allow("key") {
		t.Error("request beyond burst should be denied")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	krl := New(1, 1)
	defer krl.Stop()

	if !krl.Allow("a") {
		t.Fatal("first request for a should pass")
	}
	if krl.Allow("a") {
		t.Error("second request for a should be denied")
	}
	if !krl.Allow("b") {
		t.Error("b has its own bucket and should pass")
	}
}

func TestTokensRefill(t *testing.T) {
	krl := New(100, 1)
	defer krl.Stop()

	if !krl.Allow("key") {
		t.Fatal("first request should pass")
	}
	if krl.Allow("key") {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(20 * time.Millisecond)
	if !krl.Allow("key") {
		t.Error("bucket should refill at 100 rps")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	krl := New(1, 1)
	krl.Stop()
	krl.Stop()
}
