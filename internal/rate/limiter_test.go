package rate

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	lim := New(Config{
		RequestsPerSecond: 10,
		Burst:             5,
	})

	// Should allow up to burst count immediately
	allowed := 0
	for i := 0; i < 10; i++ {
		if lim.Allow() {
			allowed++
		}
	}

	if allowed != 5 {
		t.Errorf("expected 5 allowed from burst, got %d", allowed)
	}
}

func TestLimiter_Refill(t *testing.T) {
	lim := New(Config{
		RequestsPerSecond: 100, // refills fast
		Burst:             2,
	})

	// Drain the bucket
	for lim.Allow() {
	}

	// Wait for tokens to refill
	time.Sleep(50 * time.Millisecond)

	if !lim.Allow() {
		t.Error("expected token to be available after refill period")
	}
}

func TestManager_Wait(t *testing.T) {
	m := NewManager(Config{RequestsPerSecond: 100, Burst: 1})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := m.Wait(ctx, "coingecko"); err != nil {
		t.Fatalf("first wait should pass immediately: %v", err)
	}
	if err := m.Wait(ctx, "coingecko"); err != nil {
		t.Fatalf("second wait should pass after refill: %v", err)
	}
}

func TestManager_SameLimiterPerKey(t *testing.T) {
	m := NewManager(Config{RequestsPerSecond: 1, Burst: 1})

	if m.GetLimiter("a") != m.GetLimiter("a") {
		t.Error("expected the same limiter instance for a key")
	}
	if m.GetLimiter("a") == m.GetLimiter("b") {
		t.Error("expected distinct limiters for distinct keys")
	}
}
