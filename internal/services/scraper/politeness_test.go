package scraper

import (
	"context"
	"testing"
	"time"
)

func TestDelay_WithinBounds(t *testing.T) {
	min := 10 * time.Millisecond
	max := 50 * time.Millisecond

	for i := 0; i < 5; i++ {
		start := time.Now()
		if err := Delay(context.Background(), min, max); err != nil {
			t.Fatalf("Delay failed: %v", err)
		}
		elapsed := time.Since(start)

		if elapsed < min {
			t.Errorf("Delay returned after %v, below minimum %v", elapsed, min)
		}
		// Generous upper slack for scheduler jitter
		if elapsed > max+100*time.Millisecond {
			t.Errorf("Delay returned after %v, far above maximum %v", elapsed, max)
		}
	}
}

func TestDelay_ZeroRange(t *testing.T) {
	if err := Delay(context.Background(), 0, 0); err != nil {
		t.Fatalf("Delay failed: %v", err)
	}
}

func TestDelay_InvertedBoundsClamped(t *testing.T) {
	if err := Delay(context.Background(), 20*time.Millisecond, 5*time.Millisecond); err != nil {
		t.Fatalf("Delay failed: %v", err)
	}
}

func TestDelay_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Delay(ctx, time.Second, 2*time.Second)
	if err == nil {
		t.Fatal("Expected context error")
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("Delay did not return promptly on cancellation")
	}
}
