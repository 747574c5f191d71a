package context

import (
	"context"
	"testing"
	"time"
)

func TestSleep(t *testing.T) {
	t.Run("zero duration returns immediately", func(t *testing.T) {
		if err := Sleep(context.Background(), 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("elapses", func(t *testing.T) {
		start := time.Now()
		if err := Sleep(context.Background(), 20*time.Millisecond); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
			t.Errorf("returned after %v, want at least 20ms", elapsed)
		}
	})

	t.Run("canceled context interrupts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		start := time.Now()
		err := Sleep(ctx, time.Minute)
		if err != context.Canceled {
			t.Fatalf("got %v, want context.Canceled", err)
		}
		if time.Since(start) > time.Second {
			t.Error("sleep was not interrupted")
		}
	})

	t.Run("already canceled with zero duration", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := Sleep(ctx, 0); err != context.Canceled {
			t.Fatalf("got %v, want context.Canceled", err)
		}
	})
}

func TestStatusHelpers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()

	if !IsCanceled(ctx) {
		t.Error("expected IsCanceled to be true")
	}
	if !IsTimedOut(ctx) {
		t.Error("expected IsTimedOut to be true")
	}
	if IsCanceled(context.Background()) {
		t.Error("background context should not be canceled")
	}
}
