package spinner

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerStartStop(t *testing.T) {
	var buf bytes.Buffer
	sp := New(context.Background(), &buf, "Fitting term-weight index...")

	sp.Start()
	time.Sleep(250 * time.Millisecond)
	sp.Stop()

	output := buf.String()
	if output == "" {
		t.Fatal("expected spinner output in buffer")
	}
	if !strings.Contains(output, "Fitting term-weight index...") {
		t.Errorf("output missing message: %q", output)
	}
}

func TestSpinnerDoubleStartAndStop(t *testing.T) {
	var buf bytes.Buffer
	sp := New(context.Background(), &buf, "working")

	// repeated Start/Stop calls must not panic or deadlock
	sp.Start()
	sp.Start()
	time.Sleep(120 * time.Millisecond)
	sp.Stop()
	sp.Stop()
}

func TestSpinnerContextCancellation(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	sp := New(ctx, &buf, "working")

	sp.Start()
	cancel()
	time.Sleep(50 * time.Millisecond)

	// Stop after external cancellation should still return promptly
	done := make(chan struct{})
	go func() {
		sp.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() did not return after context cancellation")
	}
}
