package cli

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func captureStatus(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := statusOut
	statusOut = &buf
	t.Cleanup(func() { statusOut = old })
	return &buf
}

func TestSpinnerStop(t *testing.T) {
	captureStatus(t)
	s := newSpinner(context.Background(), "Rendering...").Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()
	s.Stop()
	if s.Cancelled() {
		t.Error("Stop is not a cancellation")
	}
}

func TestSpinnerParentCancel(t *testing.T) {
	captureStatus(t)
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinner(ctx, "Rendering...").Start()
	cancel()
	s.Stop()
	if !s.Cancelled() {
		t.Error("spinner should report cancellation")
	}
}
