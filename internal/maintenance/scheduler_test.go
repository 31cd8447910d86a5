package maintenance

import (
	"context"
	"log/slog"
	"testing"

	"go.uber.org/goleak"
)

func TestRegisterValidatesSpec(t *testing.T) {
	s := NewScheduler(slog.New(slog.DiscardHandler))

	if err := s.Register("sweep", "*/10 * * * *", func(context.Context) {}); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}
	if err := s.Register("disabled", "", func(context.Context) {}); err != nil {
		t.Fatalf("empty spec should disable the job, got %v", err)
	}
	if err := s.Register("bad", "every now and then", func(context.Context) {}); err == nil {
		t.Fatalf("expected error for malformed spec")
	}
}

func TestOverlappingRunsAreSkipped(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewScheduler(slog.New(slog.DiscardHandler))

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		s.run("sweep", func(context.Context) {
			close(started)
			<-release
		})
		close(done)
	}()
	<-started

	skipped := true
	s.run("sweep", func(context.Context) { skipped = false })
	if !skipped {
		t.Fatalf("second run should be skipped while the first is inflight")
	}

	// A different job is not blocked by the first one.
	otherRan := false
	s.run("counts", func(context.Context) { otherRan = true })
	if !otherRan {
		t.Fatalf("unrelated job should not be blocked")
	}

	close(release)
	<-done

	ran := false
	s.run("sweep", func(context.Context) { ran = true })
	if !ran {
		t.Fatalf("job should run again after the previous run finished")
	}
}

func TestStartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewScheduler(slog.New(slog.DiscardHandler))
	if err := s.Register("sweep", "*/10 * * * *", func(context.Context) {}); err != nil {
		t.Fatalf("register: %v", err)
	}
	s.Start()
	<-s.Stop().Done()
}
