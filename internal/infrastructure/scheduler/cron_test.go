package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestNewCronSchedulerRejectsInvalidSpec(t *testing.T) {
	t.Parallel()

	if _, err := NewCronScheduler("not a cron", nil, false, nil); err == nil {
		t.Fatalf("expected error for invalid expression")
	}
}

func TestCronSchedulerRunOnStart(t *testing.T) {
	t.Parallel()

	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	s, err := NewCronScheduler("0 6 * * *", paris, true, nil)
	if err != nil {
		t.Fatalf("NewCronScheduler returned error: %v", err)
	}

	fired := make(chan time.Time, 1)
	if err := s.Start(context.Background(), func(at time.Time) { fired <- at }); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	select {
	case at := <-fired:
		if at.Location() != paris {
			t.Fatalf("expected trigger in %s, got %s", paris, at.Location())
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("job did not run on start")
	}
}

func TestCronSchedulerStopIsIdempotent(t *testing.T) {
	t.Parallel()

	s, err := NewCronScheduler("@daily", nil, false, nil)
	if err != nil {
		t.Fatalf("NewCronScheduler returned error: %v", err)
	}
	if err := s.Start(context.Background(), func(time.Time) {}); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop returned error: %v", err)
	}
}
