package main

import (
	"context"
	"testing"
	"time"

	"github.com/Seednode/liarliar/show"
)

func TestReapDeactivatesThenPurges(t *testing.T) {
	ctx := context.Background()
	svc := show.NewService(show.NewMemoryStore())

	if _, err := svc.RegisterUsername(ctx, "alice", ""); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	cfg := &Config{audienceIdle: time.Millisecond}
	reap(ctx, cfg, svc)

	if n, err := svc.ActiveAudience(ctx); err != nil || n != 0 {
		t.Fatalf("active audience = %d, %v; want 0", n, err)
	}
	if err := svc.CheckUsername(ctx, "alice"); err == nil {
		t.Fatal("deactivated user was deleted without a purge threshold")
	}

	cfg.audiencePurge = time.Millisecond
	reap(ctx, cfg, svc)

	if err := svc.CheckUsername(ctx, "alice"); err != nil {
		t.Errorf("username still taken after purge: %v", err)
	}
}

func TestReaperLoopDisabled(t *testing.T) {
	done := make(chan error, 1)
	go func() {
		done <- reaperLoop(context.Background(), &Config{}, show.NewService(show.NewMemoryStore()))
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("reaperLoop() = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("reaperLoop did not return with both thresholds disabled")
	}
}

func TestReaperLoopStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- reaperLoop(ctx, &Config{audienceIdle: time.Hour}, show.NewService(show.NewMemoryStore()))
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaperLoop ignored cancellation")
	}
}
