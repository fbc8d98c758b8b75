package redis

import (
	"context"
	"testing"
	"time"
)

func TestRateLimitRepository_RecordAndCount(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "rl", TTL: 2 * time.Minute})

	ctx := context.Background()
	now := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := repo.RecordAttempt(ctx, "192.0.2.1", now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("RecordAttempt returned error: %v", err)
		}
	}

	count, err := repo.CountAttempts(ctx, "192.0.2.1", time.Minute, now.Add(3*time.Second))
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 attempts, got %d", count)
	}

	remaining := server.TTL("rl:192.0.2.1")
	if remaining <= 0 || remaining > 2*time.Minute {
		t.Fatalf("expected ttl within (0, 2m], got %v", remaining)
	}
}

func TestRateLimitRepository_TrimWindow(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "rl"})

	ctx := context.Background()
	now := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)

	if err := repo.RecordAttempt(ctx, "client", now.Add(-2*time.Minute)); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "client", now.Add(-10*time.Second)); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}

	if err := repo.TrimWindow(ctx, "client", time.Minute, now); err != nil {
		t.Fatalf("TrimWindow returned error: %v", err)
	}

	count, err := repo.CountAttempts(ctx, "client", time.Hour, now)
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 attempt after trim, got %d", count)
	}
}

func TestRateLimitRepository_OldestAttempt(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "rl"})

	ctx := context.Background()
	now := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)
	oldest := now.Add(-30 * time.Second)

	if err := repo.RecordAttempt(ctx, "client", oldest); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "client", now.Add(-5*time.Second)); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}

	got, found, err := repo.OldestAttempt(ctx, "client", time.Minute, now)
	if err != nil {
		t.Fatalf("OldestAttempt returned error: %v", err)
	}
	if !found {
		t.Fatal("expected an attempt inside the window")
	}
	if !got.Equal(oldest) {
		t.Fatalf("expected oldest %v, got %v", oldest, got)
	}
}

func TestRateLimitRepository_OldestAttemptEmpty(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "rl"})

	_, found, err := repo.OldestAttempt(context.Background(), "nobody", time.Minute, time.Now())
	if err != nil {
		t.Fatalf("OldestAttempt returned error: %v", err)
	}
	if found {
		t.Fatal("expected no attempts")
	}
}
