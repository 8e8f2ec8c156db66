package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"trivia-match-service/internal/domain"
)

type countingSource struct {
	answers map[string]*domain.ContentBlock
	calls   int
}

func (s *countingSource) BatchAnswers(_ context.Context, ids []string) (map[string]*domain.ContentBlock, error) {
	s.calls++
	out := make(map[string]*domain.ContentBlock)
	for _, id := range ids {
		if a, ok := s.answers[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func TestAnswerCacheFillsAndHits(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	text := "42"
	source := &countingSource{answers: map[string]*domain.ContentBlock{
		"q1": {Text: &text},
	}}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewAnswerCache(client, source, time.Minute)

	out, err := cache.BatchAnswers(context.Background(), []string{"q1"})
	if err != nil {
		t.Fatalf("batch answers: %v", err)
	}
	if out["q1"] == nil || out["q1"].Text == nil || *out["q1"].Text != "42" {
		t.Fatalf("unexpected answer: %+v", out["q1"])
	}
	if source.calls != 1 {
		t.Fatalf("expected source once, got %d", source.calls)
	}
	if !mr.Exists("question:q1:answer") {
		t.Fatal("expected cached key")
	}

	if _, err := cache.BatchAnswers(context.Background(), []string{"q1"}); err != nil {
		t.Fatalf("batch answers 2: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected cache hit, source calls %d", source.calls)
	}
}

func TestAnswerCacheSkipsMissingAnswers(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	source := &countingSource{answers: map[string]*domain.ContentBlock{}}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewAnswerCache(client, source, time.Minute)

	out, err := cache.BatchAnswers(context.Background(), []string{"missing"})
	if err != nil {
		t.Fatalf("batch answers: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty result, got %+v", out)
	}
	if mr.Exists("question:missing:answer") {
		t.Fatal("missing answer must not be cached")
	}
}

func TestAnswerCacheInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	text := "old"
	source := &countingSource{answers: map[string]*domain.ContentBlock{
		"q1": {Text: &text},
	}}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewAnswerCache(client, source, time.Minute)

	if _, err := cache.BatchAnswers(context.Background(), []string{"q1"}); err != nil {
		t.Fatalf("batch answers: %v", err)
	}
	if err := cache.Invalidate(context.Background(), "q1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("question:q1:answer") {
		t.Fatal("expected key removed")
	}
}
