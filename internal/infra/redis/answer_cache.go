package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
)

// AnswerCache caches question answers in Redis (one hash per question batch
// would churn; answers are keyed per question) and falls back to the backing
// store on miss. Reveal endpoints and match projections hit this on every
// finished-match read, while answers themselves never change once published.
type AnswerCache struct {
	client *redis.Client
	source app.AnswerSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewAnswerCache(client *redis.Client, source app.AnswerSource, ttl time.Duration) *AnswerCache {
	return &AnswerCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *AnswerCache) BatchAnswers(ctx context.Context, questionIDs []string) (map[string]*domain.ContentBlock, error) {
	out := make(map[string]*domain.ContentBlock, len(questionIDs))
	if len(questionIDs) == 0 {
		return out, nil
	}

	var misses []string
	for _, id := range questionIDs {
		raw, err := c.client.Get(ctx, c.key(id)).Result()
		if err != nil {
			misses = append(misses, id)
			continue
		}
		var block domain.ContentBlock
		if err := json.Unmarshal([]byte(raw), &block); err != nil {
			misses = append(misses, id)
			continue
		}
		out[id] = &block
	}
	if len(misses) == 0 {
		return out, nil
	}

	for _, id := range misses {
		block, err := c.lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		if block != nil {
			out[id] = block
		}
	}
	return out, nil
}

// lookup loads one answer through singleflight so concurrent misses for the
// same question hit the backing store once.
func (c *AnswerCache) lookup(ctx context.Context, questionID string) (*domain.ContentBlock, error) {
	result, err, _ := c.sf.Do(questionID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		raw, err := c.client.Get(ctx, c.key(questionID)).Result()
		if err == nil {
			var block domain.ContentBlock
			if err := json.Unmarshal([]byte(raw), &block); err == nil {
				return &block, nil
			}
		}

		answers, err := c.source.BatchAnswers(ctx, []string{questionID})
		if err != nil {
			return nil, err
		}
		block := answers[questionID]
		if block != nil {
			if payload, err := json.Marshal(block); err == nil {
				_ = c.client.Set(ctx, c.key(questionID), payload, c.ttlWithJitter()).Err()
			}
		}
		return block, nil
	})
	if err != nil {
		return nil, err
	}
	block, _ := result.(*domain.ContentBlock)
	return block, nil
}

// Invalidate drops a cached answer after content edits.
func (c *AnswerCache) Invalidate(ctx context.Context, questionID string) error {
	return c.client.Del(ctx, c.key(questionID)).Err()
}

func (c *AnswerCache) key(questionID string) string {
	return "question:" + questionID + ":answer"
}

func (c *AnswerCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
