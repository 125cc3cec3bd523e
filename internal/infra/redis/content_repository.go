package redis

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"cdr-tool/internal/content"
	"cdr-tool/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ContentRepository caches content editions in Redis and falls back to a loader on cache miss.
// Each edition is stored in its canonical YAML encoding:
//
//	SET cdr:content:{edition} <document> EX ttl
//
// Hits are parsed again on every read.
type ContentRepository struct {
	client *redis.Client
	loader content.Loader
	ttl    time.Duration
	sf     singleflight.Group

	// rnd is shared by loads of different editions; guarded by rndMu.
	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewContentRepository(client *redis.Client, loader content.Loader, ttl time.Duration) *ContentRepository {
	return &ContentRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ContentRepository) GetContent(ctx context.Context, edition string) (*domain.Content, error) {
	if c, ok := r.cached(ctx, edition); ok {
		return c, nil
	}

	result, err, _ := r.sf.Do(edition, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if c, ok := r.cached(ctx, edition); ok {
			return c, nil
		}

		c, err := r.loader.LoadContent(ctx, edition)
		if err != nil {
			return nil, err
		}

		data, err := content.Encode(c)
		if err != nil {
			return nil, err
		}
		if err := r.client.Set(ctx, r.key(edition), data, r.ttlWithJitter()).Err(); err != nil {
			log.Printf("redis: cache content %s: %v", edition, err)
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Content), nil
}

// Invalidate removes a cached edition so the next read goes to the loader.
func (r *ContentRepository) Invalidate(ctx context.Context, edition string) error {
	return r.client.Del(ctx, r.key(edition)).Err()
}

func (r *ContentRepository) cached(ctx context.Context, edition string) (*domain.Content, bool) {
	data, err := r.client.Get(ctx, r.key(edition)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("redis: read content %s: %v", edition, err)
		}
		return nil, false
	}
	c, err := content.Parse(edition, data)
	if err != nil {
		log.Printf("redis: discarding cached content %s: %v", edition, err)
		return nil, false
	}
	return c, true
}

func (r *ContentRepository) key(edition string) string {
	return "cdr:content:" + edition
}

func (r *ContentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	jitter := r.rnd.Int63n(jitterMax + 1)
	r.rndMu.Unlock()
	return r.ttl + time.Duration(jitter)
}
