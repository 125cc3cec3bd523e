package memory

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"cdr-tool/internal/content"
	"cdr-tool/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ContentRepository caches parsed content editions with TTL to avoid repeated loads.
type ContentRepository struct {
	loader content.Loader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedContent
}

type cachedContent struct {
	content   *domain.Content
	expiresAt time.Time
}

// NewContentRepository wraps loader. A non-positive ttl caches forever.
func NewContentRepository(loader content.Loader, ttl time.Duration) *ContentRepository {
	return &ContentRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedContent),
	}
}

func (r *ContentRepository) GetContent(ctx context.Context, edition string) (*domain.Content, error) {
	if c, ok := r.lookup(edition, r.clock()); ok {
		return c, nil
	}

	result, err, _ := r.sf.Do(edition, func() (interface{}, error) {
		now := r.clock()
		if c, ok := r.lookup(edition, now); ok {
			return c, nil
		}

		c, err := r.loader.LoadContent(ctx, edition)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[edition] = cachedContent{
			content:   c,
			expiresAt: r.expiry(now),
		}
		r.mu.Unlock()
		log.Printf("content %s cached", edition)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Content), nil
}

// Invalidate drops a cached edition, e.g. after it was republished.
func (r *ContentRepository) Invalidate(edition string) {
	r.mu.Lock()
	delete(r.cache, edition)
	r.mu.Unlock()
}

func (r *ContentRepository) lookup(edition string, now time.Time) (*domain.Content, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[edition]
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(now) {
		return nil, false
	}
	return entry.content, true
}

func (r *ContentRepository) expiry(now time.Time) time.Time {
	if r.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(r.ttlWithJitter())
}

func (r *ContentRepository) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
