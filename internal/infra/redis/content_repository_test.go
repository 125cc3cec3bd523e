package redis

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"cdr-tool/internal/content"
	"cdr-tool/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestContentRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		Loader: content.NewStaticLoader(map[string]*domain.Content{
			"test": sampleContent(t),
		}),
	}
	repo := NewContentRepository(client, loader, time.Minute)

	_, err = repo.GetContent(context.Background(), "test")
	if err != nil {
		t.Fatalf("get content: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("cdr:content:test") {
		t.Fatalf("expected content cached in redis")
	}

	// Second call should hit cache, loader not incremented.
	c, err := repo.GetContent(context.Background(), "test")
	if err != nil {
		t.Fatalf("get content 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	rule, ok := c.Rule("m1")
	if !ok || len(rule.Questions) != 2 || rule.Questions[1].DependsOn[0] != "1" {
		t.Fatalf("cached content lost structure: %+v", rule)
	}

	if err := repo.Invalidate(context.Background(), "test"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.GetContent(context.Background(), "test")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestContentRepositoryDiscardsCorruptCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	if err := mr.Set("cdr:content:test", "categories: [oops"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	loader := &countingLoader{Loader: content.NewStaticLoader(map[string]*domain.Content{"test": sampleContent(t)})}
	repo := NewContentRepository(newClient(mr), loader, time.Minute)

	if _, err := repo.GetContent(context.Background(), "test"); err != nil {
		t.Fatalf("get content: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected corrupt entry to fall through to loader, calls=%d", loader.calls)
	}
}

func TestContentRepositoryConcurrentEditions(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	base := sampleContent(t)
	editions := make(map[string]*domain.Content)
	for i := 0; i < 16; i++ {
		edition := fmt.Sprintf("e%d", i)
		c, err := domain.NewContent(edition, base.Categories(), base.Glossary())
		if err != nil {
			t.Fatalf("content %s: %v", edition, err)
		}
		editions[edition] = c
	}
	repo := NewContentRepository(newClient(mr), content.NewStaticLoader(editions), time.Minute)

	var wg sync.WaitGroup
	errs := make(chan error, len(editions))
	for edition := range editions {
		wg.Add(1)
		go func(edition string) {
			defer wg.Done()
			c, err := repo.GetContent(context.Background(), edition)
			if err != nil {
				errs <- fmt.Errorf("%s: %w", edition, err)
				return
			}
			if c.Edition() != edition {
				errs <- fmt.Errorf("%s: got edition %s", edition, c.Edition())
			}
		}(edition)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	for edition := range editions {
		key := "cdr:content:" + edition
		if !mr.Exists(key) {
			t.Fatalf("expected %s cached", key)
		}
		if ttl := mr.TTL(key); ttl < time.Minute || ttl > time.Minute+6*time.Second {
			t.Fatalf("ttl of %s outside jitter window: %v", key, ttl)
		}
	}
}

type countingLoader struct {
	content.Loader
	calls int
}

func (l *countingLoader) LoadContent(ctx context.Context, edition string) (*domain.Content, error) {
	l.calls++
	return l.Loader.LoadContent(ctx, edition)
}

func sampleContent(t *testing.T) *domain.Content {
	t.Helper()
	c, err := domain.NewContent("test", []domain.Category{{
		ID: "m", Title: "Materials", Symbol: "triangle",
		Rules: []domain.Rule{{
			ID: "m1", CategoryID: "m", Title: "Recyclate", Text: `Design with <span class="title" data-term="recyclate">recyclate</span>`,
			Questions: []domain.Question{
				{ID: "1", Text: "Some recyclate"},
				{ID: "2", Text: "Only recyclate", DependsOn: []string{"1"}},
			},
		}},
	}}, []domain.GlossaryEntry{{Key: "recyclate", Title: "Recyclate", Text: "Recycled material"}})
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	return c
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
