package redis

import (
	"testing"
	"time"

	"cdr-tool/internal/app"
	"cdr-tool/internal/engine"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	store.Put(app.NewSession("s-1", sampleContent(t), engine.Options{}))
	if !mr.Exists("cdr:session:s-1") {
		t.Fatalf("expected redis key to be set")
	}
	if v, _ := mr.Get("cdr:session:s-1"); v != "test" {
		t.Fatalf("expected edition in liveness key, got %q", v)
	}

	mr.FastForward(50 * time.Second)
	if _, ok := store.Get("s-1"); !ok {
		t.Fatalf("expected session present")
	}
	if ttl := mr.TTL("cdr:session:s-1"); ttl != time.Minute {
		t.Fatalf("expected ttl refreshed on access, got %v", ttl)
	}

	store.Delete("s-1")
	if mr.Exists("cdr:session:s-1") {
		t.Fatalf("expected redis key to be removed")
	}
}
