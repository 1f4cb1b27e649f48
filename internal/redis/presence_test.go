package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestPresenceAddRemove(t *testing.T) {
	_, rdb := newTestRedis(t)
	p := NewPresence(rdb, "test", "node-a")
	ctx := context.Background()

	for _, id := range []string{"b", "a"} {
		if err := p.AddConnection(ctx, id); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	ids, err := p.Connections(ctx)
	if err != nil {
		t.Fatalf("connections: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("connections = %v", ids)
	}

	if err := p.RemoveConnection(ctx, "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	n, err := p.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

func TestPresenceResetKeepsOtherInstances(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	a := NewPresence(rdb, "test", "node-a")
	b := NewPresence(rdb, "test", "node-b")

	for _, id := range []string{"a1", "a2"} {
		if err := a.AddConnection(ctx, id); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	if err := b.AddConnection(ctx, "b1"); err != nil {
		t.Fatalf("add b1: %v", err)
	}
	if n, err := a.Count(ctx); err != nil || n != 3 {
		t.Fatalf("cluster count = %d, %v; want 3", n, err)
	}

	// node-b restarts
	if err := b.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	ids, err := a.Connections(ctx)
	if err != nil {
		t.Fatalf("connections: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("node-a lost connections after node-b reset: %v", ids)
	}
	if n, err := b.Count(ctx); err != nil || n != 2 {
		t.Fatalf("cluster count = %d, %v; want 2", n, err)
	}
}

func TestPresenceCrashedInstanceExpires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	crashed := NewPresence(rdb, "test", "node-a")
	live := NewPresence(rdb, "test", "node-b")

	if err := crashed.AddConnection(ctx, "stale"); err != nil {
		t.Fatalf("add: %v", err)
	}

	// The live instance keeps taking traffic past the TTL.
	mr.FastForward(presenceTTL / 2)
	if err := live.AddConnection(ctx, "b1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	mr.FastForward(presenceTTL/2 + time.Minute)
	if err := live.AddConnection(ctx, "b2"); err != nil {
		t.Fatalf("add: %v", err)
	}

	n, err := live.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2 once the crashed instance's set expired", n)
	}
}

func TestNewPresenceKeys(t *testing.T) {
	p := NewPresence(nil, " calls: ", "node-a")
	if p.key != "calls:connections:node-a" || p.pattern != "calls:connections:*" {
		t.Fatalf("key = %q, pattern = %q", p.key, p.pattern)
	}
	if got := NewPresence(nil, "", "x").key; got != "signaling:connections:x" {
		t.Fatalf("key = %q", got)
	}
}
