package redis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// presenceTTL bounds how long a crashed instance's set survives. Only the
// owning instance refreshes it.
const presenceTTL = 24 * time.Hour

const scanBatch = 100

// Presence mirrors this instance's live connections into its own Redis set,
// "<prefix>:connections:<instanceID>". Other instances keep sets under the
// same prefix, which is what Count sums over.
type Presence struct {
	rdb     *redis.Client
	key     string
	pattern string
}

// NewPresence builds the presence store for one instance.
func NewPresence(rdb *redis.Client, prefix, instanceID string) *Presence {
	p := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if p == "" {
		p = "signaling"
	}
	base := fmt.Sprintf("%s:connections", p)
	return &Presence{
		rdb:     rdb,
		key:     base + ":" + instanceID,
		pattern: base + ":*",
	}
}

// Reset clears connections this instance left behind on a previous run.
// Other instances' sets are untouched.
func (p *Presence) Reset(ctx context.Context) error {
	return p.rdb.Del(ctx, p.key).Err()
}

func (p *Presence) AddConnection(ctx context.Context, id string) error {
	pipe := p.rdb.TxPipeline()
	pipe.SAdd(ctx, p.key, id)
	pipe.Expire(ctx, p.key, presenceTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (p *Presence) RemoveConnection(ctx context.Context, id string) error {
	return p.rdb.SRem(ctx, p.key, id).Err()
}

// Connections lists this instance's mirrored connection ids, sorted.
func (p *Presence) Connections(ctx context.Context) ([]string, error) {
	ids, err := p.rdb.SMembers(ctx, p.key).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// Count returns the number of live connections across every instance
// sharing the prefix.
func (p *Presence) Count(ctx context.Context) (int64, error) {
	var total int64
	iter := p.rdb.Scan(ctx, 0, p.pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		n, err := p.rdb.SCard(ctx, iter.Val()).Result()
		if err != nil {
			return 0, err
		}
		total += n
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	return total, nil
}
