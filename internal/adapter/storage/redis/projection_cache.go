package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// projectionTTL bounds staleness if an invalidation is lost; mutations
// invalidate eagerly, so entries normally die long before expiry.
const projectionTTL = 30 * time.Second

// ProjectionCache implements ports.ProjectionCache using Redis. It caches
// the hot façade reads (balance, approval views); all methods are
// best-effort and the service degrades to store reads on any error.
type ProjectionCache struct {
	client *goredis.Client
	prefix string
}

// NewProjectionCache creates a new Redis-backed projection cache.
func NewProjectionCache(client *goredis.Client) *ProjectionCache {
	return &ProjectionCache{
		client: client,
		prefix: "projection:",
	}
}

func (c *ProjectionCache) balanceKey(accountID int64) string {
	return fmt.Sprintf("%sbalance:%d", c.prefix, accountID)
}

func (c *ProjectionCache) approvalsKey(accountID, withdrawID int64) string {
	return fmt.Sprintf("%sapprovals:%d:%d", c.prefix, accountID, withdrawID)
}

// GetBalance retrieves a cached balance. ok is false on a miss.
func (c *ProjectionCache) GetBalance(ctx context.Context, accountID int64) (int64, bool, error) {
	val, err := c.client.Get(ctx, c.balanceKey(accountID)).Result()
	if err != nil {
		if err == goredis.Nil {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("redis balance get: %w", err)
	}
	balance, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("redis balance parse: %w", err)
	}
	return balance, true, nil
}

// SetBalance caches a balance with the projection TTL.
func (c *ProjectionCache) SetBalance(ctx context.Context, accountID int64, balance int64) error {
	if err := c.client.Set(ctx, c.balanceKey(accountID), balance, projectionTTL).Err(); err != nil {
		return fmt.Errorf("redis balance set: %w", err)
	}
	return nil
}

// InvalidateBalance drops the cached balance after a mutation.
func (c *ProjectionCache) InvalidateBalance(ctx context.Context, accountID int64) error {
	if err := c.client.Del(ctx, c.balanceKey(accountID)).Err(); err != nil {
		return fmt.Errorf("redis balance del: %w", err)
	}
	return nil
}

// GetApprovals retrieves a cached approvals view. Returns nil, nil on a miss.
func (c *ProjectionCache) GetApprovals(ctx context.Context, accountID, withdrawID int64) ([]byte, error) {
	val, err := c.client.Get(ctx, c.approvalsKey(accountID, withdrawID)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis approvals get: %w", err)
	}
	return val, nil
}

// SetApprovals caches a marshaled approvals view with the projection TTL.
func (c *ProjectionCache) SetApprovals(ctx context.Context, accountID, withdrawID int64, view []byte) error {
	if err := c.client.Set(ctx, c.approvalsKey(accountID, withdrawID), view, projectionTTL).Err(); err != nil {
		return fmt.Errorf("redis approvals set: %w", err)
	}
	return nil
}

// InvalidateApprovals drops a cached approvals view after a mutation.
func (c *ProjectionCache) InvalidateApprovals(ctx context.Context, accountID, withdrawID int64) error {
	if err := c.client.Del(ctx, c.approvalsKey(accountID, withdrawID)).Err(); err != nil {
		return fmt.Errorf("redis approvals del: %w", err)
	}
	return nil
}
