package tenantkit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// PermissionSnapshot is the cached evaluation state for one user in one
// organization: the roles they hold and the grant rows of those roles.
type PermissionSnapshot struct {
	Roles  []Role           `json:"roles"`
	Grants []RolePermission `json:"grants"`
}

// PermissionCache caches evaluated permission snapshots. Invalidation is
// explicit and organization-wide: the Service calls Invalidate on every
// role, grant, or assignment mutation. A stale grant is a security defect,
// so an implementation must guarantee that Invalidate makes every snapshot
// for the organization unreachable.
type PermissionCache interface {
	GetSnapshot(ctx context.Context, orgID, userID string) (*PermissionSnapshot, bool, error)
	PutSnapshot(ctx context.Context, orgID, userID string, snap *PermissionSnapshot) error
	Invalidate(ctx context.Context, orgID string) error
}

// RedisPermissionCache implements PermissionCache on Redis. Each
// organization has a version counter; snapshot keys embed the current
// version, so bumping the counter orphans every cached snapshot for the
// organization at once. The key TTL only reclaims memory from orphaned
// versions; it plays no part in invalidation.
type RedisPermissionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPermissionCache creates a Redis-backed permission cache.
func NewRedisPermissionCache(client *redis.Client) *RedisPermissionCache {
	return &RedisPermissionCache{
		client: client,
		ttl:    time.Hour,
	}
}

func (c *RedisPermissionCache) versionKey(orgID string) string {
	return "tenantkit:permver:" + orgID
}

func (c *RedisPermissionCache) snapshotKey(orgID, version, userID string) string {
	return "tenantkit:perms:" + orgID + ":" + version + ":" + userID
}

func (c *RedisPermissionCache) version(ctx context.Context, orgID string) (string, error) {
	ver, err := c.client.Get(ctx, c.versionKey(orgID)).Result()
	if err == redis.Nil {
		return "0", nil
	}
	if err != nil {
		return "", err
	}
	return ver, nil
}

// GetSnapshot returns the cached snapshot for (orgID, userID) at the
// organization's current version, or ok=false on a miss.
func (c *RedisPermissionCache) GetSnapshot(ctx context.Context, orgID, userID string) (*PermissionSnapshot, bool, error) {
	ver, err := c.version(ctx, orgID)
	if err != nil {
		return nil, false, err
	}

	raw, err := c.client.Get(ctx, c.snapshotKey(orgID, ver, userID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var snap PermissionSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		// Undecodable entries count as misses; the caller re-evaluates.
		return nil, false, nil
	}
	return &snap, true, nil
}

// PutSnapshot stores a snapshot under the organization's current version.
func (c *RedisPermissionCache) PutSnapshot(ctx context.Context, orgID, userID string, snap *PermissionSnapshot) error {
	ver, err := c.version(ctx, orgID)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.snapshotKey(orgID, ver, userID), string(raw), c.ttl).Err()
}

// Invalidate bumps the organization's version counter, orphaning every
// cached snapshot for the organization.
func (c *RedisPermissionCache) Invalidate(ctx context.Context, orgID string) error {
	return c.client.Incr(ctx, c.versionKey(orgID)).Err()
}
