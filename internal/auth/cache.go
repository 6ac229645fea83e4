package auth

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedSource memoizes role permission resolution in an expiring LRU.
// Call Invalidate after any change to roles or their permissions.
type CachedSource struct {
	next  PermissionSource
	cache *expirable.LRU[string, []string]
}

// NewCachedSource wraps next. A size <= 0 disables caching and every call goes to next.
func NewCachedSource(next PermissionSource, size int, ttl time.Duration) *CachedSource {
	c := &CachedSource{next: next}

	if size > 0 {
		c.cache = expirable.NewLRU[string, []string](size, nil, ttl)
	}

	return c
}

// PermissionNames implements PermissionSource.
func (c *CachedSource) PermissionNames(ctx context.Context, tenantID uint, roleIDs []uint) ([]string, error) {
	if c.cache == nil {
		return c.next.PermissionNames(ctx, tenantID, roleIDs)
	}

	key := cacheKey(tenantID, roleIDs)

	if names, ok := c.cache.Get(key); ok {
		permissionCacheTotal.WithLabelValues("hit").Inc()
		return slices.Clone(names), nil
	}

	permissionCacheTotal.WithLabelValues("miss").Inc()

	names, err := c.next.PermissionNames(ctx, tenantID, roleIDs)
	if err != nil {
		return nil, err
	}

	c.cache.Add(key, slices.Clone(names))

	return names, nil
}

// Invalidate drops every cached entry.
func (c *CachedSource) Invalidate() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

// Len returns the number of cached role sets.
func (c *CachedSource) Len() int {
	if c.cache == nil {
		return 0
	}

	return c.cache.Len()
}

func cacheKey(tenantID uint, roleIDs []uint) string {
	ids := slices.Clone(roleIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	var b strings.Builder

	b.WriteString(strconv.FormatUint(uint64(tenantID), 10))
	b.WriteByte('/')

	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}

		b.WriteString(strconv.FormatUint(uint64(id), 10))
	}

	return b.String()
}
