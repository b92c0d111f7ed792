// Package subgraph implements the windowed, paginated, cached subgraph
// query primitive (spec §4.10).
package subgraph

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const defaultTTL = 60 * time.Second

// resultCache abstracts the two cache backends the teacher wires in
// (process-local go-cache, optional shared redis), so the Engine can
// swap backends without changing query logic.
type resultCache interface {
	Get(key string) (*Response, bool)
	Set(key string, value *Response, ttl time.Duration)
}

// localCache wraps patrickmn/go-cache for single-process deployments.
type localCache struct {
	c *gocache.Cache
}

func newLocalCache() *localCache {
	return &localCache{c: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (l *localCache) Get(key string) (*Response, bool) {
	v, ok := l.c.Get(key)
	if !ok {
		return nil, false
	}
	resp, ok := v.(*Response)
	return resp, ok
}

func (l *localCache) Set(key string, value *Response, ttl time.Duration) {
	l.c.Set(key, value, ttl)
}

// redisCache backs the cache with a shared redis instance (spec's
// "optional shared cache backend"), so multiple API replicas agree on
// cache contents. Values are stored as JSON via the caller-supplied
// marshal/unmarshal so this file stays decoupled from encoding/json
// import churn in tests.
type redisCache struct {
	client *redis.Client
	ctx    context.Context
	encode func(*Response) ([]byte, error)
	decode func([]byte) (*Response, error)
}

func newRedisCache(client *redis.Client, encode func(*Response) ([]byte, error), decode func([]byte) (*Response, error)) *redisCache {
	return &redisCache{client: client, ctx: context.Background(), encode: encode, decode: decode}
}

// NewRedisCache builds the shared-cache backend from a redis address,
// for callers (kgctl) wiring Engine.WithRedisCache from config.
func NewRedisCache(addr string) *redisCache {
	client := redis.NewClient(&redis.Options{Addr: addr})
	return newRedisCache(client, json.Marshal, func(b []byte) (*Response, error) {
		var resp Response
		if err := json.Unmarshal(b, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
}

func (r *redisCache) Get(key string) (*Response, bool) {
	raw, err := r.client.Get(r.ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	resp, err := r.decode(raw)
	if err != nil {
		return nil, false
	}
	return resp, true
}

func (r *redisCache) Set(key string, value *Response, ttl time.Duration) {
	raw, err := r.encode(value)
	if err != nil {
		return
	}
	r.client.Set(r.ctx, key, raw, ttl)
}

// cacheKey builds the deterministic key described in spec §4.10's
// "Cache" paragraph: (from,to,sorted(types),limit,cursor,include_counts).
func cacheKey(q Query) string {
	types := append([]string(nil), q.Types...)
	sort.Strings(types)
	return fmt.Sprintf("%s|%s|%s|%d|%s|%t", q.From, q.To, strings.Join(types, ","), q.Limit, q.Cursor, q.IncludeCounts)
}

// ringLayout derives deterministic x,y layout hints from an md5 hash of
// the node id (spec §4.10 "Node enrichment"): ring index = (hash //
// 3600) mod 4; radius 350 + 180*ring; angle from hash % 3600.
func ringLayout(nodeID string) (x, y float64) {
	sum := md5.Sum([]byte(nodeID))
	h := binary.BigEndian.Uint32(sum[:4])
	angle := float64(h%3600) / 3600.0 * 2 * math.Pi
	ring := (h / 3600) % 4
	radius := 350.0 + 180.0*float64(ring)
	return radius * math.Cos(angle), radius * math.Sin(angle)
}
