// Package redis implements the volatile cache tier via rueidis.
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/tiergate/internal/db"
)

// Config holds connection parameters for the cache store.
type Config struct {
	Addrs     []string
	Username  string
	Password  string
	DB        int
	OpTimeout time.Duration
}

// Store is a cache-tier client. After any observed backend failure the
// underlying connection is discarded and lazily recreated on next use,
// so a broken connection is never retried.
type Store struct {
	cfg Config

	mu     sync.Mutex
	client rueidis.Client
}

// NewStore creates a cache store. The connection itself is established
// lazily; a down cache tier must not fail gateway startup.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = time.Second
	}
	return &Store{cfg: cfg}, nil
}

// conn returns the current client, building one if needed.
func (s *Store) conn() (rueidis.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  s.cfg.Addrs,
		Username:     s.cfg.Username,
		Password:     s.cfg.Password,
		SelectDB:     s.cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache client: %w", err)
	}
	s.client = client
	return client, nil
}

// discard drops the given client if it is still current. A concurrent
// handler may already have replaced it; only the observed-broken
// connection is closed.
func (s *Store) discard(c rueidis.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == c {
		s.client.Close()
		s.client = nil
	}
}

// Close shuts down the current client, if any.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
}

func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.OpTimeout)
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	c, err := s.conn()
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := c.Do(ctx, c.B().Ping().Build()).Error(); err != nil {
		s.discard(c)
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Get retrieves a value by key. Returns db.ErrKeyNotFound on miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	c, err := s.conn()
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	data, err := c.Do(ctx, c.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		s.discard(c)
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// SetEx stores a value with an expiration.
func (s *Store) SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c, err := s.conn()
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := c.Do(ctx, c.B().Set().Key(key).Value(string(value)).Ex(ttl).Build()).Error(); err != nil {
		s.discard(c)
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Incr atomically increments a key and returns the new value.
func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	c, err := s.conn()
	if err != nil {
		return 0, &db.Error{Op: db.OpIncr, Err: err}
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	n, err := c.Do(ctx, c.B().Incr().Key(key).Build()).AsInt64()
	if err != nil {
		s.discard(c)
		return 0, &db.Error{Op: db.OpIncr, Err: err}
	}
	return n, nil
}

// Expire sets a TTL on an existing key.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	c, err := s.conn()
	if err != nil {
		return &db.Error{Op: db.OpExpire, Err: err}
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := c.Do(ctx, c.B().Expire().Key(key).Seconds(int64(ttl.Seconds())).Build()).Error(); err != nil {
		s.discard(c)
		return &db.Error{Op: db.OpExpire, Err: err}
	}
	return nil
}

// PushCapped prepends value to the list and truncates it to capacity,
// keeping the most recent entries first.
func (s *Store) PushCapped(ctx context.Context, key, value string, capacity int64) error {
	c, err := s.conn()
	if err != nil {
		return &db.Error{Op: db.OpLPush, Err: err}
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	cmds := []rueidis.Completed{
		c.B().Lpush().Key(key).Element(value).Build(),
		c.B().Ltrim().Key(key).Start(0).Stop(capacity - 1).Build(),
	}
	for _, resp := range c.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			s.discard(c)
			return &db.Error{Op: db.OpLPush, Err: err}
		}
	}
	return nil
}

// Range returns the full list, head first.
func (s *Store) Range(ctx context.Context, key string) ([]string, error) {
	c, err := s.conn()
	if err != nil {
		return nil, &db.Error{Op: db.OpLRange, Err: err}
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	items, err := c.Do(ctx, c.B().Lrange().Key(key).Start(0).Stop(-1).Build()).AsStrSlice()
	if err != nil {
		s.discard(c)
		return nil, &db.Error{Op: db.OpLRange, Err: err}
	}
	return items, nil
}
