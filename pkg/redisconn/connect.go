// Package redisconn opens verified Redis connections for the Redis-backed
// token store.
package redisconn

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrEmptyConnectionURL is returned when the connection URL is empty.
	ErrEmptyConnectionURL = errors.New("redisconn: empty connection URL")

	// ErrFailedToParseURL is returned when the connection URL is invalid.
	ErrFailedToParseURL = errors.New("redisconn: failed to parse connection URL")

	// ErrConnectionFailed is returned when the server cannot be reached.
	ErrConnectionFailed = errors.New("redisconn: connection failed")
)

// Option configures a Redis connection.
type Option func(*options)

type options struct {
	dialTimeout  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
	poolSize     int
}

func defaultOptions() *options {
	return &options{
		dialTimeout:  5 * time.Second,
		readTimeout:  3 * time.Second,
		writeTimeout: 3 * time.Second,
		poolSize:     10,
	}
}

// WithPoolSize sets the maximum number of connections in the pool.
// Default: 10
func WithPoolSize(n int) Option {
	return func(o *options) {
		o.poolSize = n
	}
}

// WithTimeouts sets the dial, read, and write timeouts.
// Defaults: 5s, 3s, 3s.
func WithTimeouts(dial, read, write time.Duration) Option {
	return func(o *options) {
		o.dialTimeout = dial
		o.readTimeout = read
		o.writeTimeout = write
	}
}

// Open creates a Redis client and verifies the connection with a ping.
// Supports redis:// and rediss:// (TLS) URL schemes.
//
// Example:
//
//	client, err := redisconn.Open(ctx, "redis://localhost:6379/0")
func Open(ctx context.Context, url string, opts ...Option) (redis.UniversalClient, error) {
	if url == "" {
		return nil, ErrEmptyConnectionURL
	}
	if !strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
		return nil, ErrFailedToParseURL
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseURL, err)
	}
	redisOpts.DialTimeout = o.dialTimeout
	redisOpts.ReadTimeout = o.readTimeout
	redisOpts.WriteTimeout = o.writeTimeout
	redisOpts.PoolSize = o.poolSize

	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	return client, nil
}
