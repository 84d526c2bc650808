package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/platformbuilds/mirador-pcap/pkg/logger"
)

// releaseScript deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the lease only while the key still carries our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

const retryInterval = 50 * time.Millisecond

type Options struct {
	Addr        string
	Password    string
	DB          int
	TTL         time.Duration
	WaitTimeout time.Duration
}

// redisLocker implements Locker on a single Valkey/Redis node with SET NX PX.
type redisLocker struct {
	client *redis.Client
	logger logger.Logger
	ttl    time.Duration
	wait   time.Duration
	// renewEvery is how often a held lease is pushed back to a full ttl.
	renewEvery time.Duration
}

func NewRedisLocker(opts Options, log logger.Logger) (Locker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to lock store: %w", err)
	}

	return newRedisLocker(client, opts, log), nil
}

func newRedisLocker(client *redis.Client, opts Options, log logger.Logger) *redisLocker {
	if log == nil {
		log = logger.NewNop()
	}
	return &redisLocker{client: client, logger: log, ttl: opts.TTL, wait: opts.WaitTimeout, renewEvery: opts.TTL / 3}
}

func (r *redisLocker) Acquire(ctx context.Context, key string) (Unlock, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(r.wait)

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			r.logger.Debug("Lock acquired", "key", key, "ttl", r.ttl)
			return r.hold(key, token), nil
		}

		if !time.Now().Before(deadline) {
			return nil, ErrBusy
		}

		timer := time.NewTimer(retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// hold keeps the lease alive until the returned Unlock is called, so a run
// longer than the ttl does not let a second invocation in.
func (r *redisLocker) hold(key, token string) Unlock {
	stop := make(chan struct{})
	done := make(chan struct{})
	go r.renew(key, token, stop, done)

	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() { close(stop) })
		<-done

		n, err := releaseScript.Run(ctx, r.client, []string{key}, token).Int()
		if err != nil {
			return fmt.Errorf("release %s: %w", key, err)
		}
		if n == 0 {
			r.logger.Warn("Lock lease expired before release", "key", key)
		}
		return nil
	}
}

func (r *redisLocker) renew(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	if r.renewEvery <= 0 {
		return
	}

	ticker := time.NewTicker(r.renewEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), r.renewEvery)
		n, err := renewScript.Run(ctx, r.client, []string{key}, token, r.ttl.Milliseconds()).Int()
		cancel()
		switch {
		case err != nil:
			r.logger.Warn("Failed to renew lock lease", "key", key, "error", err)
		case n == 0:
			r.logger.Warn("Lock lease lost before renewal", "key", key)
			return
		}
	}
}

func (r *redisLocker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisLocker) Close() error {
	return r.client.Close()
}
