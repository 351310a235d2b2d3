package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/glowlabs-ai/glow-backend/internal/pkg/httpx"
	"github.com/glowlabs-ai/glow-backend/internal/platform/logger"
)

const (
	connectAttempts = 3
	connectBackoff  = 500 * time.Millisecond
	publishAttempts = 2
	publishBackoff  = 100 * time.Millisecond
)

// Message is the wire shape fanned out over the bus. Channel addresses a
// subscriber group (e.g. "sync:<userID>"), Event names the payload kind.
type Message struct {
	Channel string `json:"channel"`
	Event   string `json:"event"`
	Data    any    `json:"data,omitempty"`
}

// Bus carries progress messages across processes so any instance holding an
// open SSE connection can forward them, regardless of which instance ran the
// sync.
type Bus interface {
	Publish(ctx context.Context, msg Message) error
	StartForwarder(ctx context.Context, onMsg func(m Message)) error
	Close() error
}

type bus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func New(log *logger.Logger) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))
	if ch == "" {
		ch = "sync_progress"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	// redis tends to come up moments after this service in a fresh deploy;
	// a few jittered attempts cover that window
	var pingErr error
	for attempt := 0; attempt < connectAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pingErr = rdb.Ping(ctx).Err()
		cancel()
		if pingErr == nil {
			break
		}
		if attempt < connectAttempts-1 {
			backoff := httpx.JitterSleep(connectBackoff << attempt)
			log.Warn("redis ping failed, retrying", "attempt", attempt+1, "backoff", backoff, "error", pingErr)
			time.Sleep(backoff)
		}
	}
	if pingErr != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", pingErr)
	}

	return &bus{
		log:     log.With("service", "RedisBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *bus) Publish(ctx context.Context, msg Message) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis bus not initialized")
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	var pubErr error
	for attempt := 0; attempt < publishAttempts; attempt++ {
		pubErr = b.rdb.Publish(ctx, b.channel, raw).Err()
		if pubErr == nil || !httpx.IsRetryableError(pubErr) {
			return pubErr
		}
		if attempt < publishAttempts-1 {
			time.Sleep(httpx.JitterSleep(publishBackoff))
		}
	}
	return pubErr
}

func (b *bus) StartForwarder(ctx context.Context, onMsg func(m Message)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis bus not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var msg Message
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.log.Warn("bad redis bus payload", "error", err)
					continue
				}
				onMsg(msg)
			}
		}
	}()

	return nil
}

func (b *bus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
