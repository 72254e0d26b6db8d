package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/deptsummary/internal/deptsummary/config"
	"github.com/yungbote/deptsummary/internal/deptsummary/summary"
	"github.com/yungbote/deptsummary/internal/platform/logger"
)

// Message is the payload stored and broadcast for each completed run.
type Message struct {
	RunID       string          `json:"run_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Source      string          `json:"source"`
	Users       int             `json:"users"`
	Departments *summary.Groups `json:"departments"`
}

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

type redisPublisher struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
	key     string
	ttl     time.Duration
}

// NewRedis connects to cfg.Addr and verifies the connection with a ping.
func NewRedis(cfg config.RedisConfig, log *logger.Logger) (Publisher, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = "deptsummary"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisPublisher{
		log:     log.With("service", "RedisPublisher"),
		rdb:     rdb,
		channel: ch,
		key:     strings.TrimSpace(cfg.Key),
		ttl:     cfg.TTL.Duration,
	}, nil
}

// Publish stores the latest summary under the configured key (when set) and
// broadcasts it on the channel in one transaction.
func (p *redisPublisher) Publish(ctx context.Context, msg Message) error {
	if p == nil || p.rdb == nil {
		return fmt.Errorf("redis publisher not initialized")
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = p.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		if p.key != "" {
			pipe.Set(ctx, p.key, raw, p.ttl)
		}
		pipe.Publish(ctx, p.channel, raw)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	p.log.Debug("summary published", "channel", p.channel, "key", p.key, "bytes", len(raw))
	return nil
}

func (p *redisPublisher) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}
