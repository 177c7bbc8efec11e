package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Publisher 결제 이벤트 발행 인터페이스
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Close() error
}

// Envelope 채널로 발행되는 메시지 구조체
type Envelope struct {
	Channel   string          `json:"channel"`
	Payload   json.RawMessage `json:"payload"`
	Published time.Time       `json:"published_at"`
}

// RedisConfig Redis 발행자 설정
type RedisConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password" env:"REDIS_PASSWORD"`
	DB            int    `yaml:"db"`
	ChannelPrefix string `yaml:"channel_prefix"`
}

// redisPublisher Redis 발행자 구현체
type redisPublisher struct {
	client *redis.Client
	prefix string
}

// NewRedisPublisher Redis 발행자 생성
func NewRedisPublisher(cfg RedisConfig) (Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Redis 연결 테스트
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("Redis 연결 실패: %w", err)
	}

	return newRedisPublisher(client, cfg.ChannelPrefix), nil
}

func newRedisPublisher(client *redis.Client, prefix string) *redisPublisher {
	return &redisPublisher{client: client, prefix: prefix}
}

// Publish 메시지를 Envelope 로 감싸 발행
func (r *redisPublisher) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("메시지 직렬화 실패: %w", err)
	}

	full := r.prefix + channel
	body, err := json.Marshal(Envelope{
		Channel:   full,
		Payload:   payload,
		Published: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("메시지 직렬화 실패: %w", err)
	}

	if err := r.client.Publish(ctx, full, body).Err(); err != nil {
		return fmt.Errorf("메시지 발행 실패 (%s): %w", full, err)
	}
	return nil
}

// Close Redis 클라이언트 종료
func (r *redisPublisher) Close() error {
	return r.client.Close()
}

// NopPublisher Redis 비활성화 시 사용하는 발행자
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NopPublisher) Close() error                                       { return nil }

// NewPublisher 설정에 따라 Redis 발행자 또는 NopPublisher 를 반환
func NewPublisher(cfg RedisConfig) (Publisher, error) {
	if !cfg.Enabled {
		return NopPublisher{}, nil
	}
	return NewRedisPublisher(cfg)
}
