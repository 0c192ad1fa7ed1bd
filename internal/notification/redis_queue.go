package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultQueueKey  = "orders:notify:queue"
	processingSuffix = ":processing"
)

// キューに積む単位（試行回数つき）
type QueuedEvent struct {
	Event    Event `json:"event"`
	Attempts int   `json:"attempts"`
}

// RedisQueue はsorted setを使った遅延キュー。
// scoreは配信可能になる時刻（UnixNano）。
type RedisQueue struct {
	client        redis.UniversalClient
	queueKey      string
	processingKey string
}

func NewRedisQueue(client redis.UniversalClient, queueKey string) *RedisQueue {
	if queueKey == "" {
		queueKey = defaultQueueKey
	}
	return &RedisQueue{
		client:        client,
		queueKey:      queueKey,
		processingKey: queueKey + processingSuffix,
	}
}

// URLから接続してPingまで確認する
func DialRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (q *RedisQueue) Name() string { return "redis" }

// Sinkとして使うときはすぐ配信可能で積む
func (q *RedisQueue) Deliver(ctx context.Context, ev Event) error {
	return q.Enqueue(ctx, QueuedEvent{Event: ev}, 0)
}

func (q *RedisQueue) Enqueue(ctx context.Context, item QueuedEvent, delay time.Duration) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal queue item: %w", err)
	}

	return q.client.ZAdd(ctx, q.queueKey, redis.Z{
		Score:  float64(time.Now().Add(delay).UnixNano()),
		Member: string(data),
	}).Err()
}

// 配信可能な先頭を1件取り出す。無ければ nil, nil。
func (q *RedisQueue) Dequeue(ctx context.Context) (*QueuedEvent, error) {
	now := float64(time.Now().UnixNano())

	results, err := q.client.ZRangeByScore(ctx, q.queueKey, &redis.ZRangeBy{
		Min:    "-inf",
		Max:    fmt.Sprintf("%f", now),
		Offset: 0,
		Count:  1,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get items from queue: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	member := results[0]

	// 他のdispatcherに先に取られたら何もしない
	removed, err := q.client.ZRem(ctx, q.queueKey, member).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to remove item from queue: %w", err)
	}
	if removed == 0 {
		return nil, nil
	}

	var item QueuedEvent
	if err := json.Unmarshal([]byte(member), &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal queue item: %w", err)
	}

	if err := q.client.SAdd(ctx, q.processingKey, item.Event.ID).Err(); err != nil {
		return nil, fmt.Errorf("failed to add to processing set: %w", err)
	}
	return &item, nil
}

func (q *RedisQueue) Complete(ctx context.Context, eventID string) error {
	return q.client.SRem(ctx, q.processingKey, eventID).Err()
}

// 失敗した分を遅らせて積み直す
func (q *RedisQueue) Requeue(ctx context.Context, item QueuedEvent, delay time.Duration) error {
	if err := q.Complete(ctx, item.Event.ID); err != nil {
		return err
	}
	return q.Enqueue(ctx, item, delay)
}

func (q *RedisQueue) Size(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, q.queueKey).Result()
}
