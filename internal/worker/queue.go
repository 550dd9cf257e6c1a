package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"xenon-assistant/internal/models"
)

const generationQueue = "queue:generation"

var ErrQueueFull = errors.New("generation queue is full")

// Queue hands generation jobs from the API to the worker pool. Dequeue
// returns (nil, nil) when nothing arrived within timeout.
type Queue interface {
	Enqueue(ctx context.Context, job models.GenerationJob) error
	Dequeue(ctx context.Context, timeout time.Duration) (*models.GenerationJob, error)
}

// MemoryQueue is the single-process queue used when Redis is not configured.
type MemoryQueue struct {
	jobs chan models.GenerationJob
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 64
	}
	return &MemoryQueue{jobs: make(chan models.GenerationJob, size)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job models.GenerationJob) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (*models.GenerationJob, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case job := <-q.jobs:
		return &job, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RedisQueue is a list consumed with BLPOP, shared by every process.
type RedisQueue struct {
	client *redis.Client
	name   string
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client, name: generationQueue}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job models.GenerationJob) error {
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	if err := q.client.RPush(ctx, q.name, b).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*models.GenerationJob, error) {
	result, err := q.client.BLPop(ctx, timeout, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}

	var job models.GenerationJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to parse job: %w", err)
	}
	return &job, nil
}
