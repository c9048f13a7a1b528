package queue

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

const listKey = "push_jobs"

// RedisQueue is the durable list backend: LPUSH at the tail side, RPOP at
// the head. RPOP is atomic, so multiple worker processes can share one
// queue.
type RedisQueue struct {
	client redis.UniversalClient
}

func NewRedisQueue(client redis.UniversalClient) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, listKey, data).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (Job, bool, error) {
	data, err := q.client.RPop(ctx, listKey).Result()
	if err == redis.Nil {
		return Job{}, false, nil
	}
	if err != nil {
		return Job{}, false, err
	}
	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return Job{}, false, err
	}
	return job, true, nil
}
