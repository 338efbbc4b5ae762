// Package queue schedules background storage maintenance through asynq.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// DeleteObjectTask removes a stored object whose metadata row was never
	// written.
	DeleteObjectTask = "storage:delete_object"

	maxRetry = 5
)

// DeleteObjectPayload names the object to remove.
type DeleteObjectPayload struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Reason string `json:"reason,omitempty"`
}

// NewDeleteObjectTask builds the task for payload.
func NewDeleteObjectTask(payload DeleteObjectPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(DeleteObjectTask, data, asynq.MaxRetry(maxRetry)), nil
}

// ParseDeleteObjectPayload decodes a task payload.
func ParseDeleteObjectPayload(task *asynq.Task) (DeleteObjectPayload, error) {
	var p DeleteObjectPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode payload: %w", err)
	}
	if p.Key == "" {
		return p, fmt.Errorf("decode payload: empty key")
	}
	return p, nil
}

// enqueuer is the part of *asynq.Client used here.
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Client schedules cleanup tasks.
type Client struct {
	client enqueuer
}

// NewClient wraps an asynq client.
func NewClient(c *asynq.Client) *Client {
	return &Client{client: c}
}

// ScheduleDelete enqueues removal of bucket/key.
func (c *Client) ScheduleDelete(ctx context.Context, bucket, key, reason string) error {
	task, err := NewDeleteObjectTask(DeleteObjectPayload{Bucket: bucket, Key: key, Reason: reason})
	if err != nil {
		return err
	}
	if _, err := c.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue delete task: %w", err)
	}
	return nil
}

// RedisOpt builds the asynq connection options shared by the server and
// the worker.
func RedisOpt(addr, password string, db int) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: addr, Password: password, DB: db}
}
