// Package worker runs the asynq handlers that maintain stored objects.
package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/imggen/internal/logging"
	"github.com/dharsanguruparan/imggen/internal/queue"
)

// Deleter removes an object by key.
type Deleter interface {
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Processor is plugged into the asynq worker loop.
type Processor struct {
	store  Deleter
	logger logging.Logger
}

// NewProcessor constructs a worker processor.
func NewProcessor(store Deleter, logger logging.Logger) *Processor {
	return &Processor{store: store, logger: logger}
}

// Handler registers the task handlers.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.DeleteObjectTask, p.handleDeleteObject)
	return mux
}

func (p *Processor) handleDeleteObject(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.ParseDeleteObjectPayload(task)
	if err != nil {
		// A malformed payload will never succeed.
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if payload.Bucket != "" && payload.Bucket != p.store.Bucket() {
		return fmt.Errorf("bucket %q is not served by this worker: %w", payload.Bucket, asynq.SkipRetry)
	}
	if err := p.store.Delete(ctx, payload.Key); err != nil {
		p.logger.Warn(ctx, "orphan delete failed", "key", payload.Key, "err", err)
		return err
	}
	p.logger.Info(ctx, "orphan object deleted", "key", payload.Key, "reason", payload.Reason)
	return nil
}
