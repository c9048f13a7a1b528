package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"lifehub-backend/internal/notification/dispatcher"
	"lifehub-backend/internal/notification/queue"
	"lifehub-backend/pkg/fcm"
)

// Sender is the dispatcher surface the worker needs.
type Sender interface {
	SendToUser(ctx context.Context, userID string, payload fcm.Payload, opts fcm.Options) (*dispatcher.Result, error)
}

// Worker is the single-consumer push loop. It owns no concurrency of its
// own; horizontal scaling is running more worker processes against the
// shared queue.
type Worker struct {
	queue        queue.Queue
	sender       Sender
	log          *zap.SugaredLogger
	pollInterval time.Duration
	sendTimeout  time.Duration
}

func New(q queue.Queue, sender Sender, log *zap.SugaredLogger, pollInterval, sendTimeout time.Duration) *Worker {
	return &Worker{
		queue:        q,
		sender:       sender,
		log:          log,
		pollInterval: pollInterval,
		sendTimeout:  sendTimeout,
	}
}

// Run polls the queue until ctx is cancelled. A failing job is logged and
// never terminates the loop.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info("[PushWorker] started")
	for {
		processed := w.runOnce(ctx)
		if ctx.Err() != nil {
			w.log.Info("[PushWorker] stopped")
			return
		}
		if !processed {
			select {
			case <-ctx.Done():
				w.log.Info("[PushWorker] stopped")
				return
			case <-time.After(w.pollInterval):
			}
		}
	}
}

// runOnce processes at most one job and reports whether one was found.
func (w *Worker) runOnce(ctx context.Context) bool {
	job, ok, err := w.queue.Dequeue(ctx)
	if err != nil {
		w.log.Warnf("[PushWorker] dequeue failed: %v", err)
		return false
	}
	if !ok {
		return false
	}

	// Bound the transport call so a hung push cannot stall the loop.
	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()

	payload := fcm.Payload{Title: job.Payload.Title, Body: job.Payload.Body, Data: job.Payload.Data}
	opts := fcm.Options{
		TTL:            time.Duration(job.Options.TTLSeconds) * time.Second,
		APNSExpiration: job.Options.APNSExpiration,
	}
	if _, err := w.sender.SendToUser(sendCtx, job.UserID, payload, opts); err != nil {
		w.log.Errorf("[PushWorker] failed to send job for user %s: %v", job.UserID, err)
	}
	return true
}
