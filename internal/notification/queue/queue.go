package queue

import "context"

// Payload is the user-visible part of a push job.
type Payload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Options carries platform delivery hints through the queue.
type Options struct {
	TTLSeconds     int64 `json:"ttl,omitempty"`
	APNSExpiration int64 `json:"apnsExpiration,omitempty"`
}

// Job is one pending push delivery.
type Job struct {
	UserID  string  `json:"userId"`
	Payload Payload `json:"payload"`
	Options Options `json:"options"`
}

// Queue decouples producers (chat events, admin sends) from the push
// worker. FIFO per queue instance. Push delivery is best-effort: callers
// of Enqueue log and drop on failure rather than failing their own
// operation.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	// Dequeue pops the head without blocking. ok=false means the queue
	// is empty; the worker polls with a fixed backoff.
	Dequeue(ctx context.Context) (job Job, ok bool, err error)
}
