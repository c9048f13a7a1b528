package dispatcher

import (
	"context"

	"go.uber.org/zap"

	"lifehub-backend/internal/notification/repository"
	"lifehub-backend/pkg/fcm"
)

// batchSize is the FCM multicast hard limit, not tunable per call.
const batchSize = 500

// Transport sends one multicast batch of at most batchSize tokens.
// Implemented by pkg/fcm.
type Transport interface {
	Send(ctx context.Context, tokens []string, payload fcm.Payload, opts fcm.Options, onInvalid func(token string)) (*fcm.BatchResult, error)
}

// Result aggregates the outcome of one SendToUser call across batches.
type Result struct {
	NoTokens     bool `json:"no_tokens,omitempty"`
	Batches      int  `json:"batches"`
	SuccessCount int  `json:"success"`
	FailureCount int  `json:"failure"`
	// FailedBatches counts batch-level transport errors; their tokens are
	// excluded from the aggregate counts.
	FailedBatches int `json:"failed_batches,omitempty"`
}

// Dispatcher resolves a user's enabled tokens and fans a notification out
// through the push transport.
type Dispatcher struct {
	tokens    repository.TokenRepository
	transport Transport
	log       *zap.SugaredLogger
}

func New(tokens repository.TokenRepository, transport Transport, log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{tokens: tokens, transport: transport, log: log}
}

// SendToUser delivers the payload to every enabled token of the user.
// Zero registered tokens is a trivial success, not an error. A failing
// batch is logged and skipped; remaining batches are still sent. Tokens
// the transport reports as permanently invalid are disabled without
// blocking the send.
func (d *Dispatcher) SendToUser(ctx context.Context, userID string, payload fcm.Payload, opts fcm.Options) (*Result, error) {
	rows, err := d.tokens.GetEnabledByUserID(userID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &Result{NoTokens: true}, nil
	}

	tokens := make([]string, 0, len(rows))
	for _, row := range rows {
		tokens = append(tokens, row.Token)
	}

	result := &Result{}
	for start := 0; start < len(tokens); start += batchSize {
		end := start + batchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]
		result.Batches++

		resp, err := d.transport.Send(ctx, batch, payload, opts, d.disableAsync)
		if err != nil {
			d.log.Warnf("[Push] batch send failed for user %s: %v", userID, err)
			result.FailedBatches++
			continue
		}
		result.SuccessCount += resp.SuccessCount
		result.FailureCount += resp.FailureCount
	}
	return result, nil
}

func (d *Dispatcher) disableAsync(token string) {
	go func() {
		if err := d.tokens.Disable(token); err != nil {
			d.log.Warnf("[Push] failed to disable invalid token: %v", err)
			return
		}
		d.log.Infof("[Push] disabled invalid token")
	}()
}
