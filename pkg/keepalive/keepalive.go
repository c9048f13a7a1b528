package keepalive

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pinger issues a periodic GET against the public API URL so free-tier
// hosting does not idle the process.
type Pinger struct {
	url      string
	interval time.Duration
	client   *http.Client
	log      *zap.SugaredLogger
}

func NewPinger(url string, interval time.Duration, log *zap.SugaredLogger) *Pinger {
	return &Pinger{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
}

// Start runs the ping loop until ctx is cancelled. No-op when no URL is
// configured.
func (p *Pinger) Start(ctx context.Context) {
	if p.url == "" {
		p.log.Info("[KeepAlive] API_URL not configured, keep-alive disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.ping(ctx)
			}
		}
	}()
}

func (p *Pinger) ping(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		p.log.Warnf("[KeepAlive] bad request: %v", err)
		return
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Warnf("[KeepAlive] ping failed: %v", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		p.log.Warnf("[KeepAlive] ping returned status %d", resp.StatusCode)
	}
}
