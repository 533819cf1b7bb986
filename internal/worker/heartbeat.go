package worker

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Heartbeat periodically logs a keep-alive line and, when configured, pings
// an external uptime monitor so hosting platforms see the process as alive.
type Heartbeat struct {
	interval time.Duration
	pingURL  string
	client   *http.Client
	active   func() int
	logger   *log.Logger
}

// NewHeartbeat creates a heartbeat. pingURL may be empty; active may be nil.
func NewHeartbeat(interval time.Duration, pingURL string, active func() int, logger *log.Logger) *Heartbeat {
	if logger == nil {
		logger = log.Default()
	}
	if active == nil {
		active = func() int { return 0 }
	}
	return &Heartbeat{
		interval: interval,
		pingURL:  pingURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		active:   active,
		logger:   logger,
	}
}

// Run beats until ctx is cancelled. A non-positive interval disables it.
func (h *Heartbeat) Run(ctx context.Context) error {
	if h.interval <= 0 {
		return nil
	}
	h.logger.Info("heartbeat started", "interval", h.interval)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			h.beat(ctx)
		}
	}
}

func (h *Heartbeat) beat(ctx context.Context) {
	h.logger.Info("keep-alive ping", "active_jobs", h.active())
	if h.pingURL == "" {
		return
	}
	if err := h.ping(ctx); err != nil {
		h.logger.Warn("keep-alive ping failed", "url", h.pingURL, "err", err)
	}
}

func (h *Heartbeat) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.pingURL, nil)
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
