package environment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/logging"
)

// DefaultProbeInterval is the time between reachability checks.
const DefaultProbeInterval = 15 * time.Second

// Prober checks whether the sheet host answers and reports the result to a
// Monitor.
type Prober struct {
	url      string
	client   *http.Client
	interval time.Duration
	monitor  *Monitor
	logger   logging.Logger
}

// NewProber creates a Prober for url. A nil client gets a 5 second timeout.
func NewProber(url string, monitor *Monitor, client *http.Client, interval time.Duration, logger logging.Logger) *Prober {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Prober{url: url, client: client, interval: interval, monitor: monitor, logger: logger}
}

// Probe performs one check and updates the monitor. Any HTTP response,
// including an error status, counts as online. A check cut short by ctx
// leaves the monitor unchanged and reports its current value.
func (p *Prober) Probe(ctx context.Context) bool {
	err := p.check(ctx)
	if ctx.Err() != nil {
		return p.monitor.Signals().Online
	}
	online := err == nil
	p.monitor.SetOnline(online)
	return online
}

func (p *Prober) check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("connectivity probe failed", "url", p.url, "error", err)
		return err
	}
	resp.Body.Close()
	return nil
}

// Run probes immediately and then every interval until ctx is done.
func (p *Prober) Run(ctx context.Context) error {
	p.Probe(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				return nil
			}
			p.Probe(ctx)
		}
	}
}
