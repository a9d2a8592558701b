// Package health probes the deployed application's health endpoint. The probe
// retries internally with a bounded deadline; callers never impose timeouts
// from outside.
package health

import (
	"log/slog"
	"net/http"
	"time"
)

// Probe checks an HTTP health endpoint.
type Probe struct {
	url      string
	timeout  time.Duration
	interval time.Duration
	client   *http.Client
}

func NewProbe(url string, timeout, interval time.Duration) *Probe {
	return &Probe{
		url:      url,
		timeout:  timeout,
		interval: interval,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Check polls the health endpoint until it reports healthy or the probe's
// deadline passes. It returns true as soon as one request succeeds.
func (p *Probe) Check() bool {
	deadline := time.Now().Add(p.timeout)

	for attempt := 1; ; attempt++ {
		if p.once() {
			slog.Debug("Health check passed", "url", p.url, "attempt", attempt)
			return true
		}

		if time.Now().After(deadline) {
			slog.Error("Health check failed",
				"layer", "health",
				"url", p.url,
				"attempts", attempt,
				"timeout", p.timeout)
			return false
		}

		time.Sleep(p.interval)
	}
}

func (p *Probe) once() bool {
	resp, err := p.client.Get(p.url)
	if err != nil {
		slog.Debug("Health probe request failed", "url", p.url, "error", err)
		return false
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("Failed to close health probe response body", "error", closeErr)
		}
	}()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
