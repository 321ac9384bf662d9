package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"github.com/sextant-gg/sextant/pkg/telemetry/metrics"
)

// identityPath is the well-known endpoint every pod answers with its identity.
const identityPath = "/podid"

// maxIdentityBytes caps how much of an identity response is read. A healthy
// pod answers in a few dozen bytes.
const maxIdentityBytes = 4096

// ProbeResult is the outcome of asking one candidate for its identity.
type ProbeResult struct {
	// Addr is the candidate that was probed.
	Addr netip.AddrPort

	// PodID is the identity the candidate reported. Empty when Err is set.
	PodID string

	// Err is the probe failure, if any. A failed probe removes the candidate
	// from this round only; it says nothing about other candidates.
	Err error

	// Duration is how long the probe took.
	Duration time.Duration
}

// OK reports whether the probe yielded an identity.
func (pr ProbeResult) OK() bool {
	return pr.Err == nil
}

// Prober asks candidates for their identity over HTTP.
type Prober struct {
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewProber creates a prober with the given per-probe timeout.
// The collector may be nil when metrics are not wired up.
func NewProber(timeout time.Duration, collector *metrics.Collector) *Prober {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Prober{
		timeout: timeout,
		client:  &http.Client{Transport: transport},
		logger:  slog.Default().With("component", "discovery.prober"),
		metrics: collector,
	}
}

// ProbeAll probes every candidate concurrently and returns one result per
// candidate, in candidate order.
//
// The call waits for every probe to finish or time out. There is no early
// exit on a match: callers that only need the first match still receive the
// full batch, and health checking reuses the same batch unchanged. Each
// probe runs under its own timeout, so one slow candidate delays the barrier
// by at most the probe timeout.
func (p *Prober) ProbeAll(ctx context.Context, candidates []netip.AddrPort) []ProbeResult {
	results := make([]ProbeResult, len(candidates))

	var wg sync.WaitGroup
	for i, addr := range candidates {
		wg.Add(1)
		go func(i int, addr netip.AddrPort) {
			defer wg.Done()
			results[i] = p.probe(ctx, addr)
		}(i, addr)
	}
	wg.Wait()

	for _, result := range results {
		if p.metrics != nil {
			outcome := "ok"
			if result.Err != nil {
				outcome = "error"
			}
			p.metrics.RecordProbe(outcome, result.Duration)
		}
	}

	return results
}

// probe asks a single candidate for its identity.
func (p *Prober) probe(ctx context.Context, addr netip.AddrPort) ProbeResult {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result := ProbeResult{Addr: addr}
	start := time.Now()

	url := "http://" + addr.String() + identityPath
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	resp, err := p.client.Do(req)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		p.logger.Debug("probe failed", "addr", addr.String(), "error", err)
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		result.Err = fmt.Errorf("unexpected status %d from %s", resp.StatusCode, addr)
		result.Duration = time.Since(start)
		p.logger.Debug("probe failed", "addr", addr.String(), "status", resp.StatusCode)
		return result
	}

	podID, err := decodeIdentity(resp.Body)
	result.PodID = podID
	result.Err = err
	result.Duration = time.Since(start)

	if err != nil {
		p.logger.Debug("probe returned unusable identity", "addr", addr.String(), "error", err)
	} else {
		p.logger.Debug("probe answered",
			"addr", addr.String(),
			"pod_id", podID,
			"duration_ms", result.Duration.Milliseconds(),
		)
	}

	return result
}

// decodeIdentity parses the identity payload. Pods usually answer with a
// string podId, but fleets that template the value from an ordinal produce
// numbers, so scalar identities are accepted and stringified.
func decodeIdentity(r io.Reader) (string, error) {
	dec := json.NewDecoder(io.LimitReader(r, maxIdentityBytes))
	dec.UseNumber()

	var payload struct {
		PodID any `json:"podId"`
	}
	if err := dec.Decode(&payload); err != nil {
		return "", fmt.Errorf("invalid identity response: %w", err)
	}

	switch v := payload.PodID.(type) {
	case string:
		if v == "" {
			return "", errors.New("empty podId in identity response")
		}
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", errors.New("missing podId in identity response")
	}
}
