// Package rates fetches exchange rates from an external API and keeps an
// in-memory snapshot for the aggregation endpoints. A failed refresh keeps
// the previous snapshot so conversions degrade gracefully.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"expenses/internal/core"
	"expenses/internal/log"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Fetch retrieves the current rate table relative to the base currency.
func (c *Client) Fetch(ctx context.Context) (core.RateTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create rates request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rates: unexpected status %d", resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rates response: %w", err)
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("rates response contained no rates")
	}

	return core.RateTable(body.Rates), nil
}

// Snapshot is a concurrency-safe holder for the latest rate table.
type Snapshot struct {
	mu        sync.RWMutex
	table     core.RateTable
	fetchedAt time.Time
}

func NewSnapshot() *Snapshot {
	return &Snapshot{table: core.RateTable{}}
}

func (s *Snapshot) Get() core.RateTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Clone()
}

func (s *Snapshot) Set(table core.RateTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = table.Clone()
	s.fetchedAt = time.Now()
}

func (s *Snapshot) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

// Refresher periodically re-fetches rates into a snapshot.
type Refresher struct {
	client   *Client
	snapshot *Snapshot
	interval time.Duration
	logger   *log.Logger
}

func NewRefresher(client *Client, snapshot *Snapshot, interval time.Duration, logger *log.Logger) *Refresher {
	return &Refresher{
		client:   client,
		snapshot: snapshot,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentRates),
	}
}

// Run blocks until ctx is cancelled, refreshing the snapshot on each tick.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	table, err := r.client.Fetch(ctx)
	if err != nil {
		// Keep serving the previous snapshot.
		r.logger.WarnContext(ctx, "rates refresh failed",
			log.FieldError, err,
			"url", r.client.url)
		return
	}

	r.snapshot.Set(table)
	r.logger.InfoContext(ctx, "rates refreshed", "currencies", len(table))
}
