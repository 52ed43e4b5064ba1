// Package daemon serves a read-only view of the wallet over local HTTP and
// reports card and benefit changes as they land in storage.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/smartsaver/internal/logging"
	"github.com/theirongolddev/smartsaver/internal/summary"
	"github.com/theirongolddev/smartsaver/internal/wallet"
)

// LoadFunc reads the current card collection. It is called once per poll.
type LoadFunc func(ctx context.Context) ([]wallet.Card, error)

// Config controls the daemon runtime behavior.
type Config struct {
	Load         LoadFunc
	DBPath       string
	StorageKey   string
	Catalog      string // catalog source description
	Interval     time.Duration
	Addr         string
	EventsBuffer int
}

// Snapshot is the wallet-wide summary at one poll.
type Snapshot struct {
	At             time.Time `json:"at"`
	Cards          int       `json:"cards"`
	Benefits       int       `json:"benefits"`
	LimitUSD       float64   `json:"limit_usd"`
	UsedUSD        float64   `json:"used_usd"`
	RemainingUSD   float64   `json:"remaining_usd"`
	AnnualValueUSD float64   `json:"annual_value_usd"`
	Utilization    float64   `json:"utilization"`
}

// Event types.
const (
	EventSnapshot      = "snapshot"
	EventWalletChanged = "wallet_changed"
)

// Event is emitted on the first poll and whenever a later poll finds
// card or benefit changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Changes   []Change  `json:"changes,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	DBPath          string    `json:"db_path,omitempty"`
	StorageKey      string    `json:"storage_key,omitempty"`
	Catalog         string    `json:"catalog,omitempty"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service polls the wallet and serves the HTTP API.
type Service struct {
	cfg Config

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	loaded      bool
	snapshot    Snapshot
	cards       []wallet.Card
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a service with defaults filled in.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 10 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.Load == nil {
		cfg.Load = func(context.Context) ([]wallet.Card, error) { return []wallet.Card{}, nil }
	}

	return &Service{
		cfg:       cfg,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Run serves the API and polls until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	cards, err := s.cfg.Load(ctx)
	now := time.Now()
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		logging.Errorf("daemon poll error: %v", err)
		return
	}

	snap := snapshotFromStats(summary.Aggregate(cards), now)

	s.mu.Lock()
	prev, first := s.cards, !s.loaded
	s.loaded = true
	s.snapshot = snap
	s.cards = cards
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""
	s.mu.Unlock()

	ev := Event{Type: EventSnapshot, Timestamp: now, Snapshot: snap}
	if !first {
		ev.Changes = diffCards(prev, cards)
		if len(ev.Changes) == 0 {
			return
		}
		ev.Type = EventWalletChanged
		for _, ch := range ev.Changes {
			logging.Infof("%s: %s %s", ch.Kind, ch.Card, ch.Benefit)
		}
	}
	s.publishEvent(ev)
}

func snapshotFromStats(stats summary.Stats, at time.Time) Snapshot {
	return Snapshot{
		At:             at,
		Cards:          stats.Cards,
		Benefits:       stats.Benefits,
		LimitUSD:       stats.Limit,
		UsedUSD:        stats.Used,
		RemainingUSD:   stats.Remaining,
		AnnualValueUSD: stats.AnnualValue,
		Utilization:    stats.Utilization(),
	}
}

// publishEvent assigns the next id, appends to the ring buffer and fans out
// to subscribers. Slow subscribers miss events rather than block polling.
func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextEventID++
	ev.ID = s.nextEventID
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Service) status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		DBPath:          s.cfg.DBPath,
		StorageKey:      s.cfg.StorageKey,
		Catalog:         s.cfg.Catalog,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

// currentCards returns the last loaded collection. Callers must not modify
// the cards.
func (s *Service) currentCards() []wallet.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cards
}

// eventsSince returns buffered events with an id greater than after.
func (s *Service) eventsSince(after int64) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Event, 0, len(s.events))
	for _, ev := range s.events {
		if ev.ID > after {
			out = append(out, ev)
		}
	}
	return out
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
