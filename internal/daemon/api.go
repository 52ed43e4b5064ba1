package daemon

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/theirongolddev/smartsaver/internal/logging"
	"github.com/theirongolddev/smartsaver/internal/summary"
	"github.com/theirongolddev/smartsaver/internal/wallet"
)

// CardSummary is one row of /v1/cards.
type CardSummary struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Bank           string  `json:"bank"`
	Benefits       int     `json:"benefits"`
	LimitUSD       float64 `json:"limit_usd"`
	UsedUSD        float64 `json:"used_usd"`
	RemainingUSD   float64 `json:"remaining_usd"`
	AnnualValueUSD float64 `json:"annual_value_usd"`
}

// BenefitStatus is one benefit of /v1/cards/{id}.
type BenefitStatus struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Period       string  `json:"period"`
	LimitUSD     float64 `json:"limit_usd"`
	UsedUSD      float64 `json:"used_usd"`
	RemainingUSD float64 `json:"remaining_usd"`
	Utilization  float64 `json:"utilization"`
}

// CardDetail is served at /v1/cards/{id}.
type CardDetail struct {
	CardSummary
	Last4   string          `json:"last4,omitempty"`
	Type    string          `json:"type"`
	Notes   string          `json:"notes,omitempty"`
	Details []BenefitStatus `json:"details"`
}

// UnusedBenefit is one row of /v1/unused.
type UnusedBenefit struct {
	CardID       string  `json:"card_id"`
	Card         string  `json:"card"`
	BenefitID    string  `json:"benefit_id"`
	Benefit      string  `json:"benefit"`
	Period       string  `json:"period"`
	RemainingUSD float64 `json:"remaining_usd"`
}

// Handler returns the read-only HTTP API.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer, requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/cards", s.handleCards)
		r.Get("/cards/{cardID}", s.handleCard)
		r.Get("/unused", s.handleUnused)
		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.Debugf("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Millisecond))
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.status())
}

func (s *Service) handleCards(w http.ResponseWriter, _ *http.Request) {
	stats := summary.ByCard(s.currentCards())
	out := make([]CardSummary, 0, len(stats))
	for _, cs := range stats {
		out = append(out, cardSummary(cs))
	}
	writeJSON(w, out)
}

func (s *Service) handleCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cardID")
	for _, c := range s.currentCards() {
		if c.ID != id {
			continue
		}
		writeJSON(w, cardDetail(c))
		return
	}
	http.Error(w, wallet.ErrCardNotFound.Error(), http.StatusNotFound)
}

func (s *Service) handleUnused(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	top := summary.TopRemaining(s.currentCards(), limit)
	out := make([]UnusedBenefit, 0, len(top))
	for _, u := range top {
		out = append(out, UnusedBenefit{
			CardID:       u.CardID,
			Card:         u.Card,
			BenefitID:    u.Benefit.ID,
			Benefit:      u.Benefit.DisplayName(),
			Period:       wallet.PeriodLabel(u.Benefit.Period),
			RemainingUSD: u.Benefit.Remaining(),
		})
	}
	writeJSON(w, out)
}

func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	var since int64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "since must be an event id", http.StatusBadRequest)
			return
		}
		since = n
	}
	writeJSON(w, s.eventsSince(since))
}

// handleStream sends the current snapshot, replays buffered events after
// Last-Event-ID when the client reconnects, then streams new events.
func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	if last, err := strconv.ParseInt(r.Header.Get("Last-Event-ID"), 10, 64); err == nil {
		for _, ev := range s.eventsSince(last) {
			writeSSE(w, ev)
		}
	} else {
		writeSSE(w, Event{
			Type:      EventSnapshot,
			Timestamp: time.Now(),
			Snapshot:  s.status().Summary,
		})
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func cardSummary(cs summary.CardStats) CardSummary {
	return CardSummary{
		ID:             cs.ID,
		Name:           cs.Name,
		Bank:           cs.Bank,
		Benefits:       cs.Benefits,
		LimitUSD:       cs.Limit,
		UsedUSD:        cs.Used,
		RemainingUSD:   cs.Remaining,
		AnnualValueUSD: cs.AnnualValue,
	}
}

func cardDetail(c wallet.Card) CardDetail {
	d := CardDetail{
		CardSummary: cardSummary(summary.ByCard([]wallet.Card{c})[0]),
		Last4:       c.Last4,
		Type:        c.TypeLabel(),
		Notes:       c.Notes,
		Details:     make([]BenefitStatus, 0, len(c.Benefits)),
	}
	for _, b := range c.Benefits {
		d.Details = append(d.Details, BenefitStatus{
			ID:           b.ID,
			Name:         b.DisplayName(),
			Period:       wallet.PeriodLabel(b.Period),
			LimitUSD:     b.Limit,
			UsedUSD:      b.Used,
			RemainingUSD: b.Remaining(),
			Utilization:  b.Utilization(),
		})
	}
	return d
}
