package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/theirongolddev/smartsaver/internal/wallet"
)

func newTestServer(t *testing.T, cards []wallet.Card) (*Service, *httptest.Server) {
	t.Helper()
	s := New(Config{
		DBPath:     "test.db",
		StorageKey: "smartsaver_cards",
		Catalog:    "embedded",
		Load: func(context.Context) ([]wallet.Card, error) {
			return cards, nil
		},
	})
	s.pollOnce(context.Background())

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec // test server URL
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: HTTP %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}

func statusOf(t *testing.T, url string) int {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec // test server URL
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	_ = resp.Body.Close()
	return resp.StatusCode
}

func TestHTTPStatusAndCards(t *testing.T) {
	_, srv := newTestServer(t, []wallet.Card{
		{ID: "c1", Name: "Gold Card", Bank: "American Express", Benefits: []wallet.Benefit{
			{ID: "b1", Period: wallet.PeriodQuarter, Limit: 100, Used: 40},
		}},
	})

	if code := statusOf(t, srv.URL+"/healthz"); code != http.StatusOK {
		t.Fatalf("healthz status = %d", code)
	}

	var st Status
	getJSON(t, srv.URL+"/v1/status", &st)
	if st.Summary.RemainingUSD != 60 || st.EventCount != 1 {
		t.Fatalf("status = %+v", st)
	}
	if st.DBPath != "test.db" || st.StorageKey != "smartsaver_cards" || st.Catalog != "embedded" {
		t.Fatalf("status source = %+v", st)
	}

	var rows []CardSummary
	getJSON(t, srv.URL+"/v1/cards", &rows)
	if len(rows) != 1 || rows[0].Name != "Gold Card" || rows[0].AnnualValueUSD != 400 || rows[0].RemainingUSD != 60 {
		t.Fatalf("cards = %+v", rows)
	}
}

func TestHTTPCardDetail(t *testing.T) {
	_, srv := newTestServer(t, []wallet.Card{
		{ID: "c1", Name: "Gold Card", Bank: "American Express", Last4: "1234", Type: "credit", Notes: "dining",
			Benefits: []wallet.Benefit{
				{ID: "b1", Name: "Dining Credit", Period: wallet.PeriodMonthly, Limit: 10, Used: 12},
				{ID: "b2", Name: "Uber Cash", Period: wallet.PeriodMonthly, Limit: 15, Used: 3},
			}},
	})

	var d CardDetail
	getJSON(t, srv.URL+"/v1/cards/c1", &d)
	if d.ID != "c1" || d.Last4 != "1234" || d.Notes != "dining" || len(d.Details) != 2 {
		t.Fatalf("detail = %+v", d)
	}
	if d.Details[0].RemainingUSD != 0 || d.Details[0].Utilization != 1 {
		t.Fatalf("overused benefit = %+v", d.Details[0])
	}
	if d.Details[1].Period != wallet.PeriodLabel(wallet.PeriodMonthly) || d.Details[1].RemainingUSD != 12 {
		t.Fatalf("second benefit = %+v", d.Details[1])
	}
	if d.RemainingUSD != 12 || d.Benefits != 2 {
		t.Fatalf("card totals = %+v", d.CardSummary)
	}

	if code := statusOf(t, srv.URL+"/v1/cards/nope"); code != http.StatusNotFound {
		t.Fatalf("unknown card status = %d, want 404", code)
	}
}

func TestHTTPUnused(t *testing.T) {
	_, srv := newTestServer(t, []wallet.Card{
		{ID: "c1", Name: "Gold Card", Benefits: []wallet.Benefit{
			{ID: "b1", Name: "Dining", Limit: 10, Used: 10},
			{ID: "b2", Name: "Hotel", Limit: 200},
		}},
		{ID: "c2", Name: "Sapphire Reserve", Benefits: []wallet.Benefit{
			{ID: "b3", Name: "Travel", Limit: 300, Used: 50},
		}},
	})

	var rows []UnusedBenefit
	getJSON(t, srv.URL+"/v1/unused?limit=1", &rows)
	if len(rows) != 1 || rows[0].BenefitID != "b3" || rows[0].RemainingUSD != 250 {
		t.Fatalf("top unused = %+v", rows)
	}

	getJSON(t, srv.URL+"/v1/unused", &rows)
	if len(rows) != 2 {
		t.Fatalf("fully used benefits should be left out: %+v", rows)
	}

	if code := statusOf(t, srv.URL+"/v1/unused?limit=x"); code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", code)
	}
}

func TestHTTPEventsSince(t *testing.T) {
	s, srv := newTestServer(t, nil)
	s.publishEvent(Event{Type: EventWalletChanged, Changes: []Change{{Kind: ChangeCardAdded, CardID: "c9"}}})

	var events []Event
	getJSON(t, srv.URL+"/v1/events", &events)
	if len(events) != 2 || events[0].Type != EventSnapshot {
		t.Fatalf("events = %+v", events)
	}

	getJSON(t, srv.URL+"/v1/events?since=1", &events)
	if len(events) != 1 || events[0].Changes[0].CardID != "c9" {
		t.Fatalf("events since 1 = %+v", events)
	}

	if code := statusOf(t, srv.URL+"/v1/events?since=abc"); code != http.StatusBadRequest {
		t.Fatalf("bad since status = %d", code)
	}
}

func TestStreamReplaysAfterLastEventID(t *testing.T) {
	s, srv := newTestServer(t, nil)
	s.publishEvent(Event{Type: EventWalletChanged, Changes: []Change{{Kind: ChangeCardAdded, CardID: "c9"}}})

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/stream", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Last-Event-ID", "1")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	sc := bufio.NewScanner(resp.Body)
	var lines []string
	for sc.Scan() {
		if sc.Text() == "" {
			break
		}
		lines = append(lines, sc.Text())
	}
	if len(lines) != 3 || lines[0] != "id: 2" || lines[1] != "event: "+EventWalletChanged {
		t.Fatalf("first SSE frame = %q", lines)
	}
	if !strings.Contains(lines[2], `"card_id":"c9"`) {
		t.Fatalf("data line = %q", lines[2])
	}
}

func TestClient(t *testing.T) {
	_, srv := newTestServer(t, []wallet.Card{
		{ID: "c1", Name: "Gold Card", Bank: "American Express", Benefits: []wallet.Benefit{
			{ID: "b1", Limit: 50, Used: 20},
		}},
	})
	client := NewClient(strings.TrimPrefix(srv.URL, "http://"))
	ctx := context.Background()

	st, err := client.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Summary.Cards != 1 || st.StorageKey != "smartsaver_cards" {
		t.Fatalf("status = %+v", st)
	}

	rows, err := client.Cards(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Bank != "American Express" || rows[0].RemainingUSD != 30 {
		t.Fatalf("cards = %+v", rows)
	}

	srv.Close()
	if _, err := client.Status(ctx); err == nil {
		t.Fatal("closed server should be unreachable")
	}
}
