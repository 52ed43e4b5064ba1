package daemon

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/theirongolddev/smartsaver/internal/wallet"
)

func goldCard(used float64) wallet.Card {
	return wallet.Card{ID: "c1", Name: "Gold Card", Bank: "American Express", Benefits: []wallet.Benefit{
		{ID: "b1", Name: "Dining Credit", Period: wallet.PeriodMonthly, Limit: 10, Used: used},
		{ID: "b2", Name: "Uber Cash", Period: wallet.PeriodMonthly, Limit: 15},
	}}
}

func kinds(changes []Change) []ChangeKind {
	out := make([]ChangeKind, len(changes))
	for i, c := range changes {
		out[i] = c.Kind
	}
	return out
}

func sameKinds(got []Change, want ...ChangeKind) bool {
	k := kinds(got)
	if len(k) != len(want) {
		return false
	}
	for i := range k {
		if k[i] != want[i] {
			return false
		}
	}
	return true
}

func TestDiffCardsUsage(t *testing.T) {
	changes := diffCards([]wallet.Card{goldCard(0)}, []wallet.Card{goldCard(4)})
	if !sameKinds(changes, ChangeBenefitUsed) {
		t.Fatalf("changes = %v", kinds(changes))
	}
	c := changes[0]
	if c.CardID != "c1" || c.BenefitID != "b1" || c.Benefit != "Dining Credit" {
		t.Fatalf("change = %+v", c)
	}
	if c.UsedBefore != 0 || c.UsedAfter != 4 || c.Remaining != 6 {
		t.Fatalf("amounts = %+v", c)
	}

	changes = diffCards([]wallet.Card{goldCard(4)}, []wallet.Card{goldCard(10)})
	if !sameKinds(changes, ChangeBenefitUsed, ChangeBenefitExhausted) {
		t.Fatalf("using the last $6 = %v", kinds(changes))
	}

	// Going further over the limit is usage, not a second exhaustion
	changes = diffCards([]wallet.Card{goldCard(10)}, []wallet.Card{goldCard(12)})
	if !sameKinds(changes, ChangeBenefitUsed) {
		t.Fatalf("over limit = %v", kinds(changes))
	}

	changes = diffCards([]wallet.Card{goldCard(10)}, []wallet.Card{goldCard(0)})
	if !sameKinds(changes, ChangeBenefitReset) {
		t.Fatalf("period reset = %v", kinds(changes))
	}

	if changes := diffCards([]wallet.Card{goldCard(3)}, []wallet.Card{goldCard(3)}); len(changes) != 0 {
		t.Fatalf("identical wallets diffed to %v", kinds(changes))
	}
}

func TestDiffCardsMembership(t *testing.T) {
	citi := wallet.Card{ID: "c2", Name: "Citi Double Cash", Benefits: []wallet.Benefit{}}

	changes := diffCards([]wallet.Card{goldCard(0)}, []wallet.Card{goldCard(0), citi})
	if !sameKinds(changes, ChangeCardAdded) || changes[0].CardID != "c2" {
		t.Fatalf("add = %+v", changes)
	}

	changes = diffCards([]wallet.Card{citi, goldCard(0)}, []wallet.Card{goldCard(0)})
	if !sameKinds(changes, ChangeCardRemoved) || changes[0].Card != "Citi Double Cash" {
		t.Fatalf("remove = %+v", changes)
	}

	trimmed := goldCard(0)
	trimmed.Benefits = trimmed.Benefits[:1]
	grown := goldCard(0)
	grown.Benefits = append(grown.Benefits, wallet.Benefit{ID: "b3", Name: "Hotel"})

	if changes := diffCards([]wallet.Card{goldCard(0)}, []wallet.Card{trimmed}); !sameKinds(changes, ChangeBenefitRemoved) || changes[0].BenefitID != "b2" {
		t.Fatalf("benefit removed = %+v", changes)
	}
	if changes := diffCards([]wallet.Card{goldCard(0)}, []wallet.Card{grown}); !sameKinds(changes, ChangeBenefitAdded) || changes[0].Benefit != "Hotel" {
		t.Fatalf("benefit added = %+v", changes)
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{Interval: 10 * time.Second, EventsBuffer: 2})

	s.publishEvent(Event{Type: EventSnapshot})
	s.publishEvent(Event{Type: EventWalletChanged})
	s.publishEvent(Event{Type: EventWalletChanged})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollEmitsSnapshotThenChanges(t *testing.T) {
	used := 0.0
	var loadErr error
	s := New(Config{Load: func(context.Context) ([]wallet.Card, error) {
		// fresh slices each poll, like a repository load
		return []wallet.Card{goldCard(used)}, loadErr
	}})
	ctx := context.Background()

	s.pollOnce(ctx)
	s.pollOnce(ctx) // unchanged, no event
	used = 4
	s.pollOnce(ctx)

	events := s.eventsSince(0)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != EventSnapshot || events[1].Type != EventWalletChanged {
		t.Fatalf("event types = %s, %s", events[0].Type, events[1].Type)
	}
	if !sameKinds(events[1].Changes, ChangeBenefitUsed) {
		t.Fatalf("changes = %+v", events[1].Changes)
	}
	if events[1].Snapshot.UsedUSD != 4 || events[1].Snapshot.RemainingUSD != 21 {
		t.Fatalf("snapshot = %+v", events[1].Snapshot)
	}
	if got := s.eventsSince(events[0].ID); len(got) != 1 || got[0].ID != events[1].ID {
		t.Fatalf("eventsSince(%d) = %+v", events[0].ID, got)
	}

	loadErr = errors.New("db locked")
	s.pollOnce(ctx)
	st := s.status()
	if st.LastError != "db locked" || st.PollCount != 4 {
		t.Fatalf("status = %+v", st)
	}
	if st.Summary.UsedUSD != 4 || len(s.currentCards()) != 1 {
		t.Fatal("failed poll should keep the last good wallet")
	}
}

func TestSubscribersReceiveChanges(t *testing.T) {
	used := 0.0
	s := New(Config{Load: func(context.Context) ([]wallet.Card, error) {
		return []wallet.Card{goldCard(used)}, nil
	}})
	s.pollOnce(context.Background())

	ch := make(chan Event, 1)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	used = 10
	s.pollOnce(context.Background())

	select {
	case ev := <-ch:
		if !sameKinds(ev.Changes, ChangeBenefitUsed, ChangeBenefitExhausted) {
			t.Fatalf("changes = %v", kinds(ev.Changes))
		}
	default:
		t.Fatal("subscriber got no event")
	}
}

type closeCounter struct{ closed int }

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func TestStoreLoaderClosesEveryPoll(t *testing.T) {
	closer := &closeCounter{}
	repo := wallet.NewMemoryRepository([]byte(`"not a wallet"`))
	load := StoreLoader(func() (wallet.Repository, io.Closer, error) {
		return repo, closer, nil
	})

	for i := 0; i < 3; i++ {
		cards, err := load(context.Background())
		if err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
		if cards == nil || len(cards) != 0 {
			t.Fatalf("malformed wallet read as %+v, want empty", cards)
		}
	}
	if closer.closed != 3 {
		t.Fatalf("closed %d times, want 3", closer.closed)
	}

	openErr := errors.New("no database")
	load = StoreLoader(func() (wallet.Repository, io.Closer, error) { return nil, nil, openErr })
	if _, err := load(context.Background()); !errors.Is(err, openErr) {
		t.Fatalf("err = %v, want %v", err, openErr)
	}
}
