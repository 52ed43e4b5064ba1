package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/smartsaver/internal/wallet"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "smartsaver.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestKVRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "k", []byte("one")))
	require.NoError(t, s.Put(ctx, "k", []byte("two")))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "two", string(got))

	_, err = s.Get(ctx, "K")
	require.True(t, errors.Is(err, ErrNotFound), "keys are case sensitive")
}

func TestKeysRecordsUpdatedAt(t *testing.T) {
	s := openTestStore(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.Put(context.Background(), "b", []byte("xyz")))
	require.NoError(t, s.Put(context.Background(), "a", []byte("")))

	keys, err := s.Keys(context.Background())
	require.NoError(t, err)
	require.Len(t, keys, 2)
	require.Equal(t, "a", keys[0].Key)
	require.Equal(t, int64(3), keys[1].Size)
	require.True(t, keys[1].UpdatedAt.Equal(fixed))
}

func TestCardRepositoryEmpty(t *testing.T) {
	repo := NewCardRepository(openTestStore(t), "")
	require.Equal(t, DefaultKey, repo.Key())

	cards, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cards)
	require.Empty(t, cards)
}

func TestCardRepositoryRoundTripIsStable(t *testing.T) {
	s := openTestStore(t)
	repo := NewCardRepository(s, "")
	ctx := context.Background()

	cards := []wallet.Card{{
		ID: "c1", Name: "Gold Card", Bank: "American Express", Last4: "1234", Type: "credit",
		Benefits: []wallet.Benefit{{ID: "b1", Name: "Dining", Period: wallet.PeriodMonthly, Limit: 10, Used: 2.5}},
	}}
	require.NoError(t, repo.Save(ctx, cards))
	before, err := repo.Raw(ctx)
	require.NoError(t, err)

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, cards, loaded)

	require.NoError(t, repo.Save(ctx, loaded))
	after, err := repo.Raw(ctx)
	require.NoError(t, err)
	require.Equal(t, string(before), string(after))
}

func TestCardRepositoryMalformed(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put(context.Background(), DefaultKey, []byte(`{"oops":1}`)))

	_, err := NewCardRepository(s, "").Load(context.Background())
	var de *wallet.DecodeError
	require.ErrorAs(t, err, &de)
}

func TestLastWriterWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	first := NewCardRepository(s, "")
	second := NewCardRepository(s, "")

	require.NoError(t, first.Save(ctx, []wallet.Card{{ID: "a"}}))
	require.NoError(t, second.Save(ctx, []wallet.Card{{ID: "b"}}))

	cards, err := first.Load(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	require.Equal(t, "b", cards[0].ID)
}

func TestWalletOverSQLite(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	w, err := wallet.Open(ctx, NewCardRepository(s, ""), nil)
	require.NoError(t, err)
	card, err := w.AddCard(ctx, wallet.CardInput{Bank: "other", Name: "Generic Debit Card", Type: "debit"})
	require.NoError(t, err)
	require.NoError(t, w.DeleteCard(ctx, card.ID))

	reopened, err := wallet.Open(ctx, NewCardRepository(s, ""), nil)
	require.NoError(t, err)
	require.Zero(t, reopened.Len())
}
