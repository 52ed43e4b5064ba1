package store

import (
	"context"
	"errors"

	"github.com/theirongolddev/smartsaver/internal/wallet"
)

// DefaultKey is the key the card collection is stored under.
const DefaultKey = "smartsaver_cards"

// CardRepository persists the whole card collection as one JSON blob under
// a single key. Concurrent writers are not coordinated; the last save wins.
type CardRepository struct {
	store *Store
	key   string
}

// NewCardRepository returns a repository over s. An empty key uses DefaultKey.
func NewCardRepository(s *Store, key string) *CardRepository {
	if key == "" {
		key = DefaultKey
	}
	return &CardRepository{store: s, key: key}
}

// Key returns the storage key in use.
func (r *CardRepository) Key() string { return r.key }

// Load implements wallet.Repository. An absent key is an empty collection.
func (r *CardRepository) Load(ctx context.Context) ([]wallet.Card, error) {
	data, err := r.store.Get(ctx, r.key)
	if errors.Is(err, ErrNotFound) {
		return []wallet.Card{}, nil
	}
	if err != nil {
		return nil, err
	}
	return wallet.Decode(data)
}

// Save implements wallet.Repository.
func (r *CardRepository) Save(ctx context.Context, cards []wallet.Card) error {
	data, err := wallet.Encode(cards)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, r.key, data)
}

// Raw returns the stored blob, or nil when the key is absent.
func (r *CardRepository) Raw(ctx context.Context) ([]byte, error) {
	data, err := r.store.Get(ctx, r.key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return data, err
}
