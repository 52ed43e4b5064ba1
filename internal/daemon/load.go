package daemon

import (
	"context"
	"errors"
	"io"

	"github.com/theirongolddev/smartsaver/internal/logging"
	"github.com/theirongolddev/smartsaver/internal/wallet"
)

// OpenFunc opens the card repository for a single read. The closer releases
// whatever backs it, e.g. the database handle.
type OpenFunc func() (wallet.Repository, io.Closer, error)

// StoreLoader returns a LoadFunc that opens the repository on every poll and
// closes it again, so the daemon never holds the database between polls.
func StoreLoader(open OpenFunc) LoadFunc {
	return func(ctx context.Context) ([]wallet.Card, error) {
		repo, closer, err := open()
		if err != nil {
			return nil, err
		}
		defer func() { _ = closer.Close() }()
		return ReadCards(ctx, repo)
	}
}

// ReadCards loads the collection from repo. A malformed stored blob reads as
// an empty wallet, matching what the wallet itself opens to.
func ReadCards(ctx context.Context, repo wallet.Repository) ([]wallet.Card, error) {
	cards, err := repo.Load(ctx)
	var de *wallet.DecodeError
	if errors.As(err, &de) {
		logging.Warnf("stored wallet is malformed, reporting empty: %v", err)
		return []wallet.Card{}, nil
	}
	if err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []wallet.Card{}
	}
	return cards, nil
}
