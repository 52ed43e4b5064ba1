package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/theirongolddev/smartsaver/internal/logging"
)

var (
	ErrBankRequired    = errors.New("wallet: bank is required")
	ErrNameRequired    = errors.New("wallet: name is required")
	ErrCardNotFound    = errors.New("wallet: card not found")
	ErrBenefitNotFound = errors.New("wallet: benefit not found")
)

// Catalog supplies bank labels and default benefits for new cards.
type Catalog interface {
	BankLabel(code string) string
	DefaultBenefits(bankCode, cardName string) []Benefit
}

// CardInput is the add-card form payload. Bank is a catalog bank code.
type CardInput struct {
	Bank  string
	Name  string
	Last4 string
	Type  string
}

// BenefitInput is the add-benefit form payload.
type BenefitInput struct {
	Name   string
	Period Period
	Limit  float64
	Used   float64
}

// Wallet owns the loaded card collection and the open-card pointer.
// It is not safe for concurrent use.
type Wallet struct {
	repo    Repository
	catalog Catalog
	cards   []Card
	openID  string

	newID         func() string
	defaultType   string
	defaultPeriod Period
}

// Option configures a Wallet.
type Option func(*Wallet)

// WithIDFunc overrides the id generator used for new cards and benefits.
func WithIDFunc(fn func() string) Option {
	return func(w *Wallet) {
		if fn != nil {
			w.newID = fn
		}
	}
}

// WithDefaultType sets the card type used when the input leaves it empty.
func WithDefaultType(t string) Option {
	return func(w *Wallet) {
		if t = strings.TrimSpace(t); t != "" {
			w.defaultType = t
		}
	}
}

// WithDefaultPeriod sets the benefit period used when the input leaves it empty.
func WithDefaultPeriod(p Period) Option {
	return func(w *Wallet) {
		if p != "" {
			w.defaultPeriod = p
		}
	}
}

// Open loads the collection once from repo. A malformed stored blob is
// logged and replaced with an empty collection; other load errors are returned.
// Cards and benefits with missing or duplicate ids get fresh ones, and the
// repaired collection is saved once.
func Open(ctx context.Context, repo Repository, cat Catalog, opts ...Option) (*Wallet, error) {
	w := &Wallet{
		repo:          repo,
		catalog:       cat,
		newID:         uuid.NewString,
		defaultType:   TypeCredit,
		defaultPeriod: PeriodQuarter,
	}
	for _, opt := range opts {
		opt(w)
	}

	cards, err := repo.Load(ctx)
	if err != nil {
		var de *DecodeError
		if !errors.As(err, &de) {
			return nil, fmt.Errorf("loading wallet: %w", err)
		}
		logging.Warnf("stored wallet is malformed, starting empty: %v", err)
		cards = []Card{}
	}
	if cards == nil {
		cards = []Card{}
	}
	w.cards = cards

	if repairIDs(w.cards, w.newID) {
		logging.Warnf("stored wallet had missing or duplicate ids, assigned new ones")
		if err := w.repo.Save(ctx, w.cards); err != nil {
			logging.Warnf("saving repaired ids: %v", err)
		}
	}
	return w, nil
}

// Apply changes options on an open wallet, e.g. after the defaults are
// edited in settings.
func (w *Wallet) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(w)
	}
}

// SetCatalog swaps the catalog once an asynchronous load finishes.
func (w *Wallet) SetCatalog(cat Catalog) {
	w.catalog = cat
}

// Cards returns a deep copy of the collection in stored order.
func (w *Wallet) Cards() []Card {
	return cloneCards(w.cards)
}

// Len returns the number of cards.
func (w *Wallet) Len() int { return len(w.cards) }

// Card returns a copy of the card with the given id.
func (w *Wallet) Card(id string) (Card, bool) {
	i := w.index(id)
	if i < 0 {
		return Card{}, false
	}
	return cloneCard(w.cards[i]), true
}

// AddCard validates the input, seeds benefits from the catalog, appends the
// card and persists. It returns the stored card.
func (w *Wallet) AddCard(ctx context.Context, in CardInput) (Card, error) {
	bank := strings.TrimSpace(in.Bank)
	name := strings.TrimSpace(in.Name)
	if bank == "" {
		return Card{}, ErrBankRequired
	}
	if name == "" {
		return Card{}, ErrNameRequired
	}

	typ := strings.TrimSpace(in.Type)
	if typ == "" {
		typ = w.defaultType
	}

	card := Card{
		ID:       w.newID(),
		Name:     name,
		Bank:     w.bankLabel(bank),
		Last4:    strings.TrimSpace(in.Last4),
		Type:     typ,
		Benefits: []Benefit{},
	}
	if w.catalog != nil {
		if defaults := w.catalog.DefaultBenefits(bank, name); len(defaults) > 0 {
			card.Benefits = append(card.Benefits, defaults...)
		}
	}

	next := append(cloneCards(w.cards), card)
	if err := w.commit(ctx, next); err != nil {
		return Card{}, err
	}
	return cloneCard(card), nil
}

// DeleteCard removes the card and clears the open pointer if it was open.
func (w *Wallet) DeleteCard(ctx context.Context, id string) error {
	i := w.index(id)
	if i < 0 {
		return ErrCardNotFound
	}
	next := cloneCards(w.cards)
	next = append(next[:i], next[i+1:]...)
	if err := w.commit(ctx, next); err != nil {
		return err
	}
	if w.openID == id {
		w.openID = ""
	}
	return nil
}

// UpdateNotes overwrites the card's notes.
func (w *Wallet) UpdateNotes(ctx context.Context, id, notes string) error {
	i := w.index(id)
	if i < 0 {
		return ErrCardNotFound
	}
	next := cloneCards(w.cards)
	next[i].Notes = notes
	return w.commit(ctx, next)
}

// AddBenefit appends a benefit with a fresh id to the card.
func (w *Wallet) AddBenefit(ctx context.Context, cardID string, in BenefitInput) (Benefit, error) {
	i := w.index(cardID)
	if i < 0 {
		return Benefit{}, ErrCardNotFound
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Benefit{}, ErrNameRequired
	}
	period := in.Period
	if period == "" {
		period = w.defaultPeriod
	}

	b := Benefit{
		ID:     w.newID(),
		Name:   name,
		Period: period,
		Limit:  finiteOrZero(in.Limit),
		Used:   finiteOrZero(in.Used),
	}
	next := cloneCards(w.cards)
	next[i].Benefits = append(next[i].Benefits, b)
	if err := w.commit(ctx, next); err != nil {
		return Benefit{}, err
	}
	return b, nil
}

// RemoveBenefit splices out the benefit at index.
func (w *Wallet) RemoveBenefit(ctx context.Context, cardID string, index int) error {
	i := w.index(cardID)
	if i < 0 {
		return ErrCardNotFound
	}
	if index < 0 || index >= len(w.cards[i].Benefits) {
		return ErrBenefitNotFound
	}
	next := cloneCards(w.cards)
	benefits := next[i].Benefits
	next[i].Benefits = append(benefits[:index], benefits[index+1:]...)
	return w.commit(ctx, next)
}

// SetUsed overwrites the used amount of the benefit with the given id.
func (w *Wallet) SetUsed(ctx context.Context, cardID, benefitID string, used float64) error {
	i := w.index(cardID)
	if i < 0 {
		return ErrCardNotFound
	}
	j := w.cards[i].BenefitIndex(benefitID)
	if j < 0 {
		return ErrBenefitNotFound
	}
	return w.setUsed(ctx, i, j, used)
}

// SetUsedAt overwrites the used amount of the benefit at index.
func (w *Wallet) SetUsedAt(ctx context.Context, cardID string, index int, used float64) error {
	i := w.index(cardID)
	if i < 0 {
		return ErrCardNotFound
	}
	if index < 0 || index >= len(w.cards[i].Benefits) {
		return ErrBenefitNotFound
	}
	return w.setUsed(ctx, i, index, used)
}

func (w *Wallet) setUsed(ctx context.Context, i, j int, used float64) error {
	next := cloneCards(w.cards)
	next[i].Benefits[j].Used = finiteOrZero(used)
	return w.commit(ctx, next)
}

// OpenCard marks a card as the one shown in the detail view.
func (w *Wallet) OpenCard(id string) error {
	if w.index(id) < 0 {
		return ErrCardNotFound
	}
	w.openID = id
	return nil
}

// CloseCard returns to the list view.
func (w *Wallet) CloseCard() { w.openID = "" }

// Current returns the open card, if any.
func (w *Wallet) Current() (Card, bool) {
	if w.openID == "" {
		return Card{}, false
	}
	return w.Card(w.openID)
}

// CurrentID returns the open card id, or "" in the list view.
func (w *Wallet) CurrentID() string { return w.openID }

func (w *Wallet) index(id string) int {
	if id == "" {
		return -1
	}
	for i := range w.cards {
		if w.cards[i].ID == id {
			return i
		}
	}
	return -1
}

func (w *Wallet) bankLabel(code string) string {
	if w.catalog == nil {
		return code
	}
	return w.catalog.BankLabel(code)
}

// commit persists next and adopts it only once the save succeeds, so a
// failed save leaves the in-memory collection as it was.
func (w *Wallet) commit(ctx context.Context, next []Card) error {
	if err := w.repo.Save(ctx, next); err != nil {
		return fmt.Errorf("saving wallet: %w", err)
	}
	w.cards = next
	return nil
}

// repairIDs gives every card with an empty or repeated id a fresh one, and
// does the same for benefits within each card. It reports whether anything
// changed.
func repairIDs(cards []Card, newID func() string) bool {
	changed := false
	seen := make(map[string]bool, len(cards))
	for i := range cards {
		if id := cards[i].ID; id == "" || seen[id] {
			cards[i].ID = newID()
			changed = true
		}
		seen[cards[i].ID] = true

		seenBenefit := make(map[string]bool, len(cards[i].Benefits))
		for j := range cards[i].Benefits {
			b := &cards[i].Benefits[j]
			if b.ID == "" || seenBenefit[b.ID] {
				b.ID = newID()
				changed = true
			}
			seenBenefit[b.ID] = true
		}
	}
	return changed
}
