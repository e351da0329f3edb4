package cartstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"greencart/internal/model"
	"greencart/internal/pricing"
	"greencart/internal/promo"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Options configures a Store.
type Options struct {
	Remote   Remote
	Notifier Notifier
	// Promos validates promo codes locally. Defaults to the built-in rules.
	Promos promo.Book
	// Clock drives the debounce timer. Defaults to the real clock.
	Clock clockwork.Clock
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	// Timeout bounds each remote call. Defaults to 10s.
	Timeout time.Duration
}

// Store is the client-visible cart of one session. Every mutation resets a
// trailing-edge debounce timer; when it fires the whole cart is pushed to the
// Remote. At most one push is in flight. A failed push is not retried: the
// server cart is pulled and replaces local state.
type Store struct {
	mu       sync.Mutex
	remote   Remote
	notifier Notifier
	promos   promo.Book
	clock    clockwork.Clock
	debounce time.Duration
	timeout  time.Duration
	logger   zerolog.Logger

	userID  string
	catalog model.Catalog
	cart    model.Cart

	// gen changes on every login and logout; work started under an older
	// generation is discarded.
	gen     uint64
	ctx     context.Context
	cancel  context.CancelFunc
	timer   clockwork.Timer
	seq     uint64
	pushing bool
	dirty   bool
}

// New creates an empty, signed-out store.
func New(opts Options, logger zerolog.Logger) *Store {
	if opts.Notifier == nil {
		opts.Notifier = NewLogNotifier(logger)
	}
	if opts.Promos == nil {
		opts.Promos = promo.NewMapBook(promo.BuiltinRules()...)
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		remote:   opts.Remote,
		notifier: opts.Notifier,
		promos:   opts.Promos,
		clock:    opts.Clock,
		debounce: opts.Debounce,
		timeout:  opts.Timeout,
		logger:   logger.With().Str("component", "cartstore").Logger(),
		catalog:  model.Catalog{},
		cart:     model.Cart{},
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetCatalog replaces the product snapshot used to resolve cart entries.
func (s *Store) SetCatalog(catalog model.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = catalog
}

// UserID returns the signed-in user, or "".
func (s *Store) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Login starts a session for userID and rehydrates the cart from the
// Remote. A failed pull leaves the session signed in with an empty cart.
func (s *Store) Login(ctx context.Context, userID string) error {
	if userID == "" {
		return model.ErrValidation.WithMessage("user id is required")
	}

	s.mu.Lock()
	s.resetLocked()
	s.userID = userID
	gen := s.gen
	s.mu.Unlock()

	cart, err := s.pull(ctx)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.cart = model.Cart{}
		s.mu.Unlock()

		s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to load cart, starting empty")
		s.notifier.Error("Could not load your saved cart")
		return nil
	}
	s.cart = s.reconcileLocked(cart)
	entries := len(s.cart)
	s.mu.Unlock()

	s.logger.Debug().Str("user_id", userID).Int("entries", entries).Msg("cart rehydrated")
	return nil
}

// Logout ends the session. A pending push is cancelled and the cart is
// discarded without being pushed.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.userID = ""
}

// Add increments productID by qty.
func (s *Store) Add(productID string, qty int) error {
	if productID == "" {
		return s.fail(model.ErrValidation.WithMessage("product id is required"))
	}
	if qty < 1 {
		return s.fail(model.ErrValidation.WithMessage("quantity must be at least 1"))
	}

	s.mu.Lock()
	if s.userID == "" {
		s.mu.Unlock()
		s.notifier.PromptLogin()
		return model.ErrAuthRequired
	}
	if _, ok := s.catalog[productID]; !ok {
		s.mu.Unlock()
		return s.fail(model.ErrProductNotFound)
	}
	s.cart[productID] += qty
	s.schedulePushLocked()
	s.mu.Unlock()

	s.notifier.Success("Added to Cart")
	return nil
}

// SetQuantity sets productID to exactly qty. Zero removes the entry.
func (s *Store) SetQuantity(productID string, qty int) error {
	if productID == "" {
		return s.fail(model.ErrValidation.WithMessage("product id is required"))
	}
	if qty < 0 {
		return s.fail(model.ErrValidation.WithMessage("quantity cannot be negative"))
	}

	s.mu.Lock()
	if qty == 0 {
		delete(s.cart, productID)
	} else {
		s.cart[productID] = qty
	}
	s.schedulePushLocked()
	s.mu.Unlock()

	s.notifier.Success("Cart Updated")
	return nil
}

// Remove decrements productID by qty and drops it at zero.
func (s *Store) Remove(productID string, qty int) error {
	if qty < 1 {
		return s.fail(model.ErrValidation.WithMessage("quantity must be at least 1"))
	}

	s.mu.Lock()
	current, ok := s.cart[productID]
	if !ok {
		s.mu.Unlock()
		return s.fail(model.ErrNotFound.WithMessage("Item not in cart"))
	}
	if current-qty <= 0 {
		delete(s.cart, productID)
	} else {
		s.cart[productID] = current - qty
	}
	s.schedulePushLocked()
	s.mu.Unlock()

	s.notifier.Success("Removed from Cart")
	return nil
}

// Clear empties the cart of the signed-in user.
func (s *Store) Clear() error {
	s.mu.Lock()
	if s.userID == "" {
		s.mu.Unlock()
		return s.fail(model.ErrAuthRequired)
	}
	s.cart = model.Cart{}
	s.schedulePushLocked()
	s.mu.Unlock()
	return nil
}

// Count returns the total quantity in the cart.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.ItemCount(s.cart)
}

// Snapshot returns a copy of the cart.
func (s *Store) Snapshot() model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// Quote prices the cart against the catalog snapshot.
func (s *Store) Quote(code string) (pricing.Breakdown, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.Quote(s.cart, s.catalog, code, s.promos)
}

// Close cancels pending work. The store must not be used afterwards.
func (s *Store) Close() {
	s.Logout()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
}

// resetLocked starts a new generation with an empty cart.
func (s *Store) resetLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.gen++
	s.seq++
	s.cart = model.Cart{}
	s.pushing = false
	s.dirty = false
}

// schedulePushLocked restarts the debounce window. The previous timer is
// stopped and its sequence number invalidated, so at most the latest timer
// pushes.
func (s *Store) schedulePushLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.seq++
	seq := s.seq
	s.timer = s.clock.AfterFunc(s.debounce, func() { s.flush(seq) })
}

func (s *Store) flush(seq uint64) {
	s.mu.Lock()
	if seq != s.seq || s.userID == "" {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	if s.pushing {
		s.dirty = true
		s.mu.Unlock()
		return
	}
	s.pushing = true
	gen, ctx := s.gen, s.ctx
	snapshot := s.cart.Clone()
	s.mu.Unlock()

	for {
		err := s.push(ctx, snapshot)

		s.mu.Lock()
		if gen != s.gen {
			s.mu.Unlock()
			return
		}
		if err != nil {
			s.pushing = false
			s.dirty = false
			s.mu.Unlock()

			s.logger.Warn().Err(err).Msg("cart push failed, reconciling")
			s.notifier.Error("Failed to save cart")
			s.reconcile(ctx, gen)
			return
		}
		if !s.dirty {
			s.pushing = false
			s.mu.Unlock()
			return
		}
		s.dirty = false
		snapshot = s.cart.Clone()
		s.mu.Unlock()
	}
}

// reconcile overwrites local state with the server cart.
func (s *Store) reconcile(ctx context.Context, gen uint64) {
	cart, err := s.pull(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn().Err(err).Msg("failed to reconcile cart, keeping local state")
		}
		return
	}
	s.cart = s.reconcileLocked(cart)
}

// reconcileLocked drops stale entries. Without a catalog snapshot only
// non-positive quantities are dropped.
func (s *Store) reconcileLocked(cart model.Cart) model.Cart {
	if len(s.catalog) == 0 {
		out := make(model.Cart, len(cart))
		for id, qty := range cart {
			if qty > 0 && id != "" {
				out[id] = qty
			}
		}
		return out
	}
	return cart.Reconcile(s.catalog)
}

func (s *Store) push(ctx context.Context, cart model.Cart) error {
	if s.remote == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.remote.Replace(ctx, cart)
}

func (s *Store) pull(ctx context.Context) (model.Cart, error) {
	if s.remote == nil {
		return model.Cart{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.remote.Get(ctx)
}

// fail notifies the shopper and returns err.
func (s *Store) fail(err error) error {
	var de *model.DomainError
	if errors.As(err, &de) {
		s.notifier.Error(de.Message)
	} else {
		s.notifier.Error(err.Error())
	}
	return err
}

// clearAfterOrder removes the ordered quantities from the cart and pushes the
// rest. Items added while the order was in flight stay in the cart. Nothing
// happens if the session changed since the order was submitted.
func (s *Store) clearAfterOrder(gen uint64, ordered model.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == "" || gen != s.gen {
		return
	}
	for id, qty := range ordered {
		left := s.cart[id] - qty
		if left <= 0 {
			delete(s.cart, id)
			continue
		}
		s.cart[id] = left
	}
	if len(s.catalog) > 0 {
		s.cart = s.cart.Reconcile(s.catalog)
	}
	s.schedulePushLocked()
}
