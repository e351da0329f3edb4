package cartstore

import (
	"context"
	"sync"
	"time"

	"greencart/internal/model"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type fakeRemote struct {
	mu          sync.Mutex
	stored      model.Cart
	getErr      error
	replaceErr  error
	pushes      []model.Cart
	gets        int
	block       chan struct{}
	inFlight    int
	maxInFlight int
}

func (r *fakeRemote) Get(ctx context.Context) (model.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.stored.Clone(), nil
}

func (r *fakeRemote) Replace(ctx context.Context, cart model.Cart) error {
	r.mu.Lock()
	r.pushes = append(r.pushes, cart.Clone())
	r.inFlight++
	if r.inFlight > r.maxInFlight {
		r.maxInFlight = r.inFlight
	}
	block := r.block
	r.mu.Unlock()

	if block != nil {
		<-block
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight--
	if r.replaceErr != nil {
		return r.replaceErr
	}
	r.stored = cart.Clone()
	return nil
}

func (r *fakeRemote) pushCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pushes)
}

func (r *fakeRemote) lastPush() model.Cart {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pushes) == 0 {
		return nil
	}
	return r.pushes[len(r.pushes)-1]
}

func (r *fakeRemote) getCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gets
}

func (r *fakeRemote) inFlightCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	infos     []string
	errors    []string
	prompts   int
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordingNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordingNotifier) PromptLogin() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.prompts++
}

func (n *recordingNotifier) errorMessages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.errors...)
}

type fakePlacer struct {
	mu       sync.Mutex
	requests []model.OrderRequest
	types    []model.PaymentType
	result   *model.PlacedOrder
	err      error
	// during runs while the order request is in flight.
	during func()
}

func (p *fakePlacer) PlaceOrder(ctx context.Context, req model.OrderRequest, paymentType model.PaymentType) (*model.PlacedOrder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	p.types = append(p.types, paymentType)
	if p.during != nil {
		p.during()
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

func testCatalog() model.Catalog {
	return model.NewCatalog([]model.Product{
		{ID: "P1", Name: "Apples", OfferPrice: decimal.RequireFromString("10")},
		{ID: "P2", Name: "Milk", OfferPrice: decimal.RequireFromString("25")},
		{ID: "P3", Name: "Bread", OfferPrice: decimal.RequireFromString("4.5")},
	})
}

type harness struct {
	store    *Store
	remote   *fakeRemote
	notifier *recordingNotifier
	clock    *clockwork.FakeClock
}

func newHarness() *harness {
	h := &harness{
		remote:   &fakeRemote{stored: model.Cart{}},
		notifier: &recordingNotifier{},
		clock:    clockwork.NewFakeClock(),
	}
	h.store = New(Options{
		Remote:   h.remote,
		Notifier: h.notifier,
		Clock:    h.clock,
		Debounce: time.Second,
	}, zerolog.Nop())
	h.store.SetCatalog(testCatalog())
	return h
}
