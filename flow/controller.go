package flow

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"honesttravel/database"
	"honesttravel/services"
	"honesttravel/session"
	"honesttravel/survey"
)

// ContentGateway is the content-generation backend.
type ContentGateway interface {
	CityInfo(ctx context.Context, req services.CityInfoRequest) (services.CityInfo, error)
	SurveyQuestions(ctx context.Context, city string) ([]survey.Question, error)
	SubmitSurvey(ctx context.Context, sub services.SurveySubmission) error
	TravelPlan(ctx context.Context, city string) (services.TravelPlan, error)
	Login(ctx context.Context, req services.LoginRequest) (string, error)
}

type HotelGateway interface {
	Hotels(ctx context.Context, city, checkIn, checkOut string) ([]services.Hotel, error)
}

// ImageGateway never fails; it falls back to a default image.
type ImageGateway interface {
	CityImage(ctx context.Context, city string) string
}

type PaymentGateway interface {
	CreateCheckout(ctx context.Context, req services.CheckoutRequest) (services.Checkout, error)
	CheckoutPaid(ctx context.Context, sessionID string) (bool, error)
}

// OrderLedger records checkouts. It is optional.
type OrderLedger interface {
	RecordCheckout(ctx context.Context, o *database.Order) error
	MarkPaid(ctx context.Context, checkoutID string) error
}

type StageObserver interface {
	ObserveStage(stage string)
}

type Deps struct {
	Sessions        session.Provider
	Content         ContentGateway
	Hotels          HotelGateway
	Images          ImageGateway
	Payments        PaymentGateway
	Catalog         *services.Catalog
	Ledger          OrderLedger
	Observer        StageObserver
	Logger          *zap.Logger
	PrefetchTimeout time.Duration
}

// Controller drives a browser session through the planning stages. All
// trip state lives in the session store; the controller keeps only the
// handles of running background prefetches.
type Controller struct {
	sessions        session.Provider
	content         ContentGateway
	hotels          HotelGateway
	images          ImageGateway
	payments        PaymentGateway
	catalog         *services.Catalog
	ledger          OrderLedger
	observer        StageObserver
	log             *zap.Logger
	prefetchTimeout time.Duration
	now             func() time.Time

	mu         sync.Mutex
	prefetches map[string]*prefetch
	wg         sync.WaitGroup
}

type prefetch struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func New(d Deps) *Controller {
	c := &Controller{
		sessions:        d.Sessions,
		content:         d.Content,
		hotels:          d.Hotels,
		images:          d.Images,
		payments:        d.Payments,
		catalog:         d.Catalog,
		ledger:          d.Ledger,
		observer:        d.Observer,
		log:             d.Logger,
		prefetchTimeout: d.PrefetchTimeout,
		now:             time.Now,
		prefetches:      make(map[string]*prefetch),
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.prefetchTimeout <= 0 {
		c.prefetchTimeout = 45 * time.Second
	}
	return c
}

func (c *Controller) store(sid string) session.Store {
	return c.sessions.Open(sid)
}

// enter records the stage the session is now on.
func (c *Controller) enter(ctx context.Context, s session.Store, stage Stage) error {
	if err := s.Set(ctx, session.KeyStage, string(stage)); err != nil {
		return err
	}
	if c.observer != nil {
		c.observer.ObserveStage(string(stage))
	}
	return nil
}

// startPrefetch runs fn in the background, replacing any prefetch already
// running for the session. The task is not tied to the caller's request.
func (c *Controller) startPrefetch(sid string, fn func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), c.prefetchTimeout)
	p := &prefetch{cancel: cancel, done: make(chan struct{})}

	c.mu.Lock()
	if old, ok := c.prefetches[sid]; ok {
		old.cancel()
	}
	c.prefetches[sid] = p
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(p.done)
		defer cancel()
		defer func() {
			c.mu.Lock()
			if c.prefetches[sid] == p {
				delete(c.prefetches, sid)
			}
			c.mu.Unlock()
		}()
		fn(ctx)
	}()
}

// prefetching reports whether a background prefetch is running for sid.
func (c *Controller) prefetching(sid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.prefetches[sid]
	return ok
}

// stopPrefetch cancels the session's prefetch and waits until it returned,
// so it cannot write to the session afterwards.
func (c *Controller) stopPrefetch(sid string) {
	c.mu.Lock()
	p, ok := c.prefetches[sid]
	if ok {
		p.cancel()
	}
	c.mu.Unlock()
	if ok {
		<-p.done
	}
}

// CancelPrefetch abandons the session's background prefetch, if any.
func (c *Controller) CancelPrefetch(sid string) {
	c.mu.Lock()
	if p, ok := c.prefetches[sid]; ok {
		p.cancel()
	}
	c.mu.Unlock()
}

// Close cancels all prefetches and waits for them to return.
func (c *Controller) Close() {
	c.mu.Lock()
	for _, p := range c.prefetches {
		p.cancel()
	}
	c.mu.Unlock()
	c.wg.Wait()
}
