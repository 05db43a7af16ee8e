package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/urbanshoes/storefront/internal/cart"
	pkgerrors "github.com/urbanshoes/storefront/pkg/errors"
	"github.com/urbanshoes/storefront/pkg/logger"
	"github.com/urbanshoes/storefront/pkg/metrics"
	"github.com/urbanshoes/storefront/pkg/razorpay"
)

// State identifies where a session's checkout currently is.
type State string

const (
	StateCollecting State = "collecting"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
)

// ShippingForm carries the buyer details collected before payment.
type ShippingForm struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Address string `json:"address" validate:"required"`
}

// Session is a per-session checkout record. Once a payment attempt begins the
// session moves to Submitting and stays there until it is confirmed or the
// gateway call fails.
type Session struct {
	SessionID    string         `json:"session_id"`
	State        State          `json:"state"`
	Form         ShippingForm   `json:"form"`
	Totals       Totals         `json:"totals"`
	OrderID      string         `json:"order_id,omitempty"`
	Currency     string         `json:"currency,omitempty"`
	Confirmation map[string]any `json:"confirmation,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Gateway creates payment orders. A nil Gateway selects the simulated flow.
type Gateway interface {
	CreateOrder(ctx context.Context, amountMinorUnits int64, receipt string) (*razorpay.Order, error)
}

type cartProvider interface {
	Engine(ctx context.Context, sessionID string) (*cart.Engine, error)
}

// Store persists checkout sessions across restarts.
type Store interface {
	Save(ctx context.Context, session *Session) error
	Load(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// Service orchestrates the checkout flow.
type Service interface {
	Status(ctx context.Context, sessionID string) (*Session, error)
	Submit(ctx context.Context, sessionID string, form ShippingForm) (*Session, error)
	Confirm(ctx context.Context, sessionID string, payload map[string]any) (*Session, error)
}

type service struct {
	carts    cartProvider
	gateway  Gateway
	store    Store
	pricing  Pricing
	delay    time.Duration
	validate *validator.Validate
	logg     *logger.Logger
	metrics  *metrics.StorefrontMetrics
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewService builds the checkout service. A nil gateway selects the
// simulated-delay flow, where submissions succeed on their own after the
// configured delay.
func NewService(
	carts cartProvider,
	gw Gateway,
	store Store,
	pricing Pricing,
	delay time.Duration,
	logg *logger.Logger,
	m *metrics.StorefrontMetrics,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart provider required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		carts:    carts,
		gateway:  gw,
		store:    store,
		pricing:  pricing,
		delay:    delay,
		validate: validator.New(),
		logg:     logg,
		metrics:  m,
		now:      time.Now,
		sleep:    sleepContext,
		sessions: map[string]*Session{},
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Status returns the session's current checkout record, creating a Collecting
// one for sessions that have not started.
func (s *service) Status(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.sessionLocked(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return snapshot(session), nil
}

func (s *service) Submit(ctx context.Context, sessionID string, form ShippingForm) (*Session, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if err := s.validate.Struct(form); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping details")
	}

	engine, err := s.carts.Engine(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	lines := engine.Lines()
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	totals := ComputeTotals(lines, s.pricing)

	s.mu.Lock()
	session, err := s.sessionLocked(ctx, sessionID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if session.State == StateSubmitting {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already in progress")
	}
	session.State = StateSubmitting
	session.Form = form
	session.Totals = totals
	session.OrderID = ""
	session.Confirmation = nil
	session.UpdatedAt = s.now()
	s.persistLocked(ctx, session)
	s.mu.Unlock()

	if s.gateway == nil {
		return s.submitSimulated(ctx, sessionID, engine)
	}
	return s.submitGateway(ctx, sessionID, totals)
}

func (s *service) submitGateway(ctx context.Context, sessionID string, totals Totals) (*Session, error) {
	order, err := s.gateway.CreateOrder(ctx, totals.AmountMinorUnits(), "rcpt_"+sessionID)
	if err != nil {
		s.logg.Error(ctx, "payment order creation failed", err)
		s.metrics.IncCheckout("failed")
		s.transition(ctx, sessionID, func(session *Session) {
			session.State = StateCollecting
			session.UpdatedAt = s.now()
		})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment could not be initiated")
	}

	session := s.transition(ctx, sessionID, func(session *Session) {
		session.OrderID = order.ID
		session.Currency = order.Currency
		session.UpdatedAt = s.now()
	})
	s.metrics.IncCheckout("initiated")
	return session, nil
}

// submitSimulated is the non-integrated flow: the submission resolves on its
// own after a fixed delay and the cart is emptied.
func (s *service) submitSimulated(ctx context.Context, sessionID string, engine *cart.Engine) (*Session, error) {
	if err := s.sleep(ctx, s.delay); err != nil {
		s.transition(ctx, sessionID, func(session *Session) {
			session.State = StateCollecting
			session.UpdatedAt = s.now()
		})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout interrupted")
	}

	if _, err := engine.Clear(ctx); err != nil {
		s.logg.Error(ctx, "clearing cart after checkout failed", err)
	}
	session := s.transition(ctx, sessionID, func(session *Session) {
		session.State = StateSucceeded
		session.UpdatedAt = s.now()
	})
	s.metrics.IncCheckout("succeeded")
	return session, nil
}

// Confirm records the gateway's payment confirmation payload and completes
// the checkout. The payload is stored as received, without verification.
func (s *service) Confirm(ctx context.Context, sessionID string, payload map[string]any) (*Session, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	s.mu.Lock()
	session, err := s.sessionLocked(ctx, sessionID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if session.State != StateSubmitting {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no checkout awaiting confirmation")
	}
	session.State = StateSucceeded
	session.Confirmation = payload
	session.UpdatedAt = s.now()
	result := snapshot(session)
	s.persistLocked(ctx, session)
	s.mu.Unlock()

	if engine, err := s.carts.Engine(ctx, sessionID); err == nil {
		if _, err := engine.Clear(ctx); err != nil {
			s.logg.Error(ctx, "clearing cart after checkout failed", err)
		}
	}
	s.metrics.IncCheckout("succeeded")
	return result, nil
}

// sessionLocked returns the in-memory session, hydrating it from the store on
// first access. Callers hold s.mu.
func (s *service) sessionLocked(ctx context.Context, sessionID string) (*Session, error) {
	if session, ok := s.sessions[sessionID]; ok {
		return session, nil
	}
	stored, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session")
	}
	if stored == nil {
		stored = &Session{SessionID: sessionID, State: StateCollecting, UpdatedAt: s.now()}
	}
	s.sessions[sessionID] = stored
	return stored, nil
}

// transition applies fn to the session under the lock and persists the
// result. The session is created if it is somehow missing.
func (s *service) transition(ctx context.Context, sessionID string, fn func(*Session)) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		session = &Session{SessionID: sessionID, State: StateCollecting, UpdatedAt: s.now()}
		s.sessions[sessionID] = session
	}
	fn(session)
	s.persistLocked(ctx, session)
	return snapshot(session)
}

func (s *service) persistLocked(ctx context.Context, session *Session) {
	if err := s.store.Save(ctx, snapshot(session)); err != nil {
		s.logg.Error(ctx, "persist checkout session failed", err)
	}
}

func snapshot(session *Session) *Session {
	out := *session
	if session.Confirmation != nil {
		out.Confirmation = make(map[string]any, len(session.Confirmation))
		for k, v := range session.Confirmation {
			out.Confirmation[k] = v
		}
	}
	return &out
}
