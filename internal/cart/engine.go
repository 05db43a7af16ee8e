package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/urbanshoes/storefront/pkg/errors"
	"github.com/urbanshoes/storefront/pkg/logger"
	"github.com/urbanshoes/storefront/pkg/metrics"
)

// Line is one product entry in the cart with its quantity.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
	AddedAt   time.Time       `json:"added_at"`
}

// Product carries the catalog fields a new line needs.
type Product struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	Image     string
}

// Store persists a session's serialized cart lines. Absence on load is an
// empty cart, never an error.
type Store interface {
	Save(ctx context.Context, sessionID string, lines []Line) error
	Load(ctx context.Context, sessionID string) ([]Line, error)
	Delete(ctx context.Context, sessionID string) error
}

// Engine owns one session's cart lines. Every mutation is serialized through
// a single writer lock and returns an inverse command capturing the prior
// snapshot by value, so applying it always restores exactly that state.
type Engine struct {
	sessionID string
	store     Store
	logg      *logger.Logger
	metrics   *metrics.StorefrontMetrics
	now       func() time.Time

	mu      sync.Mutex
	lines   []Line
	lastErr error
}

// NewEngine builds a cart engine for the given session. Call Hydrate before
// first use to restore any persisted lines.
func NewEngine(sessionID string, store Store, logg *logger.Logger, m *metrics.StorefrontMetrics) (*Engine, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id required")
	}
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	return &Engine{
		sessionID: sessionID,
		store:     store,
		logg:      logg,
		metrics:   m,
		now:       time.Now,
	}, nil
}

// Hydrate loads the persisted lines for this session, replacing the
// in-memory state.
func (e *Engine) Hydrate(ctx context.Context) error {
	lines, err := e.store.Load(ctx, e.sessionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "hydrate cart")
	}
	e.mu.Lock()
	e.lines = copyLines(lines)
	e.lastErr = nil
	e.mu.Unlock()
	return nil
}

// Undo is the inverse command returned by every mutation. It holds a deep
// copy of the pre-mutation snapshot; Apply restores it wholesale. Two
// overlapping undos resolve last-write-wins.
type Undo struct {
	engine *Engine
	lines  []Line
}

// Apply restores the captured snapshot.
func (u Undo) Apply(ctx context.Context) error {
	if u.engine == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "undo is not bound to a cart")
	}
	_, err := u.engine.mutate(ctx, "rollback", func(lines []Line) []Line {
		return copyLines(u.lines)
	})
	return err
}

// Add merges qty into an existing line for the product or appends a new one.
// Stock gating is the caller's responsibility.
func (e *Engine) Add(ctx context.Context, product Product, qty int) (Undo, error) {
	if product.ID == "" {
		return Undo{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty < 1 {
		return Undo{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if product.UnitPrice.IsNegative() {
		return Undo{}, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	return e.mutate(ctx, "add", func(lines []Line) []Line {
		for i := range lines {
			if lines[i].ProductID == product.ID {
				lines[i].Quantity += qty
				return lines
			}
		}
		return append(lines, Line{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.UnitPrice,
			Image:     product.Image,
			Quantity:  qty,
			AddedAt:   e.now(),
		})
	})
}

// Remove deletes the line with the given product id. Removing an absent id
// is a no-op that still yields a valid undo.
func (e *Engine) Remove(ctx context.Context, productID string) (Undo, error) {
	return e.mutate(ctx, "remove", func(lines []Line) []Line {
		out := lines[:0]
		for _, line := range lines {
			if line.ProductID != productID {
				out = append(out, line)
			}
		}
		return out
	})
}

// SetQuantity sets the line's quantity to exactly qty. A qty of zero or less
// removes the line; an unknown product id is a no-op.
func (e *Engine) SetQuantity(ctx context.Context, productID string, qty int) (Undo, error) {
	if qty <= 0 {
		return e.Remove(ctx, productID)
	}
	return e.mutate(ctx, "set_quantity", func(lines []Line) []Line {
		for i := range lines {
			if lines[i].ProductID == productID {
				lines[i].Quantity = qty
				break
			}
		}
		return lines
	})
}

// Clear empties the cart.
func (e *Engine) Clear(ctx context.Context) (Undo, error) {
	return e.mutate(ctx, "clear", func(lines []Line) []Line {
		return lines[:0]
	})
}

// Total returns the sum of unit price times quantity over all lines.
func (e *Engine) Total() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := decimal.Zero
	for _, line := range e.lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// ItemCount returns the sum of quantities over all lines.
func (e *Engine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	count := 0
	for _, line := range e.lines {
		count += line.Quantity
	}
	return count
}

// Lines returns a copy of the current snapshot in insertion order.
func (e *Engine) Lines() []Line {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyLines(e.lines)
}

// LastErr reports the most recent persistence failure, if any. Mutations
// clear it on entry.
func (e *Engine) LastErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// SessionID identifies the session this engine is bound to.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// mutate applies fn to a working copy under the writer lock, makes the new
// snapshot visible, then persists it. A persistence failure is surfaced as
// the returned error and recorded on the engine; the in-memory mutation
// stands and the undo remains valid.
func (e *Engine) mutate(ctx context.Context, op string, fn func(lines []Line) []Line) (Undo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prior := copyLines(e.lines)
	e.lines = fn(copyLines(e.lines))
	e.lastErr = nil

	undo := Undo{engine: e, lines: prior}
	e.metrics.IncCartOp(op)

	if err := e.store.Save(ctx, e.sessionID, copyLines(e.lines)); err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
		e.lastErr = wrapped
		e.metrics.IncCartPersistError()
		if e.logg != nil {
			e.logg.Error(ctx, "cart persist failed", err)
		}
		return undo, wrapped
	}
	return undo, nil
}

func copyLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
