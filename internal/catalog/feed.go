package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/urbanshoes/storefront/pkg/logger"
)

// LoadErrMessage is the user-facing banner shown while the feed is unreachable.
const LoadErrMessage = "Failed to load products. Please refresh."

// ErrNotFound is returned by sources when a product id has no record.
var ErrNotFound = errors.New("product not found")

// Source is the push-based data source backing the catalog feed.
type Source interface {
	LoadProducts(ctx context.Context) (map[string]string, error)
	LoadProduct(ctx context.Context, id string) (string, error)
	SubscribeUpdates(ctx context.Context) (Listener, error)
}

// Listener delivers change notifications until closed.
type Listener interface {
	Events() <-chan struct{}
	Close() error
}

// Snapshot is one observed state of the catalog: the normalized product
// list, or a user-facing error string with the feed treated as empty.
type Snapshot struct {
	Products []ProductRecord
	Err      string
}

// Feed adapts the push source into ordered product snapshots.
type Feed struct {
	source Source
	logg   *logger.Logger
}

// NewFeed builds a feed over the given source.
func NewFeed(source Source, logg *logger.Logger) (*Feed, error) {
	if source == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	return &Feed{source: source, logg: logg}, nil
}

// Load fetches and normalizes the current product mapping once. An empty
// mapping is an empty catalog, not an error.
func (f *Feed) Load(ctx context.Context) Snapshot {
	raw, err := f.source.LoadProducts(ctx)
	if err != nil {
		if f.logg != nil {
			f.logg.Error(ctx, "catalog load failed", err)
		}
		return Snapshot{Products: []ProductRecord{}, Err: LoadErrMessage}
	}
	products, err := NormalizeSnapshot(raw)
	if err != nil {
		if f.logg != nil {
			f.logg.Error(ctx, "catalog snapshot malformed", err)
		}
		return Snapshot{Products: []ProductRecord{}, Err: LoadErrMessage}
	}
	return Snapshot{Products: products}
}

// LoadProduct fetches a single record by id.
func (f *Feed) LoadProduct(ctx context.Context, id string) (ProductRecord, error) {
	payload, err := f.source.LoadProduct(ctx, id)
	if err != nil {
		return ProductRecord{}, err
	}
	return decodeProduct(id, payload)
}

// Subscribe opens a live subscription: the current snapshot is delivered
// immediately, then a fresh one after every source update. The caller owns
// the handle and must Close it to tear the listener down.
func (f *Feed) Subscribe(ctx context.Context) (*Subscription, error) {
	listener, err := f.source.SubscribeUpdates(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribe catalog updates: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		snapshots: make(chan Snapshot, 1),
		listener:  listener,
		cancel:    cancel,
	}

	sub.push(f.Load(ctx))

	go func() {
		defer close(sub.snapshots)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-listener.Events():
				if !ok {
					return
				}
				sub.push(f.Load(ctx))
			}
		}
	}()

	return sub, nil
}

// Subscription is a cancellable handle on the live feed.
type Subscription struct {
	snapshots chan Snapshot
	listener  Listener
	cancel    context.CancelFunc

	once     sync.Once
	closeErr error
}

// Snapshots delivers the latest snapshot; stale intermediate snapshots are
// dropped when the consumer lags.
func (s *Subscription) Snapshots() <-chan Snapshot {
	return s.snapshots
}

// Close tears down the source listener. Safe to call more than once.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		s.closeErr = s.listener.Close()
	})
	return s.closeErr
}

func (s *Subscription) push(snapshot Snapshot) {
	for {
		select {
		case s.snapshots <- snapshot:
			return
		default:
			select {
			case <-s.snapshots:
			default:
			}
		}
	}
}
