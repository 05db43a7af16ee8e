package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	pkgerrors "github.com/urbanshoes/storefront/pkg/errors"
	"github.com/urbanshoes/storefront/pkg/logger"
	"github.com/urbanshoes/storefront/pkg/metrics"
)

// BrowseResult is the browse endpoint payload: the visible page, the derived
// category list and the feed error banner, if any.
type BrowseResult struct {
	Page       Page     `json:"page"`
	Categories []string `json:"categories"`
	FeedError  string   `json:"feed_error,omitempty"`
}

// Service holds the latest feed snapshot and answers catalog queries.
type Service interface {
	Start(ctx context.Context) error
	Close() error
	Browse(filters Filters) (*BrowseResult, error)
	GetProduct(ctx context.Context, id string) (*ProductRecord, error)
}

type service struct {
	feed    *Feed
	view    *View
	logg    *logger.Logger
	metrics *metrics.StorefrontMetrics

	mu      sync.RWMutex
	current Snapshot
	sub     *Subscription
}

// NewService builds the catalog service backed by the provided feed.
func NewService(feed *Feed, view *View, logg *logger.Logger, m *metrics.StorefrontMetrics) (Service, error) {
	if feed == nil {
		return nil, fmt.Errorf("catalog feed required")
	}
	if view == nil {
		return nil, fmt.Errorf("catalog view required")
	}
	return &service{
		feed:    feed,
		view:    view,
		logg:    logg,
		metrics: m,
		current: Snapshot{Products: []ProductRecord{}},
	}, nil
}

// Start subscribes to the live feed and keeps the cached snapshot current
// until Close tears the subscription down.
func (s *service) Start(ctx context.Context) error {
	sub, err := s.feed.Subscribe(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start catalog subscription")
	}

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()

	go func() {
		for snapshot := range sub.Snapshots() {
			s.mu.Lock()
			s.current = snapshot
			s.mu.Unlock()
			s.metrics.SetCatalogProducts(len(snapshot.Products))
			if snapshot.Err != "" && s.logg != nil {
				s.logg.Warn(ctx, "catalog feed degraded")
			}
		}
	}()

	return nil
}

// Close releases the feed subscription.
func (s *service) Close() error {
	s.mu.RLock()
	sub := s.sub
	s.mu.RUnlock()
	if sub == nil {
		return nil
	}
	return sub.Close()
}

// Browse applies the view pipeline over the cached snapshot.
func (s *service) Browse(filters Filters) (*BrowseResult, error) {
	snapshot := s.snapshot()

	page, err := s.view.Apply(snapshot.Products, filters)
	if err != nil {
		return nil, err
	}

	return &BrowseResult{
		Page:       page,
		Categories: Categories(snapshot.Products),
		FeedError:  snapshot.Err,
	}, nil
}

// GetProduct looks a single product up in the live feed.
func (s *service) GetProduct(ctx context.Context, id string) (*ProductRecord, error) {
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	record, err := s.feed.LoadProduct(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return &record, nil
}

func (s *service) snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
