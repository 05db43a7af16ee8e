package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/urbanshoes/storefront/internal/cart"
	"github.com/urbanshoes/storefront/internal/catalog"
	checkoutsvc "github.com/urbanshoes/storefront/internal/checkout"
	"github.com/urbanshoes/storefront/pkg/config"
	pkgerrors "github.com/urbanshoes/storefront/pkg/errors"
	"github.com/urbanshoes/storefront/pkg/logger"
)

type stubCartStore struct {
	mu    sync.Mutex
	lines map[string][]cart.Line
}

func (s *stubCartStore) Save(ctx context.Context, sessionID string, lines []cart.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lines == nil {
		s.lines = map[string][]cart.Line{}
	}
	s.lines[sessionID] = lines
	return nil
}

func (s *stubCartStore) Load(ctx context.Context, sessionID string) ([]cart.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines[sessionID], nil
}

func (s *stubCartStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lines, sessionID)
	return nil
}

type stubCatalogService struct {
	products map[string]catalog.ProductRecord
}

func (s *stubCatalogService) Start(ctx context.Context) error { return nil }
func (s *stubCatalogService) Close() error                    { return nil }

func (s *stubCatalogService) Browse(filters catalog.Filters) (*catalog.BrowseResult, error) {
	items := make([]catalog.ProductRecord, 0, len(s.products))
	for _, record := range s.products {
		items = append(items, record)
	}
	return &catalog.BrowseResult{
		Page:       catalog.Page{Items: items, Number: 1, PageCount: 1, TotalItems: len(items)},
		Categories: []string{catalog.AllCategories},
	}, nil
}

func (s *stubCatalogService) GetProduct(ctx context.Context, id string) (*catalog.ProductRecord, error) {
	record, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &record, nil
}

type stubCheckoutService struct{}

func (stubCheckoutService) Status(ctx context.Context, sessionID string) (*checkoutsvc.Session, error) {
	return &checkoutsvc.Session{SessionID: sessionID, State: checkoutsvc.StateCollecting}, nil
}

func (stubCheckoutService) Submit(ctx context.Context, sessionID string, form checkoutsvc.ShippingForm) (*checkoutsvc.Session, error) {
	return &checkoutsvc.Session{SessionID: sessionID, State: checkoutsvc.StateSubmitting, Form: form}, nil
}

func (stubCheckoutService) Confirm(ctx context.Context, sessionID string, payload map[string]any) (*checkoutsvc.Session, error) {
	return &checkoutsvc.Session{SessionID: sessionID, State: checkoutsvc.StateSucceeded, Confirmation: payload}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "test"

	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error"), Output: io.Discard})

	manager, err := cart.NewManager(&stubCartStore{}, logg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	catalogSvc := &stubCatalogService{products: map[string]catalog.ProductRecord{
		"shoe-1": {ID: "shoe-1", Name: "Runner", Price: decimal.NewFromInt(120), Stock: 5},
	}}

	return NewRouter(cfg, logg, nil, prometheus.NewRegistry(), catalogSvc, manager, stubCheckoutService{})
}

func TestRouterHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t)

	for _, target := range []string{"/health/live", "/health/ready", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", target, rec.Code)
		}
	}
}

func TestRouterSessionFlow(t *testing.T) {
	router := newTestRouter(t)

	// First touch without a session header mints one.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	sessionID := rec.Header().Get("X-Session-Id")
	if sessionID == "" {
		t.Fatal("expected a minted session id header")
	}

	// Adding with the minted session persists across requests.
	addReq := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"product_id":"shoe-1","qty":2}`))
	addReq.Header.Set("X-Session-Id", sessionID)
	addRec := httptest.NewRecorder()
	router.ServeHTTP(addRec, addReq)
	if addRec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", addRec.Code, addRec.Body.String())
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	getReq.Header.Set("X-Session-Id", sessionID)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", getRec.Code)
	}

	var envelope struct {
		Data struct {
			ItemCount int `json:"item_count"`
		} `json:"data"`
	}
	if err := json.NewDecoder(getRec.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if envelope.Data.ItemCount != 2 {
		t.Fatalf("expected item count 2, got %d", envelope.Data.ItemCount)
	}
}

func TestRouterProductAndCheckoutRoutes(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/shoe-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("product route: expected 200, got %d", rec.Code)
	}

	body := `{"name":"Ada","email":"ada@example.com","address":"1 High St"}`
	submitReq := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	submitReq.Header.Set("X-Session-Id", "sess-1")
	submitRec := httptest.NewRecorder()
	router.ServeHTTP(submitRec, submitReq)
	if submitRec.Code != http.StatusAccepted {
		t.Fatalf("checkout route: expected 202, got %d: %s", submitRec.Code, submitRec.Body.String())
	}
}
