package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records cart, catalog and checkout activity.
type StorefrontMetrics struct {
	cartOps         *prometheus.CounterVec
	cartPersistErrs prometheus.Counter
	catalogProducts prometheus.Gauge
	checkouts       *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	cartOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart mutations by operation.",
	}, []string{"op"})
	cartPersistErrs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_persist_errors_total",
		Help: "Cart snapshots that failed to persist.",
	})
	catalogProducts := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_products",
		Help: "Products in the current catalog snapshot.",
	})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Checkout submissions by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(cartOps, cartPersistErrs, catalogProducts, checkouts)
	return &StorefrontMetrics{
		cartOps:         cartOps,
		cartPersistErrs: cartPersistErrs,
		catalogProducts: catalogProducts,
		checkouts:       checkouts,
	}
}

// IncCartOp increments the counter for the named cart mutation.
func (m *StorefrontMetrics) IncCartOp(op string) {
	if m == nil || m.cartOps == nil {
		return
	}
	m.cartOps.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncCartPersistError counts a failed cart persistence write.
func (m *StorefrontMetrics) IncCartPersistError() {
	if m == nil || m.cartPersistErrs == nil {
		return
	}
	m.cartPersistErrs.Inc()
}

// SetCatalogProducts records the size of the latest catalog snapshot.
func (m *StorefrontMetrics) SetCatalogProducts(count int) {
	if m == nil || m.catalogProducts == nil {
		return
	}
	m.catalogProducts.Set(float64(count))
}

// IncCheckout increments the counter for the named checkout outcome.
func (m *StorefrontMetrics) IncCheckout(outcome string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
