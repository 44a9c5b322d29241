package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// LinkGenerationTotal counts checkout link generation outcomes.
	LinkGenerationTotal *prometheus.CounterVec
	// CouponCreatedTotal counts discount coupons created on the processor.
	CouponCreatedTotal prometheus.Counter
	// CustomerCreatedTotal counts customer records created on the processor.
	CustomerCreatedTotal prometheus.Counter
	// CatalogFetchTotal counts remote catalog fetch outcomes.
	CatalogFetchTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		LinkGenerationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_generation_total",
			Help:      "Count of checkout link generation outcomes.",
		}, []string{"mode", "result"})
		CouponCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_created_total",
			Help:      "Total number of discount coupons created on the processor.",
		})
		CustomerCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "customer_created_total",
			Help:      "Total number of customer records created on the processor.",
		})
		CatalogFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_fetch_total",
			Help:      "Count of remote catalog fetch outcomes.",
		}, []string{"result"})

		mustRegisterCollector(reg, LinkGenerationTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				LinkGenerationTotal = v
			}
		})
		mustRegisterCollector(reg, CouponCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CouponCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, CustomerCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CustomerCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, CatalogFetchTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CatalogFetchTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
