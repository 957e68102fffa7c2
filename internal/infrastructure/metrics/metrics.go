package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SwapMetrics holds every counter the orchestrator and the registry report.
// All record helpers are nil-safe so usecases built without metrics (tests)
// skip reporting.
type SwapMetrics struct {
	PaymentsTotal       prometheus.CounterVec
	PaymentAmountTotal  prometheus.CounterVec
	PlatformFeeTotal    prometheus.CounterVec
	LeftoverRefundTotal prometheus.CounterVec

	PaymentErrorsTotal        prometheus.CounterVec
	ProviderSwapFailuresTotal prometheus.CounterVec

	ProvidersRegisteredTotal prometheus.Counter
	RateLookupsTotal         prometheus.CounterVec

	PaymentDuration prometheus.HistogramVec
}

func NewSwapMetrics() *SwapMetrics {
	return &SwapMetrics{
		PaymentsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swap_payments_total",
				Help: "Completed payments by path",
			},
			[]string{"path", "source_asset", "target_asset"},
		),
		PaymentAmountTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swap_payment_amount_total",
				Help: "Total target amount delivered by completed payments",
			},
			[]string{"target_asset"},
		),
		PlatformFeeTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swap_platform_fee_total",
				Help: "Total platform fee collected into the vault",
			},
			[]string{"target_asset"},
		),
		LeftoverRefundTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swap_leftover_refund_total",
				Help: "Total leftover amounts refunded to payers",
			},
			[]string{"source_asset"},
		),
		PaymentErrorsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swap_payment_errors_total",
				Help: "Aborted payments by error kind",
			},
			[]string{"path", "kind"},
		),
		ProviderSwapFailuresTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swap_provider_failures_total",
				Help: "Provider swap capabilities reporting failure",
			},
			[]string{"provider_key"},
		),
		ProvidersRegisteredTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "swap_providers_registered_total",
				Help: "Provider registrations (including owner updates)",
			},
		),
		RateLookupsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swap_rate_lookups_total",
				Help: "Single-provider expected-rate lookups",
			},
			[]string{"provider_key"},
		),
		PaymentDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swap_payment_duration_seconds",
				Help:    "Orchestrator call duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "status"},
		),
	}
}

func (m *SwapMetrics) RecordPayment(path, sourceAsset, targetAsset string, targetAmount, fee, leftover uint64) {
	if m == nil {
		return
	}
	m.PaymentsTotal.WithLabelValues(path, sourceAsset, targetAsset).Inc()
	m.PaymentAmountTotal.WithLabelValues(targetAsset).Add(float64(targetAmount))
	if fee > 0 {
		m.PlatformFeeTotal.WithLabelValues(targetAsset).Add(float64(fee))
	}
	if leftover > 0 {
		m.LeftoverRefundTotal.WithLabelValues(sourceAsset).Add(float64(leftover))
	}
}

func (m *SwapMetrics) RecordPaymentError(path, kind string) {
	if m == nil {
		return
	}
	m.PaymentErrorsTotal.WithLabelValues(path, kind).Inc()
}

func (m *SwapMetrics) RecordProviderFailure(providerKey string) {
	if m == nil {
		return
	}
	m.ProviderSwapFailuresTotal.WithLabelValues(providerKey).Inc()
}

func (m *SwapMetrics) RecordProviderRegistered() {
	if m == nil {
		return
	}
	m.ProvidersRegisteredTotal.Inc()
}

func (m *SwapMetrics) RecordRateLookup(providerKey string) {
	if m == nil {
		return
	}
	m.RateLookupsTotal.WithLabelValues(providerKey).Inc()
}

func (m *SwapMetrics) RecordPaymentDuration(path, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.PaymentDuration.WithLabelValues(path, status).Observe(elapsed.Seconds())
}
