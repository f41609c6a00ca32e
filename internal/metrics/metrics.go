// Package metrics содержит счетчики prometheus для квоты, товаров, продаж, платежей и HTTP.
//
// Все методы допускают nil-получатель, чтобы сервисы можно было собирать без метрик.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quickstock"

// Metrics набор метрик приложения.
type Metrics struct {
	quotaChanges           *prometheus.CounterVec
	productsCreated        *prometheus.CounterVec
	salesRecorded          prometheus.Counter
	paymentIntents         *prometheus.CounterVec
	subscriptionsActivated *prometheus.CounterVec
	httpRequests           *prometheus.CounterVec
	httpDuration           *prometheus.HistogramVec
}

// New создает метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		quotaChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_changes_total",
			Help:      "Изменения квоты магазинов по направлению.",
		}, []string{"direction"}),
		productsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "products_created_total",
			Help:      "Попытки создания товара по результату.",
		}, []string{"result"}),
		salesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_recorded_total",
			Help:      "Записанные продажи.",
		}),
		paymentIntents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_intents_total",
			Help:      "Платежные намерения по результату.",
		}, []string{"result"}),
		subscriptionsActivated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_activated_total",
			Help:      "Активированные подписки по тарифу.",
		}, []string{"tier"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP-запросы по маршруту и статусу.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Длительность обработки HTTP-запросов.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.quotaChanges,
		m.productsCreated,
		m.salesRecorded,
		m.paymentIntents,
		m.subscriptionsActivated,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// QuotaChanged учитывает изменение квоты на delta.
func (m *Metrics) QuotaChanged(delta int) {
	if m == nil {
		return
	}
	direction := "increment"
	if delta < 0 {
		direction = "decrement"
	}
	m.quotaChanges.WithLabelValues(direction).Inc()
}

// ProductCreated учитывает попытку создания товара: ok, quota_exhausted или error.
func (m *Metrics) ProductCreated(result string) {
	if m == nil {
		return
	}
	m.productsCreated.WithLabelValues(result).Inc()
}

// SaleRecorded учитывает записанную продажу.
func (m *Metrics) SaleRecorded() {
	if m == nil {
		return
	}
	m.salesRecorded.Inc()
}

// PaymentIntent учитывает платежное намерение: created, replayed или failed.
func (m *Metrics) PaymentIntent(result string) {
	if m == nil {
		return
	}
	m.paymentIntents.WithLabelValues(result).Inc()
}

// SubscriptionActivated учитывает активацию подписки.
func (m *Metrics) SubscriptionActivated(tier string) {
	if m == nil {
		return
	}
	m.subscriptionsActivated.WithLabelValues(tier).Inc()
}

// Middleware считает запросы и их длительность по шаблону маршрута chi.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
