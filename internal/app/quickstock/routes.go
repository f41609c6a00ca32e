// Package quickstock собирает зависимости сервиса и регистрирует HTTP-маршруты.
package quickstock

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/quick-stock/internal/config"
	"github.com/magabrotheeeer/quick-stock/internal/http/handlers/health"
	"github.com/magabrotheeeer/quick-stock/internal/http/handlers/payments/intent"
	"github.com/magabrotheeeer/quick-stock/internal/http/handlers/payments/webhook"
	productcount "github.com/magabrotheeeer/quick-stock/internal/http/handlers/products/count"
	productcreate "github.com/magabrotheeeer/quick-stock/internal/http/handlers/products/create"
	productlist "github.com/magabrotheeeer/quick-stock/internal/http/handlers/products/list"
	productremove "github.com/magabrotheeeer/quick-stock/internal/http/handlers/products/remove"
	productupdate "github.com/magabrotheeeer/quick-stock/internal/http/handlers/products/update"
	salecreate "github.com/magabrotheeeer/quick-stock/internal/http/handlers/sales/create"
	salelist "github.com/magabrotheeeer/quick-stock/internal/http/handlers/sales/list"
	"github.com/magabrotheeeer/quick-stock/internal/http/handlers/session/issue"
	"github.com/magabrotheeeer/quick-stock/internal/http/handlers/session/logout"
	storecreate "github.com/magabrotheeeer/quick-stock/internal/http/handlers/stores/create"
	"github.com/magabrotheeeer/quick-stock/internal/http/handlers/stores/quota"
	storeread "github.com/magabrotheeeer/quick-stock/internal/http/handlers/stores/read"
	"github.com/magabrotheeeer/quick-stock/internal/http/handlers/subscriptions/record"
	"github.com/magabrotheeeer/quick-stock/internal/http/handlers/users/read"
	"github.com/magabrotheeeer/quick-stock/internal/http/handlers/users/role"
	"github.com/magabrotheeeer/quick-stock/internal/http/handlers/users/upsert"
	"github.com/magabrotheeeer/quick-stock/internal/http/middlewarectx"
	"github.com/magabrotheeeer/quick-stock/internal/metrics"
)

// Services сервисы, которые обслуживают маршруты.
type Services struct {
	Session      sessionService
	Tenants      tenantService
	Quota        quota.Service
	Inventory    inventoryService
	Sales        salesService
	Subscription subscriptionService
	Checks       map[string]health.Check
}

type sessionService interface {
	issue.Service
	middlewarectx.Verifier
}

type tenantService interface {
	upsert.Service
	role.Service
	read.Service
	storecreate.Service
	storeread.Service
}

type inventoryService interface {
	productcreate.Service
	productcount.Service
	productlist.Service
	productupdate.Service
	productremove.Service
}

type salesService interface {
	salecreate.Service
	salelist.Service
}

type subscriptionService interface {
	intent.Service
	record.Service
	webhook.Service
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, svc Services) {
	// Глобальные middleware. URLFormat не подключен: он отрезает ".com" у email в пути.
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(cfg.RequestTimeout),
		m.Middleware,
	)

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	session := svc.Session

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/health", health.New(logger, svc.Checks).ServeHTTP)
		r.Post("/payments/webhook", webhook.New(logger, svc.Subscription, cfg.WebhookSecret).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))

			r.Post("/jwt", issue.New(logger, session, issue.Cookie{
				Name:   cfg.CookieName,
				TTL:    cfg.TokenTTL,
				Secure: cfg.CookieSecure,
			}).ServeHTTP)
			r.Get("/logout", logout.New(cfg.CookieName, cfg.CookieSecure).ServeHTTP)

			// Группа с проверкой сессии
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.SessionMiddleware(session, cfg.CookieName, logger))

				r.Put("/users/{email}", upsert.New(logger, svc.Tenants).ServeHTTP)
				r.Get("/users/{email}", read.New(logger, svc.Tenants).ServeHTTP)
				r.Put("/users/{email}/role", role.New(logger, svc.Tenants).ServeHTTP)

				r.Post("/stores", storecreate.New(logger, svc.Tenants).ServeHTTP)
				r.Get("/stores/{email}", storeread.New(logger, svc.Tenants).ServeHTTP)
				r.Patch("/stores/{email}/quota/{direction}", quota.New(logger, svc.Quota).ServeHTTP)

				r.Post("/products", productcreate.New(logger, svc.Inventory).ServeHTTP)
				r.Get("/products/{email}", productlist.New(logger, svc.Inventory).ServeHTTP)
				r.Get("/products/{email}/count", productcount.New(logger, svc.Inventory).ServeHTTP)
				r.Put("/products/item/{id}", productupdate.New(logger, svc.Inventory).ServeHTTP)
				r.Delete("/products/item/{id}", productremove.New(logger, svc.Inventory).ServeHTTP)

				r.Post("/sales", salecreate.New(logger, svc.Sales).ServeHTTP)
				r.Get("/sales/{email}", salelist.New(logger, svc.Sales).ServeHTTP)

				r.Post("/payments/intent", intent.New(logger, svc.Subscription).ServeHTTP)
				r.Post("/subscriptions", record.New(logger, svc.Subscription).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
