package api

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/register"
	budgetread "github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/budget/read"
	budgetremove "github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/budget/remove"
	budgetset "github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/budget/set"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/health"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/create"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/list"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/read"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/remove"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/totals"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/update"
	userremove "github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/user/remove"
	userupdate "github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/user/update"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/metrics"
)

// Accounts бизнес-логика учётных записей, нужная маршрутам.
type Accounts interface {
	register.Service
	login.Service
	middlewarectx.TokenValidator
	userupdate.Service
	userremove.Service
}

// Subscriptions бизнес-логика подписок и бюджета, нужная маршрутам.
type Subscriptions interface {
	create.Service
	read.Service
	update.Service
	remove.Service
	list.Service
	totals.Service
	budgetset.Service
	budgetread.Service
	budgetremove.Service
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, accounts Accounts, subs Subscriptions, m *metrics.Metrics, limiter *rate.Limiter) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		m.Middleware,
	)

	r.Get("/healthz", health.New().ServeHTTP)
	r.Handle("/metrics", m.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))

		// Открытые конечные точки
		r.Post("/register", register.New(logger, accounts).ServeHTTP)
		r.Post("/login", login.New(logger, accounts).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(accounts, logger))

			r.Patch("/user", userupdate.New(logger, accounts).ServeHTTP)
			r.Delete("/user", userremove.New(logger, accounts).ServeHTTP)

			r.Post("/subscriptions", create.New(logger, subs).ServeHTTP)
			r.Get("/subscriptions", list.New(logger, subs).ServeHTTP)
			r.Get("/subscriptions/totals", totals.New(logger, subs).ServeHTTP)
			r.Get("/subscriptions/{id}", read.New(logger, subs).ServeHTTP)
			r.Patch("/subscriptions/{id}", update.New(logger, subs).ServeHTTP)
			r.Delete("/subscriptions/{id}", remove.New(logger, subs).ServeHTTP)

			r.Put("/budget", budgetset.New(logger, subs).ServeHTTP)
			r.Get("/budget", budgetread.New(logger, subs).ServeHTTP)
			r.Delete("/budget", budgetremove.New(logger, subs).ServeHTTP)
		})
	})
}
