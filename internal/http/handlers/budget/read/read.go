// Package read реализует HTTP-обработчик получения бюджета с актуальными расходами.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/budget"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Service описывает бизнес-логику чтения бюджета.
type Service interface {
	GetBudget(ctx context.Context, username string) (*models.Budget, error)
}

// Handler обрабатывает запросы на чтение бюджета.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.budget.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username, ok := middlewarectx.UsernameFrom(r.Context())
	if !ok {
		log.Error("username not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	b, err := h.service.GetBudget(r.Context(), username)
	if err != nil {
		log.Error("failed to read budget", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read budget"))
		return
	}
	if b == nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("budget is not set"))
		return
	}

	render.JSON(w, r, response.OKWithData(budget.NewView(b)))
}
