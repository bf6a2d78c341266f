// Package remove реализует HTTP-обработчик удаления бюджета.
package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
)

// Service описывает бизнес-логику удаления бюджета.
type Service interface {
	DeleteBudget(ctx context.Context, username string) error
}

// Handler обрабатывает запросы на удаление бюджета.
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
	const op = "handlers.budget.remove"

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

	if err := h.service.DeleteBudget(r.Context(), username); err != nil {
		log.Error("failed to delete budget", sl.Err(err))
		render.Status(r, response.StatusCode(err))
		render.JSON(w, r, response.DomainError(err, "could not delete budget"))
		return
	}

	log.Info("budget deleted", slog.String("username", username))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"deleted": true,
	}))
}
