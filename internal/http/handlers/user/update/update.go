// Package update реализует HTTP-обработчик изменения учётной записи.
//
// Разрешены поля username, email и password. После смены имени прежний
// токен перестаёт соответствовать пользователю, поэтому нужен повторный вход.
package update

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Service описывает бизнес-логику изменения пользователя.
type Service interface {
	Update(ctx context.Context, username string, fields map[string]string) (*models.User, error)
}

// Handler обрабатывает запросы на изменение пользователя.
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
	const op = "handlers.user.update"

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

	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if len(fields) == 0 {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("no fields to update"))
		return
	}

	user, err := h.service.Update(r.Context(), username, fields)
	if err != nil {
		log.Error("failed to update user", sl.Err(err))
		render.Status(r, response.StatusCode(err))
		render.JSON(w, r, response.DomainError(err, "could not update user"))
		return
	}

	log.Info("user updated", slog.String("username", user.Username))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"username": user.Username,
		"email":    user.Email,
	}))
}
