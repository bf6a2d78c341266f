// Package set реализует HTTP-обработчик создания или изменения месячного бюджета.
package set

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/budget"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Request тело запроса. Сумма передаётся строкой с дробной частью, например "100.00".
type Request struct {
	MonthlyBudgetAmount string `json:"monthly_budget_amount" validate:"required"`
}

// Service описывает бизнес-логику установки бюджета.
type Service interface {
	SetBudget(ctx context.Context, username, amountRaw string) (*models.Budget, error)
}

// Handler обрабатывает запросы на установку бюджета.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.budget.set"

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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	b, err := h.service.SetBudget(r.Context(), username, req.MonthlyBudgetAmount)
	if err != nil {
		log.Error("failed to set budget", sl.Err(err))
		render.Status(r, response.StatusCode(err))
		render.JSON(w, r, response.DomainError(err, "could not set budget"))
		return
	}

	log.Info("budget set", slog.String("id", b.ID))
	render.JSON(w, r, response.OKWithData(budget.NewView(b)))
}
