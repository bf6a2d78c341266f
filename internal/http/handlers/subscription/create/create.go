// Package create реализует HTTP-обработчик создания подписки.
//
// Все значения приходят строками и разбираются доменной моделью: цена
// с дробной частью, дата начала DD/MM/YYYY, дата продления "DD" для
// ежемесячных и "DD/MM" для ежегодных подписок.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Request тело запроса на создание подписки.
type Request struct {
	ServiceType      string `json:"service_type" validate:"required"`
	ServiceName      string `json:"service_name" validate:"required"`
	Category         string `json:"category"`
	PlanType         string `json:"plan_type"`
	ActiveStatus     string `json:"active_status" validate:"required"`
	Price            string `json:"price" validate:"required"`
	BillingFrequency string `json:"billing_frequency" validate:"required"`
	StartDate        string `json:"start_date" validate:"required"`
	RenewalDate      string `json:"renewal_date" validate:"required"`
	AutoRenewal      string `json:"auto_renewal_status" validate:"required"`
}

func (req Request) input() models.SubscriptionInput {
	return models.SubscriptionInput{
		ServiceType:      req.ServiceType,
		ServiceName:      req.ServiceName,
		Category:         req.Category,
		PlanType:         req.PlanType,
		ActiveStatus:     req.ActiveStatus,
		Price:            req.Price,
		BillingFrequency: req.BillingFrequency,
		StartDate:        req.StartDate,
		RenewalDate:      req.RenewalDate,
		AutoRenewal:      req.AutoRenewal,
	}
}

// Service описывает бизнес-логику создания подписки.
type Service interface {
	Create(ctx context.Context, username string, in models.SubscriptionInput) (*models.Subscription, error)
}

// Handler обрабатывает запросы на создание подписки.
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
	const op = "handlers.subscription.create"

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

	sub, err := h.service.Create(r.Context(), username, req.input())
	if err != nil {
		log.Error("failed to create subscription", sl.Err(err))
		render.Status(r, response.StatusCode(err))
		render.JSON(w, r, response.DomainError(err, "could not create subscription"))
		return
	}

	log.Info("subscription created", slog.String("id", sub.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"subscription": sub,
	}))
}
