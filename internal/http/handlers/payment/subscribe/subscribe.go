// Package subscribe реализует HTTP-обработчик инициализации оплаты премиум-подписки.
//
// Handler принимает JSON-запрос с планом, валидирует его, извлекает пользователя
// из контекста, создаёт платёжное намерение через сервис и возвращает URL
// платёжной страницы шлюза.
package subscribe

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/premium-entitlement/internal/http/middlewarectx"
	"github.com/magabrotheeeer/premium-entitlement/internal/http/response"
	"github.com/magabrotheeeer/premium-entitlement/internal/lib/sl"
	"github.com/magabrotheeeer/premium-entitlement/internal/services/payment"
)

// Request представляет запрос на оформление премиум-подписки.
type Request struct {
	Plan string `json:"plan" validate:"required"` // MONTHLY или YEARLY
}

// Service описывает интерфейс бизнес-логики инициализации платежа.
type Service interface {
	InitiatePayment(ctx context.Context, userUID, plan string) (string, error)
}

// Handler управляет HTTP-запросами на оформление подписки.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики платежей
	validate *validator.Validate // Валидатор структуры входящих данных
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Оформить премиум-подписку
// @Description Создает платёжное намерение во внешнем шлюзе и возвращает URL для оплаты.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "План подписки"
// @Success 200 {object} map[string]any "URL платёжной страницы"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или план"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка создания платежа"
// @Router /payments/subscribe [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.subscribe"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user UID not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	payURL, err := h.service.InitiatePayment(r.Context(), userUID, req.Plan)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidPlan) {
			log.Error("invalid plan requested", slog.String("plan", req.Plan))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid plan type"))
			return
		}
		log.Error("failed to initiate payment", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("payment creation failed"))
		return
	}

	log.Info("payment initiated", slog.String("plan", req.Plan))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"pay_url": payURL,
	}))
}
