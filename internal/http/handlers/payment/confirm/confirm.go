// Package confirm реализует обработчик возврата пользователя из платёжного шлюза.
//
// Возврат браузера — ненадёжный сигнал: пользователь может закрыть вкладку
// до редиректа, а шлюз всё равно доставит колбэк. Поэтому обработчик не
// содержит собственной логики активации, а вызывает ту же идемпотентную
// операцию, что и колбэк: кто успел первым, тот и активировал, второй
// видит дубликат.
package confirm

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/premium-entitlement/internal/config"
	"github.com/magabrotheeeer/premium-entitlement/internal/http/middlewarectx"
	"github.com/magabrotheeeer/premium-entitlement/internal/lib/sl"
)

// Service описывает интерфейс идемпотентной активации подписки.
type Service interface {
	Activate(ctx context.Context, userUID, plan, externalTransactionID string) (bool, error)
}

// Handler обрабатывает возврат пользователя со страницы оплаты.
type Handler struct {
	log     *slog.Logger
	service Service
	cfg     config.PaymentGateway
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, cfg config.PaymentGateway) *Handler {
	return &Handler{
		log:     log,
		service: service,
		cfg:     cfg,
	}
}

// ServeHTTP godoc
// @Summary Возврат пользователя после оплаты
// @Description Принимает редирект из платёжного шлюза, при успешном коде запускает идемпотентную активацию и перенаправляет пользователя на страницу результата.
// @Tags Payments
// @Produce  json
// @Param resultCode query string true "Код результата шлюза"
// @Param transId query string true "ID транзакции шлюза"
// @Param plan query string true "План подписки"
// @Success 303 "Редирект на страницу результата"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /payments/confirm [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.confirm"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user UID not found in context")
		http.Redirect(w, r, h.cfg.FailureURL, http.StatusSeeOther)
		return
	}

	resultCode := r.URL.Query().Get("resultCode")
	transID := r.URL.Query().Get("transId")
	plan := r.URL.Query().Get("plan")

	if resultCode != "0" || transID == "" || plan == "" {
		log.Info("payment not confirmed on return",
			slog.String("result_code", resultCode),
			slog.String("user_uid", userUID))
		http.Redirect(w, r, h.cfg.FailureURL, http.StatusSeeOther)
		return
	}

	activated, err := h.service.Activate(r.Context(), userUID, plan, transID)
	if err != nil {
		log.Error("failed to activate subscription on return", sl.Err(err))
		http.Redirect(w, r, h.cfg.FailureURL, http.StatusSeeOther)
		return
	}

	if !activated {
		log.Info("subscription already activated by webhook", slog.String("trans_id", transID))
	} else {
		log.Info("subscription activated on browser return",
			slog.String("user_uid", userUID),
			slog.String("trans_id", transID))
	}
	http.Redirect(w, r, h.cfg.SuccessURL, http.StatusSeeOther)
}
