// Package webhook реализует приём асинхронного колбэка платёжного шлюза.
//
// Колбэк не аутентифицирован: прежде любых мутаций его подлинность
// проверяется подписью по контракту шлюза. Неподтверждённый колбэк
// логируется и отбрасывается, отправитель не получает ничего
// информативного. Активация идемпотентна по ID транзакции шлюза.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/premium-entitlement/internal/http/response"
	"github.com/magabrotheeeer/premium-entitlement/internal/lib/sign"
	"github.com/magabrotheeeer/premium-entitlement/internal/lib/sl"
	"github.com/magabrotheeeer/premium-entitlement/internal/metrics"
)

// SuccessResultCode — единственный код результата, запускающий активацию.
const SuccessResultCode = 0

// Service описывает интерфейс идемпотентной активации подписки.
type Service interface {
	Activate(ctx context.Context, userUID, plan, externalTransactionID string) (bool, error)
}

// Handler принимает и проверяет колбэки платёжного шлюза.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string // Секрет для проверки подписи
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

// Payload — тело колбэка шлюза.
type Payload struct {
	ResultCode int    `json:"resultCode"` // 0 — платёж успешен
	OrderID    string `json:"orderId"`    // Опорный номер заказа, содержит UID пользователя
	TransID    int64  `json:"transId"`    // ID транзакции шлюза, ключ идемпотентности
	ExtraData  string `json:"extraData"`  // Строка userId=..&plan=..
	Signature  string `json:"signature"`  // Подпись остальных полей
}

// verify проверяет подпись колбэка по каноническим полям.
func (h *Handler) verify(p *Payload) bool {
	return sign.Verify(h.webhookSecret, map[string]string{
		"extraData":  p.ExtraData,
		"orderId":    p.OrderID,
		"resultCode": strconv.Itoa(p.ResultCode),
		"transId":    strconv.FormatInt(p.TransID, 10),
	}, p.Signature)
}

// ServeHTTP обрабатывает колбэк.
//
// Для неуспешного кода результата мутаций нет, но шлюзу отвечается 200:
// неуспешный платёж — ожидаемый терминальный исход, а не сбой доставки.
// Ошибка хранилища при активации отдаёт 500, чтобы ретраи шлюза стали
// путём восстановления.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(slog.String("op", op))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer func() {
		_ = r.Body.Close()
	}()

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if !h.verify(&payload) {
		log.Error("unverified webhook dropped", slog.String("order_id", payload.OrderID))
		metrics.WebhookEvents.WithLabelValues(metrics.OutcomeUnverified).Inc()
		w.WriteHeader(http.StatusOK)
		return
	}

	if payload.ResultCode != SuccessResultCode {
		log.Info("payment failed or canceled",
			slog.Int("result_code", payload.ResultCode),
			slog.String("order_id", payload.OrderID))
		metrics.WebhookEvents.WithLabelValues(metrics.OutcomeRejected).Inc()
		render.JSON(w, r, response.OK())
		return
	}

	userUID, plan, ok := parseCallbackData(payload.OrderID, payload.ExtraData)
	if !ok {
		log.Error("invalid webhook data",
			slog.String("order_id", payload.OrderID),
			slog.String("extra_data", payload.ExtraData))
		metrics.WebhookEvents.WithLabelValues(metrics.OutcomeFailed).Inc()
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid webhook data"))
		return
	}

	transID := strconv.FormatInt(payload.TransID, 10)
	activated, err := h.service.Activate(r.Context(), userUID, plan, transID)
	if err != nil {
		log.Error("failed to activate subscription", sl.Err(err))
		metrics.WebhookEvents.WithLabelValues(metrics.OutcomeFailed).Inc()
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to update subscription"))
		return
	}

	if activated {
		metrics.WebhookEvents.WithLabelValues(metrics.OutcomeActivated).Inc()
		log.Info("subscription activated", slog.String("user_uid", userUID), slog.String("trans_id", transID))
	} else {
		metrics.WebhookEvents.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		log.Info("duplicate webhook delivery", slog.String("trans_id", transID))
	}
	render.JSON(w, r, response.OK())
}

// parseCallbackData восстанавливает пользователя и план из опорного номера
// заказа (ORDER_<uid>_<millis>) и строки extraData.
func parseCallbackData(orderID, extraData string) (userUID, plan string, ok bool) {
	parts := strings.Split(orderID, "_")
	if len(parts) != 3 || parts[1] == "" {
		return "", "", false
	}
	userUID = parts[1]

	values, err := url.ParseQuery(extraData)
	if err != nil {
		return "", "", false
	}
	plan = values.Get("plan")
	if plan == "" {
		return "", "", false
	}
	if extraUID := values.Get("userId"); extraUID != "" && extraUID != userUID {
		return "", "", false
	}
	return userUID, plan, true
}
