// Package status реализует обработчик проверки премиум-статуса текущего пользователя.
package status

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/premium-entitlement/internal/http/middlewarectx"
	"github.com/magabrotheeeer/premium-entitlement/internal/http/response"
)

// Handler отвечает премиум-статусом, разрешённым middleware энтайтлмента.
type Handler struct {
	log *slog.Logger
}

// New создает новый Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Проверить премиум-статус
// @Description Возвращает актуальный премиум-статус текущего пользователя с учётом ленивой коррекции истёкшей подписки.
// @Tags Users
// @Produce  json
// @Success 200 {object} map[string]any "Премиум-статус"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /users/premium [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.premium.status"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	isPremium, ok := r.Context().Value(middlewarectx.IsPremium).(bool)
	if !ok {
		log.Error("entitlement not resolved for request")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"is_premium": isPremium,
	}))
}
