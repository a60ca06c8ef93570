// Package me реализует HTTP-обработчик получения собственного профиля.
package me

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/soulsirensomatics/portal/internal/http/middlewarectx"
	"github.com/soulsirensomatics/portal/internal/http/response"
)

// Handler возвращает профиль аутентифицированного пользователя.
type Handler struct {
	log *slog.Logger
}

// New создает новый Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Текущий пользователь
// @Description Возвращает профиль владельца токена.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Профиль пользователя"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /auth/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("No token provided"))
		return
	}
	render.JSON(w, r, response.OK("user", user))
}
