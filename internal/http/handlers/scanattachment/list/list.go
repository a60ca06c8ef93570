// Package list реализует HTTP-обработчик получения вложений скана.
// Вложения видит владелец скана или администратор.
package list

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/soulsirensomatics/portal/internal/http/middlewarectx"
	"github.com/soulsirensomatics/portal/internal/http/response"
	"github.com/soulsirensomatics/portal/internal/lib/sl"
	"github.com/soulsirensomatics/portal/internal/models"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

// Handler управляет HTTP-запросами на получение вложений.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения вложений.
type Service interface {
	Attachments(ctx context.Context, id int) (int, []models.Attachment, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Вложения скана
// @Tags Scans
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID скана"
// @Success 200 {object} map[string]any "Список вложений"
// @Failure 403 {object} response.ErrorResponse "Чужой скан"
// @Failure 404 {object} response.ErrorResponse "Скан не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /scans/{id}/attachments [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.scanattachment.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("No token provided"))
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid scan id"))
		return
	}

	ownerID, attachments, err := h.service.Attachments(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("Scan not found"))
			return
		}
		log.Error("failed to fetch attachments", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to fetch attachments"))
		return
	}

	if ownerID != user.ID && !user.IsAdmin() {
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("Not authorized to view this scan"))
		return
	}

	render.JSON(w, r, response.OK("attachments", attachments))
}
