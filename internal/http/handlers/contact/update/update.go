// Package update реализует HTTP-обработчик смены статуса обращения.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/soulsirensomatics/portal/internal/http/response"
	"github.com/soulsirensomatics/portal/internal/lib/sl"
	"github.com/soulsirensomatics/portal/internal/models"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

// Handler управляет HTTP-запросами на смену статуса обращения.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики смены статуса обращения.
type Service interface {
	UpdateStatus(ctx context.Context, id int, status string) (*models.ContactSubmission, error)
}

// Request тело запроса смены статуса.
type Request struct {
	Status string `json:"status"`
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Сменить статус обращения
// @Tags Contact
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID обращения"
// @Param request body Request true "Новый статус"
// @Success 200 {object} map[string]any "Статус обновлен"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Обращение не найдено"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /contact/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.contact.update"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid submission id"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Status is required"))
		return
	}

	if req.Status == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Status is required"))
		return
	}
	if !models.IsOneOf(req.Status, models.ValidContactStatuses) {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(fmt.Sprintf(
			"Invalid status. Must be one of: %s", strings.Join(models.ValidContactStatuses, ", "))))
		return
	}

	submission, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("Submission not found"))
			return
		}
		log.Error("failed to update submission", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to update submission"))
		return
	}

	log.Info("submission status updated", slog.Int("id", id), slog.String("status", req.Status))
	render.JSON(w, r, response.OKWithMessage("submission", submission, "Submission status updated successfully"))
}
