// Package update реализует HTTP-обработчик частичного обновления записи.
//
// Запись может менять ее владелец или администратор. Ссылка на встречу
// (zoom_link) доступна только администратору.
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
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/soulsirensomatics/portal/internal/http/middlewarectx"
	"github.com/soulsirensomatics/portal/internal/http/response"
	"github.com/soulsirensomatics/portal/internal/lib/sl"
	"github.com/soulsirensomatics/portal/internal/models"
	bookingservice "github.com/soulsirensomatics/portal/internal/services/booking"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

// Handler управляет HTTP-запросами на обновление записи.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики обновления записи.
type Service interface {
	Read(ctx context.Context, id int) (*models.BookingWithOwner, error)
	Update(ctx context.Context, id int, upd bookingservice.UpdateInput) (*models.Booking, error)
}

// Request тело запроса. Отсутствующие поля не меняются.
type Request struct {
	Date     *string `json:"date"`
	Time     *string `json:"time"`
	Status   *string `json:"status"`
	Notes    *string `json:"notes"`
	ZoomLink *string `json:"zoom_link"`
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Обновить запись на сессию
// @Description Частичное обновление: дата, время, статус, заметки. Ссылка zoom_link доступна только администратору.
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID записи"
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} map[string]any "Обновленная запись"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 403 {object} response.ErrorResponse "Чужая запись или недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /bookings/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.booking.update"
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
		render.JSON(w, r, response.Error("Invalid booking id"))
		return
	}

	existing, err := h.service.Read(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("Booking not found"))
			return
		}
		log.Error("failed to read booking", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Internal server error"))
		return
	}
	if existing.UserID != user.ID && !user.IsAdmin() {
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("Not authorized to update this booking"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid request body"))
		return
	}

	if req.Status != nil && !models.IsOneOf(*req.Status, models.ValidBookingStatuses) {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(fmt.Sprintf(
			"Invalid status. Must be one of: %s", strings.Join(models.ValidBookingStatuses, ", "))))
		return
	}
	if req.ZoomLink != nil && !user.IsAdmin() {
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("Not authorized to update this booking"))
		return
	}

	upd := bookingservice.UpdateInput{
		Time:     req.Time,
		Status:   req.Status,
		Notes:    req.Notes,
		ZoomLink: req.ZoomLink,
	}
	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid date"))
			return
		}
		upd.Date = &date
	}

	booking, err := h.service.Update(r.Context(), id, upd)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("Booking not found"))
			return
		}
		log.Error("failed to update booking", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to update booking"))
		return
	}

	log.Info("booking updated", slog.Int("id", id))
	render.JSON(w, r, response.OKWithMessage("booking", booking, "Booking updated successfully"))
}
