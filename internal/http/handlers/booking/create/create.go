// Package create реализует HTTP-обработчик создания записи на сессию.
//
// Handler принимает JSON с данными записи, проверяет обязательные поля и
// словарь типов услуг, создает запись через сервис и возвращает ее клиенту.
package create

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/soulsirensomatics/portal/internal/http/middlewarectx"
	"github.com/soulsirensomatics/portal/internal/http/response"
	"github.com/soulsirensomatics/portal/internal/lib/sl"
	"github.com/soulsirensomatics/portal/internal/models"
	bookingservice "github.com/soulsirensomatics/portal/internal/services/booking"
)

// Handler управляет HTTP-запросами на создание записи.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики создания записи.
type Service interface {
	Create(ctx context.Context, in bookingservice.CreateInput) (*models.Booking, error)
}

// Request тело запроса создания записи.
type Request struct {
	ServiceType string   `json:"service_type" validate:"required"`
	Date        string   `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string   `json:"time" validate:"required,datetime=15:04"`
	Duration    *int     `json:"duration"`
	Price       *float64 `json:"price"`
	Notes       *string  `json:"notes"`
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
// @Summary Создать запись на сессию
// @Description Создает запись со статусом pending. Длительность по умолчанию 60 минут, цена 0.
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Данные записи"
// @Success 201 {object} map[string]any "Запись создана"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /bookings [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.booking.create"
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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Missing required fields: service_type, date, and time are required"))
		return
	}

	if req.ServiceType == "" || req.Date == "" || req.Time == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Missing required fields: service_type, date, and time are required"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	if !models.IsOneOf(req.ServiceType, models.ValidServiceTypes) {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(fmt.Sprintf(
			"Invalid service_type. Must be one of: %s", strings.Join(models.ValidServiceTypes, ", "))))
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid date"))
		return
	}

	booking, err := h.service.Create(r.Context(), bookingservice.CreateInput{
		UserID:      user.ID,
		ServiceType: req.ServiceType,
		Date:        date,
		Time:        req.Time,
		Duration:    req.Duration,
		Price:       req.Price,
		Notes:       req.Notes,
	})
	if err != nil {
		log.Error("failed to create booking", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to create booking"))
		return
	}

	log.Info("booking created", slog.Int("id", booking.ID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithMessage("booking", booking, "Booking created successfully"))
}
