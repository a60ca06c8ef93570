// Package create реализует HTTP-обработчик создания скана администратором.
//
// Скан без явного статуса создается как pending. Создание сразу в статусе
// completed ставит в очередь уведомление клиенту.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/soulsirensomatics/portal/internal/http/response"
	"github.com/soulsirensomatics/portal/internal/lib/sl"
	"github.com/soulsirensomatics/portal/internal/models"
	scanservice "github.com/soulsirensomatics/portal/internal/services/scan"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

// Handler управляет HTTP-запросами на создание скана.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики создания скана.
type Service interface {
	Create(ctx context.Context, in scanservice.CreateInput) (*models.Scan, bool, error)
}

// Request тело запроса создания скана.
type Request struct {
	UserID            int     `json:"user_id"`
	ScanDate          string  `json:"scan_date"`
	Status            *string `json:"status"`
	Findings          *string `json:"findings"`
	Recommendations   *string `json:"recommendations"`
	PractitionerNotes *string `json:"practitioner_notes"`
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Создать скан
// @Description Создает скан для клиента. Без явного статуса скан создается как pending.
// @Tags Scans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Данные скана"
// @Success 201 {object} map[string]any "Скан создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /scans [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.scan.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid request body"))
		return
	}

	if req.UserID == 0 || req.ScanDate == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Missing required fields: user_id and scan_date are required"))
		return
	}
	if req.Status != nil && !models.IsOneOf(*req.Status, models.ValidScanStatuses) {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(fmt.Sprintf(
			"Invalid status. Must be one of: %s", strings.Join(models.ValidScanStatuses, ", "))))
		return
	}

	scanDate, err := time.Parse("2006-01-02", req.ScanDate)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid scan_date"))
		return
	}

	scan, notified, err := h.service.Create(r.Context(), scanservice.CreateInput{
		UserID:            req.UserID,
		ScanDate:          scanDate,
		Status:            req.Status,
		Findings:          req.Findings,
		Recommendations:   req.Recommendations,
		PractitionerNotes: req.PractitionerNotes,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("User not found"))
			return
		}
		log.Error("failed to create scan", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to create scan"))
		return
	}

	log.Info("scan created", slog.Int("id", scan.ID), slog.Bool("notification_queued", notified))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, map[string]any{
		"message":             "Scan created successfully",
		"scan":                scan,
		"notification_queued": notified,
	})
}
