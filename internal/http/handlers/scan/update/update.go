// Package update реализует HTTP-обработчик частичного обновления скана.
//
// Переход скана в статус completed ставит в очередь ровно одно
// уведомление клиенту; ответ обработчика от судьбы уведомления не зависит.
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

	"github.com/soulsirensomatics/portal/internal/http/response"
	"github.com/soulsirensomatics/portal/internal/lib/sl"
	"github.com/soulsirensomatics/portal/internal/models"
	scanservice "github.com/soulsirensomatics/portal/internal/services/scan"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

// Handler управляет HTTP-запросами на обновление скана.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики обновления скана.
type Service interface {
	Update(ctx context.Context, id int, upd scanservice.UpdateInput) (*models.Scan, bool, error)
}

// Request тело запроса. Отсутствующие поля не меняются.
type Request struct {
	ScanDate          *string `json:"scan_date"`
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
// @Summary Обновить скан
// @Description Частичное обновление: дата, статус, результаты, рекомендации, заметки практика.
// @Tags Scans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID скана"
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} map[string]any "Обновленный скан"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Скан не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /scans/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.scan.update"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid scan id"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid request body"))
		return
	}

	if req.Status != nil && !models.IsOneOf(*req.Status, models.ValidScanStatuses) {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(fmt.Sprintf(
			"Invalid status. Must be one of: %s", strings.Join(models.ValidScanStatuses, ", "))))
		return
	}

	upd := scanservice.UpdateInput{
		Status:            req.Status,
		Findings:          req.Findings,
		Recommendations:   req.Recommendations,
		PractitionerNotes: req.PractitionerNotes,
	}
	if req.ScanDate != nil {
		scanDate, err := time.Parse("2006-01-02", *req.ScanDate)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid scan_date"))
			return
		}
		upd.ScanDate = &scanDate
	}

	scan, notified, err := h.service.Update(r.Context(), id, upd)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("Scan not found"))
			return
		}
		log.Error("failed to update scan", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to update scan"))
		return
	}

	log.Info("scan updated", slog.Int("id", id), slog.Bool("notification_queued", notified))
	render.JSON(w, r, map[string]any{
		"message":             "Scan updated successfully",
		"scan":                scan,
		"notification_queued": notified,
	})
}
