// Package update реализует HTTP-обработчик частичного обновления членства.
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
	membershipservice "github.com/soulsirensomatics/portal/internal/services/membership"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

// Handler управляет HTTP-запросами на обновление членства.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики обновления членства.
type Service interface {
	Update(ctx context.Context, id int, upd membershipservice.UpdateInput) (*models.Membership, error)
}

// Request тело запроса обновления, все поля необязательны.
type Request struct {
	Tier    *string `json:"tier"`
	Status  *string `json:"status"`
	EndDate *string `json:"end_date"`
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Обновить членство
// @Description Частично обновляет тариф, статус или дату окончания членства.
// @Tags Memberships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID членства"
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} map[string]any "Членство обновлено"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Членство не найдено"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /memberships/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.membership.update"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid membership id"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid request body"))
		return
	}

	if req.Tier != nil && !models.IsOneOf(*req.Tier, models.ValidMembershipTiers) {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(fmt.Sprintf(
			"Invalid tier. Must be one of: %s", strings.Join(models.ValidMembershipTiers, ", "))))
		return
	}
	if req.Status != nil && !models.IsOneOf(*req.Status, models.ValidMembershipStatuses) {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(fmt.Sprintf(
			"Invalid status. Must be one of: %s", strings.Join(models.ValidMembershipStatuses, ", "))))
		return
	}

	upd := membershipservice.UpdateInput{
		Tier:   req.Tier,
		Status: req.Status,
	}
	if req.EndDate != nil {
		endDate, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid end_date"))
			return
		}
		upd.EndDate = &endDate
	}

	membership, err := h.service.Update(r.Context(), id, upd)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("Membership not found"))
			return
		}
		log.Error("failed to update membership", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to update membership"))
		return
	}

	log.Info("membership updated", slog.Int("id", id))
	render.JSON(w, r, response.OKWithMessage("membership", membership, "Membership updated successfully"))
}
