// Package create реализует HTTP-обработчик оформления членства.
//
// Администратор может оформить членство любому пользователю, указав user_id.
// Без user_id членство оформляется на самого вызывающего.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/soulsirensomatics/portal/internal/http/middlewarectx"
	"github.com/soulsirensomatics/portal/internal/http/response"
	"github.com/soulsirensomatics/portal/internal/lib/sl"
	"github.com/soulsirensomatics/portal/internal/models"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

// Handler управляет HTTP-запросами на оформление членства.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики оформления членства.
type Service interface {
	Create(ctx context.Context, userID int, tier string) (*models.Membership, error)
}

// Request тело запроса оформления членства.
type Request struct {
	UserID *int   `json:"user_id"`
	Tier   string `json:"tier"`
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Оформить членство
// @Description Создает активное членство. Второе активное членство не допускается.
// @Tags Memberships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Данные членства"
// @Success 201 {object} map[string]any "Членство оформлено"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /memberships [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.membership.create"
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
		render.JSON(w, r, response.Error("Missing required field: tier is required"))
		return
	}

	if req.Tier == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Missing required field: tier is required"))
		return
	}
	if !models.IsOneOf(req.Tier, models.ValidMembershipTiers) {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(fmt.Sprintf(
			"Invalid tier. Must be one of: %s", strings.Join(models.ValidMembershipTiers, ", "))))
		return
	}

	targetID := user.ID
	if req.UserID != nil && user.IsAdmin() {
		targetID = *req.UserID
	}

	membership, err := h.service.Create(r.Context(), targetID, req.Tier)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("User not found"))
		case errors.Is(err, repository.ErrActiveMembershipExists):
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("User already has an active membership. Update or cancel the existing one first."))
		default:
			log.Error("failed to create membership", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to create membership"))
		}
		return
	}

	log.Info("membership created", slog.Int("id", membership.ID), slog.Int("user_id", targetID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithMessage("membership", membership, "Membership created successfully"))
}
