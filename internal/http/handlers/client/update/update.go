// Package update реализует HTTP-обработчик обновления профиля клиента администратором.
//
// Поле membership_tier принимает и явный null: сырое JSON-значение позволяет
// отличить null от отсутствующего поля.
package update

import (
	"bytes"
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
	clientservice "github.com/soulsirensomatics/portal/internal/services/client"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

// Handler управляет HTTP-запросами на обновление клиента.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики обновления клиента.
type Service interface {
	Update(ctx context.Context, id int, upd clientservice.UpdateInput) (*models.User, error)
}

// Request тело запроса обновления, все поля необязательны.
type Request struct {
	FirstName      *string         `json:"first_name"`
	LastName       *string         `json:"last_name"`
	Phone          *string         `json:"phone"`
	MembershipTier json.RawMessage `json:"membership_tier"`
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Обновить профиль клиента
// @Description Частично обновляет имя, телефон и денормализованный тариф клиента.
// @Tags Clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID клиента"
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} map[string]any "Клиент обновлен"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Клиент не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /clients/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.client.update"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid client id"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid request body"))
		return
	}

	upd := clientservice.UpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}
	if len(req.MembershipTier) > 0 {
		upd.MembershipTierSet = true
		if !bytes.Equal(req.MembershipTier, []byte("null")) {
			var tier string
			if err := json.Unmarshal(req.MembershipTier, &tier); err != nil || !models.IsOneOf(tier, models.ValidMembershipTiers) {
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error(fmt.Sprintf(
					"Invalid membership_tier. Must be one of: %s, or null",
					strings.Join(models.ValidMembershipTiers, ", "))))
				return
			}
			upd.MembershipTier = &tier
		}
	}

	client, err := h.service.Update(r.Context(), id, upd)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("Client not found"))
			return
		}
		log.Error("failed to update client", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to update client"))
		return
	}

	log.Info("client updated", slog.Int("id", id))
	render.JSON(w, r, response.OKWithMessage("client", client, "Client updated successfully"))
}
