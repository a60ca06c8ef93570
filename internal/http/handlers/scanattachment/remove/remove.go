// Package remove реализует HTTP-обработчик удаления вложения скана.
// Сначала удаляются метаданные, затем файл; отсутствие файла на диске
// не считается ошибкой.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/soulsirensomatics/portal/internal/http/response"
	"github.com/soulsirensomatics/portal/internal/lib/sl"
	"github.com/soulsirensomatics/portal/internal/models"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

// Handler управляет HTTP-запросами на удаление вложения.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики удаления вложения.
type Service interface {
	RemoveAttachment(ctx context.Context, scanID int, filename string) (*models.Attachment, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить вложение скана
// @Tags Scans
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID скана"
// @Param filename path string true "Имя файла вложения"
// @Success 200 {object} map[string]any "Вложение удалено"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Скан или вложение не найдены"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /scans/{id}/attachments/{filename} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.scanattachment.remove"
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
	filename := chi.URLParam(r, "filename")

	removed, err := h.service.RemoveAttachment(r.Context(), id, filename)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("Scan not found"))
		case errors.Is(err, repository.ErrAttachmentNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("Attachment not found"))
		default:
			log.Error("failed to delete attachment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to delete attachment"))
		}
		return
	}

	log.Info("attachment deleted", slog.Int("scan_id", id), slog.String("filename", filename))
	render.JSON(w, r, response.OKWithMessage("attachment", removed, "Attachment deleted successfully"))
}
