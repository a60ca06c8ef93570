// Package download реализует HTTP-обработчик выдачи файла вложения.
//
// Файл отдается только если он числится в метаданных скана, со
// сохраненным Content-Type и inline Content-Disposition.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
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

// Handler управляет HTTP-запросами на скачивание вложения.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики открытия вложения.
type Service interface {
	OpenAttachment(ctx context.Context, scanID int, filename string) (int, *models.Attachment, io.ReadSeekCloser, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Скачать вложение скана
// @Tags Scans
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "ID скана"
// @Param filename path string true "Имя файла вложения"
// @Success 200 {file} binary "Содержимое файла"
// @Failure 403 {object} response.ErrorResponse "Чужой скан"
// @Failure 404 {object} response.ErrorResponse "Скан, вложение или файл не найдены"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /scans/{id}/attachments/{filename} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.scanattachment.download"
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
	filename := chi.URLParam(r, "filename")

	ownerID, attachment, file, err := h.service.OpenAttachment(r.Context(), id, filename)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("Scan not found"))
		case errors.Is(err, repository.ErrAttachmentNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("Attachment not found"))
		default:
			log.Error("failed to open attachment", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("File not found on server"))
		}
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Warn("failed to close attachment file", sl.Err(err))
		}
	}()

	if ownerID != user.ID && !user.IsAdmin() {
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("Not authorized to view this attachment"))
		return
	}

	w.Header().Set("Content-Type", attachment.Type)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", attachment.OriginalName))
	http.ServeContent(w, r, attachment.OriginalName, attachment.UploadedAt, file)
}
