// Package upload реализует HTTP-обработчик загрузки вложений к скану.
//
// Handler принимает multipart-форму с полем files: не более пяти файлов,
// каждый до 10 МБ, только JPEG, PNG, GIF, WebP и PDF. Превышение лимитов
// отклоняется до записи файлов на диск.
package upload

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
	scanservice "github.com/soulsirensomatics/portal/internal/services/scan"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

// Handler управляет HTTP-запросами на загрузку вложений.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики сохранения вложений.
type Service interface {
	SaveAttachments(ctx context.Context, scanID int, files []scanservice.UploadFile) ([]models.Attachment, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Загрузить вложения к скану
// @Description Multipart-форма с полем files. Не более 5 файлов по 10 МБ, только JPEG, PNG, GIF, WebP и PDF.
// @Tags Scans
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID скана"
// @Param files formData file true "Файлы вложений"
// @Success 200 {object} map[string]any "Вложения загружены"
// @Failure 400 {object} response.ErrorResponse "Нарушение лимитов загрузки"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Скан не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /scans/{id}/attachments [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.scanattachment.upload"
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

	if err := r.ParseMultipartForm(scanservice.MaxAttachmentSize); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid multipart form"))
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			log.Warn("failed to clean up multipart temp files", sl.Err(err))
		}
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("No files uploaded"))
		return
	}
	if len(headers) > scanservice.MaxAttachmentCount {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Too many files. Maximum is 5 files per upload."))
		return
	}
	for _, fh := range headers {
		if fh.Size > scanservice.MaxAttachmentSize {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("File too large. Maximum size is 10MB."))
			return
		}
		if !scanservice.AllowedAttachmentTypes[fh.Header.Get("Content-Type")] {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid file type. Only JPEG, PNG, GIF, WebP, and PDF are allowed."))
			return
		}
	}

	files := make([]scanservice.UploadFile, 0, len(headers))
	opened := make([]interface{ Close() error }, 0, len(headers))
	defer func() {
		for _, f := range opened {
			if err := f.Close(); err != nil {
				log.Warn("failed to close uploaded file", sl.Err(err))
			}
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			log.Error("failed to open uploaded file", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to upload attachments"))
			return
		}
		opened = append(opened, f)
		files = append(files, scanservice.UploadFile{
			OriginalName: fh.Filename,
			ContentType:  fh.Header.Get("Content-Type"),
			Size:         fh.Size,
			Reader:       f,
		})
	}

	attachments, err := h.service.SaveAttachments(r.Context(), id, files)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("Scan not found"))
			return
		}
		log.Error("failed to save attachments", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to upload attachments"))
		return
	}

	log.Info("attachments uploaded", slog.Int("scan_id", id), slog.Int("count", len(attachments)))
	render.JSON(w, r, response.OKWithMessage("attachments", attachments, "Attachments uploaded successfully"))
}
