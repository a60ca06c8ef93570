// Package submit реализует публичный HTTP-обработчик контактной формы.
//
// Единственная публичная операция записи без авторизации, поэтому валидация
// здесь строже обычного, а в ответ попадают только id и created_at.
package submit

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/soulsirensomatics/portal/internal/http/response"
	"github.com/soulsirensomatics/portal/internal/lib/sl"
	"github.com/soulsirensomatics/portal/internal/models"
	contactservice "github.com/soulsirensomatics/portal/internal/services/contact"
)

// Handler управляет HTTP-запросами публичной контактной формы.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики приема обращений.
type Service interface {
	Submit(ctx context.Context, in contactservice.SubmitInput) (*models.ContactSubmission, error)
}

// Request тело запроса контактной формы.
type Request struct {
	Name    string  `json:"name" validate:"required"`
	Email   string  `json:"email" validate:"required,email"`
	Subject *string `json:"subject"`
	Message string  `json:"message" validate:"required"`
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
// @Summary Отправить обращение
// @Description Публичная контактная форма, авторизация не требуется.
// @Tags Contact
// @Accept json
// @Produce json
// @Param request body Request true "Данные обращения"
// @Success 201 {object} map[string]any "Обращение принято"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /contact [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.contact.submit"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Missing required fields: name, email, and message are required"))
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	message := strings.TrimSpace(req.Message)

	if name == "" || email == "" || message == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Missing required fields: name, email, and message are required"))
		return
	}
	if err := h.validate.Var(email, "email"); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid email format"))
		return
	}
	if len(name) > 100 {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Name must be 100 characters or less"))
		return
	}
	if len(message) > 5000 {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Message must be 5000 characters or less"))
		return
	}

	sub, err := h.service.Submit(r.Context(), contactservice.SubmitInput{
		Name:    name,
		Email:   email,
		Subject: req.Subject,
		Message: message,
	})
	if err != nil {
		log.Error("failed to create submission", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to submit contact form"))
		return
	}

	log.Info("contact submission created", slog.Int("id", sub.ID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, map[string]any{
		"message": "Thank you for your message! We will get back to you soon.",
		"submission": map[string]any{
			"id":         sub.ID,
			"created_at": sub.CreatedAt.Format(time.RFC3339),
		},
	})
}
