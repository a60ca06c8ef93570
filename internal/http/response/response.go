// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Ошибки всегда возвращаются
// в виде объекта {"error": {"message": "..."}}, успешные ответы кладут ресурс
// под именованным ключом.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorBody текст ошибки внутри конверта.
type ErrorBody struct {
	Message string `json:"message" example:"Invalid credentials"`
}

// ErrorResponse — конверт ошибки. Используется и в Swagger-аннотациях
// @Failure как возвращаемый тип.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error возвращает конверт ошибки с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{Error: ErrorBody{Message: msg}}
}

// OK возвращает успешный ответ с ресурсом под именованным ключом.
func OK(key string, value any) map[string]any {
	return map[string]any{key: value}
}

// OKWithMessage возвращает успешный ответ с ресурсом и пояснением.
func OKWithMessage(key string, value any, msg string) map[string]any {
	return map[string]any{key: value, "message": msg}
}

// Message возвращает ответ, состоящий из одного пояснения.
func Message(msg string) map[string]any {
	return map[string]any{"message": msg}
}

// ValidationError формирует конверт ошибки на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too short", err.Field()))
		case "datetime=15:04":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a time in format 15:04", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Error(strings.Join(errsMsgs, ", "))
}
