// Пакет errors: ответы JSON API с ошибкой в конверте
// {"error": {"code": "...", "message": "..."}}.
package errors

import (
	"encoding/json"
	"net/http"
)

// Коды ошибок JSON API.
const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeBackendUnavailable = "BACKEND_UNAVAILABLE"
	CodeNotSupported       = "NOT_SUPPORTED"
)

type envelope struct {
	Error detail `json:"error"`
}

type detail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError пишет конверт ошибки с HTTP-статусом status.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: detail{Code: code, Message: message}})
}

// ValidationError: 400, некорректный запрос или тело.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// Unauthorized: 401, нет или не прошёл проверку JWT.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden: 403, у роли нет права редактирования.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeForbidden, message)
}

// NotFound: 404, событие неизвестно платформе.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// NotSupported: 501, операция недоступна в выбранном API планирования.
func NotSupported(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotImplemented, CodeNotSupported, message)
}

// BackendUnavailable: 502, REST API платформы вернул ошибку или недоступен.
func BackendUnavailable(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadGateway, CodeBackendUnavailable, message)
}
