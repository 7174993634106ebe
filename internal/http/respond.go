package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"hamsterwallet/internal/core"
	"hamsterwallet/internal/items"
	applog "hamsterwallet/internal/log"
	"hamsterwallet/internal/upstream/rest"
)

const maxBodySize = 1 << 20

// toast is the outcome envelope consumed by the page scripts. Message is
// shown to the user verbatim; for upstream failures the server-provided
// message wins over a generic one.
type toast struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed encoding response", applog.FieldError, err)
	}
}

func writeToast(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, toast{Success: true, Message: message, Data: data})
}

// writeToastError maps an operation failure onto a toast payload.
// Validation errors come back as 422 with the validation text; upstream
// API errors keep the server's own message.
func writeToastError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "操作失败，请稍后重试"

	var apiErr *rest.APIError
	switch {
	case errors.As(err, &apiErr):
		status = http.StatusBadGateway
		if apiErr.Message != "" {
			message = apiErr.Message
		}
	case isValidationError(err):
		status = http.StatusUnprocessableEntity
		message = err.Error()
	}

	slog.ErrorContext(r.Context(), "Request failed",
		applog.FieldComponent, applog.ComponentHTTP,
		applog.FieldPath, r.URL.Path,
		applog.FieldStatus, status,
		applog.FieldError, err)
	writeJSON(w, status, toast{Success: false, Message: message})
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrEmptyGroupName,
		core.ErrNoCategories,
		core.ErrInvalidDate,
		core.ErrGroupNotFound,
		items.ErrNameRequired,
		items.ErrNegativePrice,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func readJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dst)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, toast{Success: false, Message: message})
}
