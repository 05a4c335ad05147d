// Package httpx concentra helpers HTTP que antes estaban duplicados por módulo
// (writeJSON) y el mapeo de errores de dominio a status codes.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/platform/logger"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON rechaza campos desconocidos; el error ya es de validación.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Invalid("body", "invalid json: "+err.Error())
	}
	return nil
}

// StatusFor traduce un error de dominio a status HTTP.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrInsufficientCredit),
		errors.Is(err, errs.ErrCreditExpired),
		errors.Is(err, errs.ErrInvalidTransition),
		errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrBackend):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteError responde {"error": ...}. Los 5xx se loguean y no filtran detalles.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	resp := ErrorResponse{Error: err.Error(), Field: errs.Field(err)}

	if status >= 500 {
		logger.FromContext(r.Context()).Error("request failed", map[string]any{
			"status": status,
			"err":    err,
		})
		resp = ErrorResponse{Error: http.StatusText(status)}
	}
	WriteJSON(w, status, resp)
}

// QueryTime parsea un query param RFC3339 o YYYY-MM-DD. Vacío => nil.
func QueryTime(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, errs.Invalid(name, "must be RFC3339 or YYYY-MM-DD")
	}
	return &t, nil
}

// QueryBool: "true"/"1" => true, cualquier otra cosa => false.
func QueryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(name)))
	return v
}

// QueryList separa por coma y descarta vacíos.
func QueryList(r *http.Request, name string) []string {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil
	}
	out := make([]string, 0)
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseDate acepta YYYY-MM-DD; vacío => nil.
func ParseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, errs.Invalid(field, "must be YYYY-MM-DD")
	}
	return &t, nil
}
