// Package errs reúne los errores de dominio compartidos por todos los módulos.
// Los servicios envuelven estos sentinels con contexto (fmt.Errorf + %w) y
// la capa HTTP los traduce a status codes con errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInsufficientCredit = errors.New("insufficient credit")
	ErrCreditExpired      = errors.New("credit expired")
	ErrBackend            = errors.New("backend error")
	ErrNotification       = errors.New("notification failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
)

// ValidationError identifica el campo rechazado. errors.Is(err, ErrValidation) es true.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid construye un *ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFound envuelve ErrNotFound con la entidad y el id buscados.
func NotFound(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
}

// Field devuelve el campo de un *ValidationError dentro de la cadena, si existe.
func Field(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	return ""
}
