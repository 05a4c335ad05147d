package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"petshop-manager/internal/platform/httpx"
	"petshop-manager/internal/platform/logger"
)

// Recover convierte un panic en 500 JSON y lo registra con el logger del request.
// Va después de RequestLogger para tener request_id en el log.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.FromContext(r.Context()).Error("panic recovered", map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
				"panic":  fmt.Sprint(rec),
				"stack":  string(debug.Stack()),
			})
			httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
				Error: http.StatusText(http.StatusInternalServerError),
			})
		}()
		next.ServeHTTP(w, r)
	})
}
