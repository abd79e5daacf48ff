package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/hszk-dev/vidvault/internal/api/handler"
)

// Recoverer turns a panic into a 500 ErrorDetails response.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					stack := debug.Stack()

					requestLogger(logger, r.Context()).Error("panic recovered",
						slog.Any("panic", rec),
						slog.String("stack", string(stack)),
					)

					handler.Error(w, http.StatusInternalServerError,
						"Internal server error.", "Ensure that request was correct.")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
