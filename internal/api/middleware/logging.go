// logging.go — журнал HTTP-запросов операторов через slog.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// SessionHeader — необязательный идентификатор вкладки оператора.
const SessionHeader = "X-Session-ID"

const ctxKeyOperator contextKey = "log_operator"

// operator заполняется JWT middleware, который работает внутри RequestLogger
// и меняет контекст уже после него.
type operator struct {
	subject string
	role    string
}

// noteOperator запоминает оператора для журнала запроса, если журнал подключён.
func noteOperator(ctx context.Context, claims *AuthClaims) {
	if op, ok := ctx.Value(ctxKeyOperator).(*operator); ok && claims != nil {
		op.subject = claims.Subject
		op.role = claims.Role
	}
}

// statusRecorder перехватывает статус-код и размер ответа.
// Общий для журнала и метрик.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// RequestLogger пишет одну запись на запрос: маршрут экрана, статус,
// оператор (sub, роль) и вкладка из X-Session-ID.
// Уровень: INFO (1xx-3xx), WARN (4xx), ERROR (5xx).
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			op := &operator{}
			wrapped := newStatusRecorder(w)

			next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), ctxKeyOperator, op)))

			level := slog.LevelInfo
			if wrapped.statusCode >= 500 {
				level = slog.LevelError
			} else if wrapped.statusCode >= 400 {
				level = slog.LevelWarn
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", wrapped.written),
				slog.String("request_id", chimw.GetReqID(r.Context())),
			}
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				attrs = append(attrs, slog.String("route", rctx.RoutePattern()))
			}
			if op.subject != "" {
				attrs = append(attrs, slog.String("subject", op.subject), slog.String("role", op.role))
			}
			if tab := r.Header.Get(SessionHeader); tab != "" {
				attrs = append(attrs, slog.String("tab", tab))
			}
			logger.LogAttrs(r.Context(), level, "HTTP запрос", attrs...)
		})
	}
}
