// Пакет handlers — HTTP-обработчики сервиса учёта охраны труда.
// handler.go — основной обработчик API: экраны учёта, справочники,
// профиль оператора. Делегирует запросы контроллерам рабочего пространства.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/Maicol2810/sistemanovedades2.0/internal/api/errors"
	"github.com/Maicol2810/sistemanovedades2.0/internal/api/middleware"
	"github.com/Maicol2810/sistemanovedades2.0/internal/crud"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/catalog"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/rbac"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/validate"
	"github.com/Maicol2810/sistemanovedades2.0/internal/repository"
	"github.com/Maicol2810/sistemanovedades2.0/internal/service"
)

// SessionHeader — необязательный идентификатор вкладки оператора.
// Разные вкладки одного оператора получают независимые контроллеры.
const SessionHeader = middleware.SessionHeader

// maxBodyBytes — ограничение тела запроса с черновиком.
const maxBodyBytes = 1 << 20

// APIHandler — обработчик HTTP API.
type APIHandler struct {
	workspace *service.Workspace
	gate      *rbac.Gate
	health    *HealthHandler
	logger    *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(ws *service.Workspace, gate *rbac.Gate, health *HealthHandler, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		workspace: ws,
		gate:      gate,
		health:    health,
		logger:    logger.With(slog.String("component", "api_handler")),
	}
}

// Routes регистрирует маршруты API.
//
//	/health/live, /health/ready, /metrics
//	/api/v1/me, /api/v1/session/close
//	/api/v1/novedades, /api/v1/accidentes_trabajo, /api/v1/enfermeria
//	/api/v1/catalogos, /api/v1/catalogos/{kind}
func (h *APIHandler) Routes(r chi.Router) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		apierrors.NotFound(w, "Маршрут не найден")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		apierrors.WriteError(w, http.StatusMethodNotAllowed, apierrors.CodeValidationError, "Метод не поддерживается")
	})

	if h.health != nil {
		r.Get("/health/live", h.health.HealthLive)
		r.Get("/health/ready", h.health.HealthReady)
		r.Get("/metrics", h.health.GetMetrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireRole(rbac.RoleAdmin, rbac.RoleHR, rbac.RoleNurse, rbac.RoleReadonly))

		r.Get("/me", h.GetCurrentUser)
		r.Post("/session/close", h.CloseSession)

		r.Route("/"+string(rbac.ResourceAbsences), screenRoutes(h.workspace.Absences, h.logger))
		r.Route("/"+string(rbac.ResourceAccidents), screenRoutes(h.workspace.Accidents, h.logger))
		r.Route("/"+string(rbac.ResourceInfirmary), screenRoutes(h.workspace.Infirmary, h.logger))

		r.Route("/catalogos", func(r chi.Router) {
			r.Get("/", h.ListCatalogs)
			for _, schema := range catalog.All() {
				if schema.Variant == catalog.VariantDirectory {
					r.Route("/"+string(schema.Kind), screenRoutes(h.workspace.Employees, h.logger))
					continue
				}
				board, err := h.workspace.Catalog(string(schema.Kind))
				if err != nil {
					h.logger.Error("Справочник без экрана", slog.String("kind", string(schema.Kind)))
					continue
				}
				r.Route("/"+string(schema.Kind), screenRoutes(board, h.logger))
			}
		})
	})
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// notice — сообщение оператору по итогам действия.
type notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// noticeResponse — ответ на успешную мутацию.
type noticeResponse struct {
	Notice notice `json:"notice"`
	// Warning заполняется, если мутация выполнена, но перезагрузка списка
	// не удалась.
	Warning string `json:"warning,omitempty"`
	Active  *bool  `json:"activo,omitempty"`
}

// writeNotice отвечает сообщением об успехе. Ошибка перезагрузки после
// успешной мутации не отменяет результат.
func writeNotice(w http.ResponseWriter, message string, reloadErr error) {
	resp := noticeResponse{Notice: notice{Level: "success", Message: message}}
	if reloadErr != nil {
		resp.Warning = service.NoticeLoadFailed
	}
	writeJSON(w, http.StatusOK, resp)
}

// actorFromRequest возвращает оператора и ключ его сессии.
func actorFromRequest(r *http.Request) (crud.Actor, string, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return crud.Actor{}, "", false
	}
	session := claims.Subject
	if tab := r.Header.Get(SessionHeader); tab != "" {
		session += "/" + tab
	}
	return crud.Actor{Subject: claims.Subject, Role: claims.Role}, session, true
}

// writeCrudError преобразует ошибку контроллера в HTTP-ответ.
// failed — сообщение экрана для ошибки хранилища, forbidden — для отказа в правах.
func writeCrudError(w http.ResponseWriter, err error, failed, forbidden string) {
	var (
		validationErr *crud.ValidationError
		fieldsErr     *validate.FieldsError
		persistErr    *crud.PersistenceError
		loadErr       *crud.LoadError
	)

	switch {
	case errors.Is(err, crud.ErrPermissionDenied):
		apierrors.Forbidden(w, forbidden)
	case errors.As(err, &validationErr):
		if errors.As(validationErr, &fieldsErr) {
			apierrors.FieldsError(w, "Revise los campos obligatorios", fieldsErr.Fields)
			return
		}
		apierrors.ValidationError(w, validationErr.Err.Error())
	case errors.Is(err, crud.ErrInvalidTransition):
		apierrors.InvalidState(w, err.Error())
	case errors.Is(err, crud.ErrUnsupported):
		apierrors.InvalidState(w, err.Error())
	case errors.Is(err, crud.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.As(err, &persistErr):
		switch {
		case errors.Is(persistErr, repository.ErrConflict):
			apierrors.Conflict(w, failed)
		case errors.Is(persistErr, repository.ErrInvalid):
			apierrors.ValidationError(w, failed)
		case errors.Is(persistErr, repository.ErrNotFound):
			apierrors.NotFound(w, failed)
		default:
			apierrors.PersistenceError(w, failed)
		}
	case errors.As(err, &loadErr):
		apierrors.LoadError(w, service.NoticeLoadFailed)
	default:
		apierrors.InternalError(w, failed)
	}
}
