// me.go — профиль оператора и управление сессией.
// GET  /api/v1/me — текущий оператор и его права.
// POST /api/v1/session/close — сброс контроллеров сессии.
// GET  /api/v1/catalogos — перечень справочников.
package handlers

import (
	"net/http"

	apierrors "github.com/Maicol2810/sistemanovedades2.0/internal/api/errors"
	"github.com/Maicol2810/sistemanovedades2.0/internal/api/middleware"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/catalog"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/rbac"
)

// currentUser — ответ GET /me.
type currentUser struct {
	ID          string                          `json:"id"`
	Username    string                          `json:"username"`
	Email       string                          `json:"email,omitempty"`
	Role        string                          `json:"role"`
	Groups      []string                        `json:"groups,omitempty"`
	Permissions map[rbac.Resource][]rbac.Action `json:"permissions"`
}

// GetCurrentUser — GET /api/v1/me.
// Права вычисляются тем же PermissionGate, что и проверка мутаций.
func (h *APIHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims в контексте")
		return
	}

	resp := currentUser{
		ID:          claims.Subject,
		Username:    claims.PreferredUsername,
		Email:       claims.Email,
		Role:        claims.Role,
		Groups:      claims.Groups,
		Permissions: map[rbac.Resource][]rbac.Action{},
	}
	if h.gate != nil {
		resp.Permissions = h.gate.Permissions(claims.Role)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CloseSession — POST /api/v1/session/close. Открытые черновики теряются.
func (h *APIHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	_, session, ok := actorFromRequest(r)
	if !ok {
		apierrors.Unauthorized(w, "Отсутствуют claims в контексте")
		return
	}
	h.workspace.Drop(session)
	w.WriteHeader(http.StatusNoContent)
}

type catalogInfo struct {
	Kind    catalog.Kind `json:"kind"`
	Label   string       `json:"label"`
	Variant string       `json:"variant"`
}

// ListCatalogs — GET /api/v1/catalogos. Порядок совпадает с вкладками.
func (h *APIHandler) ListCatalogs(w http.ResponseWriter, _ *http.Request) {
	schemas := catalog.All()
	items := make([]catalogInfo, 0, len(schemas))
	for _, s := range schemas {
		items = append(items, catalogInfo{Kind: s.Kind, Label: s.Label, Variant: s.Variant.String()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
