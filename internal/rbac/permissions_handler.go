package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wayfarer-labs/wayfarer/internal/authz"
	"github.com/wayfarer-labs/wayfarer/internal/platform/httpx"
)

// PermissionsHandler serves the closed permission catalog.
type PermissionsHandler struct{}

// NewPermissionsHandler builds a PermissionsHandler.
func NewPermissionsHandler() *PermissionsHandler {
	return &PermissionsHandler{}
}

// MountRoutes registers permission catalog routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.listPermissions)
}

type permissionEntry struct {
	Name        string `json:"name"`
	AdminScoped bool   `json:"admin_scoped"`
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms := authz.Catalog()
	out := make([]permissionEntry, 0, len(perms))
	for _, p := range perms {
		out = append(out, permissionEntry{Name: string(p), AdminScoped: p.AdminScoped()})
	}
	httpx.JSON(w, http.StatusOK, out)
}
