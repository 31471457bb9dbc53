package authz

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atrium-hq/atrium/internal/platform/httpx"
	"github.com/atrium-hq/atrium/internal/session"
)

// CapabilityHandler serves capability queries so the dashboard knows
// which controls to render for the current caller.
type CapabilityHandler struct {
	logger *slog.Logger
	roles  RoleStore
}

// NewCapabilityHandler builds a CapabilityHandler.
func NewCapabilityHandler(logger *slog.Logger, roles RoleStore) *CapabilityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CapabilityHandler{logger: logger, roles: roles}
}

// MountRoutes registers the capability overview route.
func (h *CapabilityHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.listCapabilities)
}

type capabilityResponse struct {
	Role      Role                  `json:"role"`
	Resources map[Resource][]Action `json:"resources"`
}

type resourceResponse struct {
	Resource Resource `json:"resource"`
	Role     Role     `json:"role"`
	Actions  []Action `json:"actions"`
}

func (h *CapabilityHandler) listCapabilities(w http.ResponseWriter, r *http.Request) {
	role, ok := h.currentRole(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	resources := make(map[Resource][]Action, len(Resources()))
	for _, resource := range Resources() {
		resources[resource] = ResourcePermissions(role, resource)
	}
	httpx.JSON(w, http.StatusOK, capabilityResponse{Role: role, Resources: resources})
}

// Resource returns a handler for a gated resource route. The pipeline has
// already admitted the caller; the handler reports the caller's
// capabilities on the resource.
func (h *CapabilityHandler) Resource(resource Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, ok := h.currentRole(r)
		if !ok {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		httpx.JSON(w, http.StatusOK, resourceResponse{
			Resource: resource,
			Role:     role,
			Actions:  ResourcePermissions(role, resource),
		})
	}
}

// currentRole prefers the role stamped by the pipeline and falls back to
// a fresh store lookup on ungated paths.
func (h *CapabilityHandler) currentRole(r *http.Request) (Role, bool) {
	if role, ok := RoleFromContext(r.Context()); ok {
		return role, true
	}
	sess := session.FromContext(r.Context())
	if sess == nil {
		return "", false
	}
	role, found, err := h.roles.GetRole(r.Context(), sess.User.ID)
	if err != nil {
		h.logger.Error("capability role lookup", slog.String("user_id", sess.User.ID), slog.Any("error", err))
		return "", false
	}
	if !found {
		role = RoleUser
	}
	return role, true
}
