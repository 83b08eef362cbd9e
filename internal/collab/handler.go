package collab

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wayfarer-labs/wayfarer/internal/authz"
	"github.com/wayfarer-labs/wayfarer/internal/platform/httpx"
	"github.com/wayfarer-labs/wayfarer/internal/shared"
)

// Handler manages collaborator endpoints, mounted under a journey.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers collaborator routes; the parent router supplies
// the {journeyID} parameter.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listCollaborators)
	r.Post("/", h.addCollaborator)
	r.Put("/{userID}", h.updateCollaborator)
	r.Delete("/{userID}", h.removeCollaborator)
}

func (h *Handler) listCollaborators(w http.ResponseWriter, r *http.Request) {
	journeyID, ok := h.pathID(w, r, "journeyID", "invalid journey id")
	if !ok {
		return
	}
	grants, err := h.service.List(r.Context(), shared.PrincipalFromContext(r.Context()), journeyID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"collaborators": grants})
}

func (h *Handler) addCollaborator(w http.ResponseWriter, r *http.Request) {
	journeyID, ok := h.pathID(w, r, "journeyID", "invalid journey id")
	if !ok {
		return
	}
	var req AddCollaboratorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	grant, err := h.service.Add(r.Context(), shared.PrincipalFromContext(r.Context()), journeyID, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, grant)
}

func (h *Handler) updateCollaborator(w http.ResponseWriter, r *http.Request) {
	journeyID, ok := h.pathID(w, r, "journeyID", "invalid journey id")
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID", "invalid user id")
	if !ok {
		return
	}
	var req UpdateCollaboratorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	grant, err := h.service.UpdatePermissions(r.Context(), shared.PrincipalFromContext(r.Context()), journeyID, userID, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grant)
}

func (h *Handler) removeCollaborator(w http.ResponseWriter, r *http.Request) {
	journeyID, ok := h.pathID(w, r, "journeyID", "invalid journey id")
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID", "invalid user id")
	if !ok {
		return
	}
	if err := h.service.Remove(r.Context(), shared.PrincipalFromContext(r.Context()), journeyID, userID); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param, msg string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", msg)
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var denied *authz.DeniedError
	switch {
	case errors.As(err, &denied):
		httpx.Problem(w, authz.StatusForReason(denied.Reason), "Denied", string(denied.Reason))
	case errors.Is(err, ErrDuplicateGrant):
		httpx.Problem(w, http.StatusConflict, "Conflict", "collaborator already granted")
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "collaborator not found")
	case errors.Is(err, ErrOwnerCollaborator), errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("collab handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
