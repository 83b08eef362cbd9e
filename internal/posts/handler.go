package posts

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

// Handler manages post endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountJourneyRoutes registers the routes nested under a journey; the
// parent router supplies the {journeyID} parameter.
func (h *Handler) MountJourneyRoutes(r chi.Router) {
	r.Get("/", h.listPosts)
	r.Post("/", h.createPost)
}

// MountRoutes registers the routes that address posts directly.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}", h.showPost)
	r.Patch("/{id}", h.updatePost)
	r.Delete("/{id}", h.deletePost)
	r.Post("/{id}/publish", h.publishPost)
	r.Post("/{id}/unpublish", h.unpublishPost)
	r.Put("/{id}/media", h.attachMedia)
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	journeyID, err := strconv.ParseInt(chi.URLParam(r, "journeyID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid journey id")
		return
	}
	list, err := h.service.ListByJourney(r.Context(), shared.PrincipalFromContext(r.Context()), journeyID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	journeyID, err := strconv.ParseInt(chi.URLParam(r, "journeyID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid journey id")
		return
	}
	var req CreatePostRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	post, err := h.service.Create(r.Context(), shared.PrincipalFromContext(r.Context()), journeyID, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, post)
}

func (h *Handler) showPost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.postID(w, r)
	if !ok {
		return
	}
	post, err := h.service.Get(r.Context(), shared.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.postID(w, r)
	if !ok {
		return
	}
	var req UpdatePostRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	post, err := h.service.Update(r.Context(), shared.PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.postID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), shared.PrincipalFromContext(r.Context()), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) publishPost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.postID(w, r)
	if !ok {
		return
	}
	post, err := h.service.Publish(r.Context(), shared.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

func (h *Handler) unpublishPost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.postID(w, r)
	if !ok {
		return
	}
	post, err := h.service.Unpublish(r.Context(), shared.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

func (h *Handler) attachMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := h.postID(w, r)
	if !ok {
		return
	}
	var req AttachMediaRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	post, err := h.service.AttachMedia(r.Context(), shared.PrincipalFromContext(r.Context()), id, req.MediaKey)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

func (h *Handler) postID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid post id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var denied *authz.DeniedError
	switch {
	case errors.As(err, &denied):
		httpx.Problem(w, authz.StatusForReason(denied.Reason), "Denied", string(denied.Reason))
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "post not found")
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("posts handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
