package journeys

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wayfarer-labs/wayfarer/internal/authz"
	"github.com/wayfarer-labs/wayfarer/internal/platform/httpx"
	"github.com/wayfarer-labs/wayfarer/internal/shared"
)

// Handler manages journey endpoints.
type Handler struct {
	logger        *slog.Logger
	service       *Service
	validator     *validator.Validate
	publicBaseURL string
}

// NewHandler builds a Handler instance. publicBaseURL is the externally
// visible origin used to render share links.
func NewHandler(logger *slog.Logger, service *Service, publicBaseURL string) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// journeyResponse decorates a journey with its share URL when published.
type journeyResponse struct {
	*Journey
	PublicURL *string `json:"public_url,omitempty"`
}

func (h *Handler) respondJourney(w http.ResponseWriter, status int, journey *Journey) {
	resp := journeyResponse{Journey: journey}
	if journey.PublicLinkID != nil {
		u := h.publicBaseURL + "/p/" + *journey.PublicLinkID
		resp.PublicURL = &u
	}
	httpx.JSON(w, status, resp)
}

// MountRoutes registers journey routes. Routes here require an
// authenticated principal; anonymous access goes through the public
// surface instead.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listJourneys)
	r.Post("/", h.createJourney)
	r.Get("/{journeyID}", h.showJourney)
	r.Patch("/{journeyID}", h.updateJourney)
	r.Delete("/{journeyID}", h.deleteJourney)
	r.Post("/{journeyID}/publish", h.publishJourney)
	r.Post("/{journeyID}/unpublish", h.unpublishJourney)
	r.Put("/{journeyID}/passphrase", h.setPassphrase)
	r.Delete("/{journeyID}/passphrase", h.clearPassphrase)
}

func (h *Handler) listJourneys(w http.ResponseWriter, r *http.Request) {
	actor := shared.PrincipalFromContext(r.Context())
	owned, sharedWith, err := h.service.List(r.Context(), actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"owned":  owned,
		"shared": sharedWith,
	})
}

func (h *Handler) createJourney(w http.ResponseWriter, r *http.Request) {
	var req CreateJourneyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	journey, err := h.service.Create(r.Context(), shared.PrincipalFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJourney(w, http.StatusCreated, journey)
}

func (h *Handler) showJourney(w http.ResponseWriter, r *http.Request) {
	id, ok := h.journeyID(w, r)
	if !ok {
		return
	}
	journey, err := h.service.Get(r.Context(), shared.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJourney(w, http.StatusOK, journey)
}

func (h *Handler) updateJourney(w http.ResponseWriter, r *http.Request) {
	id, ok := h.journeyID(w, r)
	if !ok {
		return
	}
	var req UpdateJourneyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	journey, err := h.service.Update(r.Context(), shared.PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJourney(w, http.StatusOK, journey)
}

func (h *Handler) deleteJourney(w http.ResponseWriter, r *http.Request) {
	id, ok := h.journeyID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), shared.PrincipalFromContext(r.Context()), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) publishJourney(w http.ResponseWriter, r *http.Request) {
	id, ok := h.journeyID(w, r)
	if !ok {
		return
	}
	journey, err := h.service.Publish(r.Context(), shared.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJourney(w, http.StatusOK, journey)
}

func (h *Handler) unpublishJourney(w http.ResponseWriter, r *http.Request) {
	id, ok := h.journeyID(w, r)
	if !ok {
		return
	}
	journey, err := h.service.Unpublish(r.Context(), shared.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJourney(w, http.StatusOK, journey)
}

func (h *Handler) setPassphrase(w http.ResponseWriter, r *http.Request) {
	id, ok := h.journeyID(w, r)
	if !ok {
		return
	}
	var req SetPassphraseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	journey, err := h.service.SetPassphrase(r.Context(), shared.PrincipalFromContext(r.Context()), id, req.Passphrase)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJourney(w, http.StatusOK, journey)
}

func (h *Handler) clearPassphrase(w http.ResponseWriter, r *http.Request) {
	id, ok := h.journeyID(w, r)
	if !ok {
		return
	}
	journey, err := h.service.ClearPassphrase(r.Context(), shared.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJourney(w, http.StatusOK, journey)
}

func (h *Handler) journeyID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "journeyID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid journey id")
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
		httpx.Problem(w, http.StatusNotFound, "Not Found", "journey not found")
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("journeys handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
