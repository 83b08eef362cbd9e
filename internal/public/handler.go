// Package public serves anonymous, link-based journey access. No session
// is required here; a shared public link (plus an optional passphrase)
// is the whole credential.
package public

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wayfarer-labs/wayfarer/internal/authz"
	"github.com/wayfarer-labs/wayfarer/internal/journeys"
	"github.com/wayfarer-labs/wayfarer/internal/platform/httpx"
	"github.com/wayfarer-labs/wayfarer/internal/posts"
)

// PassphraseHeader carries the plaintext passphrase for protected links.
const PassphraseHeader = "X-Journey-Passphrase"

// JourneyFinder resolves journeys by their public link identifier.
type JourneyFinder interface {
	GetByPublicLink(ctx context.Context, linkID string) (*journeys.Journey, error)
}

// PostLister lists the posts of a journey.
type PostLister interface {
	ListByJourney(ctx context.Context, journeyID int64, includeDrafts bool) ([]posts.Post, error)
}

// Handler serves the anonymous /p surface.
type Handler struct {
	logger   *slog.Logger
	journeys JourneyFinder
	posts    PostLister
	engine   *authz.Engine
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, finder JourneyFinder, lister PostLister, engine *authz.Engine) *Handler {
	return &Handler{logger: logger, journeys: finder, posts: lister, engine: engine}
}

// MountRoutes registers the public link routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{linkID}", h.showJourney)
}

// journeyView is the anonymous projection of a journey. Owner identity
// and sharing internals are not exposed on the public surface.
type journeyView struct {
	Title       string       `json:"title"`
	Description *string      `json:"description,omitempty"`
	Posts       []posts.Post `json:"posts"`
}

func (h *Handler) showJourney(w http.ResponseWriter, r *http.Request) {
	linkID := chi.URLParam(r, "linkID")
	journey, err := h.journeys.GetByPublicLink(r.Context(), linkID)
	if err != nil {
		if errors.Is(err, journeys.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "journey not found")
			return
		}
		h.logger.Error("public journey lookup", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	var passphrase *string
	if v := r.Header.Get(PassphraseHeader); v != "" {
		passphrase = &v
	}
	decision := h.engine.VerifyAnonymousAccess(&authz.JourneyAccess{
		ID:             journey.ID,
		OwnerID:        journey.OwnerID,
		Visibility:     journey.Visibility,
		PassphraseHash: journey.PassphraseHash,
	}, passphrase)
	if !decision.Allowed {
		status := authz.StatusForReason(decision.Reason)
		if status == http.StatusNotFound {
			// A protected or unpublished journey must answer exactly like
			// a dead link, or the response would reveal that something
			// exists behind it.
			h.logger.Debug("public journey denied",
				slog.String("link_id", linkID),
				slog.String("reason", string(decision.Reason)))
			httpx.Problem(w, http.StatusNotFound, "Not Found", "journey not found")
			return
		}
		httpx.Problem(w, status, "Denied", string(decision.Reason))
		return
	}

	entries, err := h.posts.ListByJourney(r.Context(), journey.ID, false)
	if err != nil {
		h.logger.Error("public posts list", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, journeyView{
		Title:       journey.Title,
		Description: journey.Description,
		Posts:       entries,
	})
}
