// Package auth wires the login entry point and the one-time-token
// callback flow against the identity service.
package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atrium-hq/atrium/internal/identity"
	"github.com/atrium-hq/atrium/internal/platform/httpx"
	"github.com/atrium-hq/atrium/internal/session"
)

// Handler wires HTTP endpoints for authentication flows. Sign-in itself
// (passwords, OTP issuance) lives in the identity service; this handler
// only redeems callback tokens and manages the auth cookies.
type Handler struct {
	logger    *slog.Logger
	identity  identity.API
	jar       *session.Jar
	validator *validator.Validate
	now       func() time.Time
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, api identity.API, jar *session.Jar) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		identity:  api,
		jar:       jar,
		validator: validator.New(),
		now:       time.Now,
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.loginEntry)
	r.Get("/callback", h.handleCallback)
	r.Post("/logout", h.handleLogout)
}

type loginEntryResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// loginEntry is the landing point for unauthenticated callers. Rendering
// belongs to the SPA; the gateway reports state and echoes a sanitized
// error message from a failed callback.
func (h *Handler) loginEntry(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, loginEntryResponse{
		Status: "sign-in required",
		Error:  sanitizeMessage(r.URL.Query().Get("error")),
	})
}

type callbackParams struct {
	TokenHash string `validate:"required"`
	Type      string `validate:"required,oneof=email magiclink recovery invite signup email_change"`
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if description := query.Get("error_description"); description != "" {
		h.redirectWithError(w, r, description)
		return
	}

	params := callbackParams{
		TokenHash: query.Get("token_hash"),
		Type:      query.Get("type"),
	}
	if err := h.validator.Struct(params); err != nil {
		h.redirectWithError(w, r, "invalid authentication callback")
		return
	}

	grant, err := h.identity.VerifyOneTimeToken(r.Context(), params.TokenHash, params.Type)
	if err != nil {
		if !errors.Is(err, identity.ErrUnauthenticated) {
			h.logger.Warn("verify one-time token", slog.Any("error", err))
		}
		h.redirectWithError(w, r, "email verification failed, please try again")
		return
	}

	h.jar.WriteGrant(w, grant, h.now())
	http.Redirect(w, r, safeNext(query.Get("next")), http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.jar.Clear(w)
	http.Redirect(w, r, "/auth", http.StatusSeeOther)
}

func (h *Handler) redirectWithError(w http.ResponseWriter, r *http.Request, message string) {
	location := "/auth?" + url.Values{"error": {sanitizeMessage(message)}}.Encode()
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// safeNext restricts the post-callback target to a local path so the
// callback cannot be abused as an open redirect.
func safeNext(next string) string {
	if next == "" {
		return "/"
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/"
	}
	return next
}

func sanitizeMessage(message string) string {
	if len(message) > 200 {
		message = message[:200]
	}
	return strings.TrimSpace(message)
}
