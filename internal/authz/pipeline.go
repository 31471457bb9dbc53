package authz

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/atrium-hq/atrium/internal/session"
)

// Outcome is the terminal state of one pipeline evaluation.
type Outcome string

// Pipeline outcomes.
const (
	OutcomePublic        Outcome = "public"
	OutcomeRedirectLogin Outcome = "redirect_login"
	OutcomeRedirectHome  Outcome = "redirect_home"
	OutcomeForbidden     Outcome = "forbidden"
	OutcomeAllow         Outcome = "allow"
)

// Decision is the structured result of authorizing one request.
type Decision struct {
	Outcome  Outcome
	Location string
	Required Permission
	Role     Role
	Session  *session.Session
}

// SessionSource resolves the caller's session from transport credentials.
type SessionSource interface {
	Resolve(w http.ResponseWriter, r *http.Request) (*session.Session, error)
}

// RoleStore is the authoritative role lookup consulted on every gated
// request.
type RoleStore interface {
	GetRole(ctx context.Context, userID string) (Role, bool, error)
}

// BackfillFunc queues a best-effort default-role backfill. Must never
// block or fail the request.
type BackfillFunc func(ctx context.Context, userID string)

// Pipeline orchestrates session resolution, the route policy table and
// the permission policy into a single per-request decision. It holds no
// mutable state; concurrent requests are independent.
type Pipeline struct {
	sessions  SessionSource
	roles     RoleStore
	backfill  BackfillFunc
	table     RouteTable
	public    []string
	loginPath string
	homePath  string
	logger    *slog.Logger
}

// PipelineConfig collects Pipeline dependencies.
type PipelineConfig struct {
	Sessions  SessionSource
	Roles     RoleStore
	Backfill  BackfillFunc
	Table     RouteTable
	Public    []string
	LoginPath string
	HomePath  string
	Logger    *slog.Logger
}

// NewPipeline constructs a Pipeline with dashboard defaults for any
// zero-valued policy field.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Table == nil {
		cfg.Table = DefaultRouteTable()
	}
	if cfg.Public == nil {
		cfg.Public = DefaultPublicRoutes()
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/auth"
	}
	if cfg.HomePath == "" {
		cfg.HomePath = "/"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pipeline{
		sessions:  cfg.Sessions,
		roles:     cfg.Roles,
		backfill:  cfg.Backfill,
		table:     cfg.Table,
		public:    cfg.Public,
		loginPath: cfg.LoginPath,
		homePath:  cfg.HomePath,
		logger:    cfg.Logger,
	}
}

// Authorize evaluates the request and returns a terminal decision. Every
// collaborator failure resolves to one of the defined outcomes; nothing
// propagates as a fault.
func (p *Pipeline) Authorize(w http.ResponseWriter, r *http.Request) Decision {
	sess, err := p.sessions.Resolve(w, r)
	if err != nil {
		if !errors.Is(err, session.ErrReauthenticate) {
			p.logger.Warn("session resolution", slog.Any("error", err))
		}
		sess = nil
	}

	path := r.URL.Path

	// An authenticated caller never re-enters the login flow, even
	// though the login route is otherwise public.
	if sess != nil && path == p.loginPath {
		return Decision{Outcome: OutcomeRedirectHome, Location: p.homePath, Session: sess}
	}

	if isPublic(p.public, path) {
		return Decision{Outcome: OutcomePublic, Session: sess}
	}

	if sess == nil {
		return Decision{Outcome: OutcomeRedirectLogin, Location: p.loginURL(r)}
	}

	if perm, gated := p.table[path]; gated {
		role, found, err := p.roles.GetRole(r.Context(), sess.User.ID)
		if err != nil {
			// Fail closed: an unreachable role store degrades to
			// unauthenticated, never to an open gate.
			p.logger.Error("role lookup", slog.String("user_id", sess.User.ID), slog.Any("error", err))
			return Decision{Outcome: OutcomeRedirectLogin, Location: p.loginURL(r)}
		}
		if !found {
			role = RoleUser
			if p.backfill != nil {
				p.backfill(r.Context(), sess.User.ID)
			}
		}
		if !Evaluate(role, perm) {
			return Decision{Outcome: OutcomeForbidden, Required: perm, Role: role, Session: sess}
		}
		return Decision{Outcome: OutcomeAllow, Role: role, Session: sess}
	}

	return Decision{Outcome: OutcomeAllow, Session: sess}
}

// loginURL builds the login redirect carrying the originally requested
// path (including query) as the post-login return target.
func (p *Pipeline) loginURL(r *http.Request) string {
	target := r.URL.RequestURI()
	return p.loginPath + "?" + url.Values{"redirectTo": {target}}.Encode()
}
