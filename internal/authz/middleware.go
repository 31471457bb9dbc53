package authz

import (
	"fmt"
	"net/http"

	"github.com/atrium-hq/atrium/internal/platform/httpx"
	"github.com/atrium-hq/atrium/internal/session"
)

// Denial is the structured 403 body. It names the attempted action and
// resource but leaks nothing about whether the resource exists.
type Denial struct {
	Message  string `json:"message"`
	Action   Action `json:"action"`
	Resource string `json:"resource"`
}

// DecisionRecorder receives the outcome of each pipeline evaluation.
type DecisionRecorder interface {
	ObserveDecision(outcome string)
}

// Middleware applies the pipeline decision to the host framework:
// redirects, a structured 403, or pass-through with the session and role
// attached to the request context.
func (p *Pipeline) Middleware(recorder DecisionRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := p.Authorize(w, r)
			if recorder != nil {
				recorder.ObserveDecision(string(decision.Outcome))
			}

			switch decision.Outcome {
			case OutcomeRedirectLogin, OutcomeRedirectHome:
				http.Redirect(w, r, decision.Location, http.StatusSeeOther)
				return
			case OutcomeForbidden:
				perm := decision.Required
				httpx.JSON(w, http.StatusForbidden, Denial{
					Message:  fmt.Sprintf("access denied: you do not have permission to %s on %s", perm.Action, perm.Resource),
					Action:   perm.Action,
					Resource: string(perm.Resource),
				})
				return
			}

			ctx := r.Context()
			if decision.Session != nil {
				ctx = session.ContextWithSession(ctx, decision.Session)
			}
			if decision.Role != "" {
				ctx = ContextWithRole(ctx, decision.Role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
