// Package handlers exposes the evote services over HTTP.
package handlers

import (
	"net/http"

	"github.com/abrezinsky/evote/internal/auth"
	"github.com/abrezinsky/evote/internal/logger"
	"github.com/abrezinsky/evote/internal/repository"
	"github.com/abrezinsky/evote/internal/services"
)

// DefaultMaxUpload is used when Deps.MaxUploadBytes is not set
const DefaultMaxUpload = 32 << 20

// WebSocketServer serves the live updates endpoint
type WebSocketServer interface {
	ServeWs(w http.ResponseWriter, r *http.Request)
	ClientCount() int
}

// Deps are the collaborators of Handlers
type Deps struct {
	Elections  services.ElectionServicer
	Voting     services.VotingServicer
	Feedback   services.FeedbackServicer
	Users      services.UserServicer
	Candidates services.CandidateServicer
	Identity   services.IdentityServicer
	Auth       *auth.Auth
	Hub        WebSocketServer
	Health     repository.HealthChecker
	Log        logger.Logger

	// PublicDir serves stored candidate images when set
	PublicDir string
	// Static serves a frontend build at / when set
	Static http.Handler

	MaxUploadBytes int64
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Elections  services.ElectionServicer
	Voting     services.VotingServicer
	Feedback   services.FeedbackServicer
	Users      services.UserServicer
	Candidates services.CandidateServicer
	Identity   services.IdentityServicer
	Auth       *auth.Auth
	Hub        WebSocketServer
	Health     repository.HealthChecker
	Log        logger.Logger

	publicDir string
	static    http.Handler
	maxUpload int64
}

// New creates a new Handlers instance with all dependencies
func New(d Deps) *Handlers {
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = DefaultMaxUpload
	}
	if d.Log == nil {
		d.Log = logger.Discard()
	}
	return &Handlers{
		Elections:  d.Elections,
		Voting:     d.Voting,
		Feedback:   d.Feedback,
		Users:      d.Users,
		Candidates: d.Candidates,
		Identity:   d.Identity,
		Auth:       d.Auth,
		Hub:        d.Hub,
		Health:     d.Health,
		Log:        d.Log,
		publicDir:  d.PublicDir,
		static:     d.Static,
		maxUpload:  d.MaxUploadBytes,
	}
}

// actingUser checks that the token may act for userID and writes a 403
// otherwise
func (h *Handlers) actingUser(w http.ResponseWriter, r *http.Request, userID string) bool {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || !claims.CanActFor(userID) {
		h.respondError(w, r, Forbidden("Token does not belong to this voter"))
		return false
	}
	return true
}
