package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RequestTimeout bounds every request except the websocket upgrade
const RequestTimeout = 60 * time.Second

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)

	// Long-lived connection, outside the timeout group
	if h.Hub != nil {
		r.Get("/ws", h.Hub.ServeWs)
	}
	r.Get("/healthz", h.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(RequestTimeout))

		r.Route("/api/auth", func(r chi.Router) {
			r.Post("/register", h.handleRegister)
			r.Post("/login", h.handleLogin)
			r.Post("/admin/login", h.handleAdminLogin)
			r.Post("/op", h.handleFaceLogin)

			r.Get("/elections", h.handleListElections)
			r.Get("/election/{id}", h.handleGetElection)
			r.Get("/voting/elections", h.handleElectionsByPhase("voting"))
			r.Get("/result/elections", h.handleElectionsByPhase("result"))

			r.Get("/candidates", h.handleListCandidates)
			r.Get("/candidate/id/{id}", h.handleGetCandidate)
			r.Get("/candidate/{username}", h.handleGetCandidateByUsername)

			r.Get("/download-template", h.handleUserTemplate)
			r.Get("/download-candidate-template", h.handleCandidateTemplate)

			r.Group(func(r chi.Router) {
				r.Use(h.Auth.RequireUser)
				r.Post("/votingEmail", h.handleVotingMail)
			})

			r.Group(func(r chi.Router) {
				r.Use(h.Auth.RequireAdmin)

				r.Post("/election/register", h.handleCreateElection)
				r.Get("/election/delete/{id}", h.handleDeleteElection)
				r.Delete("/election/delete/{id}", h.handleDeleteElection)
				r.Post("/phase/edit/{id}", h.handleSetPhase)

				r.Post("/candidate/register", h.handleCreateCandidate)
				r.Post("/candidate/edit/{id}", h.handleUpdateCandidate)
				r.Get("/candidate/delete/{id}", h.handleDeleteCandidate)
				r.Delete("/candidate/delete/{id}", h.handleDeleteCandidate)

				r.Get("/users", h.handleListUsers)
				r.Get("/user/{id}", h.handleGetUser)
				r.Get("/user/username/{username}", h.handleGetUserByUsername)
				r.Post("/user/edit/{id}", h.handleUpdateUser)
				r.Get("/user/delete/{id}", h.handleDeleteUser)
				r.Delete("/user/delete/{id}", h.handleDeleteUser)

				r.Post("/upload-users", h.handleImportUsers)
				r.Post("/upload-candidates", h.handleImportCandidates)
			})
		})

		r.Route("/api/vote", func(r chi.Router) {
			r.Use(h.Auth.RequireUser)
			r.Post("/", h.handleCastVote)
			r.Get("/verify/{voterId}/{electionId}", h.handleVerifyVote)
			r.Get("/{id}/slip", h.handleVoteSlip)
		})

		r.Route("/api/election/{id}", func(r chi.Router) {
			r.Get("/voter-demographics", h.handleDemographics)
			r.Get("/voter-stats", h.handleVoterStats)
			r.Get("/results", h.handleResults)
			r.With(h.Auth.RequireUser).Post("/record-vote", h.handleRecordVote)
		})

		r.Route("/api/feedback", func(r chi.Router) {
			r.Get("/stats/{candidateId}", h.handleFeedbackStats)
			r.Group(func(r chi.Router) {
				r.Use(h.Auth.RequireUser)
				r.Post("/like", h.handleFeedback("like"))
				r.Post("/dislike", h.handleFeedback("dislike"))
				r.Get("/user/{userId}/election/{electionId}", h.handleUserFeedback)
			})
		})

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(h.Auth.RequireAdmin)
			r.Get("/log-level", h.handleGetLogLevel)
			r.Post("/log-level", h.handleSetLogLevel)
		})

		if h.publicDir != "" {
			public := http.FileServer(http.Dir(h.publicDir))
			r.Handle("/CandidateImages/*", public)
			r.Handle("/PartySymbols/*", public)
		}
		if h.static != nil {
			r.Handle("/*", h.static)
		}
	})

	return r
}
