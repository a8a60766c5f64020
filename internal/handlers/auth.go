package handlers

import (
	"net/http"
)

// handleRegister creates a voter account
func (h *Handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	in, avatar, done, err := h.readUserRequest(w, r)
	defer done()
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	res, err := h.Users.Register(r.Context(), in, avatar)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, RegisterResponse{Success: true, Message: res.Message(), User: res.User})
}

// handleLogin logs a voter in with username and father's name
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	res, err := h.Users.Login(r.Context(), req.Username, req.FatherName)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, res)
}

// handleAdminLogin exchanges the admin password for an admin token
func (h *Handlers) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	token, ok := h.Auth.AdminLogin(req.Password)
	if !ok {
		h.Log.Warn("Admin login failed", "remote", r.RemoteAddr)
		h.respondError(w, r, Unauthorized("Invalid password"))
		return
	}
	respondOK(w, TokenResponse{Token: token})
}

// handleFaceLogin identifies the voter at the camera
func (h *Handlers) handleFaceLogin(w http.ResponseWriter, r *http.Request) {
	res, err := h.Identity.FaceLogin(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, res)
}

// handleVotingMail sends the post-vote thank-you mail
func (h *Handlers) handleVotingMail(w http.ResponseWriter, r *http.Request) {
	var req VotingMailRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.ID == "" {
		h.respondError(w, r, BadRequest("User id is required"))
		return
	}
	if !h.actingUser(w, r, req.ID) {
		return
	}

	if err := h.Users.SendVotingMail(r.Context(), req.ID); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, "Email Sent")
}
