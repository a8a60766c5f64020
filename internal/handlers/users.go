package handlers

import (
	"net/http"

	"github.com/abrezinsky/evote/internal/services"
)

func (h *Handlers) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListUsers(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, users)
}

func (h *Handlers) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	u, err := h.Users.GetUser(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, u)
}

func (h *Handlers) handleGetUserByUsername(w http.ResponseWriter, r *http.Request) {
	username, err := pathParam(r, "username")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	u, err := h.Users.GetUserByUsername(r.Context(), username)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, u)
}

func (h *Handlers) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	in, avatar, done, err := h.readUserRequest(w, r)
	defer done()
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	u, err := h.Users.UpdateUser(r.Context(), id, in, avatar)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, u)
}

func (h *Handlers) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Users.DeleteUser(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, "User Deleted Successfully")
}

// handleImportUsers reads a ZIP or CSV from the "zip", "csv" or "file" part
func (h *Handlers) handleImportUsers(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.maxUpload); err != nil {
		h.respondError(w, r, err)
		return
	}
	filename, data, err := formFileBytes(r, "zip", "csv", "file")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	report, err := h.Users.ImportUsers(r.Context(), filename, data)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, report)
}

func (h *Handlers) handleUserTemplate(w http.ResponseWriter, r *http.Request) {
	writeCSV(w, "user_template.csv", services.UserTemplateCSV())
}
