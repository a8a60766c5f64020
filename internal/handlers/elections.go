package handlers

import (
	"net/http"

	"github.com/abrezinsky/evote/internal/services"
)

func (h *Handlers) handleCreateElection(w http.ResponseWriter, r *http.Request) {
	var req ElectionCreateRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	e, err := h.Elections.CreateElection(r.Context(), services.ElectionInput{
		Name:       req.Name,
		Candidates: req.Candidates,
		Location:   req.Location,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, e)
}

func (h *Handlers) handleListElections(w http.ResponseWriter, r *http.Request) {
	list, err := h.Elections.ListElections(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, list)
}

// handleElectionsByPhase lists elections in a fixed phase
func (h *Handlers) handleElectionsByPhase(phase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.Elections.ListElectionsByPhase(r.Context(), phase)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		respondOK(w, list)
	}
}

func (h *Handlers) handleGetElection(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	e, err := h.Elections.GetElection(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, e)
}

func (h *Handlers) handleDeleteElection(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Elections.DeleteElection(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, "Election Deleted Successfully")
}

// handleSetPhase moves an election to the requested phase, optionally
// renaming it or replacing its ballot
func (h *Handlers) handleSetPhase(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req PhaseUpdateRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	e, err := h.Elections.SetPhase(r.Context(), id, services.PhaseUpdate{
		Phase:      req.CurrentPhase,
		Name:       req.Name,
		Candidates: req.Candidates,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, e)
}
