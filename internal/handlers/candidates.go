package handlers

import (
	"net/http"

	"github.com/abrezinsky/evote/internal/services"
)

func (h *Handlers) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	in, images, done, err := h.readCandidateRequest(w, r)
	defer done()
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	c, err := h.Candidates.CreateCandidate(r.Context(), in, images)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, c)
}

func (h *Handlers) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	list, err := h.Candidates.ListCandidates(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, list)
}

func (h *Handlers) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	c, err := h.Candidates.GetCandidate(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, c)
}

func (h *Handlers) handleGetCandidateByUsername(w http.ResponseWriter, r *http.Request) {
	username, err := pathParam(r, "username")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	c, err := h.Candidates.GetCandidateByUsername(r.Context(), username)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, c)
}

func (h *Handlers) handleUpdateCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	in, images, done, err := h.readCandidateRequest(w, r)
	defer done()
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	c, err := h.Candidates.UpdateCandidate(r.Context(), id, in, images)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, c)
}

func (h *Handlers) handleDeleteCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Candidates.DeleteCandidate(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, "Candidate and associated images deleted successfully")
}

// handleImportCandidates reads a CSV from the "csv" or "file" part
func (h *Handlers) handleImportCandidates(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.maxUpload); err != nil {
		h.respondError(w, r, err)
		return
	}
	_, data, err := formFileBytes(r, "csv", "file")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	report, err := h.Candidates.ImportCandidates(r.Context(), data)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, report)
}

func (h *Handlers) handleCandidateTemplate(w http.ResponseWriter, r *http.Request) {
	writeCSV(w, "candidate_template.csv", services.CandidateTemplateCSV())
}

func writeCSV(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
