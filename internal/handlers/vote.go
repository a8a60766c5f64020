package handlers

import (
	"net/http"

	"github.com/abrezinsky/evote/internal/services"
)

// castVoteRequest is the ballot body. electionId is optional when the
// election comes from the path.
type castVoteRequest struct {
	ElectionID  string `json:"electionId"`
	VoterID     string `json:"voterId"`
	CandidateID string `json:"candidateId"`
}

func (h *Handlers) handleCastVote(w http.ResponseWriter, r *http.Request) {
	var req castVoteRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.castVote(w, r, req)
}

// handleRecordVote takes the election from the path
func (h *Handlers) handleRecordVote(w http.ResponseWriter, r *http.Request) {
	electionID, err := pathParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req castVoteRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	req.ElectionID = electionID
	h.castVote(w, r, req)
}

func (h *Handlers) castVote(w http.ResponseWriter, r *http.Request, req castVoteRequest) {
	if req.VoterID != "" && !h.actingUser(w, r, req.VoterID) {
		return
	}

	receipt, err := h.Voting.CastVote(r.Context(), services.CastVoteInput{
		ElectionID:  req.ElectionID,
		VoterID:     req.VoterID,
		CandidateID: req.CandidateID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, VoteResponse{Message: "Vote saved successfully", Vote: receipt})
}

func (h *Handlers) handleVerifyVote(w http.ResponseWriter, r *http.Request) {
	voterID, err := pathParam(r, "voterId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	electionID, err := pathParam(r, "electionId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	res, err := h.Voting.VerifyVote(r.Context(), voterID, electionID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, res)
}

// handleVoteSlip renders the vote receipt QR code. Only the voter who cast
// the vote, or an admin, may fetch it.
func (h *Handlers) handleVoteSlip(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	vote, err := h.Voting.GetVote(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if !h.actingUser(w, r, vote.VoterID) {
		return
	}

	png, err := h.Voting.VoteSlip(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *Handlers) handleDemographics(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	dist, err := h.Voting.AgeDistribution(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, DemographicsResponse{AgeDistribution: dist})
}

func (h *Handlers) handleVoterStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	stats, err := h.Voting.VoterStats(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, stats)
}

func (h *Handlers) handleResults(w http.ResponseWriter, r *http.Request) {
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
	tally, err := h.Voting.Results(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, ResultsResponse{ElectionID: e.ID, Phase: e.CurrentPhase, Results: tally})
}
