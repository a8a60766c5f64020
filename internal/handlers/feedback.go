package handlers

import (
	"net/http"

	"github.com/abrezinsky/evote/internal/models"
	"github.com/abrezinsky/evote/internal/services"
)

type feedbackRequest struct {
	CandidateID string `json:"candidateId"`
	UserID      string `json:"userId"`
	ElectionID  string `json:"electionId"`
}

// handleFeedback records a like or dislike, depending on the route
func (h *Handlers) handleFeedback(feedbackType string) http.HandlerFunc {
	message := "Like added successfully"
	if feedbackType == models.FeedbackDislike {
		message = "Dislike added successfully"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req feedbackRequest
		if err := h.decodeJSON(w, r, &req); err != nil {
			h.respondError(w, r, err)
			return
		}
		if req.UserID != "" && !h.actingUser(w, r, req.UserID) {
			return
		}

		res, err := h.Feedback.SubmitFeedback(r.Context(), services.FeedbackInput{
			CandidateID:  req.CandidateID,
			UserID:       req.UserID,
			ElectionID:   req.ElectionID,
			FeedbackType: feedbackType,
		})
		if err != nil {
			h.respondError(w, r, err)
			return
		}

		resp := FeedbackResponse{Success: true, Message: message, CandidateName: res.CandidateName}
		count := res.NewCount()
		if feedbackType == models.FeedbackDislike {
			resp.Dislikes = &count
		} else {
			resp.Likes = &count
		}
		respondOK(w, resp)
	}
}

func (h *Handlers) handleFeedbackStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "candidateId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	stats, err := h.Feedback.CandidateFeedbackStats(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, FeedbackStatsResponse{Success: true, Data: stats})
}

func (h *Handlers) handleUserFeedback(w http.ResponseWriter, r *http.Request) {
	userID, err := pathParam(r, "userId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	electionID, err := pathParam(r, "electionId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if !h.actingUser(w, r, userID) {
		return
	}

	list, err := h.Feedback.UserFeedback(r.Context(), userID, electionID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if list == nil {
		list = []models.FeedbackWithCandidate{}
	}
	respondOK(w, UserFeedbackResponse{Success: true, Data: list})
}
