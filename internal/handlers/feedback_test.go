package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/abrezinsky/evote/internal/handlers"
	"github.com/abrezinsky/evote/internal/models"
	"github.com/abrezinsky/evote/internal/services"
)

func feedbackBody(userID, candidateID string) map[string]string {
	return map[string]string{"candidateId": candidateID, "userId": userID, "electionId": "e1"}
}

func TestHandleFeedback_Like(t *testing.T) {
	setup := newTestSetup(t)
	setup.seedBallot(t, models.PhaseVoting)

	rec := setup.do(t, http.MethodPost, "/api/feedback/like", setup.userToken(t, "u1"), feedbackBody("u1", "c1"))
	expectStatus(t, rec, http.StatusOK)

	var resp handlers.FeedbackResponse
	decodeBody(t, rec, &resp)
	if !resp.Success || resp.Message != "Like added successfully" || resp.CandidateName != "Asha Sharma" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Likes == nil || *resp.Likes != 1 {
		t.Errorf("expected likes 1, got %v", resp.Likes)
	}
	if resp.Dislikes != nil {
		t.Error("dislikes should be omitted for a like")
	}
}

func TestHandleFeedback_Dislike(t *testing.T) {
	setup := newTestSetup(t)
	setup.seedBallot(t, models.PhaseVoting)

	rec := setup.do(t, http.MethodPost, "/api/feedback/dislike", setup.userToken(t, "u2"), feedbackBody("u2", "c2"))
	expectStatus(t, rec, http.StatusOK)

	var raw map[string]interface{}
	decodeBody(t, rec, &raw)
	if raw["message"] != "Dislike added successfully" {
		t.Errorf("unexpected message %v", raw["message"])
	}
	if raw["dislikes"] != float64(1) {
		t.Errorf("expected dislikes 1, got %v", raw["dislikes"])
	}
	if _, ok := raw["likes"]; ok {
		t.Error("likes should be omitted for a dislike")
	}
}

func TestHandleFeedback_Duplicate(t *testing.T) {
	setup := newTestSetup(t)
	setup.seedBallot(t, models.PhaseVoting)
	token := setup.userToken(t, "u1")

	expectStatus(t, setup.do(t, http.MethodPost, "/api/feedback/like", token, feedbackBody("u1", "c1")), http.StatusOK)

	rec := setup.do(t, http.MethodPost, "/api/feedback/dislike", token, feedbackBody("u1", "c1"))
	apiErr := expectError(t, rec, http.StatusBadRequest, handlers.ErrCodeDuplicate)
	if !strings.Contains(apiErr.Message, "already given like feedback") {
		t.Errorf("unexpected message %q", apiErr.Message)
	}

	// counters did not move
	rec = setup.do(t, http.MethodGet, "/api/feedback/stats/c1", "", nil)
	expectStatus(t, rec, http.StatusOK)
	var stats handlers.FeedbackStatsResponse
	decodeBody(t, rec, &stats)
	if stats.Data.Likes != 1 || stats.Data.Dislikes != 0 {
		t.Errorf("unexpected counters %+v", stats.Data)
	}
}

func TestHandleFeedback_Errors(t *testing.T) {
	setup := newTestSetup(t)
	setup.seedBallot(t, models.PhaseVoting)
	token := setup.userToken(t, "u1")

	rec := setup.do(t, http.MethodPost, "/api/feedback/like", token, feedbackBody("u1", "missing"))
	expectError(t, rec, http.StatusNotFound, handlers.ErrCodeNotFound)

	rec = setup.do(t, http.MethodPost, "/api/feedback/like", token, feedbackBody("u2", "c1"))
	expectError(t, rec, http.StatusForbidden, handlers.ErrCodeForbidden)

	rec = setup.do(t, http.MethodPost, "/api/feedback/like", token, map[string]string{"userId": "u1"})
	expectError(t, rec, http.StatusBadRequest, handlers.ErrCodeValidation)

	rec = setup.do(t, http.MethodPost, "/api/feedback/like", "", feedbackBody("u1", "c1"))
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestHandleFeedbackStats_NotFound(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodGet, "/api/feedback/stats/missing", "", nil)
	apiErr := expectError(t, rec, http.StatusNotFound, handlers.ErrCodeNotFound)
	if apiErr.Message != services.MsgCandidateNotFound {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

func TestHandleUserFeedback(t *testing.T) {
	setup := newTestSetup(t)
	setup.seedBallot(t, models.PhaseVoting)
	token := setup.userToken(t, "u1")

	expectStatus(t, setup.do(t, http.MethodPost, "/api/feedback/like", token, feedbackBody("u1", "c1")), http.StatusOK)
	expectStatus(t, setup.do(t, http.MethodPost, "/api/feedback/dislike", token, feedbackBody("u1", "c2")), http.StatusOK)

	rec := setup.do(t, http.MethodGet, "/api/feedback/user/u1/election/e1", token, nil)
	expectStatus(t, rec, http.StatusOK)
	var resp handlers.UserFeedbackResponse
	decodeBody(t, rec, &resp)
	if len(resp.Data) != 2 {
		t.Fatalf("expected 2 feedback rows, got %d", len(resp.Data))
	}

	rec = setup.do(t, http.MethodGet, "/api/feedback/user/u2/election/e1", setup.userToken(t, "u2"), nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("expected empty data array, got %s", rec.Body.String())
	}

	rec = setup.do(t, http.MethodGet, "/api/feedback/user/u1/election/e1", setup.userToken(t, "u2"), nil)
	expectError(t, rec, http.StatusForbidden, handlers.ErrCodeForbidden)
}
