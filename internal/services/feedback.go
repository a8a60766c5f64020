package services

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/google/uuid"

	"github.com/abrezinsky/evote/internal/errors"
	"github.com/abrezinsky/evote/internal/logger"
	"github.com/abrezinsky/evote/internal/models"
	"github.com/abrezinsky/evote/internal/repository"
)

// FeedbackServiceRepository defines the repository methods needed by FeedbackService
type FeedbackServiceRepository interface {
	repository.FeedbackRepository
	GetCandidate(ctx context.Context, id string) (*models.Candidate, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetElection(ctx context.Context, id string) (*models.Election, error)
}

// FeedbackService is the like/dislike ledger
type FeedbackService struct {
	log         logger.Logger
	repo        FeedbackServiceRepository
	broadcaster Broadcaster
}

// NewFeedbackService creates a new FeedbackService
func NewFeedbackService(log logger.Logger, repo FeedbackServiceRepository) *FeedbackService {
	return &FeedbackService{log: log, repo: repo}
}

// SetBroadcaster sets the broadcaster for sending updates to clients
func (s *FeedbackService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// FeedbackInput identifies one like or dislike
type FeedbackInput struct {
	CandidateID  string `json:"candidateId"`
	UserID       string `json:"userId"`
	ElectionID   string `json:"electionId"`
	FeedbackType string `json:"feedbackType"`
}

// FeedbackResult carries the candidate's counters after a submission
type FeedbackResult struct {
	FeedbackID    string `json:"feedbackId"`
	FeedbackType  string `json:"feedbackType"`
	Likes         int    `json:"likes"`
	Dislikes      int    `json:"dislikes"`
	CandidateName string `json:"candidateName"`
}

// NewCount returns the counter matching the submitted type
func (r *FeedbackResult) NewCount() int {
	if r.FeedbackType == models.FeedbackDislike {
		return r.Dislikes
	}
	return r.Likes
}

// FeedbackStats are a candidate's denormalized counters
type FeedbackStats struct {
	CandidateID   string `json:"candidateId"`
	CandidateName string `json:"candidateName"`
	Likes         int    `json:"likes"`
	Dislikes      int    `json:"dislikes"`
	TotalFeedback int    `json:"totalFeedback"`
}

// SubmitFeedback stores a like or dislike and bumps the matching counter in
// the same transaction. One submission per (candidate, user, election).
func (s *FeedbackService) SubmitFeedback(ctx context.Context, in FeedbackInput) (*FeedbackResult, error) {
	in.CandidateID = strings.TrimSpace(in.CandidateID)
	in.UserID = strings.TrimSpace(in.UserID)
	in.ElectionID = strings.TrimSpace(in.ElectionID)

	switch {
	case in.CandidateID == "":
		return nil, errors.Validation("Valid candidate ID is required")
	case in.UserID == "":
		return nil, errors.Validation("Valid user ID is required")
	case in.ElectionID == "":
		return nil, errors.Validation("Valid election ID is required")
	}
	if in.FeedbackType != models.FeedbackLike && in.FeedbackType != models.FeedbackDislike {
		return nil, errors.Validation("Feedback type must be like or dislike")
	}

	candidate, err := s.repo.GetCandidate(ctx, in.CandidateID)
	if err != nil {
		return nil, fromRepo(err, MsgCandidateNotFound, "")
	}
	if _, err := s.repo.GetUser(ctx, in.UserID); err != nil {
		return nil, fromRepo(err, MsgUserNotFound, "")
	}
	if _, err := s.repo.GetElection(ctx, in.ElectionID); err != nil {
		return nil, fromRepo(err, MsgElectionNotFound, "")
	}

	f := &models.Feedback{
		ID:           uuid.NewString(),
		CandidateID:  in.CandidateID,
		UserID:       in.UserID,
		ElectionID:   in.ElectionID,
		FeedbackType: in.FeedbackType,
	}
	likes, dislikes, err := s.repo.AddFeedback(ctx, f)
	switch {
	case stderrors.Is(err, repository.ErrDuplicate):
		return nil, s.duplicateError(ctx, in)
	case stderrors.Is(err, repository.ErrNotFound):
		return nil, errors.NotFound(MsgCandidateNotFound)
	case err != nil:
		return nil, errors.Internal(err)
	}

	s.log.Info("Feedback recorded", "candidate_id", f.CandidateID, "election_id", f.ElectionID, "type", f.FeedbackType)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMessage(EventFeedback, map[string]interface{}{
			"candidateId": f.CandidateID,
			"likes":       likes,
			"dislikes":    dislikes,
		})
	}

	return &FeedbackResult{
		FeedbackID:    f.ID,
		FeedbackType:  f.FeedbackType,
		Likes:         likes,
		Dislikes:      dislikes,
		CandidateName: strings.TrimSpace(candidate.FullName()),
	}, nil
}

// duplicateError names the feedback type already stored for the triple
func (s *FeedbackService) duplicateError(ctx context.Context, in FeedbackInput) error {
	stored := in.FeedbackType
	if existing, err := s.repo.GetFeedback(ctx, in.CandidateID, in.UserID, in.ElectionID); err == nil {
		stored = existing.FeedbackType
	}
	return errors.Duplicatef("You have already given %s feedback for this candidate in this election", stored)
}

// CandidateFeedbackStats returns the candidate's counters
func (s *FeedbackService) CandidateFeedbackStats(ctx context.Context, candidateID string) (*FeedbackStats, error) {
	c, err := s.repo.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, fromRepo(err, MsgCandidateNotFound, "")
	}
	return &FeedbackStats{
		CandidateID:   c.ID,
		CandidateName: strings.TrimSpace(c.FullName()),
		Likes:         c.Likes,
		Dislikes:      c.Dislikes,
		TotalFeedback: c.Likes + c.Dislikes,
	}, nil
}

// LedgerCounts counts the candidate's feedback rows directly. In a consistent
// store these match the counters returned by CandidateFeedbackStats.
func (s *FeedbackService) LedgerCounts(ctx context.Context, candidateID string) (likes, dislikes int, err error) {
	likes, dislikes, err = s.repo.CountFeedback(ctx, candidateID)
	if err != nil {
		return 0, 0, errors.Internal(err)
	}
	return likes, dislikes, nil
}

// UserFeedback lists a user's feedback in an election
func (s *FeedbackService) UserFeedback(ctx context.Context, userID, electionID string) ([]models.FeedbackWithCandidate, error) {
	list, err := s.repo.ListUserFeedback(ctx, userID, electionID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return list, nil
}
