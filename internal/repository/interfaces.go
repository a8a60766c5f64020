package repository

import (
	"context"

	"github.com/abrezinsky/evote/internal/models"
)

// ElectionRepository defines election data operations
type ElectionRepository interface {
	CreateElection(ctx context.Context, e *models.Election) error
	GetElection(ctx context.Context, id string) (*models.Election, error)
	ListElections(ctx context.Context) ([]models.Election, error)
	ListElectionsByPhase(ctx context.Context, phase string) ([]models.Election, error)
	UpdateElection(ctx context.Context, e, prev *models.Election) error
	DeleteElection(ctx context.Context, id string) error
}

// UserRepository defines voter data operations
type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UserConflictExists(ctx context.Context, username, email, mobile, voterID, excludeID string) (bool, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int, error)
}

// CandidateRepository defines candidate data operations
type CandidateRepository interface {
	CreateCandidate(ctx context.Context, c *models.Candidate) error
	GetCandidate(ctx context.Context, id string) (*models.Candidate, error)
	GetCandidateByUsername(ctx context.Context, username string) (*models.Candidate, error)
	ListCandidates(ctx context.Context) ([]models.Candidate, error)
	UpdateCandidate(ctx context.Context, c *models.Candidate) error
	DeleteCandidate(ctx context.Context, id string) error
}

// VoteRepository defines vote ledger operations
type VoteRepository interface {
	InsertVote(ctx context.Context, v *models.Vote) error
	GetVote(ctx context.Context, id string) (*models.Vote, error)
	FindVote(ctx context.Context, voterID, electionID string) (*models.Vote, error)
	CountVotes(ctx context.Context, electionID string) (int, error)
	CountVotesByAge(ctx context.Context, electionID string) (map[int]int, error)
	TallyVotes(ctx context.Context, electionID string) ([]models.CandidateTally, error)
}

// FeedbackRepository defines feedback ledger operations
type FeedbackRepository interface {
	AddFeedback(ctx context.Context, f *models.Feedback) (likes, dislikes int, err error)
	ImportFeedback(ctx context.Context, f *models.Feedback) error
	GetFeedback(ctx context.Context, candidateID, userID, electionID string) (*models.Feedback, error)
	CountFeedback(ctx context.Context, candidateID string) (likes, dislikes int, err error)
	ListUserFeedback(ctx context.Context, userID, electionID string) ([]models.FeedbackWithCandidate, error)
}

// HealthChecker reports whether the store is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	ElectionRepository
	UserRepository
	CandidateRepository
	VoteRepository
	FeedbackRepository
	HealthChecker
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
