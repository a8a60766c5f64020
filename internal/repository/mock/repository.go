package mock

import (
	"context"

	"github.com/abrezinsky/evote/internal/models"
	"github.com/abrezinsky/evote/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
// This provides a flexible way to test error paths without complex database manipulation.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.InsertVoteError = errors.New("database error")
//	svc := services.NewVotingService(log, mockRepo, services.PhasePolicyPermissive)
//	_, err := svc.CastVote(ctx, services.CastVoteInput{...})
//	// err will now wrap the injected error
type Repository struct {
	repository.FullRepository

	// ===== Election Errors =====
	CreateElectionError       error
	GetElectionError          error
	ListElectionsError        error
	ListElectionsByPhaseError error
	UpdateElectionError       error
	DeleteElectionError       error

	// ===== User Errors =====
	CreateUserError         error
	GetUserError            error
	GetUserByUsernameError  error
	ListUsersError          error
	UserConflictExistsError error
	UpdateUserError         error
	DeleteUserError         error
	CountUsersError         error

	// ===== Candidate Errors =====
	CreateCandidateError error
	GetCandidateError    error
	ListCandidatesError  error
	UpdateCandidateError error
	DeleteCandidateError error

	// ===== Vote Errors =====
	InsertVoteError      error
	GetVoteError         error
	FindVoteError        error
	CountVotesError      error
	CountVotesByAgeError error
	TallyVotesError      error

	// ===== Feedback Errors =====
	AddFeedbackError      error
	ImportFeedbackError   error
	GetFeedbackError      error
	CountFeedbackError    error
	ListUserFeedbackError error

	PingError error
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ===== Election Methods =====

func (m *Repository) CreateElection(ctx context.Context, e *models.Election) error {
	if m.CreateElectionError != nil {
		return m.CreateElectionError
	}
	return m.FullRepository.CreateElection(ctx, e)
}

func (m *Repository) GetElection(ctx context.Context, id string) (*models.Election, error) {
	if m.GetElectionError != nil {
		return nil, m.GetElectionError
	}
	return m.FullRepository.GetElection(ctx, id)
}

func (m *Repository) ListElections(ctx context.Context) ([]models.Election, error) {
	if m.ListElectionsError != nil {
		return nil, m.ListElectionsError
	}
	return m.FullRepository.ListElections(ctx)
}

func (m *Repository) ListElectionsByPhase(ctx context.Context, phase string) ([]models.Election, error) {
	if m.ListElectionsByPhaseError != nil {
		return nil, m.ListElectionsByPhaseError
	}
	return m.FullRepository.ListElectionsByPhase(ctx, phase)
}

func (m *Repository) UpdateElection(ctx context.Context, e, prev *models.Election) error {
	if m.UpdateElectionError != nil {
		return m.UpdateElectionError
	}
	return m.FullRepository.UpdateElection(ctx, e, prev)
}

func (m *Repository) DeleteElection(ctx context.Context, id string) error {
	if m.DeleteElectionError != nil {
		return m.DeleteElectionError
	}
	return m.FullRepository.DeleteElection(ctx, id)
}

// ===== User Methods =====

func (m *Repository) CreateUser(ctx context.Context, u *models.User) error {
	if m.CreateUserError != nil {
		return m.CreateUserError
	}
	return m.FullRepository.CreateUser(ctx, u)
}

func (m *Repository) GetUser(ctx context.Context, id string) (*models.User, error) {
	if m.GetUserError != nil {
		return nil, m.GetUserError
	}
	return m.FullRepository.GetUser(ctx, id)
}

func (m *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetUserByUsernameError != nil {
		return nil, m.GetUserByUsernameError
	}
	return m.FullRepository.GetUserByUsername(ctx, username)
}

func (m *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	if m.ListUsersError != nil {
		return nil, m.ListUsersError
	}
	return m.FullRepository.ListUsers(ctx)
}

func (m *Repository) UserConflictExists(ctx context.Context, username, email, mobile, voterID, excludeID string) (bool, error) {
	if m.UserConflictExistsError != nil {
		return false, m.UserConflictExistsError
	}
	return m.FullRepository.UserConflictExists(ctx, username, email, mobile, voterID, excludeID)
}

func (m *Repository) UpdateUser(ctx context.Context, u *models.User) error {
	if m.UpdateUserError != nil {
		return m.UpdateUserError
	}
	return m.FullRepository.UpdateUser(ctx, u)
}

func (m *Repository) DeleteUser(ctx context.Context, id string) error {
	if m.DeleteUserError != nil {
		return m.DeleteUserError
	}
	return m.FullRepository.DeleteUser(ctx, id)
}

func (m *Repository) CountUsers(ctx context.Context) (int, error) {
	if m.CountUsersError != nil {
		return 0, m.CountUsersError
	}
	return m.FullRepository.CountUsers(ctx)
}

// ===== Candidate Methods =====

func (m *Repository) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	if m.CreateCandidateError != nil {
		return m.CreateCandidateError
	}
	return m.FullRepository.CreateCandidate(ctx, c)
}

func (m *Repository) GetCandidate(ctx context.Context, id string) (*models.Candidate, error) {
	if m.GetCandidateError != nil {
		return nil, m.GetCandidateError
	}
	return m.FullRepository.GetCandidate(ctx, id)
}

func (m *Repository) ListCandidates(ctx context.Context) ([]models.Candidate, error) {
	if m.ListCandidatesError != nil {
		return nil, m.ListCandidatesError
	}
	return m.FullRepository.ListCandidates(ctx)
}

func (m *Repository) UpdateCandidate(ctx context.Context, c *models.Candidate) error {
	if m.UpdateCandidateError != nil {
		return m.UpdateCandidateError
	}
	return m.FullRepository.UpdateCandidate(ctx, c)
}

func (m *Repository) DeleteCandidate(ctx context.Context, id string) error {
	if m.DeleteCandidateError != nil {
		return m.DeleteCandidateError
	}
	return m.FullRepository.DeleteCandidate(ctx, id)
}

// ===== Vote Methods =====

func (m *Repository) InsertVote(ctx context.Context, v *models.Vote) error {
	if m.InsertVoteError != nil {
		return m.InsertVoteError
	}
	return m.FullRepository.InsertVote(ctx, v)
}

func (m *Repository) GetVote(ctx context.Context, id string) (*models.Vote, error) {
	if m.GetVoteError != nil {
		return nil, m.GetVoteError
	}
	return m.FullRepository.GetVote(ctx, id)
}

func (m *Repository) FindVote(ctx context.Context, voterID, electionID string) (*models.Vote, error) {
	if m.FindVoteError != nil {
		return nil, m.FindVoteError
	}
	return m.FullRepository.FindVote(ctx, voterID, electionID)
}

func (m *Repository) CountVotes(ctx context.Context, electionID string) (int, error) {
	if m.CountVotesError != nil {
		return 0, m.CountVotesError
	}
	return m.FullRepository.CountVotes(ctx, electionID)
}

func (m *Repository) CountVotesByAge(ctx context.Context, electionID string) (map[int]int, error) {
	if m.CountVotesByAgeError != nil {
		return nil, m.CountVotesByAgeError
	}
	return m.FullRepository.CountVotesByAge(ctx, electionID)
}

func (m *Repository) TallyVotes(ctx context.Context, electionID string) ([]models.CandidateTally, error) {
	if m.TallyVotesError != nil {
		return nil, m.TallyVotesError
	}
	return m.FullRepository.TallyVotes(ctx, electionID)
}

// ===== Feedback Methods =====

func (m *Repository) AddFeedback(ctx context.Context, f *models.Feedback) (int, int, error) {
	if m.AddFeedbackError != nil {
		return 0, 0, m.AddFeedbackError
	}
	return m.FullRepository.AddFeedback(ctx, f)
}

func (m *Repository) ImportFeedback(ctx context.Context, f *models.Feedback) error {
	if m.ImportFeedbackError != nil {
		return m.ImportFeedbackError
	}
	return m.FullRepository.ImportFeedback(ctx, f)
}

func (m *Repository) GetFeedback(ctx context.Context, candidateID, userID, electionID string) (*models.Feedback, error) {
	if m.GetFeedbackError != nil {
		return nil, m.GetFeedbackError
	}
	return m.FullRepository.GetFeedback(ctx, candidateID, userID, electionID)
}

func (m *Repository) CountFeedback(ctx context.Context, candidateID string) (int, int, error) {
	if m.CountFeedbackError != nil {
		return 0, 0, m.CountFeedbackError
	}
	return m.FullRepository.CountFeedback(ctx, candidateID)
}

func (m *Repository) ListUserFeedback(ctx context.Context, userID, electionID string) ([]models.FeedbackWithCandidate, error) {
	if m.ListUserFeedbackError != nil {
		return nil, m.ListUserFeedbackError
	}
	return m.FullRepository.ListUserFeedback(ctx, userID, electionID)
}

func (m *Repository) Ping(ctx context.Context) error {
	if m.PingError != nil {
		return m.PingError
	}
	return m.FullRepository.Ping(ctx)
}

var _ repository.FullRepository = (*Repository)(nil)
