package services

import (
	"context"
	"io"

	"github.com/abrezinsky/evote/internal/models"
)

// WebSocket event types
const (
	EventElections    = "elections"
	EventPhaseChanged = "phase_changed"
	EventVoteCast     = "vote_cast"
	EventFeedback     = "feedback"
)

// Broadcaster defines the interface for broadcasting messages to clients
type Broadcaster interface {
	BroadcastMessage(msgType string, payload interface{})
}

// FileStore saves uploaded files under names relative to its root
type FileStore interface {
	Save(name string, r io.Reader) (string, error)
	// Remove deletes name. A missing file is not an error.
	Remove(name string) error
}

// Mailer sends a plain text message to one recipient
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// TokenIssuer signs session tokens
type TokenIssuer interface {
	IssueToken(userID, username string, admin bool) (string, error)
}

// Upload is a file received from a client
type Upload struct {
	Filename string
	Content  io.Reader
}

// ElectionServicer defines the interface for the election phase controller
type ElectionServicer interface {
	CreateElection(ctx context.Context, in ElectionInput) (*models.Election, error)
	GetElection(ctx context.Context, id string) (*models.Election, error)
	ListElections(ctx context.Context) ([]models.Election, error)
	ListElectionsByPhase(ctx context.Context, phase string) ([]models.Election, error)
	DeleteElection(ctx context.Context, id string) error
	SetPhase(ctx context.Context, id string, upd PhaseUpdate) (*models.Election, error)
	SetBroadcaster(b Broadcaster)
}

// VotingServicer defines the interface for vote ledger operations
type VotingServicer interface {
	CastVote(ctx context.Context, in CastVoteInput) (*VoteReceipt, error)
	CountVotes(ctx context.Context, electionID string) (int, error)
	AgeDistribution(ctx context.Context, electionID string) (map[string]int, error)
	VoterStats(ctx context.Context, electionID string) (*VoterStats, error)
	Results(ctx context.Context, electionID string) ([]models.CandidateTally, error)
	VerifyVote(ctx context.Context, voterID, electionID string) (*VoteVerification, error)
	GetVote(ctx context.Context, voteID string) (*models.Vote, error)
	VoteSlip(ctx context.Context, voteID string) ([]byte, error)
	SetBroadcaster(b Broadcaster)
}

// FeedbackServicer defines the interface for feedback ledger operations
type FeedbackServicer interface {
	SubmitFeedback(ctx context.Context, in FeedbackInput) (*FeedbackResult, error)
	CandidateFeedbackStats(ctx context.Context, candidateID string) (*FeedbackStats, error)
	LedgerCounts(ctx context.Context, candidateID string) (likes, dislikes int, err error)
	UserFeedback(ctx context.Context, userID, electionID string) ([]models.FeedbackWithCandidate, error)
	SetBroadcaster(b Broadcaster)
}

// UserServicer defines the interface for voter account operations
type UserServicer interface {
	Register(ctx context.Context, in UserInput, avatar *Upload) (*RegisterResult, error)
	Login(ctx context.Context, username, fatherName string) (*LoginResult, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, in UserInput, avatar *Upload) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	ImportUsers(ctx context.Context, filename string, data []byte) (*ImportReport, error)
	SendVotingMail(ctx context.Context, userID string) error
}

// CandidateServicer defines the interface for candidate operations
type CandidateServicer interface {
	CreateCandidate(ctx context.Context, in CandidateInput, images CandidateImages) (*models.Candidate, error)
	ListCandidates(ctx context.Context) ([]models.Candidate, error)
	GetCandidate(ctx context.Context, id string) (*models.Candidate, error)
	GetCandidateByUsername(ctx context.Context, username string) (*models.Candidate, error)
	UpdateCandidate(ctx context.Context, id string, in CandidateInput, images CandidateImages) (*models.Candidate, error)
	DeleteCandidate(ctx context.Context, id string) error
	ImportCandidates(ctx context.Context, data []byte) (*ImportReport, error)
}

// IdentityServicer defines the interface for face-recognition login
type IdentityServicer interface {
	FaceLogin(ctx context.Context) (*FaceLoginResult, error)
}

// Ensure concrete types implement interfaces
var (
	_ ElectionServicer  = (*ElectionService)(nil)
	_ VotingServicer    = (*VotingService)(nil)
	_ FeedbackServicer  = (*FeedbackService)(nil)
	_ UserServicer      = (*UserService)(nil)
	_ CandidateServicer = (*CandidateService)(nil)
	_ IdentityServicer  = (*IdentityService)(nil)
)
