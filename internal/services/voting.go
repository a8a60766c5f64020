package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/abrezinsky/evote/internal/errors"
	"github.com/abrezinsky/evote/internal/logger"
	"github.com/abrezinsky/evote/internal/models"
	"github.com/abrezinsky/evote/internal/repository"
)

// MinVoterAge is the youngest age allowed to cast a vote
const MinVoterAge = 18

// Age bucket labels, in display order
var AgeBuckets = []string{"18-25", "26-35", "36-45", "46-55", "56+"}

// VotingServiceRepository defines the repository methods needed by VotingService
type VotingServiceRepository interface {
	repository.VoteRepository
	repository.ElectionRepository
	GetUser(ctx context.Context, id string) (*models.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// VotingService is the vote ledger
type VotingService struct {
	log         logger.Logger
	repo        VotingServiceRepository
	policy      PhasePolicy
	broadcaster Broadcaster
	now         func() time.Time
}

// NewVotingService creates a new VotingService
func NewVotingService(log logger.Logger, repo VotingServiceRepository, policy PhasePolicy) *VotingService {
	return &VotingService{
		log:    log,
		repo:   repo,
		policy: policy,
		now:    time.Now,
	}
}

// SetBroadcaster sets the broadcaster for sending updates to clients
func (s *VotingService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetClock replaces the clock used for age calculation (for testing)
func (s *VotingService) SetClock(now func() time.Time) {
	s.now = now
}

// CastVoteInput identifies a single ballot
type CastVoteInput struct {
	ElectionID  string `json:"electionId"`
	VoterID     string `json:"voterId"`
	CandidateID string `json:"candidateId"`
}

// VoteReceipt is returned to the voter after a successful vote
type VoteReceipt struct {
	VoteID      string    `json:"id"`
	ElectionID  string    `json:"electionId"`
	CandidateID string    `json:"candidateId"`
	VoterAge    int       `json:"voterAge"`
	Timestamp   time.Time `json:"timestamp"`
}

// VoterStats summarises turnout for an election
type VoterStats struct {
	TotalRegisteredVoters int `json:"totalRegisteredVoters"`
	TotalVotesCast        int `json:"totalVotesCast"`
}

// VoteVerification reports whether a voter has voted in an election
type VoteVerification struct {
	VoteFound bool         `json:"voteFound"`
	Vote      *models.Vote `json:"vote"`
}

// CastVote records one vote. The store's unique (election, voter) index is
// the only guard against double voting, so racing calls store one row.
func (s *VotingService) CastVote(ctx context.Context, in CastVoteInput) (*VoteReceipt, error) {
	in.ElectionID = strings.TrimSpace(in.ElectionID)
	in.VoterID = strings.TrimSpace(in.VoterID)
	in.CandidateID = strings.TrimSpace(in.CandidateID)
	if in.ElectionID == "" || in.VoterID == "" || in.CandidateID == "" {
		return nil, errors.Validation(MsgInvalidIDs)
	}

	if s.policy == PhasePolicyStrict {
		if err := s.checkBallot(ctx, in); err != nil {
			return nil, err
		}
	}

	voter, err := s.repo.GetUser(ctx, in.VoterID)
	if err != nil && !stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.Internal(err)
	}
	if voter == nil || voter.DOB == nil || voter.DOB.IsZero() {
		return nil, errors.Validation(MsgVoterIncomplete)
	}

	now := s.now()
	age := AgeOn(*voter.DOB, now)
	if age < MinVoterAge {
		return nil, errors.Validation(MsgVoterUnderage)
	}

	vote := &models.Vote{
		ID:          uuid.NewString(),
		ElectionID:  in.ElectionID,
		VoterID:     in.VoterID,
		CandidateID: in.CandidateID,
		VoterAge:    age,
		Timestamp:   now.UTC(),
	}
	if err := s.repo.InsertVote(ctx, vote); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			s.log.Warn("Duplicate vote rejected", "election_id", in.ElectionID, "voter_id", in.VoterID)
			return nil, errors.Duplicate(MsgAlreadyVoted)
		}
		return nil, errors.Internal(err)
	}

	s.log.Info("Vote cast", "vote_id", vote.ID, "election_id", vote.ElectionID, "voter_age", age)
	s.broadcastTotal(ctx, vote.ElectionID)

	return &VoteReceipt{
		VoteID:      vote.ID,
		ElectionID:  vote.ElectionID,
		CandidateID: vote.CandidateID,
		VoterAge:    vote.VoterAge,
		Timestamp:   vote.Timestamp,
	}, nil
}

func (s *VotingService) checkBallot(ctx context.Context, in CastVoteInput) error {
	e, err := s.repo.GetElection(ctx, in.ElectionID)
	if err != nil {
		return fromRepo(err, MsgElectionNotFound, "")
	}
	if e.CurrentPhase != models.PhaseVoting {
		return errors.Validation(MsgElectionNotVoting)
	}
	if !e.HasCandidate(in.CandidateID) {
		return errors.Validation(MsgCandidateNotOnVote)
	}
	return nil
}

func (s *VotingService) broadcastTotal(ctx context.Context, electionID string) {
	if s.broadcaster == nil {
		return
	}
	total, err := s.repo.CountVotes(ctx, electionID)
	if err != nil {
		s.log.Warn("Failed to count votes for broadcast", "election_id", electionID, "error", err)
		return
	}
	s.broadcaster.BroadcastMessage(EventVoteCast, map[string]interface{}{
		"electionId": electionID,
		"totalVotes": total,
	})
}

// AgeOn returns the number of whole years between dob and now. A birthday
// later in the year than now has not been reached yet.
func AgeOn(dob, now time.Time) int {
	dob = dob.UTC()
	now = now.UTC()
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// AgeBucket returns the label for age, or "" when it is below the voting age
func AgeBucket(age int) string {
	switch {
	case age < MinVoterAge:
		return ""
	case age <= 25:
		return "18-25"
	case age <= 35:
		return "26-35"
	case age <= 45:
		return "36-45"
	case age <= 55:
		return "46-55"
	default:
		return "56+"
	}
}

// CountVotes returns the number of votes cast in an election
func (s *VotingService) CountVotes(ctx context.Context, electionID string) (int, error) {
	n, err := s.repo.CountVotes(ctx, electionID)
	if err != nil {
		return 0, errors.Internal(err)
	}
	return n, nil
}

// AgeDistribution buckets the stored voter ages of an election. Every bucket
// is present even when empty.
func (s *VotingService) AgeDistribution(ctx context.Context, electionID string) (map[string]int, error) {
	counts, err := s.repo.CountVotesByAge(ctx, electionID)
	if err != nil {
		return nil, errors.Internal(err)
	}

	dist := make(map[string]int, len(AgeBuckets))
	for _, b := range AgeBuckets {
		dist[b] = 0
	}
	for age, n := range counts {
		if b := AgeBucket(age); b != "" {
			dist[b] += n
		}
	}
	return dist, nil
}

// VoterStats returns registered voters against votes cast
func (s *VotingService) VoterStats(ctx context.Context, electionID string) (*VoterStats, error) {
	if _, err := s.repo.GetElection(ctx, electionID); err != nil {
		return nil, fromRepo(err, MsgElectionNotFound, "")
	}

	registered, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	cast, err := s.repo.CountVotes(ctx, electionID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return &VoterStats{TotalRegisteredVoters: registered, TotalVotesCast: cast}, nil
}

// Results returns the vote tally per candidate, highest first
func (s *VotingService) Results(ctx context.Context, electionID string) ([]models.CandidateTally, error) {
	if _, err := s.repo.GetElection(ctx, electionID); err != nil {
		return nil, fromRepo(err, MsgElectionNotFound, "")
	}
	tally, err := s.repo.TallyVotes(ctx, electionID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if tally == nil {
		tally = []models.CandidateTally{}
	}
	return tally, nil
}

// VerifyVote reports whether voterID has a vote in electionID
func (s *VotingService) VerifyVote(ctx context.Context, voterID, electionID string) (*VoteVerification, error) {
	if strings.TrimSpace(voterID) == "" || strings.TrimSpace(electionID) == "" {
		return nil, errors.Validation(MsgInvalidIDs)
	}
	v, err := s.repo.FindVote(ctx, voterID, electionID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return &VoteVerification{}, nil
	}
	if err != nil {
		return nil, errors.Internal(err)
	}
	return &VoteVerification{VoteFound: true, Vote: v}, nil
}

// GetVote returns a single vote
func (s *VotingService) GetVote(ctx context.Context, voteID string) (*models.Vote, error) {
	v, err := s.repo.GetVote(ctx, voteID)
	if err != nil {
		return nil, fromRepo(err, MsgVoteNotFound, "")
	}
	return v, nil
}

// SlipPayload is the text encoded in a vote slip QR code
func SlipPayload(v *models.Vote) string {
	return fmt.Sprintf("evote:%s:%s:%d", v.ID, v.ElectionID, v.Timestamp.Unix())
}

// VoteSlip renders the vote receipt as a QR code PNG
func (s *VotingService) VoteSlip(ctx context.Context, voteID string) ([]byte, error) {
	v, err := s.GetVote(ctx, voteID)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(SlipPayload(v), qrcode.Medium, 256)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return png, nil
}
