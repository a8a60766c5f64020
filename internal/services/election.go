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

// PhasePolicy selects how election phase changes are validated
type PhasePolicy int

const (
	// PhasePolicyStrict only allows init -> voting -> result, plus edits that
	// keep the phase unchanged.
	PhasePolicyStrict PhasePolicy = iota
	// PhasePolicyPermissive stores any phase string and allows any transition.
	PhasePolicyPermissive
)

func (p PhasePolicy) String() string {
	if p == PhasePolicyPermissive {
		return "permissive"
	}
	return "strict"
}

var nextPhase = map[string]string{
	models.PhaseInit:   models.PhaseVoting,
	models.PhaseVoting: models.PhaseResult,
}

// IsKnownPhase reports whether phase is one of init, voting or result
func IsKnownPhase(phase string) bool {
	switch phase {
	case models.PhaseInit, models.PhaseVoting, models.PhaseResult:
		return true
	}
	return false
}

// ElectionInput holds the fields for creating an election
type ElectionInput struct {
	Name       string
	Candidates []string
	Location   string
}

// PhaseUpdate is a phase change request. Nil Name or Candidates leave the
// stored values unchanged.
type PhaseUpdate struct {
	Phase      string
	Name       *string
	Candidates []string
}

// ElectionService is the election phase controller
type ElectionService struct {
	log         logger.Logger
	repo        repository.ElectionRepository
	policy      PhasePolicy
	broadcaster Broadcaster
}

// NewElectionService creates a new ElectionService
func NewElectionService(log logger.Logger, repo repository.ElectionRepository, policy PhasePolicy) *ElectionService {
	return &ElectionService{log: log, repo: repo, policy: policy}
}

// SetBroadcaster sets the broadcaster for sending updates to clients
func (s *ElectionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Policy returns the configured phase policy
func (s *ElectionService) Policy() PhasePolicy {
	return s.policy
}

// CreateElection registers a new election in the init phase
func (s *ElectionService) CreateElection(ctx context.Context, in ElectionInput) (*models.Election, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.Validation("Election name is required")
	}

	e := &models.Election{
		ID:           uuid.NewString(),
		Name:         name,
		Candidates:   dedupe(in.Candidates),
		Location:     strings.TrimSpace(in.Location),
		CurrentPhase: models.PhaseInit,
	}
	if err := s.repo.CreateElection(ctx, e); err != nil {
		return nil, fromRepo(err, MsgElectionNotFound, MsgElectionExists)
	}

	s.log.Info("Election created", "election_id", e.ID, "name", e.Name, "candidates", len(e.Candidates))
	return e, nil
}

// GetElection returns one election
func (s *ElectionService) GetElection(ctx context.Context, id string) (*models.Election, error) {
	e, err := s.repo.GetElection(ctx, id)
	if err != nil {
		return nil, fromRepo(err, MsgElectionNotFound, "")
	}
	return e, nil
}

// ListElections returns every election
func (s *ElectionService) ListElections(ctx context.Context) ([]models.Election, error) {
	elections, err := s.repo.ListElections(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return elections, nil
}

// ListElectionsByPhase returns the elections currently in phase
func (s *ElectionService) ListElectionsByPhase(ctx context.Context, phase string) ([]models.Election, error) {
	elections, err := s.repo.ListElectionsByPhase(ctx, phase)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return elections, nil
}

// DeleteElection removes an election. Its votes and feedback stay behind.
func (s *ElectionService) DeleteElection(ctx context.Context, id string) error {
	if err := s.repo.DeleteElection(ctx, id); err != nil {
		return fromRepo(err, MsgElectionNotFound, "")
	}
	s.log.Info("Election deleted", "election_id", id)
	return nil
}

// SetPhase moves an election to a new phase, optionally renaming it or
// replacing its candidate list in the same write.
func (s *ElectionService) SetPhase(ctx context.Context, id string, upd PhaseUpdate) (*models.Election, error) {
	phase := strings.TrimSpace(upd.Phase)
	if phase == "" {
		return nil, errors.Validation("Phase is required")
	}
	if s.policy == PhasePolicyStrict && !IsKnownPhase(phase) {
		return nil, errors.Validationf("Unknown phase %q: must be one of init, voting, result", phase)
	}

	e, err := s.repo.GetElection(ctx, id)
	if err != nil {
		return nil, fromRepo(err, MsgElectionNotFound, "")
	}

	if s.policy == PhasePolicyStrict && !CanTransition(e.CurrentPhase, phase) {
		return nil, errors.InvalidTransition(e.CurrentPhase, phase)
	}

	prev := *e
	from := e.CurrentPhase
	e.CurrentPhase = phase
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, errors.Validation("Election name cannot be empty")
		}
		e.Name = name
	}
	if upd.Candidates != nil {
		e.Candidates = dedupe(upd.Candidates)
	}

	if err := s.repo.UpdateElection(ctx, e, &prev); err != nil {
		if stderrors.Is(err, repository.ErrStale) {
			return nil, s.staleUpdate(ctx, id, phase)
		}
		return nil, fromRepo(err, MsgElectionNotFound, MsgElectionExists)
	}

	s.log.Info("Election phase changed", "election_id", e.ID, "from", from, "to", phase, "policy", s.policy)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMessage(EventPhaseChanged, map[string]interface{}{
			"electionId": e.ID,
			"phase":      e.CurrentPhase,
		})
	}
	return e, nil
}

// staleUpdate explains why a phase update lost a race with another request
func (s *ElectionService) staleUpdate(ctx context.Context, id, phase string) error {
	current, err := s.repo.GetElection(ctx, id)
	if err != nil {
		return fromRepo(err, MsgElectionNotFound, "")
	}
	if s.policy == PhasePolicyStrict && !CanTransition(current.CurrentPhase, phase) {
		return errors.InvalidTransition(current.CurrentPhase, phase)
	}
	return errors.Conflictf("Election phase changed to %q by another request, please retry", current.CurrentPhase)
}

// CanTransition reports whether the strict policy allows from -> to.
// An election left in an unrecognised phase may only be reset to init.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	if !IsKnownPhase(from) {
		return to == models.PhaseInit
	}
	return nextPhase[from] == to
}

// dedupe drops empty and repeated ids, keeping first-seen order
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
