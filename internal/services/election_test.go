package services_test

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/abrezinsky/evote/internal/errors"
	"github.com/abrezinsky/evote/internal/logger"
	"github.com/abrezinsky/evote/internal/models"
	"github.com/abrezinsky/evote/internal/repository"
	"github.com/abrezinsky/evote/internal/repository/mock"
	"github.com/abrezinsky/evote/internal/services"
	"github.com/abrezinsky/evote/internal/testutil"
)

func strPtr(s string) *string { return &s }

func setupElectionService(t *testing.T, policy services.PhasePolicy) (*services.ElectionService, *recordingBroadcaster) {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	svc := services.NewElectionService(logger.Discard(), repo, policy)
	b := &recordingBroadcaster{}
	svc.SetBroadcaster(b)
	return svc, b
}

func TestCreateElection(t *testing.T) {
	svc, _ := setupElectionService(t, services.PhasePolicyStrict)
	ctx := context.Background()

	e, err := svc.CreateElection(ctx, services.ElectionInput{
		Name:       "  City Council  ",
		Candidates: []string{"c1", "c2", "c1", " "},
		Location:   "Pune",
	})
	if err != nil {
		t.Fatalf("CreateElection failed: %v", err)
	}
	if e.Name != "City Council" {
		t.Errorf("expected trimmed name, got %q", e.Name)
	}
	if e.CurrentPhase != models.PhaseInit {
		t.Errorf("expected init phase, got %q", e.CurrentPhase)
	}
	if len(e.Candidates) != 2 || e.Candidates[0] != "c1" || e.Candidates[1] != "c2" {
		t.Errorf("expected deduplicated candidates, got %v", e.Candidates)
	}

	got, err := svc.GetElection(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetElection failed: %v", err)
	}
	if got.Name != "City Council" {
		t.Errorf("unexpected stored election %+v", got)
	}
}

func TestCreateElection_Validation(t *testing.T) {
	svc, _ := setupElectionService(t, services.PhasePolicyStrict)

	_, err := svc.CreateElection(context.Background(), services.ElectionInput{Name: "  "})
	if errors.KindOf(err) != errors.ErrValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreateElection_DuplicateName(t *testing.T) {
	svc, _ := setupElectionService(t, services.PhasePolicyStrict)
	ctx := context.Background()

	if _, err := svc.CreateElection(ctx, services.ElectionInput{Name: "Mayor"}); err != nil {
		t.Fatalf("CreateElection failed: %v", err)
	}
	_, err := svc.CreateElection(ctx, services.ElectionInput{Name: "Mayor"})
	if !stderrors.Is(err, errors.Duplicate(services.MsgElectionExists)) {
		t.Errorf("expected duplicate error, got %v", err)
	}
}

func TestGetElection_NotFound(t *testing.T) {
	svc, _ := setupElectionService(t, services.PhasePolicyStrict)

	_, err := svc.GetElection(context.Background(), "missing")
	if !stderrors.Is(err, errors.NotFound(services.MsgElectionNotFound)) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListElectionsByPhase(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewElectionService(logger.Discard(), repo, services.PhasePolicyStrict)
	seedElection(t, repo, "e1", "A", models.PhaseInit)
	seedElection(t, repo, "e2", "B", models.PhaseVoting)
	seedElection(t, repo, "e3", "C", models.PhaseVoting)

	voting, err := svc.ListElectionsByPhase(context.Background(), models.PhaseVoting)
	if err != nil {
		t.Fatalf("ListElectionsByPhase failed: %v", err)
	}
	if len(voting) != 2 {
		t.Errorf("expected 2 voting elections, got %d", len(voting))
	}

	all, err := svc.ListElections(context.Background())
	if err != nil {
		t.Fatalf("ListElections failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 elections, got %d", len(all))
	}
}

func TestDeleteElection(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewElectionService(logger.Discard(), repo, services.PhasePolicyStrict)
	seedElection(t, repo, "e1", "A", models.PhaseInit)

	if err := svc.DeleteElection(context.Background(), "e1"); err != nil {
		t.Fatalf("DeleteElection failed: %v", err)
	}
	if err := svc.DeleteElection(context.Background(), "e1"); errors.KindOf(err) != errors.ErrNotFound {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{models.PhaseInit, models.PhaseVoting, true},
		{models.PhaseVoting, models.PhaseResult, true},
		{models.PhaseInit, models.PhaseInit, true},
		{models.PhaseVoting, models.PhaseVoting, true},
		{models.PhaseResult, models.PhaseResult, true},
		{models.PhaseInit, models.PhaseResult, false},
		{models.PhaseVoting, models.PhaseInit, false},
		{models.PhaseResult, models.PhaseInit, false},
		{models.PhaseResult, models.PhaseVoting, false},
		{"paused", models.PhaseInit, true},
		{"paused", models.PhaseVoting, false},
	}
	for _, tt := range tests {
		if got := services.CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestSetPhase_StrictLifecycle(t *testing.T) {
	svc, b := setupElectionService(t, services.PhasePolicyStrict)
	ctx := context.Background()

	e, err := svc.CreateElection(ctx, services.ElectionInput{Name: "Mayor", Candidates: []string{"c1"}})
	if err != nil {
		t.Fatalf("CreateElection failed: %v", err)
	}

	updated, err := svc.SetPhase(ctx, e.ID, services.PhaseUpdate{Phase: models.PhaseVoting})
	if err != nil {
		t.Fatalf("init -> voting failed: %v", err)
	}
	if updated.CurrentPhase != models.PhaseVoting {
		t.Errorf("expected voting, got %q", updated.CurrentPhase)
	}

	// Back to init is not allowed once voting started
	_, err = svc.SetPhase(ctx, e.ID, services.PhaseUpdate{Phase: models.PhaseInit})
	if errors.KindOf(err) != errors.ErrInvalidTransition {
		t.Errorf("expected invalid transition, got %v", err)
	}

	if _, err := svc.SetPhase(ctx, e.ID, services.PhaseUpdate{Phase: models.PhaseResult}); err != nil {
		t.Fatalf("voting -> result failed: %v", err)
	}

	stored, _ := svc.GetElection(ctx, e.ID)
	if stored.CurrentPhase != models.PhaseResult {
		t.Errorf("expected stored phase result, got %q", stored.CurrentPhase)
	}

	events := b.ofType(services.EventPhaseChanged)
	if len(events) != 2 {
		t.Fatalf("expected 2 phase_changed events, got %d", len(events))
	}
	payload := events[1].Payload.(map[string]interface{})
	if payload["electionId"] != e.ID || payload["phase"] != models.PhaseResult {
		t.Errorf("unexpected payload %v", payload)
	}
}

func TestSetPhase_StrictRejectsSkipAndUnknown(t *testing.T) {
	svc, b := setupElectionService(t, services.PhasePolicyStrict)
	ctx := context.Background()
	e, _ := svc.CreateElection(ctx, services.ElectionInput{Name: "Mayor"})

	_, err := svc.SetPhase(ctx, e.ID, services.PhaseUpdate{Phase: models.PhaseResult})
	if errors.KindOf(err) != errors.ErrInvalidTransition {
		t.Errorf("expected invalid transition for init -> result, got %v", err)
	}

	_, err = svc.SetPhase(ctx, e.ID, services.PhaseUpdate{Phase: "counting"})
	if errors.KindOf(err) != errors.ErrValidation {
		t.Errorf("expected validation for unknown phase, got %v", err)
	}

	_, err = svc.SetPhase(ctx, e.ID, services.PhaseUpdate{Phase: ""})
	if errors.KindOf(err) != errors.ErrValidation {
		t.Errorf("expected validation for empty phase, got %v", err)
	}

	if n := len(b.ofType(services.EventPhaseChanged)); n != 0 {
		t.Errorf("expected no events for rejected changes, got %d", n)
	}
	stored, _ := svc.GetElection(ctx, e.ID)
	if stored.CurrentPhase != models.PhaseInit {
		t.Errorf("phase should be unchanged, got %q", stored.CurrentPhase)
	}
}

func TestSetPhase_IdentityEditsNameAndCandidates(t *testing.T) {
	svc, _ := setupElectionService(t, services.PhasePolicyStrict)
	ctx := context.Background()
	e, _ := svc.CreateElection(ctx, services.ElectionInput{Name: "Mayor", Candidates: []string{"c1"}})

	updated, err := svc.SetPhase(ctx, e.ID, services.PhaseUpdate{
		Phase:      models.PhaseInit,
		Name:       strPtr("Mayor 2024"),
		Candidates: []string{"c1", "c2"},
	})
	if err != nil {
		t.Fatalf("SetPhase failed: %v", err)
	}
	if updated.Name != "Mayor 2024" || len(updated.Candidates) != 2 {
		t.Errorf("unexpected election %+v", updated)
	}

	// nil candidates keep the stored list
	updated, err = svc.SetPhase(ctx, e.ID, services.PhaseUpdate{Phase: models.PhaseInit})
	if err != nil {
		t.Fatalf("SetPhase failed: %v", err)
	}
	if len(updated.Candidates) != 2 {
		t.Errorf("expected candidates kept, got %v", updated.Candidates)
	}
}

func TestSetPhase_RenameCollision(t *testing.T) {
	svc, _ := setupElectionService(t, services.PhasePolicyStrict)
	ctx := context.Background()
	svc.CreateElection(ctx, services.ElectionInput{Name: "Taken"})
	e, _ := svc.CreateElection(ctx, services.ElectionInput{Name: "Mine"})

	_, err := svc.SetPhase(ctx, e.ID, services.PhaseUpdate{Phase: models.PhaseInit, Name: strPtr("Taken")})
	if errors.KindOf(err) != errors.ErrDuplicate {
		t.Errorf("expected duplicate error, got %v", err)
	}
}

func TestSetPhase_PermissiveAcceptsAnything(t *testing.T) {
	svc, _ := setupElectionService(t, services.PhasePolicyPermissive)
	ctx := context.Background()
	e, _ := svc.CreateElection(ctx, services.ElectionInput{Name: "Mayor"})

	for _, phase := range []string{models.PhaseResult, models.PhaseInit, "paused", models.PhaseVoting} {
		updated, err := svc.SetPhase(ctx, e.ID, services.PhaseUpdate{Phase: phase})
		if err != nil {
			t.Fatalf("SetPhase(%q) failed: %v", phase, err)
		}
		if updated.CurrentPhase != phase {
			t.Errorf("expected %q stored verbatim, got %q", phase, updated.CurrentPhase)
		}
	}
}

func TestSetPhase_UnknownStoredPhaseResetsToInit(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	seedElection(t, repo, "e1", "Legacy", "paused")
	svc := services.NewElectionService(logger.Discard(), repo, services.PhasePolicyStrict)

	if _, err := svc.SetPhase(context.Background(), "e1", services.PhaseUpdate{Phase: models.PhaseVoting}); errors.KindOf(err) != errors.ErrInvalidTransition {
		t.Errorf("expected invalid transition, got %v", err)
	}
	if _, err := svc.SetPhase(context.Background(), "e1", services.PhaseUpdate{Phase: models.PhaseInit}); err != nil {
		t.Errorf("reset to init failed: %v", err)
	}
}

func TestSetPhase_NotFound(t *testing.T) {
	svc, _ := setupElectionService(t, services.PhasePolicyPermissive)
	_, err := svc.SetPhase(context.Background(), "missing", services.PhaseUpdate{Phase: models.PhaseVoting})
	if !stderrors.Is(err, errors.NotFound(services.MsgElectionNotFound)) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestSetPhase_RepositoryErrors(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	seedElection(t, repo, "e1", "A", models.PhaseInit)
	mockRepo := mock.NewRepository(repo)
	svc := services.NewElectionService(logger.Discard(), mockRepo, services.PhasePolicyStrict)
	ctx := context.Background()

	mockRepo.GetElectionError = errBoom
	if _, err := svc.SetPhase(ctx, "e1", services.PhaseUpdate{Phase: models.PhaseVoting}); errors.KindOf(err) != errors.ErrInternal {
		t.Errorf("expected internal error, got %v", err)
	}

	mockRepo.GetElectionError = nil
	mockRepo.UpdateElectionError = errBoom
	if _, err := svc.SetPhase(ctx, "e1", services.PhaseUpdate{Phase: models.PhaseVoting}); !stderrors.Is(err, errBoom) {
		t.Errorf("expected wrapped boom, got %v", err)
	}

	mockRepo.ListElectionsError = errBoom
	if _, err := svc.ListElections(ctx); errors.KindOf(err) != errors.ErrInternal {
		t.Errorf("expected internal error, got %v", err)
	}
}

// gatedReads holds the first n GetElection calls until all n have read, so
// concurrent requests work from the same stored copy
type gatedReads struct {
	*repository.Repository
	n     int32
	calls atomic.Int32
	ready sync.WaitGroup
}

func newGatedReads(repo *repository.Repository, n int) *gatedReads {
	g := &gatedReads{Repository: repo, n: int32(n)}
	g.ready.Add(n)
	return g
}

func (g *gatedReads) GetElection(ctx context.Context, id string) (*models.Election, error) {
	e, err := g.Repository.GetElection(ctx, id)
	if g.calls.Add(1) <= g.n {
		g.ready.Done()
		g.ready.Wait()
	}
	return e, err
}

func TestSetPhase_ConcurrentChangesDoNotOverwrite(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	seedElection(t, repo, "e1", "Mayor", models.PhaseVoting, "c1")
	svc := services.NewElectionService(logger.Discard(), newGatedReads(repo, 2), services.PhasePolicyStrict)
	ctx := context.Background()

	updates := []services.PhaseUpdate{
		{Phase: models.PhaseResult},
		{Phase: models.PhaseVoting, Name: strPtr("Mayor 2024")},
	}
	results := make([]*models.Election, len(updates))
	errs := make([]error, len(updates))

	var wg sync.WaitGroup
	for i, u := range updates {
		i, u := i, u
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.SetPhase(ctx, "e1", u)
		}()
	}
	wg.Wait()

	var winner *models.Election
	for i, err := range errs {
		if err == nil {
			if winner != nil {
				t.Fatalf("expected one update to lose, both succeeded")
			}
			winner = results[i]
			continue
		}
		if k := errors.KindOf(err); k != errors.ErrInvalidTransition && k != errors.ErrConflict {
			t.Errorf("update %d: expected invalid transition or conflict, got %v", i, err)
		}
	}
	if winner == nil {
		t.Fatalf("expected one update to succeed, got %v", errs)
	}

	stored, err := repo.GetElection(ctx, "e1")
	if err != nil {
		t.Fatalf("GetElection failed: %v", err)
	}
	if stored.CurrentPhase != winner.CurrentPhase || stored.Name != winner.Name {
		t.Errorf("stored %s/%q, winner wrote %s/%q", stored.CurrentPhase, stored.Name, winner.CurrentPhase, winner.Name)
	}
}

// vanishingRow deletes the election before reporting the update as stale
type vanishingRow struct {
	*repository.Repository
}

func (v vanishingRow) UpdateElection(ctx context.Context, e, prev *models.Election) error {
	if err := v.Repository.DeleteElection(ctx, e.ID); err != nil {
		return err
	}
	return repository.ErrStale
}

func TestSetPhase_DeletedWhileUpdating(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	seedElection(t, repo, "e1", "Mayor", models.PhaseInit)
	svc := services.NewElectionService(logger.Discard(), vanishingRow{repo}, services.PhasePolicyStrict)

	_, err := svc.SetPhase(context.Background(), "e1", services.PhaseUpdate{Phase: models.PhaseVoting})
	if !stderrors.Is(err, errors.NotFound(services.MsgElectionNotFound)) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestPhasePolicy_String(t *testing.T) {
	if services.PhasePolicyStrict.String() != "strict" || services.PhasePolicyPermissive.String() != "permissive" {
		t.Error("unexpected policy names")
	}
}
