package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/abrezinsky/evote/internal/models"
	"github.com/abrezinsky/evote/internal/repository"
	"github.com/abrezinsky/evote/internal/testutil"
)

// recordingBroadcaster captures broadcast messages
type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []models.WSMessage
}

func (b *recordingBroadcaster) BroadcastMessage(msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, models.WSMessage{Type: msgType, Payload: payload})
}

func (b *recordingBroadcaster) ofType(msgType string) []models.WSMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.WSMessage
	for _, m := range b.messages {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

// fakeMailer records messages and optionally fails
type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, fmt.Sprintf("%s|%s|%s", to, subject, body))
	return nil
}

// fakeTokens issues predictable tokens
type fakeTokens struct {
	err error
}

func (f fakeTokens) IssueToken(userID, username string, admin bool) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("token-%s-%s-%t", userID, username, admin), nil
}

var errBoom = errors.New("boom")

// today is the fixed "now" used by age calculations in tests
var today = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

// seedVoter stores an adult voter born 2000-01-01
func seedVoter(t *testing.T, repo repository.UserRepository, id, suffix string) *models.User {
	t.Helper()
	u := testutil.NewUser(id, suffix, testutil.Date(2000, time.January, 1))
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser %s failed: %v", id, err)
	}
	return u
}

func seedCandidate(t *testing.T, repo repository.CandidateRepository, id, username, first, last string) *models.Candidate {
	t.Helper()
	c := testutil.NewCandidate(id, username, first, last)
	if err := repo.CreateCandidate(context.Background(), c); err != nil {
		t.Fatalf("CreateCandidate %s failed: %v", id, err)
	}
	return c
}

func seedElection(t *testing.T, repo repository.ElectionRepository, id, name, phase string, candidates ...string) *models.Election {
	t.Helper()
	e := &models.Election{ID: id, Name: name, Candidates: candidates, CurrentPhase: phase}
	if err := repo.CreateElection(context.Background(), e); err != nil {
		t.Fatalf("CreateElection %s failed: %v", id, err)
	}
	return e
}
