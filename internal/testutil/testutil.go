package testutil

import (
	"testing"
	"time"

	"github.com/abrezinsky/evote/internal/models"
	"github.com/abrezinsky/evote/internal/repository"
)

// NewTestRepository creates a new in-memory repository for testing.
// Each call creates a fresh database with all migrations applied.
func NewTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})

	return repo
}

// Date returns midnight UTC on the given day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// FixedClock returns a clock function that always reports t
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// NewUser returns a valid voter fixture. suffix must be a single digit or
// uppercase letter so the voter ID stays ten characters long.
func NewUser(id, suffix string, dob time.Time) *models.User {
	return &models.User{
		ID:         id,
		Username:   "voter" + suffix,
		Email:      "voter" + suffix + "@example.com",
		Mobile:     "90000000" + suffix,
		FirstName:  "Voter",
		LastName:   suffix,
		FatherName: "Father" + suffix,
		VoterID:    "ABCDE0000" + suffix,
		DOB:        &dob,
		Location:   "Pune",
	}
}

// NewCandidate returns a valid candidate fixture
func NewCandidate(id, username, first, last string) *models.Candidate {
	return &models.Candidate{
		ID:            id,
		Username:      username,
		FirstName:     first,
		LastName:      last,
		DOB:           Date(1970, time.March, 4),
		Qualification: "MA",
		Join:          2001,
		Location:      "Delhi",
		PartyName:     "Party " + first,
	}
}
