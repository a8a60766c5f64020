package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/abrezinsky/evote/internal/models"
)

const voteColumns = `id, election_id, voter_id, candidate_id, voter_age, created_at`

func scanVote(s rowScanner) (*models.Vote, error) {
	var v models.Vote
	if err := s.Scan(&v.ID, &v.ElectionID, &v.VoterID, &v.CandidateID, &v.VoterAge, &v.Timestamp); err != nil {
		return nil, err
	}
	return &v, nil
}

// InsertVote appends a vote to the ledger. The UNIQUE(election_id, voter_id)
// index is the only guard against double voting; a violation returns
// ErrDuplicate.
func (r *Repository) InsertVote(ctx context.Context, v *models.Vote) error {
	if v.Timestamp.IsZero() {
		v.Timestamp = r.now()
	}
	_, err := r.db.ExecContext(ctx, r.q(`
		INSERT INTO votes (`+voteColumns+`) VALUES (?, ?, ?, ?, ?, ?)
	`), v.ID, v.ElectionID, v.VoterID, v.CandidateID, v.VoterAge, v.Timestamp)
	return translate(err)
}

// GetVote retrieves a vote by ID
func (r *Repository) GetVote(ctx context.Context, id string) (*models.Vote, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+voteColumns+` FROM votes WHERE id = ?`), id)
	v, err := scanVote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

// FindVote returns the voter's vote in an election
func (r *Repository) FindVote(ctx context.Context, voterID, electionID string) (*models.Vote, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+voteColumns+` FROM votes WHERE voter_id = ? AND election_id = ?`), voterID, electionID)
	v, err := scanVote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

// CountVotes returns the number of votes cast in an election
func (r *Repository) CountVotes(ctx context.Context, electionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, r.q(`SELECT COUNT(*) FROM votes WHERE election_id = ?`), electionID).Scan(&n)
	return n, err
}

// CountVotesByAge returns age -> number of votes for an election
func (r *Repository) CountVotesByAge(ctx context.Context, electionID string) (map[int]int, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT voter_age, COUNT(*) FROM votes WHERE election_id = ? GROUP BY voter_age
	`), electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var age, n int
		if err := rows.Scan(&age, &n); err != nil {
			return nil, err
		}
		counts[age] = n
	}
	return counts, rows.Err()
}

// TallyVotes returns per-candidate vote counts for an election, highest first.
// Candidates that were deleted after receiving votes are reported with an
// empty name.
func (r *Repository) TallyVotes(ctx context.Context, electionID string) ([]models.CandidateTally, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT v.candidate_id, COALESCE(c.first_name, ''), COALESCE(c.last_name, ''), COALESCE(c.party_name, ''), COUNT(*) AS votes
		FROM votes v
		LEFT JOIN candidates c ON c.id = v.candidate_id
		WHERE v.election_id = ?
		GROUP BY v.candidate_id, c.first_name, c.last_name, c.party_name
		ORDER BY votes DESC, v.candidate_id
	`), electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tallies := []models.CandidateTally{}
	for rows.Next() {
		var t models.CandidateTally
		var first, last string
		if err := rows.Scan(&t.CandidateID, &first, &last, &t.PartyName, &t.Votes); err != nil {
			return nil, err
		}
		c := models.Candidate{FirstName: first, LastName: last}
		t.Name = c.FullName()
		tallies = append(tallies, t)
	}
	return tallies, rows.Err()
}
