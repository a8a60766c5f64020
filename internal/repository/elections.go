package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/abrezinsky/evote/internal/models"
)

const electionColumns = `id, name, candidates, location, current_phase, created_at, updated_at`

func scanElection(s rowScanner) (*models.Election, error) {
	var e models.Election
	var candidatesJSON string
	if err := s.Scan(&e.ID, &e.Name, &candidatesJSON, &e.Location, &e.CurrentPhase, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if candidatesJSON != "" {
		if err := json.Unmarshal([]byte(candidatesJSON), &e.Candidates); err != nil {
			return nil, err
		}
	}
	if e.Candidates == nil {
		e.Candidates = []string{}
	}
	return &e, nil
}

func encodeCandidates(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	return string(b), err
}

// CreateElection inserts a new election. CreatedAt/UpdatedAt are filled in
// when zero.
func (r *Repository) CreateElection(ctx context.Context, e *models.Election) error {
	candidates, err := encodeCandidates(e.Candidates)
	if err != nil {
		return err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	if e.CurrentPhase == "" {
		e.CurrentPhase = models.PhaseInit
	}

	_, err = r.db.ExecContext(ctx, r.q(`
		INSERT INTO elections (id, name, candidates, location, current_phase, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), e.ID, e.Name, candidates, e.Location, e.CurrentPhase, e.CreatedAt, e.UpdatedAt)
	return translate(err)
}

// GetElection retrieves an election by ID
func (r *Repository) GetElection(ctx context.Context, id string) (*models.Election, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+electionColumns+` FROM elections WHERE id = ?`), id)
	e, err := scanElection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// ListElections returns all elections, newest first
func (r *Repository) ListElections(ctx context.Context) ([]models.Election, error) {
	return r.queryElections(ctx, `SELECT `+electionColumns+` FROM elections ORDER BY created_at DESC`)
}

// ListElectionsByPhase returns the elections currently in phase
func (r *Repository) ListElectionsByPhase(ctx context.Context, phase string) ([]models.Election, error) {
	return r.queryElections(ctx, `SELECT `+electionColumns+` FROM elections WHERE current_phase = ? ORDER BY created_at DESC`, phase)
}

func (r *Repository) queryElections(ctx context.Context, query string, args ...any) ([]models.Election, error) {
	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	elections := []models.Election{}
	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			return nil, err
		}
		elections = append(elections, *e)
	}
	return elections, rows.Err()
}

// UpdateElection overwrites name, candidates, location and phase, provided
// the stored row still matches prev, the copy the change was based on.
// Returns ErrNotFound when no row matches the id, ErrStale when another
// write got in first and ErrDuplicate on a name clash.
func (r *Repository) UpdateElection(ctx context.Context, e, prev *models.Election) error {
	candidates, err := encodeCandidates(e.Candidates)
	if err != nil {
		return err
	}
	prevCandidates, err := encodeCandidates(prev.Candidates)
	if err != nil {
		return err
	}
	e.UpdatedAt = r.now()

	result, err := r.db.ExecContext(ctx, r.q(`
		UPDATE elections SET name = ?, candidates = ?, location = ?, current_phase = ?, updated_at = ?
		WHERE id = ? AND current_phase = ? AND name = ? AND candidates = ? AND location = ?
	`), e.Name, candidates, e.Location, e.CurrentPhase, e.UpdatedAt,
		e.ID, prev.CurrentPhase, prev.Name, prevCandidates, prev.Location)
	if err != nil {
		return translate(err)
	}
	if err := requireAffected(result); !errors.Is(err, ErrNotFound) {
		return err
	}

	var exists int
	err = r.db.QueryRowContext(ctx, r.q(`SELECT 1 FROM elections WHERE id = ?`), e.ID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrStale
}

// DeleteElection removes an election. Votes and feedback are left in place.
func (r *Repository) DeleteElection(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.q(`DELETE FROM elections WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
