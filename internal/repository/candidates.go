package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/abrezinsky/evote/internal/models"
)

const candidateColumns = `id, username, first_name, last_name, dob, qualification, join_year, location,
	description, party_name, party_symbol, profile_image, likes, dislikes, created_at`

func scanCandidate(s rowScanner) (*models.Candidate, error) {
	var c models.Candidate
	if err := s.Scan(&c.ID, &c.Username, &c.FirstName, &c.LastName, &c.DOB, &c.Qualification, &c.Join, &c.Location,
		&c.Description, &c.PartyName, &c.PartySymbol, &c.ProfileImage, &c.Likes, &c.Dislikes, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCandidate inserts a candidate, including any carried-over counters
func (r *Repository) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.now()
	}
	_, err := r.db.ExecContext(ctx, r.q(`
		INSERT INTO candidates (`+candidateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), c.ID, c.Username, c.FirstName, c.LastName, c.DOB, c.Qualification, c.Join, c.Location,
		c.Description, c.PartyName, c.PartySymbol, c.ProfileImage, c.Likes, c.Dislikes, c.CreatedAt)
	return translate(err)
}

// GetCandidate retrieves a candidate by ID
func (r *Repository) GetCandidate(ctx context.Context, id string) (*models.Candidate, error) {
	return r.getCandidateBy(ctx, "id", id)
}

// GetCandidateByUsername retrieves a candidate by username
func (r *Repository) GetCandidateByUsername(ctx context.Context, username string) (*models.Candidate, error) {
	return r.getCandidateBy(ctx, "username", username)
}

func (r *Repository) getCandidateBy(ctx context.Context, column, value string) (*models.Candidate, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+candidateColumns+` FROM candidates WHERE `+column+` = ?`), value)
	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// ListCandidates returns all candidates, newest first
func (r *Repository) ListCandidates(ctx context.Context) ([]models.Candidate, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+candidateColumns+` FROM candidates ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, *c)
	}
	return candidates, rows.Err()
}

// UpdateCandidate overwrites the profile fields. Like/dislike counters are
// owned by the feedback ledger and are not touched here.
func (r *Repository) UpdateCandidate(ctx context.Context, c *models.Candidate) error {
	result, err := r.db.ExecContext(ctx, r.q(`
		UPDATE candidates SET username = ?, first_name = ?, last_name = ?, dob = ?, qualification = ?,
			join_year = ?, location = ?, description = ?, party_name = ?, party_symbol = ?, profile_image = ?
		WHERE id = ?
	`), c.Username, c.FirstName, c.LastName, c.DOB, c.Qualification,
		c.Join, c.Location, c.Description, c.PartyName, c.PartySymbol, c.ProfileImage, c.ID)
	if err != nil {
		return translate(err)
	}
	return requireAffected(result)
}

// DeleteCandidate removes a candidate
func (r *Repository) DeleteCandidate(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.q(`DELETE FROM candidates WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}
