package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abrezinsky/evote/internal/models"
)

const feedbackColumns = `id, candidate_id, user_id, election_id, feedback_type, created_at`

func scanFeedback(s rowScanner) (*models.Feedback, error) {
	var f models.Feedback
	if err := s.Scan(&f.ID, &f.CandidateID, &f.UserID, &f.ElectionID, &f.FeedbackType, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func counterColumn(feedbackType string) (string, error) {
	switch feedbackType {
	case models.FeedbackLike:
		return "likes", nil
	case models.FeedbackDislike:
		return "dislikes", nil
	default:
		return "", fmt.Errorf("unknown feedback type %q", feedbackType)
	}
}

// AddFeedback inserts a ledger row and bumps the candidate's matching counter
// in one transaction, returning the counters afterwards. A second row for the
// same (candidate, user, election) fails with ErrDuplicate and leaves the
// counters untouched.
func (r *Repository) AddFeedback(ctx context.Context, f *models.Feedback) (likes, dislikes int, err error) {
	column, err := counterColumn(f.FeedbackType)
	if err != nil {
		return 0, 0, err
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = r.now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.q(`
		INSERT INTO feedback (`+feedbackColumns+`) VALUES (?, ?, ?, ?, ?, ?)
	`), f.ID, f.CandidateID, f.UserID, f.ElectionID, f.FeedbackType, f.CreatedAt); err != nil {
		return 0, 0, translate(err)
	}

	result, err := tx.ExecContext(ctx, r.q(`UPDATE candidates SET `+column+` = `+column+` + 1 WHERE id = ?`), f.CandidateID)
	if err != nil {
		return 0, 0, err
	}
	if err := requireAffected(result); err != nil {
		return 0, 0, err
	}

	if err := tx.QueryRowContext(ctx, r.q(`SELECT likes, dislikes FROM candidates WHERE id = ?`), f.CandidateID).
		Scan(&likes, &dislikes); err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return likes, dislikes, nil
}

// ImportFeedback inserts a ledger row without touching counters. Used when
// the counters are carried over from another store.
func (r *Repository) ImportFeedback(ctx context.Context, f *models.Feedback) error {
	if _, err := counterColumn(f.FeedbackType); err != nil {
		return err
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = r.now()
	}
	_, err := r.db.ExecContext(ctx, r.q(`
		INSERT INTO feedback (`+feedbackColumns+`) VALUES (?, ?, ?, ?, ?, ?)
	`), f.ID, f.CandidateID, f.UserID, f.ElectionID, f.FeedbackType, f.CreatedAt)
	return translate(err)
}

// GetFeedback returns the ledger row for a (candidate, user, election) triple
func (r *Repository) GetFeedback(ctx context.Context, candidateID, userID, electionID string) (*models.Feedback, error) {
	row := r.db.QueryRowContext(ctx, r.q(`
		SELECT `+feedbackColumns+` FROM feedback WHERE candidate_id = ? AND user_id = ? AND election_id = ?
	`), candidateID, userID, electionID)
	f, err := scanFeedback(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return f, err
}

// CountFeedback counts a candidate's ledger rows by type across all elections
func (r *Repository) CountFeedback(ctx context.Context, candidateID string) (likes, dislikes int, err error) {
	err = r.db.QueryRowContext(ctx, r.q(`
		SELECT
			COALESCE(SUM(CASE WHEN feedback_type = 'like' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN feedback_type = 'dislike' THEN 1 ELSE 0 END), 0)
		FROM feedback WHERE candidate_id = ?
	`), candidateID).Scan(&likes, &dislikes)
	return likes, dislikes, err
}

// ListUserFeedback returns a user's feedback in an election with candidate names
func (r *Repository) ListUserFeedback(ctx context.Context, userID, electionID string) ([]models.FeedbackWithCandidate, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT f.id, f.candidate_id, f.user_id, f.election_id, f.feedback_type, f.created_at,
			COALESCE(c.first_name, ''), COALESCE(c.last_name, ''), COALESCE(c.party_name, '')
		FROM feedback f
		LEFT JOIN candidates c ON c.id = f.candidate_id
		WHERE f.user_id = ? AND f.election_id = ?
		ORDER BY f.created_at
	`), userID, electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.FeedbackWithCandidate{}
	for rows.Next() {
		var item models.FeedbackWithCandidate
		var first, last string
		if err := rows.Scan(&item.ID, &item.CandidateID, &item.UserID, &item.ElectionID, &item.FeedbackType, &item.CreatedAt,
			&first, &last, &item.PartyName); err != nil {
			return nil, err
		}
		c := models.Candidate{FirstName: first, LastName: last}
		item.CandidateName = c.FullName()
		list = append(list, item)
	}
	return list, rows.Err()
}
