package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/abrezinsky/evote/internal/models"
)

const userColumns = `id, username, email, mobile, first_name, last_name, father_name, voter_id, dob, location, avatar, is_admin, created_at`

func scanUser(s rowScanner) (*models.User, error) {
	var u models.User
	var dob sql.NullTime
	if err := s.Scan(&u.ID, &u.Username, &u.Email, &u.Mobile, &u.FirstName, &u.LastName, &u.FatherName,
		&u.VoterID, &dob, &u.Location, &u.Avatar, &u.IsAdmin, &u.CreatedAt); err != nil {
		return nil, err
	}
	if dob.Valid {
		t := dob.Time
		u.DOB = &t
	}
	return &u, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// CreateUser inserts a new user
func (r *Repository) CreateUser(ctx context.Context, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.now()
	}
	_, err := r.db.ExecContext(ctx, r.q(`
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), u.ID, u.Username, u.Email, u.Mobile, u.FirstName, u.LastName, u.FatherName,
		u.VoterID, nullTime(u.DOB), u.Location, u.Avatar, u.IsAdmin, u.CreatedAt)
	return translate(err)
}

// GetUser retrieves a user by ID
func (r *Repository) GetUser(ctx context.Context, id string) (*models.User, error) {
	return r.getUserBy(ctx, "id", id)
}

// GetUserByUsername retrieves a user by username
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getUserBy(ctx, "username", username)
}

func (r *Repository) getUserBy(ctx context.Context, column, value string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`), value)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// ListUsers returns all users, newest first
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UserConflictExists reports whether another user (not excludeID) already
// holds the username, email, mobile or voter ID.
func (r *Repository) UserConflictExists(ctx context.Context, username, email, mobile, voterID, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, r.q(`
		SELECT EXISTS(
			SELECT 1 FROM users
			WHERE (username = ? OR email = ? OR mobile = ? OR voter_id = ?) AND id <> ?
		)
	`), username, email, mobile, voterID, excludeID).Scan(&exists)
	return exists, err
}

// UpdateUser overwrites the editable user fields
func (r *Repository) UpdateUser(ctx context.Context, u *models.User) error {
	result, err := r.db.ExecContext(ctx, r.q(`
		UPDATE users SET username = ?, email = ?, mobile = ?, first_name = ?, last_name = ?,
			father_name = ?, voter_id = ?, dob = ?, location = ?, avatar = ?
		WHERE id = ?
	`), u.Username, u.Email, u.Mobile, u.FirstName, u.LastName,
		u.FatherName, u.VoterID, nullTime(u.DOB), u.Location, u.Avatar, u.ID)
	if err != nil {
		return translate(err)
	}
	return requireAffected(result)
}

// DeleteUser removes a user
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.q(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// CountUsers returns the number of registered users
func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
