package services

import (
	"bytes"
	"context"
	stderrors "errors"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/evote/internal/errors"
	"github.com/abrezinsky/evote/internal/logger"
	"github.com/abrezinsky/evote/internal/models"
	"github.com/abrezinsky/evote/internal/repository"
)

var voterIDPattern = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// Mail texts
const (
	welcomeSubject = "Welcome Mail"
	welcomeBody    = "Thank You For Joining the Voting System"
	votedSubject   = "Voting Success"
	votedBody      = "Thank You For The Voting but if it's not you contact admin@votingsystem.com"
)

// ValidVoterID reports whether id is ten uppercase letters or digits
func ValidVoterID(id string) bool {
	return voterIDPattern.MatchString(id)
}

// UserInput holds the editable fields of a voter
type UserInput struct {
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Mobile     string     `json:"mobile"`
	FirstName  string     `json:"fname"`
	LastName   string     `json:"lname"`
	FatherName string     `json:"fatherName"`
	VoterID    string     `json:"voterID"`
	DOB        *time.Time `json:"dob"`
	Location   string     `json:"location"`
}

func (in *UserInput) trim() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Mobile = strings.TrimSpace(in.Mobile)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.FatherName = strings.TrimSpace(in.FatherName)
	in.VoterID = strings.TrimSpace(in.VoterID)
	in.Location = strings.TrimSpace(in.Location)
}

// RegisterResult is returned by Register
type RegisterResult struct {
	User     *models.User
	MailSent bool
}

// Message is the client-facing registration outcome
func (r *RegisterResult) Message() string {
	if r.MailSent {
		return "Registration successful and email sent"
	}
	return "Registration successful but email sending failed"
}

// LoginResult is a user with a signed session token
type LoginResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// UserService manages voter accounts
type UserService struct {
	log     logger.Logger
	repo    repository.UserRepository
	avatars FileStore
	mailer  Mailer
	tokens  TokenIssuer
}

// NewUserService creates a new UserService. Avatars are written to the
// faces directory so the recognizer can match against them.
func NewUserService(log logger.Logger, repo repository.UserRepository, avatars FileStore, mailer Mailer, tokens TokenIssuer) *UserService {
	return &UserService{
		log:     log,
		repo:    repo,
		avatars: avatars,
		mailer:  mailer,
		tokens:  tokens,
	}
}

// Register creates a voter account, stores the optional avatar and sends a
// welcome mail. Mail failures do not fail the registration.
func (s *UserService) Register(ctx context.Context, in UserInput, avatar *Upload) (*RegisterResult, error) {
	in.trim()
	if !ValidVoterID(in.VoterID) {
		return nil, errors.Validation(MsgInvalidVoterID)
	}
	if in.Username == "" || in.Email == "" || in.Mobile == "" {
		return nil, errors.Validation("Username, email and mobile are required")
	}

	exists, err := s.repo.UserConflictExists(ctx, in.Username, in.Email, in.Mobile, in.VoterID, "")
	if err != nil {
		return nil, errors.Internal(err)
	}
	if exists {
		return nil, errors.Duplicate(MsgUserExists)
	}

	u := &models.User{
		ID:         uuid.NewString(),
		Username:   in.Username,
		Email:      in.Email,
		Mobile:     in.Mobile,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		FatherName: in.FatherName,
		VoterID:    in.VoterID,
		DOB:        in.DOB,
		Location:   in.Location,
	}

	if avatar != nil {
		name, err := s.avatars.Save(avatarName(in.Username, avatar.Filename), avatar.Content)
		if err != nil {
			return nil, errors.Internal(err)
		}
		u.Avatar = name
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		s.discard(u.Avatar)
		return nil, fromRepo(err, MsgUserNotFound, MsgUserExists)
	}
	s.log.Info("User registered", "user_id", u.ID, "username", u.Username)

	res := &RegisterResult{User: u}
	if err := s.mailer.Send(ctx, u.Email, welcomeSubject, welcomeBody); err != nil {
		s.log.Warn("Welcome mail failed", "user_id", u.ID, "error", err)
	} else {
		res.MailSent = true
	}
	return res, nil
}

// Login checks the father's name (case-insensitive) and issues a token
func (s *UserService) Login(ctx context.Context, username, fatherName string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	fatherName = strings.TrimSpace(fatherName)
	if username == "" || fatherName == "" {
		return nil, errors.Validation(MsgLoginFieldsMissing)
	}

	u, err := s.repo.GetUserByUsername(ctx, username)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.Validation(MsgInvalidUsername)
	}
	if err != nil {
		return nil, errors.Internal(err)
	}
	if u.FatherName == "" {
		return nil, errors.Validation(MsgFatherNameMissing)
	}
	if !strings.EqualFold(u.FatherName, fatherName) {
		return nil, errors.Validation(MsgInvalidFatherName)
	}

	token, err := s.tokens.IssueToken(u.ID, u.Username, u.IsAdmin)
	if err != nil {
		return nil, errors.Internal(err)
	}
	s.log.Info("User logged in", "user_id", u.ID)
	return &LoginResult{User: u, Token: token}, nil
}

// ListUsers returns all voters
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return users, nil
}

// GetUser returns one voter
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, fromRepo(err, MsgUserNotFound, "")
	}
	return u, nil
}

// GetUserByUsername returns the voter with username
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fromRepo(err, MsgUserNotFound, "")
	}
	return u, nil
}

// UpdateUser overwrites the non-empty fields of in. A new avatar replaces
// the old file.
func (s *UserService) UpdateUser(ctx context.Context, id string, in UserInput, avatar *Upload) (*models.User, error) {
	in.trim()
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, fromRepo(err, MsgUserNotFound, "")
	}
	if in.VoterID != "" && !ValidVoterID(in.VoterID) {
		return nil, errors.Validation(MsgInvalidVoterID)
	}

	applyUserInput(u, in)

	exists, err := s.repo.UserConflictExists(ctx, u.Username, u.Email, u.Mobile, u.VoterID, u.ID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if exists {
		return nil, errors.Duplicate(MsgUserExists)
	}

	oldAvatar := u.Avatar
	if avatar != nil {
		s.discard(oldAvatar)
		name, err := s.avatars.Save(avatarName(u.Username, avatar.Filename), avatar.Content)
		if err != nil {
			return nil, errors.Internal(err)
		}
		u.Avatar = name
	}

	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, fromRepo(err, MsgUserNotFound, MsgUserExists)
	}
	s.log.Info("User updated", "user_id", u.ID, "avatar_replaced", avatar != nil)
	return u, nil
}

func applyUserInput(u *models.User, in UserInput) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&u.Username, in.Username)
	set(&u.Email, in.Email)
	set(&u.Mobile, in.Mobile)
	set(&u.FirstName, in.FirstName)
	set(&u.LastName, in.LastName)
	set(&u.FatherName, in.FatherName)
	set(&u.VoterID, in.VoterID)
	set(&u.Location, in.Location)
	if in.DOB != nil {
		u.DOB = in.DOB
	}
}

// DeleteUser removes a voter and their avatar file
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return fromRepo(err, MsgUserNotFound, "")
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return fromRepo(err, MsgUserNotFound, "")
	}
	s.discard(u.Avatar)
	s.log.Info("User deleted", "user_id", id)
	return nil
}

// SendVotingMail thanks a voter after they vote
func (s *UserService) SendVotingMail(ctx context.Context, userID string) error {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return fromRepo(err, MsgUserNotFound, "")
	}
	if err := s.mailer.Send(ctx, u.Email, votedSubject, votedBody); err != nil {
		return errors.External("Email Sending Failed", err)
	}
	return nil
}

// ImportUsers registers voters from a CSV sheet or a ZIP holding a sheet and
// avatar images. Bad rows are reported and skipped.
func (s *UserService) ImportUsers(ctx context.Context, filename string, data []byte) (*ImportReport, error) {
	bundle, err := readUserBundle(filename, data)
	if err != nil {
		return nil, err
	}
	rows, err := readSheet(bundle.sheet)
	if err != nil {
		return nil, err
	}

	report := newImportReport()
	for _, row := range rows {
		f := row.Fields
		if m := missing(f, UserColumns); len(m) > 0 {
			report.fail(row.Row, f, "Missing required fields: %s", strings.Join(m, ", "))
			continue
		}
		if !ValidVoterID(f["voterID"]) {
			report.fail(row.Row, f, "%s", MsgInvalidVoterID)
			continue
		}
		dob, err := ParseSheetDate(f["dob"])
		if err != nil {
			report.fail(row.Row, f, "Invalid date of birth %q, expected DD-MM-YYYY", f["dob"])
			continue
		}

		exists, err := s.repo.UserConflictExists(ctx, f["username"], f["email"], f["mobile"], f["voterID"], "")
		if err != nil {
			return nil, errors.Internal(err)
		}
		if exists {
			report.fail(row.Row, f, "Duplicate entry found. Username, email, mobile, or Voter ID already exists.")
			continue
		}

		u := &models.User{
			ID:         uuid.NewString(),
			Username:   f["username"],
			Email:      f["email"],
			Mobile:     f["mobile"],
			FirstName:  f["fname"],
			LastName:   f["lname"],
			FatherName: f["fatherName"],
			VoterID:    f["voterID"],
			DOB:        &dob,
			Location:   f["location"],
		}
		if img, ok := bundle.images[strings.ToLower(u.Username)]; ok {
			name, err := s.avatars.Save(u.Username+img.ext, bytes.NewReader(img.data))
			if err != nil {
				report.fail(row.Row, f, "Error saving image: %v", err)
			} else {
				u.Avatar = name
			}
		}

		if err := s.repo.CreateUser(ctx, u); err != nil {
			s.discard(u.Avatar)
			if stderrors.Is(err, repository.ErrDuplicate) {
				report.fail(row.Row, f, "Duplicate entry found. Username, email, mobile, or Voter ID already exists.")
				continue
			}
			report.fail(row.Row, f, "%v", err)
			continue
		}
		report.Success = append(report.Success, u.Username)
	}

	s.log.Info("Users imported", "created", len(report.Success), "rejected", len(report.Errors))
	return report, nil
}

// discard removes a stored avatar. Remote URLs are left alone.
func (s *UserService) discard(name string) {
	if name == "" || strings.HasPrefix(name, "https://") || strings.HasPrefix(name, "http://") {
		return
	}
	if err := s.avatars.Remove(name); err != nil {
		s.log.Warn("Failed to remove avatar", "file", name, "error", err)
	}
}

// avatarName is the username with the uploaded file's extension
func avatarName(username, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	return username + ext
}
