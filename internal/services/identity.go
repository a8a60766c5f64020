package services

import (
	"context"
	stderrors "errors"

	"github.com/abrezinsky/evote/internal/errors"
	"github.com/abrezinsky/evote/internal/logger"
	"github.com/abrezinsky/evote/internal/repository"
	"github.com/abrezinsky/evote/pkg/facerec"
)

// FaceLoginResult is a recognised user with a session token
type FaceLoginResult struct {
	UserID     string  `json:"userId"`
	Username   string  `json:"username"`
	Confidence float64 `json:"confidence"`
	Status     string  `json:"status"`
	Verified   bool    `json:"verified"`
	Token      string  `json:"token"`
}

// IdentityService logs users in by face
type IdentityService struct {
	log        logger.Logger
	repo       repository.UserRepository
	recognizer facerec.Recognizer
	tokens     TokenIssuer
}

// NewIdentityService creates a new IdentityService
func NewIdentityService(log logger.Logger, repo repository.UserRepository, recognizer facerec.Recognizer, tokens TokenIssuer) *IdentityService {
	return &IdentityService{log: log, repo: repo, recognizer: recognizer, tokens: tokens}
}

// FaceLogin asks the recognizer who is at the camera and signs a token for
// that user. Recognizer sentinels are returned wrapped so callers can map
// them with errors.Is.
func (s *IdentityService) FaceLogin(ctx context.Context) (*FaceLoginResult, error) {
	m, err := s.recognizer.Identify(ctx)
	if err != nil {
		s.log.Warn("Face recognition failed", "error", err)
		return nil, errors.External(faceFailureMessage(err), err)
	}

	u, err := s.repo.GetUserByUsername(ctx, m.Username)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound(MsgUserNotFound)
	}
	if err != nil {
		return nil, errors.Internal(err)
	}

	token, err := s.tokens.IssueToken(u.ID, u.Username, u.IsAdmin)
	if err != nil {
		return nil, errors.Internal(err)
	}

	s.log.Info("Face login", "user_id", u.ID, "confidence", m.Confidence, "status", m.Status)
	return &FaceLoginResult{
		UserID:     u.ID,
		Username:   u.Username,
		Confidence: m.Confidence,
		Status:     m.Status,
		Verified:   m.Verified(),
		Token:      token,
	}, nil
}

func faceFailureMessage(err error) string {
	switch {
	case stderrors.Is(err, facerec.ErrNoCamera):
		return "Could not access camera. Please check your camera connection."
	case stderrors.Is(err, facerec.ErrNoFace):
		return "No face detected. Please position yourself properly in front of the camera."
	case stderrors.Is(err, facerec.ErrNoMatch):
		return "Your face doesn't match any registered user."
	case stderrors.Is(err, facerec.ErrNoFaceData):
		return "No face data available. Please add user profile images first."
	default:
		return "Error while running facial recognition"
	}
}
