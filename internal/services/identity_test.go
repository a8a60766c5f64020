package services_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/abrezinsky/evote/internal/errors"
	"github.com/abrezinsky/evote/internal/logger"
	"github.com/abrezinsky/evote/internal/repository/mock"
	"github.com/abrezinsky/evote/internal/services"
	"github.com/abrezinsky/evote/internal/testutil"
	"github.com/abrezinsky/evote/pkg/facerec"
)

func TestFaceLogin(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	seedVoter(t, repo, "u1", "1")
	rec := facerec.NewMockRecognizer(facerec.WithMatch("voter1", 0.82, facerec.StatusVerified))
	svc := services.NewIdentityService(logger.Discard(), repo, rec, fakeTokens{})

	res, err := svc.FaceLogin(context.Background())
	if err != nil {
		t.Fatalf("FaceLogin failed: %v", err)
	}
	if res.UserID != "u1" || res.Username != "voter1" {
		t.Errorf("unexpected user %+v", res)
	}
	if !res.Verified || res.Confidence != 0.82 {
		t.Errorf("unexpected match details %+v", res)
	}
	if res.Token != "token-u1-voter1-false" {
		t.Errorf("unexpected token %q", res.Token)
	}
	if rec.Calls() != 1 {
		t.Errorf("expected 1 recognizer call, got %d", rec.Calls())
	}
}

func TestFaceLogin_UnverifiedMatchStillLogsIn(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	seedVoter(t, repo, "u1", "1")
	rec := facerec.NewMockRecognizer(facerec.WithMatch("voter1", 0.41, facerec.StatusUnknown))
	svc := services.NewIdentityService(logger.Discard(), repo, rec, fakeTokens{})

	res, err := svc.FaceLogin(context.Background())
	if err != nil {
		t.Fatalf("FaceLogin failed: %v", err)
	}
	if res.Verified || res.Status != facerec.StatusUnknown {
		t.Errorf("expected unverified match, got %+v", res)
	}
}

func TestFaceLogin_RecognizerFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"camera", facerec.ErrNoCamera, "Could not access camera. Please check your camera connection."},
		{"no face", facerec.ErrNoFace, "No face detected. Please position yourself properly in front of the camera."},
		{"no match", facerec.ErrNoMatch, "Your face doesn't match any registered user."},
		{"no face data", facerec.ErrNoFaceData, "No face data available. Please add user profile images first."},
		{"process", &facerec.ProcessError{Output: "segfault", Err: errBoom}, "Error while running facial recognition"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := testutil.NewTestRepository(t)
			svc := services.NewIdentityService(logger.Discard(), repo, facerec.NewMockRecognizer(facerec.WithError(tt.err)), fakeTokens{})

			_, err := svc.FaceLogin(context.Background())
			if errors.KindOf(err) != errors.ErrExternal {
				t.Fatalf("expected external error, got %v", err)
			}
			if !stderrors.Is(err, tt.err) {
				t.Errorf("expected cause %v to be preserved", tt.err)
			}
			var appErr *errors.Error
			if !stderrors.As(err, &appErr) || appErr.Message != tt.message {
				t.Errorf("unexpected message %v", err)
			}
		})
	}
}

func TestFaceLogin_UnknownUsername(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	rec := facerec.NewMockRecognizer(facerec.WithMatch("ghost", 0.9, facerec.StatusVerified))
	svc := services.NewIdentityService(logger.Discard(), repo, rec, fakeTokens{})

	_, err := svc.FaceLogin(context.Background())
	if !stderrors.Is(err, errors.NotFound(services.MsgUserNotFound)) {
		t.Errorf("expected user not found, got %v", err)
	}
}

func TestFaceLogin_InternalErrors(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	seedVoter(t, repo, "u1", "1")
	rec := facerec.NewMockRecognizer(facerec.WithMatch("voter1", 0.9, facerec.StatusVerified))

	svc := services.NewIdentityService(logger.Discard(), repo, rec, fakeTokens{err: errBoom})
	if _, err := svc.FaceLogin(context.Background()); errors.KindOf(err) != errors.ErrInternal {
		t.Errorf("expected internal error from token issuer, got %v", err)
	}

	mockRepo := mock.NewRepository(repo)
	mockRepo.GetUserByUsernameError = errBoom
	svc = services.NewIdentityService(logger.Discard(), mockRepo, rec, fakeTokens{})
	if _, err := svc.FaceLogin(context.Background()); errors.KindOf(err) != errors.ErrInternal {
		t.Errorf("expected internal error from repository, got %v", err)
	}
}

func TestFaceLogin_CancelledContext(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	rec := facerec.NewMockRecognizer(facerec.WithMatch("voter1", 0.9, facerec.StatusVerified))
	svc := services.NewIdentityService(logger.Discard(), repo, rec, fakeTokens{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.FaceLogin(ctx)
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation to surface, got %v", err)
	}
}
