package services_test

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abrezinsky/evote/internal/errors"
	"github.com/abrezinsky/evote/internal/logger"
	"github.com/abrezinsky/evote/internal/media"
	"github.com/abrezinsky/evote/internal/models"
	"github.com/abrezinsky/evote/internal/repository"
	"github.com/abrezinsky/evote/internal/repository/mock"
	"github.com/abrezinsky/evote/internal/services"
	"github.com/abrezinsky/evote/internal/testutil"
)

func setupCandidateService(t *testing.T) (*services.CandidateService, *repository.Repository, *media.Store) {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	public := media.New(t.TempDir())
	return services.NewCandidateService(logger.Discard(), repo, public), repo, public
}

func candidateInput() services.CandidateInput {
	return services.CandidateInput{
		Username:      "asharma",
		FirstName:     "Asha",
		LastName:      "Sharma",
		DOB:           testutil.Date(1970, time.March, 4),
		Qualification: "MA",
		Join:          2001,
		Location:      "Delhi",
		PartyName:     "Progress",
	}
}

func TestCreateCandidate(t *testing.T) {
	svc, repo, public := setupCandidateService(t)
	ctx := context.Background()

	c, err := svc.CreateCandidate(ctx, candidateInput(), services.CandidateImages{
		Profile: &services.Upload{Filename: "face.JPG", Content: strings.NewReader("p")},
		Symbol:  &services.Upload{Filename: "lotus.png", Content: strings.NewReader("s")},
	})
	if err != nil {
		t.Fatalf("CreateCandidate failed: %v", err)
	}
	if !strings.HasPrefix(c.ProfileImage, "/CandidateImages/profile-") || !strings.HasSuffix(c.ProfileImage, ".jpg") {
		t.Errorf("unexpected profile path %q", c.ProfileImage)
	}
	if !strings.HasPrefix(c.PartySymbol, "/PartySymbols/symbol-") {
		t.Errorf("unexpected symbol path %q", c.PartySymbol)
	}
	if !public.Exists(c.ProfileImage) || !public.Exists(c.PartySymbol) {
		t.Error("expected image files stored")
	}

	stored, err := repo.GetCandidate(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCandidate failed: %v", err)
	}
	if stored.Likes != 0 || stored.Dislikes != 0 || stored.PartyName != "Progress" {
		t.Errorf("unexpected stored candidate %+v", stored)
	}
}

func TestCreateCandidate_DefaultsJoinYear(t *testing.T) {
	svc, _, _ := setupCandidateService(t)
	in := candidateInput()
	in.Join = 0

	c, err := svc.CreateCandidate(context.Background(), in, services.CandidateImages{})
	if err != nil {
		t.Fatalf("CreateCandidate failed: %v", err)
	}
	if c.Join != time.Now().Year() {
		t.Errorf("expected current year, got %d", c.Join)
	}
}

func TestCreateCandidate_Errors(t *testing.T) {
	svc, _, _ := setupCandidateService(t)
	ctx := context.Background()
	if _, err := svc.CreateCandidate(ctx, candidateInput(), services.CandidateImages{}); err != nil {
		t.Fatalf("CreateCandidate failed: %v", err)
	}

	if _, err := svc.CreateCandidate(ctx, candidateInput(), services.CandidateImages{}); !stderrors.Is(err, errors.Duplicate(services.MsgCandidateExists)) {
		t.Errorf("expected duplicate, got %v", err)
	}

	in := candidateInput()
	in.Username = " "
	if _, err := svc.CreateCandidate(ctx, in, services.CandidateImages{}); errors.KindOf(err) != errors.ErrValidation {
		t.Errorf("expected validation error, got %v", err)
	}

	in = candidateInput()
	in.Username = "other"
	in.FirstName = ""
	if _, err := svc.CreateCandidate(ctx, in, services.CandidateImages{}); errors.KindOf(err) != errors.ErrValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreateCandidate_InsertFailureRemovesImages(t *testing.T) {
	mockRepo := mock.NewRepository(testutil.NewTestRepository(t))
	mockRepo.CreateCandidateError = errBoom
	public := media.New(t.TempDir())
	svc := services.NewCandidateService(logger.Discard(), mockRepo, public)

	_, err := svc.CreateCandidate(context.Background(), candidateInput(), services.CandidateImages{
		Profile: &services.Upload{Filename: "face.jpg", Content: strings.NewReader("p")},
	})
	if errors.KindOf(err) != errors.ErrInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(public.Root(), services.CandidateImagesDir))
	if len(entries) != 0 {
		t.Errorf("expected stored images removed, found %d files", len(entries))
	}
}

func TestUpdateCandidate(t *testing.T) {
	svc, repo, public := setupCandidateService(t)
	ctx := context.Background()
	c, _ := svc.CreateCandidate(ctx, candidateInput(), services.CandidateImages{
		Profile: &services.Upload{Filename: "old.png", Content: strings.NewReader("old")},
	})
	oldProfile := c.ProfileImage

	// Counters must survive an update
	seedElection(t, repo, "e1", "Mayor", models.PhaseVoting, c.ID)
	seedVoter(t, repo, "u1", "1")
	if _, _, err := repo.AddFeedback(ctx, &models.Feedback{ID: "f1", CandidateID: c.ID, UserID: "u1", ElectionID: "e1", FeedbackType: models.FeedbackLike}); err != nil {
		t.Fatalf("AddFeedback failed: %v", err)
	}

	updated, err := svc.UpdateCandidate(ctx, c.ID, services.CandidateInput{Location: "Mumbai", Description: "Updated"}, services.CandidateImages{
		Profile: &services.Upload{Filename: "new.png", Content: strings.NewReader("new")},
	})
	if err != nil {
		t.Fatalf("UpdateCandidate failed: %v", err)
	}
	if updated.Location != "Mumbai" || updated.Description != "Updated" || updated.FirstName != "Asha" {
		t.Errorf("unexpected update result %+v", updated)
	}
	if updated.ProfileImage == oldProfile {
		t.Error("expected new profile image")
	}
	if public.Exists(oldProfile) {
		t.Error("expected old profile image removed")
	}

	stored, _ := repo.GetCandidate(ctx, c.ID)
	if stored.Likes != 1 {
		t.Errorf("expected likes preserved, got %d", stored.Likes)
	}
}

func TestUpdateCandidate_Errors(t *testing.T) {
	svc, _, _ := setupCandidateService(t)
	ctx := context.Background()
	svc.CreateCandidate(ctx, candidateInput(), services.CandidateImages{})
	in := candidateInput()
	in.Username = "rverma"
	other, _ := svc.CreateCandidate(ctx, in, services.CandidateImages{})

	if _, err := svc.UpdateCandidate(ctx, "missing", services.CandidateInput{}, services.CandidateImages{}); !stderrors.Is(err, errors.NotFound(services.MsgCandidateNotFound)) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := svc.UpdateCandidate(ctx, other.ID, services.CandidateInput{Username: "asharma"}, services.CandidateImages{}); !stderrors.Is(err, errors.Duplicate(services.MsgCandidateExists)) {
		t.Errorf("expected duplicate, got %v", err)
	}
}

func TestDeleteCandidate(t *testing.T) {
	svc, _, public := setupCandidateService(t)
	ctx := context.Background()
	c, _ := svc.CreateCandidate(ctx, candidateInput(), services.CandidateImages{
		Symbol: &services.Upload{Filename: "s.png", Content: strings.NewReader("s")},
	})

	if err := svc.DeleteCandidate(ctx, c.ID); err != nil {
		t.Fatalf("DeleteCandidate failed: %v", err)
	}
	if public.Exists(c.PartySymbol) {
		t.Error("expected symbol removed")
	}
	if _, err := svc.GetCandidate(ctx, c.ID); errors.KindOf(err) != errors.ErrNotFound {
		t.Errorf("expected not found, got %v", err)
	}
	if err := svc.DeleteCandidate(ctx, c.ID); errors.KindOf(err) != errors.ErrNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListAndLookupCandidates(t *testing.T) {
	svc, _, _ := setupCandidateService(t)
	ctx := context.Background()
	svc.CreateCandidate(ctx, candidateInput(), services.CandidateImages{})

	list, err := svc.ListCandidates(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListCandidates = %d, %v", len(list), err)
	}
	c, err := svc.GetCandidateByUsername(ctx, "asharma")
	if err != nil || c.ID != list[0].ID {
		t.Errorf("GetCandidateByUsername = %+v, %v", c, err)
	}
	if _, err := svc.GetCandidateByUsername(ctx, "ghost"); errors.KindOf(err) != errors.ErrNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestImportCandidates(t *testing.T) {
	svc, repo, _ := setupCandidateService(t)
	ctx := context.Background()

	sheet := "username,firstName,lastName,dob,qualification,join,location,partyName,description\n" +
		"asharma,Asha,Sharma,04-03-1970,MA,2001,Delhi,Progress,Councillor\n" +
		"rverma,Ravi,Verma,12-11-1965,BA,soon,Pune,Unity,\n" +
		"nodob,No,Dob,,BA,2001,Pune,Unity,\n" +
		"baddob,Bad,Dob,1965/11/12,BA,2001,Pune,Unity,\n" +
		"asharma,Asha,Again,04-03-1970,MA,2001,Delhi,Progress,\n"

	report, err := svc.ImportCandidates(ctx, []byte(sheet))
	if err != nil {
		t.Fatalf("ImportCandidates failed: %v", err)
	}
	if len(report.Success) != 2 {
		t.Errorf("expected 2 successes, got %v", report.Success)
	}
	if len(report.Errors) != 3 {
		t.Fatalf("expected 3 errors, got %+v", report.Errors)
	}
	if report.Errors[0].Error != "Missing required fields: dob" {
		t.Errorf("unexpected error %q", report.Errors[0].Error)
	}
	if !strings.Contains(report.Errors[1].Error, "DD-MM-YYYY") {
		t.Errorf("unexpected error %q", report.Errors[1].Error)
	}
	if report.Errors[2].Error != "Candidate with this username already exists" || report.Errors[2].Row != 6 {
		t.Errorf("unexpected error %+v", report.Errors[2])
	}

	c, err := repo.GetCandidateByUsername(ctx, "rverma")
	if err != nil {
		t.Fatalf("imported candidate missing: %v", err)
	}
	if c.Join != time.Now().Year() {
		t.Errorf("expected unparsable join to default to current year, got %d", c.Join)
	}
	first, _ := repo.GetCandidateByUsername(ctx, "asharma")
	if first.Description != "Councillor" {
		t.Errorf("expected description imported, got %q", first.Description)
	}
}

func TestCandidateTemplates(t *testing.T) {
	user := string(services.UserTemplateCSV())
	if !strings.HasPrefix(user, strings.Join(services.UserColumns, ",")+"\n") {
		t.Errorf("unexpected user template %q", user)
	}
	candidate := string(services.CandidateTemplateCSV())
	if !strings.HasPrefix(candidate, strings.Join(services.CandidateColumns, ",")+",description\n") {
		t.Errorf("unexpected candidate template %q", candidate)
	}
}
