package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/evote/internal/auth"
	"github.com/abrezinsky/evote/internal/handlers"
	"github.com/abrezinsky/evote/internal/logger"
	"github.com/abrezinsky/evote/internal/media"
	"github.com/abrezinsky/evote/internal/models"
	"github.com/abrezinsky/evote/internal/notify"
	"github.com/abrezinsky/evote/internal/repository"
	"github.com/abrezinsky/evote/internal/services"
	"github.com/abrezinsky/evote/internal/testutil"
	"github.com/abrezinsky/evote/pkg/facerec"
)

const testAdminPassword = "test-password"

type testSetup struct {
	router     chi.Router
	handlers   *handlers.Handlers
	repo       *repository.Repository
	auth       *auth.Auth
	log        logger.Logger
	recognizer *facerec.MockRecognizer
	publicDir  string
	avatarDir  string
}

type setupOption func(*setupConfig)

type setupConfig struct {
	policy     services.PhasePolicy
	recognizer *facerec.MockRecognizer
	health     repository.HealthChecker
	maxUpload  int64
}

func withPolicy(p services.PhasePolicy) setupOption {
	return func(c *setupConfig) { c.policy = p }
}

func withRecognizer(m *facerec.MockRecognizer) setupOption {
	return func(c *setupConfig) { c.recognizer = m }
}

func withHealth(hc repository.HealthChecker) setupOption {
	return func(c *setupConfig) { c.health = hc }
}

func withMaxUpload(n int64) setupOption {
	return func(c *setupConfig) { c.maxUpload = n }
}

func newTestSetup(t *testing.T, opts ...setupOption) *testSetup {
	t.Helper()

	cfg := setupConfig{policy: services.PhasePolicyStrict, recognizer: facerec.NewMockRecognizer()}
	for _, opt := range opts {
		opt(&cfg)
	}

	repo := testutil.NewTestRepository(t)
	log := logger.Discard()

	a, err := auth.New("test-secret", testAdminPassword)
	if err != nil {
		t.Fatalf("auth.New: %v", err)
	}

	publicDir := t.TempDir()
	avatarDir := t.TempDir()

	voting := services.NewVotingService(log, repo, cfg.policy)
	voting.SetClock(testutil.FixedClock(testutil.Date(2024, time.June, 1)))

	health := cfg.health
	if health == nil {
		health = repo
	}

	h := handlers.New(handlers.Deps{
		Elections:  services.NewElectionService(log, repo, cfg.policy),
		Voting:     voting,
		Feedback:   services.NewFeedbackService(log, repo),
		Users:      services.NewUserService(log, repo, media.New(avatarDir), notify.NewNoop(log), a),
		Candidates: services.NewCandidateService(log, repo, media.New(publicDir)),
		Identity:   services.NewIdentityService(log, repo, cfg.recognizer, a),
		Auth:       a,
		Health:     health,
		Log:        log,
		PublicDir:  publicDir,

		MaxUploadBytes: cfg.maxUpload,
	})

	return &testSetup{
		router:     h.Router(),
		handlers:   h,
		repo:       repo,
		auth:       a,
		log:        log,
		recognizer: cfg.recognizer,
		publicDir:  publicDir,
		avatarDir:  avatarDir,
	}
}

// adminToken signs an admin token
func (s *testSetup) adminToken(t *testing.T) string {
	t.Helper()
	token, ok := s.auth.AdminLogin(testAdminPassword)
	if !ok {
		t.Fatal("admin login failed")
	}
	return token
}

// userToken signs a token for an existing user
func (s *testSetup) userToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := s.auth.IssueToken(userID, "voter-"+userID, false)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return token
}

// do sends a request through the router. body may be nil, a []byte or a
// value encoded as JSON.
func (s *testSetup) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// doMultipart sends a multipart form with text fields and file parts
func (s *testSetup) doMultipart(t *testing.T, path, token string, fields map[string]string, files map[string]fileBody) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for field, f := range files {
		part, err := mw.CreateFormFile(field, f.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write(f.data)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

type fileBody struct {
	name string
	data []byte
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode response: %v (body %q)", err, rec.Body.String())
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) handlers.APIError {
	t.Helper()
	expectStatus(t, rec, status)
	var apiErr handlers.APIError
	decodeBody(t, rec, &apiErr)
	if apiErr.Success {
		t.Error("expected success=false in error body")
	}
	if apiErr.Code != code {
		t.Errorf("expected code %s, got %s (%s)", code, apiErr.Code, apiErr.Message)
	}
	return apiErr
}

// seedBallot stores an adult voter, two candidates and an election in phase
func (s *testSetup) seedBallot(t *testing.T, phase string) {
	t.Helper()
	ctx := context.Background()

	if err := s.repo.CreateUser(ctx, testutil.NewUser("u1", "1", testutil.Date(1990, time.January, 15))); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := s.repo.CreateUser(ctx, testutil.NewUser("u2", "2", testutil.Date(1950, time.May, 2))); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	for _, c := range []*models.Candidate{
		testutil.NewCandidate("c1", "asha", "Asha", "Sharma"),
		testutil.NewCandidate("c2", "ravi", "Ravi", "Kumar"),
	} {
		if err := s.repo.CreateCandidate(ctx, c); err != nil {
			t.Fatalf("CreateCandidate: %v", err)
		}
	}
	e := &models.Election{
		ID:           "e1",
		Name:         "City Council",
		Candidates:   []string{"c1", "c2"},
		Location:     "Pune",
		CurrentPhase: phase,
	}
	if err := s.repo.CreateElection(ctx, e); err != nil {
		t.Fatalf("CreateElection: %v", err)
	}
}

func TestRouter_UnknownAPIRoute(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodGet, "/api/auth/nope", "", nil)
	if rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 404 or 405, got %d", rec.Code)
	}
}

func TestRouter_ServesCandidateImages(t *testing.T) {
	setup := newTestSetup(t)

	store := media.New(setup.publicDir)
	if _, err := store.Save("CandidateImages/a.png", bytes.NewReader([]byte("png-bytes"))); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec := setup.do(t, http.MethodGet, "/CandidateImages/a.png", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "png-bytes" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestRouter_ServesStaticFrontend(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	log := logger.Discard()
	a, _ := auth.New("s", "p")
	static := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("index"))
	})
	h := handlers.New(handlers.Deps{
		Elections: services.NewElectionService(log, repo, services.PhasePolicyStrict),
		Auth:      a,
		Health:    repo,
		Static:    static,
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	expectStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "index" {
		t.Errorf("expected static body, got %q", rec.Body.String())
	}
}
