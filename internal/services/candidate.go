package services

import (
	"context"
	stderrors "errors"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/evote/internal/errors"
	"github.com/abrezinsky/evote/internal/logger"
	"github.com/abrezinsky/evote/internal/models"
	"github.com/abrezinsky/evote/internal/repository"
)

// Public directories for candidate images. Stored paths are served from the
// public root, so they keep a leading slash.
const (
	CandidateImagesDir = "CandidateImages"
	PartySymbolsDir    = "PartySymbols"
)

// CandidateInput holds the editable fields of a candidate
type CandidateInput struct {
	Username      string    `json:"username"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	DOB           time.Time `json:"dob"`
	Qualification string    `json:"qualification"`
	Join          int       `json:"join"`
	Location      string    `json:"location"`
	Description   string    `json:"description"`
	PartyName     string    `json:"partyName"`
}

// CandidateImages are the optional uploads for a candidate
type CandidateImages struct {
	Profile *Upload
	Symbol  *Upload
}

// CandidateService manages candidates
type CandidateService struct {
	log    logger.Logger
	repo   repository.CandidateRepository
	public FileStore
	now    func() time.Time
}

// NewCandidateService creates a new CandidateService
func NewCandidateService(log logger.Logger, repo repository.CandidateRepository, public FileStore) *CandidateService {
	return &CandidateService{log: log, repo: repo, public: public, now: time.Now}
}

// CreateCandidate registers a candidate with optional profile image and
// party symbol
func (s *CandidateService) CreateCandidate(ctx context.Context, in CandidateInput, images CandidateImages) (*models.Candidate, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	if in.Username == "" {
		return nil, errors.Validation("Username is required")
	}
	if in.FirstName == "" {
		return nil, errors.Validation("First name is required")
	}

	if _, err := s.repo.GetCandidateByUsername(ctx, in.Username); err == nil {
		return nil, errors.Duplicate(MsgCandidateExists)
	} else if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.Internal(err)
	}

	c := &models.Candidate{ID: uuid.NewString()}
	applyCandidateInput(c, in)
	if c.Join == 0 {
		c.Join = s.now().Year()
	}

	if err := s.storeImages(c, images); err != nil {
		return nil, err
	}
	if err := s.repo.CreateCandidate(ctx, c); err != nil {
		s.discard(c.ProfileImage)
		s.discard(c.PartySymbol)
		return nil, fromRepo(err, MsgCandidateNotFound, MsgCandidateExists)
	}

	s.log.Info("Candidate created", "candidate_id", c.ID, "username", c.Username)
	return c, nil
}

func applyCandidateInput(c *models.Candidate, in CandidateInput) {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&c.Username, in.Username)
	set(&c.FirstName, in.FirstName)
	set(&c.LastName, in.LastName)
	set(&c.Qualification, in.Qualification)
	set(&c.Location, in.Location)
	set(&c.Description, in.Description)
	set(&c.PartyName, in.PartyName)
	if !in.DOB.IsZero() {
		c.DOB = in.DOB
	}
	if in.Join != 0 {
		c.Join = in.Join
	}
}

// storeImages saves uploads and points c at them, removing replaced files
func (s *CandidateService) storeImages(c *models.Candidate, images CandidateImages) error {
	if images.Profile != nil {
		stored, err := s.saveImage(CandidateImagesDir, "profile", images.Profile)
		if err != nil {
			return err
		}
		s.discard(c.ProfileImage)
		c.ProfileImage = stored
	}
	if images.Symbol != nil {
		stored, err := s.saveImage(PartySymbolsDir, "symbol", images.Symbol)
		if err != nil {
			return err
		}
		s.discard(c.PartySymbol)
		c.PartySymbol = stored
	}
	return nil
}

func (s *CandidateService) saveImage(dir, prefix string, up *Upload) (string, error) {
	name := path.Join(dir, prefix+"-"+uuid.NewString()+strings.ToLower(path.Ext(up.Filename)))
	stored, err := s.public.Save(name, up.Content)
	if err != nil {
		return "", errors.Internal(err)
	}
	return "/" + stored, nil
}

func (s *CandidateService) discard(publicPath string) {
	if publicPath == "" {
		return
	}
	if err := s.public.Remove(strings.TrimPrefix(publicPath, "/")); err != nil {
		s.log.Warn("Failed to remove candidate image", "file", publicPath, "error", err)
	}
}

// ListCandidates returns all candidates
func (s *CandidateService) ListCandidates(ctx context.Context) ([]models.Candidate, error) {
	list, err := s.repo.ListCandidates(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return list, nil
}

// GetCandidate returns one candidate
func (s *CandidateService) GetCandidate(ctx context.Context, id string) (*models.Candidate, error) {
	c, err := s.repo.GetCandidate(ctx, id)
	if err != nil {
		return nil, fromRepo(err, MsgCandidateNotFound, "")
	}
	return c, nil
}

// GetCandidateByUsername returns the candidate with username
func (s *CandidateService) GetCandidateByUsername(ctx context.Context, username string) (*models.Candidate, error) {
	c, err := s.repo.GetCandidateByUsername(ctx, username)
	if err != nil {
		return nil, fromRepo(err, MsgCandidateNotFound, "")
	}
	return c, nil
}

// UpdateCandidate overwrites the non-empty fields of in. Feedback counters
// are never changed here.
func (s *CandidateService) UpdateCandidate(ctx context.Context, id string, in CandidateInput, images CandidateImages) (*models.Candidate, error) {
	c, err := s.repo.GetCandidate(ctx, id)
	if err != nil {
		return nil, fromRepo(err, MsgCandidateNotFound, "")
	}

	applyCandidateInput(c, in)
	if err := s.storeImages(c, images); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateCandidate(ctx, c); err != nil {
		return nil, fromRepo(err, MsgCandidateNotFound, MsgCandidateExists)
	}

	s.log.Info("Candidate updated", "candidate_id", c.ID)
	return c, nil
}

// DeleteCandidate removes a candidate and its image files
func (s *CandidateService) DeleteCandidate(ctx context.Context, id string) error {
	c, err := s.repo.GetCandidate(ctx, id)
	if err != nil {
		return fromRepo(err, MsgCandidateNotFound, "")
	}
	if err := s.repo.DeleteCandidate(ctx, id); err != nil {
		return fromRepo(err, MsgCandidateNotFound, "")
	}
	s.discard(c.ProfileImage)
	s.discard(c.PartySymbol)
	s.log.Info("Candidate deleted", "candidate_id", id)
	return nil
}

// ImportCandidates creates candidates from a CSV sheet, reporting bad rows
func (s *CandidateService) ImportCandidates(ctx context.Context, data []byte) (*ImportReport, error) {
	rows, err := readSheet(data)
	if err != nil {
		return nil, err
	}

	report := newImportReport()
	for _, row := range rows {
		f := row.Fields
		if m := missing(f, CandidateColumns); len(m) > 0 {
			report.fail(row.Row, f, "Missing required fields: %s", strings.Join(m, ", "))
			continue
		}
		dob, err := ParseSheetDate(f["dob"])
		if err != nil {
			report.fail(row.Row, f, "Invalid date of birth %q, expected DD-MM-YYYY", f["dob"])
			continue
		}
		join, err := strconv.Atoi(f["join"])
		if err != nil {
			join = s.now().Year()
		}

		c := &models.Candidate{
			ID:            uuid.NewString(),
			Username:      f["username"],
			FirstName:     f["firstName"],
			LastName:      f["lastName"],
			DOB:           dob,
			Qualification: f["qualification"],
			Join:          join,
			Location:      f["location"],
			Description:   f["description"],
			PartyName:     f["partyName"],
		}
		if err := s.repo.CreateCandidate(ctx, c); err != nil {
			if stderrors.Is(err, repository.ErrDuplicate) {
				report.fail(row.Row, f, "Candidate with this username already exists")
				continue
			}
			report.fail(row.Row, f, "%v", err)
			continue
		}
		report.Success = append(report.Success, c.Username)
	}

	s.log.Info("Candidates imported", "created", len(report.Success), "rejected", len(report.Errors))
	return report, nil
}
