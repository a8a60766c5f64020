package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/abrezinsky/evote/internal/services"
)

// ElectionCreateRequest represents a request to create an election
type ElectionCreateRequest struct {
	Name       string   `json:"name"`
	Candidates []string `json:"candidates"`
	Location   string   `json:"location"`
}

// PhaseUpdateRequest represents a request to move an election to a phase
type PhaseUpdateRequest struct {
	CurrentPhase string   `json:"currentPhase"`
	Name         *string  `json:"name"`
	Candidates   []string `json:"candidates"`
}

// LoginRequest is the username and father's name login
type LoginRequest struct {
	Username   string `json:"username"`
	FatherName string `json:"fatherName"`
}

// AdminLoginRequest carries the admin password
type AdminLoginRequest struct {
	Password string `json:"password"`
}

// VotingMailRequest names the user to thank
type VotingMailRequest struct {
	ID string `json:"id"`
}

// LogLevelRequest changes the server log level
type LogLevelRequest struct {
	Level   string `json:"level"`
	HTTPLog *bool  `json:"httpLog"`
}

// isMultipart reports whether the request carries form uploads
func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// parseMultipart reads a multipart body limited to max bytes
func parseMultipart(w http.ResponseWriter, r *http.Request, max int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, max)
	if err := r.ParseMultipartForm(max); err != nil {
		return BadRequest("Invalid form data: " + err.Error())
	}
	return nil
}

// formUpload returns the named file part, or nil when it is absent. The
// caller closes the returned file.
func formUpload(r *http.Request, field string) (*services.Upload, multipart.File, error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, BadRequest("Invalid " + field + " upload")
	}
	return &services.Upload{Filename: header.Filename, Content: file}, file, nil
}

// formFileBytes reads the first present field among names
func formFileBytes(r *http.Request, names ...string) (string, []byte, error) {
	for _, name := range names {
		file, header, err := r.FormFile(name)
		if err == http.ErrMissingFile {
			continue
		}
		if err != nil {
			return "", nil, BadRequest("Invalid " + name + " upload")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", nil, BadRequest("Failed to read " + name + " upload")
		}
		return header.Filename, data, nil
	}
	return "", nil, BadRequest("No file uploaded. Expected field: " + strings.Join(names, " or "))
}

// parseDate accepts RFC 3339, YYYY-MM-DD and the DD-MM-YYYY sheet format. Only
// the calendar date is kept, as written, whatever the offset.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return services.CalendarDate(t), nil
		}
	}
	return services.ParseSheetDate(s)
}

// userRequest is the JSON shape of a user registration or edit
type userRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Mobile     string `json:"mobile"`
	FirstName  string `json:"fname"`
	LastName   string `json:"lname"`
	FatherName string `json:"fatherName"`
	VoterID    string `json:"voterID"`
	DOB        string `json:"dob"`
	Location   string `json:"location"`
}

func (req userRequest) input() (services.UserInput, error) {
	in := services.UserInput{
		Username:   req.Username,
		Email:      req.Email,
		Mobile:     req.Mobile,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		FatherName: req.FatherName,
		VoterID:    req.VoterID,
		Location:   req.Location,
	}
	if strings.TrimSpace(req.DOB) != "" {
		dob, err := parseDate(req.DOB)
		if err != nil {
			return in, BadRequest(fmt.Sprintf("Invalid date of birth %q", req.DOB))
		}
		in.DOB = &dob
	}
	return in, nil
}

// readUserRequest decodes a JSON or multipart user body. The avatar comes
// from the "profile" part.
func (h *Handlers) readUserRequest(w http.ResponseWriter, r *http.Request) (services.UserInput, *services.Upload, func(), error) {
	noop := func() {}
	var req userRequest
	if !isMultipart(r) {
		if err := h.decodeJSON(w, r, &req); err != nil {
			return services.UserInput{}, nil, noop, err
		}
		in, err := req.input()
		return in, nil, noop, err
	}

	if err := parseMultipart(w, r, h.maxUpload); err != nil {
		return services.UserInput{}, nil, noop, err
	}
	req = userRequest{
		Username:   r.FormValue("username"),
		Email:      r.FormValue("email"),
		Mobile:     r.FormValue("mobile"),
		FirstName:  r.FormValue("fname"),
		LastName:   r.FormValue("lname"),
		FatherName: r.FormValue("fatherName"),
		VoterID:    r.FormValue("voterID"),
		DOB:        r.FormValue("dob"),
		Location:   r.FormValue("location"),
	}
	in, err := req.input()
	if err != nil {
		return in, nil, noop, err
	}
	avatar, file, err := formUpload(r, "profile")
	if err != nil || file == nil {
		return in, nil, noop, err
	}
	return in, avatar, func() { file.Close() }, nil
}

// candidateRequest is the JSON shape of a candidate create or edit
type candidateRequest struct {
	Username      string          `json:"username"`
	FirstName     string          `json:"firstName"`
	LastName      string          `json:"lastName"`
	DOB           string          `json:"dob"`
	Qualification string          `json:"qualification"`
	Join          json.RawMessage `json:"join"`
	Location      string          `json:"location"`
	Description   string          `json:"description"`
	PartyName     string          `json:"partyName"`
}

func (req candidateRequest) input() (services.CandidateInput, error) {
	in := services.CandidateInput{
		Username:      req.Username,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Qualification: req.Qualification,
		Location:      req.Location,
		Description:   req.Description,
		PartyName:     req.PartyName,
	}
	if strings.TrimSpace(req.DOB) != "" {
		dob, err := parseDate(req.DOB)
		if err != nil {
			return in, BadRequest(fmt.Sprintf("Invalid date of birth %q", req.DOB))
		}
		in.DOB = dob
	}
	// join may arrive as a number or a numeric string
	if raw := strings.Trim(strings.TrimSpace(string(req.Join)), `"`); raw != "" && raw != "null" {
		join, err := strconv.Atoi(raw)
		if err != nil {
			return in, BadRequest(fmt.Sprintf("Invalid join year %q", raw))
		}
		in.Join = join
	}
	return in, nil
}

// readCandidateRequest decodes a JSON or multipart candidate body. Images
// come from the "profileImage" and "partySymbol" parts.
func (h *Handlers) readCandidateRequest(w http.ResponseWriter, r *http.Request) (services.CandidateInput, services.CandidateImages, func(), error) {
	var images services.CandidateImages
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	var req candidateRequest
	if !isMultipart(r) {
		if err := h.decodeJSON(w, r, &req); err != nil {
			return services.CandidateInput{}, images, cleanup, err
		}
		in, err := req.input()
		return in, images, cleanup, err
	}

	if err := parseMultipart(w, r, h.maxUpload); err != nil {
		return services.CandidateInput{}, images, cleanup, err
	}
	req = candidateRequest{
		Username:      r.FormValue("username"),
		FirstName:     r.FormValue("firstName"),
		LastName:      r.FormValue("lastName"),
		DOB:           r.FormValue("dob"),
		Qualification: r.FormValue("qualification"),
		Join:          json.RawMessage(r.FormValue("join")),
		Location:      r.FormValue("location"),
		Description:   r.FormValue("description"),
		PartyName:     r.FormValue("partyName"),
	}
	in, err := req.input()
	if err != nil {
		return in, images, cleanup, err
	}

	profile, file, err := formUpload(r, "profileImage")
	if err != nil {
		return in, images, cleanup, err
	}
	if file != nil {
		closers = append(closers, file.Close)
		images.Profile = profile
	}
	symbol, file, err := formUpload(r, "partySymbol")
	if err != nil {
		return in, images, cleanup, err
	}
	if file != nil {
		closers = append(closers, file.Close)
		images.Symbol = symbol
	}
	return in, images, cleanup, nil
}
