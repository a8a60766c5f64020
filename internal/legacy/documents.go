package legacy

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/abrezinsky/evote/internal/errors"
	"github.com/abrezinsky/evote/internal/models"
	"github.com/abrezinsky/evote/internal/services"
)

// Documents as the mongoose models stored them. Loosely typed fields are kept
// as raw values because older rows hold numbers where newer ones hold strings.

type userDoc struct {
	ID         bson.ObjectID `bson:"_id"`
	Username   string        `bson:"username"`
	FirstName  string        `bson:"fname"`
	LastName   string        `bson:"lname"`
	Email      string        `bson:"email"`
	Mobile     bson.RawValue `bson:"mobile"`
	VoterID    string        `bson:"voterID"`
	FatherName string        `bson:"fatherName"`
	DOB        bson.RawValue `bson:"dob"`
	Location   string        `bson:"location"`
	Avatar     string        `bson:"avatar"`
	IsAdmin    bool          `bson:"isAdmin"`
	CreatedAt  time.Time     `bson:"createdAt"`
}

type candidateDoc struct {
	ID            bson.ObjectID `bson:"_id"`
	Username      string        `bson:"username"`
	FirstName     string        `bson:"firstName"`
	LastName      string        `bson:"lastName"`
	DOB           bson.RawValue `bson:"dob"`
	Qualification string        `bson:"qualification"`
	Join          bson.RawValue `bson:"join"`
	Location      string        `bson:"location"`
	Description   string        `bson:"description"`
	PartyName     string        `bson:"partyName"`
	PartySymbol   string        `bson:"partySymbol"`
	ProfileImage  string        `bson:"profileImage"`
	Likes         bson.RawValue `bson:"likes"`
	Dislikes      bson.RawValue `bson:"dislikes"`
	CreatedAt     time.Time     `bson:"createdAt"`
}

type electionDoc struct {
	ID           bson.ObjectID   `bson:"_id"`
	Name         string          `bson:"name"`
	Candidates   []bson.RawValue `bson:"candidates"`
	Location     string          `bson:"location"`
	CurrentPhase string          `bson:"currentPhase"`
	CreatedAt    time.Time       `bson:"createdAt"`
	UpdatedAt    time.Time       `bson:"updatedAt"`
}

type voteDoc struct {
	ID          bson.ObjectID `bson:"_id"`
	ElectionID  bson.RawValue `bson:"electionId"`
	VoterID     bson.RawValue `bson:"voterId"`
	CandidateID bson.RawValue `bson:"candidateId"`
	VoterAge    bson.RawValue `bson:"voterAge"`
	Timestamp   time.Time     `bson:"timestamp"`
}

type feedbackDoc struct {
	ID           bson.ObjectID `bson:"_id"`
	CandidateID  bson.RawValue `bson:"candidateId"`
	UserID       bson.RawValue `bson:"userId"`
	ElectionID   bson.RawValue `bson:"electionId"`
	FeedbackType string        `bson:"feedbackType"`
	CreatedAt    time.Time     `bson:"createdAt"`
}

// ConvertUser decodes a users document
func ConvertUser(raw bson.Raw) (*models.User, error) {
	var d userDoc
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, errors.Wrap(err, errors.ErrValidation, "malformed user document")
	}
	if d.ID.IsZero() || d.Username == "" {
		return nil, errors.Validation("user document needs _id and username")
	}
	u := &models.User{
		ID:         d.ID.Hex(),
		Username:   d.Username,
		Email:      d.Email,
		Mobile:     stringValue(d.Mobile),
		FirstName:  d.FirstName,
		LastName:   d.LastName,
		FatherName: d.FatherName,
		VoterID:    d.VoterID,
		Location:   d.Location,
		Avatar:     d.Avatar,
		IsAdmin:    d.IsAdmin,
		CreatedAt:  createdAt(d.CreatedAt, d.ID),
	}
	if dob, ok := timeValue(d.DOB); ok {
		u.DOB = &dob
	}
	return u, nil
}

// ConvertCandidate decodes a candidates document, counters included
func ConvertCandidate(raw bson.Raw) (*models.Candidate, error) {
	var d candidateDoc
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, errors.Wrap(err, errors.ErrValidation, "malformed candidate document")
	}
	if d.ID.IsZero() || d.Username == "" {
		return nil, errors.Validation("candidate document needs _id and username")
	}
	dob, _ := timeValue(d.DOB)
	return &models.Candidate{
		ID:            d.ID.Hex(),
		Username:      d.Username,
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		DOB:           dob,
		Qualification: d.Qualification,
		Join:          intValue(d.Join),
		Location:      d.Location,
		Description:   d.Description,
		PartyName:     d.PartyName,
		PartySymbol:   d.PartySymbol,
		ProfileImage:  d.ProfileImage,
		Likes:         intValue(d.Likes),
		Dislikes:      intValue(d.Dislikes),
		CreatedAt:     createdAt(d.CreatedAt, d.ID),
	}, nil
}

// ConvertElection decodes an elections document. Candidate references may be
// ObjectIDs or their hex strings.
func ConvertElection(raw bson.Raw) (*models.Election, error) {
	var d electionDoc
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, errors.Wrap(err, errors.ErrValidation, "malformed election document")
	}
	if d.ID.IsZero() || d.Name == "" {
		return nil, errors.Validation("election document needs _id and name")
	}
	e := &models.Election{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Candidates:   make([]string, 0, len(d.Candidates)),
		Location:     d.Location,
		CurrentPhase: d.CurrentPhase,
		CreatedAt:    createdAt(d.CreatedAt, d.ID),
		UpdatedAt:    d.UpdatedAt,
	}
	for _, c := range d.Candidates {
		if id := refValue(c); id != "" {
			e.Candidates = append(e.Candidates, id)
		}
	}
	return e, nil
}

// ConvertVote decodes a votes document
func ConvertVote(raw bson.Raw) (*models.Vote, error) {
	var d voteDoc
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, errors.Wrap(err, errors.ErrValidation, "malformed vote document")
	}
	v := &models.Vote{
		ID:          d.ID.Hex(),
		ElectionID:  refValue(d.ElectionID),
		VoterID:     refValue(d.VoterID),
		CandidateID: refValue(d.CandidateID),
		VoterAge:    intValue(d.VoterAge),
		Timestamp:   createdAt(d.Timestamp, d.ID),
	}
	if d.ID.IsZero() || v.ElectionID == "" || v.VoterID == "" || v.CandidateID == "" {
		return nil, errors.Validation("vote document needs _id, electionId, voterId and candidateId")
	}
	if v.VoterAge < services.MinVoterAge {
		return nil, errors.Validationf("voter age %d is below %d", v.VoterAge, services.MinVoterAge)
	}
	return v, nil
}

// ConvertFeedback decodes a feedbacks document
func ConvertFeedback(raw bson.Raw) (*models.Feedback, error) {
	var d feedbackDoc
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, errors.Wrap(err, errors.ErrValidation, "malformed feedback document")
	}
	f := &models.Feedback{
		ID:           d.ID.Hex(),
		CandidateID:  refValue(d.CandidateID),
		UserID:       refValue(d.UserID),
		ElectionID:   refValue(d.ElectionID),
		FeedbackType: d.FeedbackType,
		CreatedAt:    createdAt(d.CreatedAt, d.ID),
	}
	if d.ID.IsZero() || f.CandidateID == "" || f.UserID == "" || f.ElectionID == "" {
		return nil, errors.Validation("feedback document needs _id, candidateId, userId and electionId")
	}
	if f.FeedbackType != models.FeedbackLike && f.FeedbackType != models.FeedbackDislike {
		return nil, errors.Validationf("unknown feedback type %q", f.FeedbackType)
	}
	return f, nil
}

// createdAt falls back to the ObjectID's embedded timestamp for rows written
// before the schema had timestamps
func createdAt(t time.Time, id bson.ObjectID) time.Time {
	if !t.IsZero() {
		return t.UTC()
	}
	if id.IsZero() {
		return time.Time{}
	}
	return id.Timestamp().UTC()
}

func refValue(v bson.RawValue) string {
	switch v.Type {
	case bson.TypeObjectID:
		return v.ObjectID().Hex()
	case bson.TypeString:
		return strings.TrimSpace(v.StringValue())
	}
	return ""
}

func stringValue(v bson.RawValue) string {
	switch v.Type {
	case bson.TypeString:
		return v.StringValue()
	case bson.TypeInt32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case bson.TypeInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case bson.TypeDouble:
		return strconv.FormatFloat(v.Double(), 'f', -1, 64)
	case bson.TypeObjectID:
		return v.ObjectID().Hex()
	}
	return ""
}

func intValue(v bson.RawValue) int {
	switch v.Type {
	case bson.TypeInt32:
		return int(v.Int32())
	case bson.TypeInt64:
		return int(v.Int64())
	case bson.TypeDouble:
		return int(math.Round(v.Double()))
	case bson.TypeString:
		n, _ := strconv.Atoi(strings.TrimSpace(v.StringValue()))
		return n
	}
	return 0
}

// timeValue accepts BSON dates and the string forms the sign-up form and
// import sheets produced
func timeValue(v bson.RawValue) (time.Time, bool) {
	switch v.Type {
	case bson.TypeDateTime:
		return time.UnixMilli(v.DateTime()).UTC(), true
	case bson.TypeString:
		s := strings.TrimSpace(v.StringValue())
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return services.CalendarDate(t), true
			}
		}
		if t, err := services.ParseSheetDate(s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func describe(raw bson.Raw) string {
	if id, ok := raw.Lookup("_id").ObjectIDOK(); ok {
		return id.Hex()
	}
	return fmt.Sprintf("%.40s", raw.String())
}
