package models

import "time"

// Election phases. The permissive policy may store other strings too.
const (
	PhaseInit   = "init"
	PhaseVoting = "voting"
	PhaseResult = "result"
)

// Feedback types
const (
	FeedbackLike    = "like"
	FeedbackDislike = "dislike"
)

// Election is a named contest between a list of candidates
type Election struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Candidates   []string  `json:"candidates"`
	Location     string    `json:"location"`
	CurrentPhase string    `json:"currentPhase"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasCandidate reports whether candidateID is on the ballot
func (e *Election) HasCandidate(candidateID string) bool {
	for _, id := range e.Candidates {
		if id == candidateID {
			return true
		}
	}
	return false
}

// User is a registered voter
type User struct {
	ID         string     `json:"_id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Mobile     string     `json:"mobile"`
	FirstName  string     `json:"fname"`
	LastName   string     `json:"lname"`
	FatherName string     `json:"fatherName"`
	VoterID    string     `json:"voterID"`
	DOB        *time.Time `json:"dob,omitempty"`
	Location   string     `json:"location"`
	Avatar     string     `json:"avatar,omitempty"`
	IsAdmin    bool       `json:"isAdmin"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Candidate stands in elections and collects feedback
type Candidate struct {
	ID            string    `json:"_id"`
	Username      string    `json:"username"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	DOB           time.Time `json:"dob"`
	Qualification string    `json:"qualification"`
	Join          int       `json:"join"`
	Location      string    `json:"location"`
	Description   string    `json:"description"`
	PartyName     string    `json:"partyName"`
	PartySymbol   string    `json:"partySymbol,omitempty"`
	ProfileImage  string    `json:"profileImage,omitempty"`
	Likes         int       `json:"likes"`
	Dislikes      int       `json:"dislikes"`
	CreatedAt     time.Time `json:"createdAt"`
}

// FullName joins first and last name, trimming a missing last name
func (c *Candidate) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// Vote is one ledger row: a voter's single choice in an election
type Vote struct {
	ID          string    `json:"_id"`
	ElectionID  string    `json:"electionId"`
	VoterID     string    `json:"voterId"`
	CandidateID string    `json:"candidateId"`
	VoterAge    int       `json:"voterAge"`
	Timestamp   time.Time `json:"timestamp"`
}

// Feedback is one like or dislike from a user for a candidate in an election
type Feedback struct {
	ID           string    `json:"_id"`
	CandidateID  string    `json:"candidateId"`
	UserID       string    `json:"userId"`
	ElectionID   string    `json:"electionId"`
	FeedbackType string    `json:"feedbackType"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CandidateTally is a vote count for one candidate
type CandidateTally struct {
	CandidateID string `json:"candidateId"`
	Name        string `json:"name"`
	PartyName   string `json:"partyName"`
	Votes       int    `json:"votes"`
}

// FeedbackWithCandidate is a feedback row joined with its candidate
type FeedbackWithCandidate struct {
	Feedback
	CandidateName string `json:"candidateName"`
	PartyName     string `json:"partyName"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
