package handlers

import (
	"github.com/abrezinsky/evote/internal/models"
	"github.com/abrezinsky/evote/internal/services"
)

// MessageResponse is a plain success message
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RegisterResponse is returned after a voter registers
type RegisterResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

// TokenResponse carries an admin token
type TokenResponse struct {
	Token string `json:"token"`
}

// VoteResponse is returned after a vote is stored
type VoteResponse struct {
	Message string                `json:"message"`
	Vote    *services.VoteReceipt `json:"vote"`
}

// DemographicsResponse holds age buckets for an election
type DemographicsResponse struct {
	AgeDistribution map[string]int `json:"ageDistribution"`
}

// ResultsResponse holds an election's tally
type ResultsResponse struct {
	ElectionID string                  `json:"electionId"`
	Phase      string                  `json:"phase"`
	Results    []models.CandidateTally `json:"results"`
}

// FeedbackResponse is returned after a like or dislike. Only the counter
// matching the submitted type is set.
type FeedbackResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	Likes         *int   `json:"likes,omitempty"`
	Dislikes      *int   `json:"dislikes,omitempty"`
	CandidateName string `json:"candidateName"`
}

// FeedbackStatsResponse wraps a candidate's counters
type FeedbackStatsResponse struct {
	Success bool                    `json:"success"`
	Data    *services.FeedbackStats `json:"data"`
}

// UserFeedbackResponse wraps a user's feedback list
type UserFeedbackResponse struct {
	Success bool                           `json:"success"`
	Data    []models.FeedbackWithCandidate `json:"data"`
}

// LogLevelResponse reports the current logging settings
type LogLevelResponse struct {
	Level   string `json:"level"`
	HTTPLog bool   `json:"httpLog"`
}

// HealthResponse is the health probe body
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Clients  int    `json:"clients"`
}
