package services

import (
	stderrors "errors"

	"github.com/abrezinsky/evote/internal/errors"
	"github.com/abrezinsky/evote/internal/repository"
)

// User-facing messages shared by services and asserted on by clients
const (
	MsgElectionNotFound   = "Election not found"
	MsgCandidateNotFound  = "Candidate not found"
	MsgUserNotFound       = "User not found"
	MsgVoteNotFound       = "Vote not found"
	MsgAlreadyVoted       = "User has already voted in this election"
	MsgVoterIncomplete    = "Voter information not found or incomplete"
	MsgVoterUnderage      = "Voter age must be at least 18"
	MsgInvalidIDs         = "Invalid ID format provided"
	MsgElectionNotVoting  = "Election is not open for voting"
	MsgCandidateNotOnVote = "Candidate is not standing in this election"
	MsgInvalidVoterID     = "Invalid Voter ID format. Must be 10 characters long and contain only uppercase letters and numbers."
	MsgUserExists         = "User already exists with this username, email, mobile, or Voter ID"
	MsgCandidateExists    = "Username already exists"
	MsgElectionExists     = "Election name already exists"
	MsgLoginFieldsMissing = "Username and Father's Name are required"
	MsgInvalidUsername    = "Invalid Username"
	MsgFatherNameMissing  = "User's Father's Name not found in records"
	MsgInvalidFatherName  = "Invalid Father's Name"
)

// fromRepo translates repository sentinels into typed errors. Anything else
// is treated as an internal failure.
func fromRepo(err error, notFoundMsg, duplicateMsg string) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, repository.ErrNotFound):
		return errors.NotFound(notFoundMsg)
	case stderrors.Is(err, repository.ErrDuplicate) && duplicateMsg != "":
		return errors.Duplicate(duplicateMsg)
	default:
		return errors.Internal(err)
	}
}
