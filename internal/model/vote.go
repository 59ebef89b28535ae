package model

import (
	"time"

	"github.com/google/uuid"
)

// VoteType is the side a vote takes.
type VoteType string

const (
	VoteAgree    VoteType = "agree"
	VoteDisagree VoteType = "disagree"
)

// Vote represents an individual vote record. Votes are immutable.
type Vote struct {
	ID                uuid.UUID `json:"id"`
	TakeID            uuid.UUID `json:"takeId"`
	VoteType          VoteType  `json:"voteType"`
	DeviceFingerprint string    `json:"-"`
	IPHash            string    `json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
}

// VoteRequest is the API request body for submitting a vote.
type VoteRequest struct {
	TakeID            string `json:"takeId"`
	VoteType          string `json:"voteType"`
	DeviceFingerprint string `json:"deviceFingerprint,omitempty"`
}

// CheckVotesRequest asks which of the given takes the caller has voted on.
type CheckVotesRequest struct {
	TakeIDs           []string `json:"takeIds"`
	DeviceFingerprint string   `json:"deviceFingerprint,omitempty"`
}

// CheckVotesResponse maps take IDs to the caller's vote.
type CheckVotesResponse struct {
	Votes map[string]VoteType `json:"votes"`
}

// VoteCount is the tally of a single take.
type VoteCount struct {
	TakeID             uuid.UUID `json:"takeId"`
	AgreeCount         int       `json:"agreeCount"`
	DisagreeCount      int       `json:"disagreeCount"`
	TotalVotes         int       `json:"totalVotes"`
	AgreePercentage    int       `json:"agreePercentage"`
	DisagreePercentage int       `json:"disagreePercentage"`
	ControversyScore   float64   `json:"controversyScore"`
}

// VoteResponse is the API response after submitting a vote.
type VoteResponse struct {
	Vote   Vote      `json:"vote"`
	Counts VoteCount `json:"counts"`
}
