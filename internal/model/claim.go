package model

import "time"

// Claim is a user's assertion that an item belongs to them (or that they found it).
type Claim struct {
	ID            int64     `json:"id"`
	ItemID        int64     `json:"item_id"`
	ItemTitle     string    `json:"item_title"`
	UserID        int64     `json:"user_id"`
	ClaimantName  string    `json:"claimant_name"`
	ClaimantEmail string    `json:"claimant_email"`
	Description   string    `json:"description"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Claim statuses.
const (
	ClaimStatusPending  = "pending"
	ClaimStatusAccepted = "accepted"
	ClaimStatusRejected = "rejected"
)

// Decision is an owner's answer to a pending claim.
type Decision string

// Decisions.
const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// Status returns the claim status a decision leads to.
func (d Decision) Status() string {
	switch d {
	case DecisionAccept:
		return ClaimStatusAccepted
	case DecisionReject:
		return ClaimStatusRejected
	}
	return ""
}

// Message is one entry in the conversation unlocked by an accepted claim.
type Message struct {
	ID        int64     `json:"id"`
	ClaimID   int64     `json:"claim_id"`
	SenderID  int64     `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
