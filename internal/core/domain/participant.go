package domain

import "time"

// Participant is one user's entry into a campaign. A user appears at most
// once per campaign; duplicate entry attempts are rejected, not merged.
// For instant campaigns Won and PrizeID are already resolved when the
// record is appended, so callers observe win and entry atomically.
type Participant struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	EnteredAt time.Time `json:"entered_at"`
	Won       bool      `json:"won"`
	PrizeID   *string   `json:"prize_id,omitempty"`
}
