package domain

import "time"

type PostStatus string

const (
	PostStatusPending PostStatus = "pending"
	PostStatusPosted  PostStatus = "posted"
	PostStatusFailed  PostStatus = "failed"
)

// ScheduledPost is a post queued for publication at ScheduledAt. Posts are
// retained after execution; only a still-pending post may be updated or
// cancelled. Error carries the publish failure text when Status is failed.
type ScheduledPost struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	MediaURLs   []string   `json:"media_urls,omitempty"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Status      PostStatus `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RecurrenceInterval is the calendar step between posts produced by a
// recurring schedule.
type RecurrenceInterval string

const (
	RecurrenceDaily   RecurrenceInterval = "daily"
	RecurrenceWeekly  RecurrenceInterval = "weekly"
	RecurrenceMonthly RecurrenceInterval = "monthly"
)

// Next returns t advanced by one interval step. Unknown intervals advance
// by a day.
func (r RecurrenceInterval) Next(t time.Time) time.Time {
	switch r {
	case RecurrenceWeekly:
		return t.AddDate(0, 0, 7)
	case RecurrenceMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// Valid reports whether r is a known interval.
func (r RecurrenceInterval) Valid() bool {
	return r == RecurrenceDaily || r == RecurrenceWeekly || r == RecurrenceMonthly
}
