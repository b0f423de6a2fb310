package domain

import "time"

// CampaignType selects how winners are determined.
type CampaignType string

const (
	// CampaignTypeLaterLottery collects entries and draws all winners in
	// one batch after the campaign ends.
	CampaignTypeLaterLottery CampaignType = "later_lottery"
	// CampaignTypeInstantWeb resolves each entry at entry time; results
	// are surfaced through a web redirect.
	CampaignTypeInstantWeb CampaignType = "instant_web"
	// CampaignTypeInstantAuto resolves each entry at entry time; results
	// are delivered through automated replies or direct messages.
	CampaignTypeInstantAuto CampaignType = "instant_auto"
)

// Instant reports whether entries are resolved at entry time.
func (t CampaignType) Instant() bool {
	return t == CampaignTypeInstantWeb || t == CampaignTypeInstantAuto
}

// Valid reports whether t is one of the known campaign types.
func (t CampaignType) Valid() bool {
	return t == CampaignTypeLaterLottery || t.Instant()
}

type CampaignStatus string

const (
	CampaignStatusDraft  CampaignStatus = "draft"
	CampaignStatusActive CampaignStatus = "active"
	CampaignStatusEnded  CampaignStatus = "ended"
)

// Rules describes what a user must do before an entry is accepted.
// WinProbability is a percentage in [0,100] consumed only by instant
// campaign types; when nil the engine falls back to its configured default.
type Rules struct {
	RequireFollow  bool   `json:"require_follow"`
	RequireRetweet bool   `json:"require_retweet"`
	RequireLike    bool   `json:"require_like"`
	Hashtag        string `json:"hashtag,omitempty"`
	WinProbability *int   `json:"win_probability,omitempty"`
}

// Campaign is a lottery campaign. It owns its prize inventory and
// participant list for its whole lifetime; campaigns are never deleted,
// only ended, so reporting stays available.
type Campaign struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Type         CampaignType   `json:"type"`
	Description  string         `json:"description,omitempty"`
	StartDate    time.Time      `json:"start_date"`
	EndDate      time.Time      `json:"end_date"`
	Prizes       []Prize        `json:"prizes"`
	Participants []Participant  `json:"participants"`
	Status       CampaignStatus `json:"status"`
	Rules        Rules          `json:"rules"`
	// DrawnAt is set when the later-lottery batch draw has run, making
	// the draw a once-only operation.
	DrawnAt   *time.Time `json:"drawn_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ActiveAt is the single activity predicate used for entry decisions:
// status and date window are evaluated against one captured now so the
// two checks cannot drift apart.
func (c *Campaign) ActiveAt(now time.Time) bool {
	return c.Status == CampaignStatusActive &&
		!now.Before(c.StartDate) && !now.After(c.EndDate)
}

// Participant looks up the entry for a user id. Returns nil when the user
// has not entered.
func (c *Campaign) Participant(userID string) *Participant {
	for i := range c.Participants {
		if c.Participants[i].UserID == userID {
			return &c.Participants[i]
		}
	}
	return nil
}

// AvailablePrizes returns indices of prizes that still have inventory.
func (c *Campaign) AvailablePrizes() []int {
	var idx []int
	for i := range c.Prizes {
		if c.Prizes[i].Remaining > 0 {
			idx = append(idx, i)
		}
	}
	return idx
}
