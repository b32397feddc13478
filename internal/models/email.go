package models

import "time"

// Email statuses as written by the external outreach workflow.
const (
	StatusSent    = "sent"
	StatusReplied = "replied"
	StatusBounced = "bounced"
)

// Lead classifications assigned by the user.
const (
	ClassificationHot  = "hot"
	ClassificationWarm = "warm"
	ClassificationCold = "cold"
)

// Email is one sent outreach email tracked on the dashboard. Rows are created
// by the external workflow; the dashboard only updates classification and
// notes.
type Email struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Company            string    `json:"company"`
	Email              string    `json:"email"`
	Region             string    `json:"region"`
	Industry           string    `json:"industry"`
	Keywords           []string  `json:"keywords"`
	Status             string    `json:"status"`
	ResponseContent    string    `json:"response_content"`
	LeadClassification string    `json:"lead_classification"`
	CampaignName       string    `json:"campaign_name"`
	Notes              string    `json:"notes"`
	DateSent           time.Time `json:"date_sent"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// EmailStats are the dashboard KPI counters over a user's full email list.
type EmailStats struct {
	TotalSent    int `json:"total_sent"`
	TotalReplies int `json:"total_replies"`
	HotLeads     int `json:"hot_leads"`
	Bounced      int `json:"bounced"`
}

// ValidStatus reports whether s is a known email status.
func ValidStatus(s string) bool {
	return s == StatusSent || s == StatusReplied || s == StatusBounced
}

// ValidClassification reports whether c is a known lead classification.
func ValidClassification(c string) bool {
	return c == ClassificationHot || c == ClassificationWarm || c == ClassificationCold
}
