package models

import "time"

// Settings is the per-user dashboard configuration row. One row per user,
// upserted as a whole; LinkedinAccountID is set by the account-link callback
// and cleared on disconnect.
type Settings struct {
	ID                     string    `json:"id"`
	UserID                 string    `json:"user_id"`
	WebhookURL             string    `json:"webhook_url"`
	LinkedinWebhookURL     string    `json:"linkedin_webhook_url"`
	InitialEmailWebhookURL string    `json:"initial_email_webhook_url"`
	EmailTemplate          string    `json:"email_template"`
	LinkedinAccountID      string    `json:"linkedin_account_id"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}
