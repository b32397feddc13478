package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/psilva/leadboard/internal/models"
)

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetByUser returns the user's settings row, or nil when none exists yet.
func (r *SettingsRepository) GetByUser(userID string) (*models.Settings, error) {
	s := &models.Settings{}
	err := r.db.QueryRow(`
		SELECT id, user_id, COALESCE(webhook_url, '') as webhook_url,
			COALESCE(linkedin_webhook_url, '') as linkedin_webhook_url,
			COALESCE(initial_email_webhook_url, '') as initial_email_webhook_url,
			COALESCE(email_template, '') as email_template,
			COALESCE(linkedin_account_id, '') as linkedin_account_id,
			created_at, updated_at
		FROM settings WHERE user_id = ?`, userID,
	).Scan(&s.ID, &s.UserID, &s.WebhookURL, &s.LinkedinWebhookURL, &s.InitialEmailWebhookURL,
		&s.EmailTemplate, &s.LinkedinAccountID, &s.CreatedAt, &s.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Upsert creates or updates the user's settings row. The stored LinkedIn
// account id is left untouched; use SetAccountID for that.
func (r *SettingsRepository) Upsert(s *models.Settings) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO settings (id, user_id, webhook_url, linkedin_webhook_url,
			initial_email_webhook_url, email_template, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			webhook_url = excluded.webhook_url,
			linkedin_webhook_url = excluded.linkedin_webhook_url,
			initial_email_webhook_url = excluded.initial_email_webhook_url,
			email_template = excluded.email_template,
			updated_at = excluded.updated_at`,
		s.ID, s.UserID, s.WebhookURL, s.LinkedinWebhookURL,
		s.InitialEmailWebhookURL, s.EmailTemplate, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

// SetAccountID stores the connected LinkedIn account id, creating the
// settings row if the user has none yet.
func (r *SettingsRepository) SetAccountID(userID, accountID string) error {
	now := time.Now().UTC()
	_, err := r.db.Exec(`
		INSERT INTO settings (id, user_id, linkedin_account_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			linkedin_account_id = excluded.linkedin_account_id,
			updated_at = excluded.updated_at`,
		uuid.New().String(), userID, accountID, now, now,
	)
	return err
}

// ClearAccountID disconnects the LinkedIn account.
func (r *SettingsRepository) ClearAccountID(userID string) error {
	_, err := r.db.Exec(`
		UPDATE settings SET linkedin_account_id = NULL, updated_at = ?
		WHERE user_id = ?`, time.Now().UTC(), userID)
	return err
}
