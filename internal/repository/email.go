package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/psilva/leadboard/internal/models"
)

// ErrNotFound is returned when a row does not exist or belongs to
// another user.
var ErrNotFound = errors.New("not found")

type EmailRepository struct {
	db *sql.DB
}

func NewEmailRepository(db *sql.DB) *EmailRepository {
	return &EmailRepository{db: db}
}

const emailColumns = `id, user_id, COALESCE(company, '') as company, COALESCE(email, '') as email,
	COALESCE(region, '') as region, COALESCE(industry, '') as industry, COALESCE(keywords, '[]') as keywords,
	status, COALESCE(response_content, '') as response_content, COALESCE(lead_classification, '') as lead_classification,
	COALESCE(campaign_name, '') as campaign_name, COALESCE(notes, '') as notes, date_sent, created_at, updated_at`

// ListByUser returns every email row for the user, newest first.
func (r *EmailRepository) ListByUser(userID string) ([]models.Email, error) {
	rows, err := r.db.Query(`
		SELECT `+emailColumns+`
		FROM emails WHERE user_id = ? ORDER BY date_sent DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := []models.Email{}
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, *e)
	}
	return emails, rows.Err()
}

// GetByID returns one email row scoped to the user.
func (r *EmailRepository) GetByID(userID, id string) (*models.Email, error) {
	row := r.db.QueryRow(`
		SELECT `+emailColumns+`
		FROM emails WHERE id = ? AND user_id = ?`, id, userID)

	e, err := scanEmail(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Insert stores a new email row. ID and timestamps are filled in when empty.
func (r *EmailRepository) Insert(e *models.Email) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	if e.Status == "" {
		e.Status = models.StatusSent
	}

	keywords, err := json.Marshal(e.Keywords)
	if err != nil {
		return err
	}

	var dateSent any
	if !e.DateSent.IsZero() {
		dateSent = e.DateSent
	}

	_, err = r.db.Exec(`
		INSERT INTO emails (id, user_id, company, email, region, industry, keywords,
			status, response_content, lead_classification, campaign_name, notes,
			date_sent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Company, e.Email, e.Region, e.Industry, string(keywords),
		e.Status, e.ResponseContent, e.LeadClassification, e.CampaignName, e.Notes,
		dateSent, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

// UpdateClassification sets lead_classification and notes on one row.
// The id is immutable; rows of other users are not touched.
func (r *EmailRepository) UpdateClassification(userID, id, classification, notes string) error {
	res, err := r.db.Exec(`
		UPDATE emails SET lead_classification = ?, notes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		classification, notes, time.Now().UTC(), id, userID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats returns the dashboard KPI counts over the user's full list.
func (r *EmailRepository) Stats(userID string) (models.EmailStats, error) {
	var s models.EmailStats
	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(CASE WHEN status = 'replied' THEN 1 END),
			COUNT(CASE WHEN lead_classification = 'hot' THEN 1 END),
			COUNT(CASE WHEN status = 'bounced' THEN 1 END)
		FROM emails WHERE user_id = ?`, userID,
	).Scan(&s.TotalSent, &s.TotalReplies, &s.HotLeads, &s.Bounced)
	return s, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmail(row rowScanner) (*models.Email, error) {
	e := &models.Email{}
	var keywords string
	var dateSent sql.NullTime

	err := row.Scan(&e.ID, &e.UserID, &e.Company, &e.Email, &e.Region, &e.Industry, &keywords,
		&e.Status, &e.ResponseContent, &e.LeadClassification, &e.CampaignName, &e.Notes,
		&dateSent, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if dateSent.Valid {
		e.DateSent = dateSent.Time
	}
	if keywords != "" {
		if err := json.Unmarshal([]byte(keywords), &e.Keywords); err != nil {
			e.Keywords = nil
		}
	}
	return e, nil
}
