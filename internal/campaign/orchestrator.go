// Package campaign coordinates outreach submissions: it validates
// preconditions, builds webhook payloads and maps dispatch outcomes to
// user-facing messages.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/psilva/leadboard/internal/journal"
	"github.com/psilva/leadboard/internal/leads"
	"github.com/psilva/leadboard/internal/metrics"
	"github.com/psilva/leadboard/internal/models"
	"github.com/psilva/leadboard/internal/webhook"
)

// Status of a submission.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSending Status = "sending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Default campaign names.
const (
	DefaultLinkedInCampaign = "LinkedIn Campaign"
	DefaultSearchCampaign   = "Unnamed Campaign"
)

// Outcome messages shared by every dispatch kind.
const (
	msgTimeout     = "Request timed out. Check your webhook URL."
	msgUnreachable = "Could not reach the webhook. Check if it is accessible."
)

// Result is the outcome of a submission attempt.
type Result struct {
	Status    Status `json:"status"`
	Message   string `json:"message"`
	LeadCount int    `json:"lead_count,omitempty"`
}

// LinkedInRequest describes one LinkedIn campaign submission.
type LinkedInRequest struct {
	Leads           []leads.Lead
	MessageTemplate string
	DelaySeconds    int
	CampaignName    string
	MaxLeads        int
}

// SearchRequest describes one lead-search trigger.
type SearchRequest struct {
	Region   string
	Industry string
	Keywords []string
	Campaign string
}

type linkedInPayload struct {
	UserID            string       `json:"userId"`
	LinkedInAccountID string       `json:"linkedinAccountId"`
	Leads             []leads.Lead `json:"leads"`
	MessageTemplate   string       `json:"messageTemplate"`
	DelaySeconds      int          `json:"delaySeconds"`
	CampaignName      string       `json:"campaignName"`
}

type searchPayload struct {
	Region   string   `json:"region"`
	Industry string   `json:"industry"`
	Keywords []string `json:"keywords"`
	Campaign string   `json:"campaign"`
}

type initialEmailsPayload struct {
	Emails []string `json:"emails"`
}

// Orchestrator runs campaign submissions end to end.
type Orchestrator struct {
	client  *webhook.Client
	journal *journal.Journal
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an orchestrator. journal and metrics may be nil.
func New(client *webhook.Client, j *journal.Journal, m *metrics.Metrics, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		client:  client,
		journal: j,
		metrics: m,
		logger:  logger,
	}
}

// SendLinkedIn validates preconditions in order and, if they all hold,
// posts the campaign to the user's LinkedIn webhook. The first failing
// precondition wins and no network request is made.
func (o *Orchestrator) SendLinkedIn(ctx context.Context, userID string, settings *models.Settings, req LinkedInRequest) Result {
	accountID := ""
	webhookURL := ""
	if settings != nil {
		accountID = settings.LinkedinAccountID
		webhookURL = settings.LinkedinWebhookURL
	}

	switch {
	case accountID == "":
		return Result{Status: StatusError, Message: "Connect your LinkedIn account first."}
	case webhookURL == "":
		return Result{Status: StatusError, Message: "Configure your LinkedIn webhook URL in Settings."}
	case len(req.Leads) == 0:
		return Result{Status: StatusError, Message: "Upload a CSV with at least one lead."}
	case strings.TrimSpace(req.MessageTemplate) == "":
		return Result{Status: StatusError, Message: "Write a message template."}
	}

	selected := req.Leads
	if req.MaxLeads > 0 && req.MaxLeads < len(selected) {
		selected = selected[:req.MaxLeads]
	}

	name := req.CampaignName
	if name == "" {
		name = DefaultLinkedInCampaign
	}

	payload := linkedInPayload{
		UserID:            userID,
		LinkedInAccountID: accountID,
		Leads:             selected,
		MessageTemplate:   req.MessageTemplate,
		DelaySeconds:      req.DelaySeconds,
		CampaignName:      name,
	}

	success := fmt.Sprintf("Campaign sent! %d leads will be processed.", len(selected))
	res := o.dispatch(ctx, journal.KindLinkedIn, userID, name, len(selected), webhookURL, payload, success)
	if res.Status == StatusSuccess {
		o.metrics.AddLeadsSent(len(selected))
	}
	return res
}

// TriggerSearch posts a lead-search request to the user's search webhook.
func (o *Orchestrator) TriggerSearch(ctx context.Context, userID string, settings *models.Settings, req SearchRequest) Result {
	webhookURL := ""
	if settings != nil {
		webhookURL = settings.WebhookURL
	}
	if webhookURL == "" {
		return Result{Status: StatusError, Message: "Please configure your webhook URL in Settings first."}
	}

	name := req.Campaign
	if name == "" {
		name = DefaultSearchCampaign
	}

	payload := searchPayload{
		Region:   req.Region,
		Industry: req.Industry,
		Keywords: req.Keywords,
		Campaign: name,
	}

	success := "Successfully triggered workflow! The search is now being processed."
	return o.dispatch(ctx, journal.KindSearch, userID, name, 0, webhookURL, payload, success)
}

// SendInitialEmails posts the selected addresses to the user's
// initial-email webhook.
func (o *Orchestrator) SendInitialEmails(ctx context.Context, userID string, settings *models.Settings, emails []string) Result {
	webhookURL := ""
	if settings != nil {
		webhookURL = settings.InitialEmailWebhookURL
	}

	switch {
	case webhookURL == "":
		return Result{Status: StatusError, Message: "Configure your initial email webhook URL in Settings."}
	case len(emails) == 0:
		return Result{Status: StatusError, Message: "Select at least one email first."}
	}

	plural := ""
	if len(emails) > 1 {
		plural = "s"
	}
	success := fmt.Sprintf("Webhook triggered for %d recipient%s.", len(emails), plural)
	return o.dispatch(ctx, journal.KindInitialEmails, userID, "", len(emails), webhookURL, initialEmailsPayload{Emails: emails}, success)
}

// dispatch performs the single webhook POST and records the outcome in
// the journal and metrics.
func (o *Orchestrator) dispatch(ctx context.Context, kind, userID, campaignName string, leadCount int, url string, payload any, successMsg string) Result {
	res := Result{LeadCount: leadCount}

	err := o.client.Post(ctx, url, payload)
	switch {
	case err == nil:
		res.Status = StatusSuccess
		res.Message = successMsg
	case errors.Is(err, webhook.ErrTimeout):
		res.Status = StatusError
		res.Message = msgTimeout
	case errors.Is(err, webhook.ErrUnreachable):
		res.Status = StatusError
		res.Message = msgUnreachable
	default:
		var statusErr *webhook.StatusError
		if errors.As(err, &statusErr) {
			res.Status = StatusError
			res.Message = fmt.Sprintf("Webhook error: %d", statusErr.Code)
		} else {
			res.Status = StatusError
			res.Message = msgUnreachable
		}
	}

	o.metrics.IncDispatch(kind, string(res.Status))
	o.record(kind, userID, campaignName, leadCount, res)

	if res.Status == StatusSuccess {
		o.logger.Info("campaign dispatched", "kind", kind, "campaign", campaignName, "leads", leadCount)
	} else {
		o.logger.Warn("campaign dispatch failed", "kind", kind, "campaign", campaignName, "message", res.Message)
	}

	return res
}

func (o *Orchestrator) record(kind, userID, campaignName string, leadCount int, res Result) {
	if o.journal == nil {
		return
	}
	err := o.journal.Append(&journal.Record{
		UserID:       userID,
		Kind:         kind,
		CampaignName: campaignName,
		LeadCount:    leadCount,
		Status:       string(res.Status),
		Message:      res.Message,
	})
	if err != nil {
		o.logger.Error("failed to journal dispatch", "kind", kind, "error", err)
	}
}

// SplitKeywords turns a comma-separated keyword string into a trimmed,
// non-empty list.
func SplitKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if k := strings.TrimSpace(p); k != "" {
			out = append(out, k)
		}
	}
	return out
}
