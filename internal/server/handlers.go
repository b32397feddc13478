package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/psilva/leadboard/internal/campaign"
	"github.com/psilva/leadboard/internal/dashboard"
	"github.com/psilva/leadboard/internal/journal"
	"github.com/psilva/leadboard/internal/leads"
	"github.com/psilva/leadboard/internal/message"
	"github.com/psilva/leadboard/internal/models"
	"github.com/psilva/leadboard/internal/repository"
)

// EmailListResponse is the response for GET /api/v1/emails
type EmailListResponse struct {
	Emails     []models.Email    `json:"emails"`
	Total      int               `json:"total"`
	TotalPages int               `json:"total_pages"`
	Page       int               `json:"page"`
	Stats      models.EmailStats `json:"stats"`
}

// UpdateEmailRequest is the request body for PATCH /api/v1/emails/{id}
type UpdateEmailRequest struct {
	LeadClassification string `json:"lead_classification"`
	Notes              string `json:"notes"`
}

// LinkedInCampaignRequest is the request body for POST /api/v1/campaigns/linkedin
type LinkedInCampaignRequest struct {
	CSVText         string `json:"csv_text"`
	MessageTemplate string `json:"message_template"`
	DelaySeconds    int    `json:"delay_seconds"`
	CampaignName    string `json:"campaign_name"`
	MaxLeads        int    `json:"max_leads"`
}

// CampaignResponse wraps a submission outcome plus any CSV parse errors
type CampaignResponse struct {
	campaign.Result
	ParseErrors []string `json:"parse_errors,omitempty"`
}

// PreviewRequest is the request body for POST /api/v1/campaigns/linkedin/preview
type PreviewRequest struct {
	CSVText         string `json:"csv_text"`
	MessageTemplate string `json:"message_template"`
}

// PreviewResponse is the response for POST /api/v1/campaigns/linkedin/preview
type PreviewResponse struct {
	Leads   []leads.Lead `json:"leads"`
	Errors  []string     `json:"errors,omitempty"`
	Preview string       `json:"preview,omitempty"`
}

// SearchTriggerRequest is the request body for POST /api/v1/campaigns/search
type SearchTriggerRequest struct {
	Region       string `json:"region"`
	Industry     string `json:"industry"`
	Keywords     string `json:"keywords"`
	CampaignName string `json:"campaign_name"`
}

// InitialEmailsRequest is the request body for POST /api/v1/campaigns/initial-emails
type InitialEmailsRequest struct {
	IDs []string `json:"ids"`
}

// ConnectRequest is the optional request body for POST /api/v1/linkedin/connect
type ConnectRequest struct {
	SuccessRedirectURL string `json:"success_redirect_url"`
	FailureRedirectURL string `json:"failure_redirect_url"`
}

// ConnectResponse is the response for POST /api/v1/linkedin/connect
type ConnectResponse struct {
	URL string `json:"url"`
}

// DispatchListResponse is the response for GET /api/v1/dispatches
type DispatchListResponse struct {
	Dispatches []journal.Record `json:"dispatches"`
}

// ErrorResponse is the error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListEmails handles GET /api/v1/emails
func (s *Server) handleListEmails(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	all, err := s.emails.ListByUser(uid)
	if err != nil {
		s.logger.Error("failed to list emails", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to load emails")
		return
	}

	q := r.URL.Query()
	status := q.Get("status")
	if status != "" && status != "all" && !models.ValidStatus(status) {
		s.sendError(w, http.StatusBadRequest, fmt.Sprintf("Invalid status %q", status))
		return
	}

	// The initial dashboard view is newest first.
	dir := q.Get("dir")
	if dir == "" {
		dir = "desc"
	}

	page, _ := strconv.Atoi(q.Get("page"))
	params := dashboard.Params{
		Status:         status,
		Classification: q.Get("classification"),
		Campaign:       q.Get("campaign"),
		Search:         q.Get("search"),
		SortField:      dashboard.ParseSortField(q.Get("sort")),
		Direction:      dir,
		Page:           page,
	}

	view := dashboard.Apply(all, params)

	stats, err := s.emails.Stats(uid)
	if err != nil {
		s.logger.Error("failed to compute stats", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to load emails")
		return
	}

	s.sendJSON(w, http.StatusOK, EmailListResponse{
		Emails:     view.Emails,
		Total:      view.Total,
		TotalPages: view.TotalPages,
		Page:       view.Page,
		Stats:      stats,
	})
}

// handleUpdateEmail handles PATCH /api/v1/emails/{id}
func (s *Server) handleUpdateEmail(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	id := chi.URLParam(r, "id")

	var req UpdateEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.LeadClassification != "" && !models.ValidClassification(req.LeadClassification) {
		s.sendError(w, http.StatusBadRequest, fmt.Sprintf("Invalid lead classification %q", req.LeadClassification))
		return
	}

	err := s.emails.UpdateClassification(uid, id, req.LeadClassification, req.Notes)
	if errors.Is(err, repository.ErrNotFound) {
		s.sendError(w, http.StatusNotFound, "Email not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to update email", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to update email")
		return
	}

	updated, err := s.emails.GetByID(uid, id)
	if err != nil {
		s.logger.Error("failed to reload email", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to update email")
		return
	}
	s.sendJSON(w, http.StatusOK, updated)
}

// handleGetSettings handles GET /api/v1/settings
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	settings, err := s.settings.GetByUser(uid)
	if err != nil {
		s.logger.Error("failed to load settings", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}
	if settings == nil {
		settings = &models.Settings{UserID: uid}
	}
	s.sendJSON(w, http.StatusOK, settings)
}

// handlePutSettings handles PUT /api/v1/settings
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var settings models.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	settings.UserID = uid

	if err := s.settings.Upsert(&settings); err != nil {
		s.logger.Error("failed to save settings", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}

	saved, err := s.settings.GetByUser(uid)
	if err != nil {
		s.logger.Error("failed to reload settings", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}
	s.sendJSON(w, http.StatusOK, saved)
}

// handleLinkedInCampaign handles POST /api/v1/campaigns/linkedin
func (s *Server) handleLinkedInCampaign(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var req LinkedInCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	parsed := leads.Parse(req.CSVText)
	s.metrics.IncCSVRows(len(parsed.Leads), len(parsed.Errors))

	settings, err := s.settings.GetByUser(uid)
	if err != nil {
		s.logger.Error("failed to load settings", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}

	result := s.orchestrator.SendLinkedIn(r.Context(), uid, settings, campaign.LinkedInRequest{
		Leads:           parsed.Leads,
		MessageTemplate: req.MessageTemplate,
		DelaySeconds:    req.DelaySeconds,
		CampaignName:    req.CampaignName,
		MaxLeads:        req.MaxLeads,
	})

	s.sendResult(w, CampaignResponse{Result: result, ParseErrors: parsed.Errors})
}

// handleLinkedInPreview handles POST /api/v1/campaigns/linkedin/preview
func (s *Server) handleLinkedInPreview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	parsed := leads.Parse(req.CSVText)

	resp := PreviewResponse{Leads: parsed.Leads, Errors: parsed.Errors}
	if len(parsed.Leads) > 0 {
		resp.Preview = message.Render(req.MessageTemplate, &parsed.Leads[0])
	}
	s.sendJSON(w, http.StatusOK, resp)
}

// handleSearchTrigger handles POST /api/v1/campaigns/search
func (s *Server) handleSearchTrigger(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var req SearchTriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	settings, err := s.settings.GetByUser(uid)
	if err != nil {
		s.logger.Error("failed to load settings", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}

	result := s.orchestrator.TriggerSearch(r.Context(), uid, settings, campaign.SearchRequest{
		Region:   req.Region,
		Industry: req.Industry,
		Keywords: campaign.SplitKeywords(req.Keywords),
		Campaign: req.CampaignName,
	})
	s.sendResult(w, CampaignResponse{Result: result})
}

// handleInitialEmails handles POST /api/v1/campaigns/initial-emails
func (s *Server) handleInitialEmails(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var req InitialEmailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	all, err := s.emails.ListByUser(uid)
	if err != nil {
		s.logger.Error("failed to list emails", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to load emails")
		return
	}

	// Stale ids are dropped silently, list order is kept. Add, not
	// Toggle: a duplicated id in the request must stay selected.
	selection := dashboard.NewSelection()
	for _, id := range req.IDs {
		selection.Add(id)
	}
	selection.Reconcile(all)

	addresses := []string{}
	for _, e := range selection.Selected(all) {
		if e.Email != "" {
			addresses = append(addresses, e.Email)
		}
	}

	settings, err := s.settings.GetByUser(uid)
	if err != nil {
		s.logger.Error("failed to load settings", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}

	result := s.orchestrator.SendInitialEmails(r.Context(), uid, settings, addresses)
	s.sendResult(w, CampaignResponse{Result: result})
}

// handleLinkedInConnect handles POST /api/v1/linkedin/connect
func (s *Server) handleLinkedInConnect(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	if s.unipile == nil || !s.unipile.Configured() {
		s.sendError(w, http.StatusServiceUnavailable, "LinkedIn connection is not configured")
		return
	}

	var req ConnectRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	callback := fmt.Sprintf("%s/linkedin/callback?user_id=%s", s.config.Server.BaseURL, url.QueryEscape(uid))
	success := callback
	if s.redirectTarget(req.SuccessRedirectURL) != "" {
		success += "&redirect=" + url.QueryEscape(req.SuccessRedirectURL)
	}
	failure := callback + "&status=failed"
	if s.redirectTarget(req.FailureRedirectURL) != "" {
		failure += "&redirect=" + url.QueryEscape(req.FailureRedirectURL)
	}

	authURL, err := s.unipile.CreateHostedLink(r.Context(), success, failure)
	if err != nil {
		s.logger.Error("failed to create hosted auth link", "error", err)
		s.sendError(w, http.StatusBadGateway, "Failed to create LinkedIn auth link")
		return
	}
	s.sendJSON(w, http.StatusOK, ConnectResponse{URL: authURL})
}

// handleLinkedInCallback handles GET /linkedin/callback. Unipile redirects
// here after hosted auth with the connected account id in the query. The
// user is sent back to the app, never left on the API origin.
func (s *Server) handleLinkedInCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	uid := q.Get("user_id")
	accountID := q.Get("account_id")

	if uid != "" && accountID != "" && q.Get("status") != "failed" {
		if err := s.settings.SetAccountID(uid, accountID); err != nil {
			s.logger.Error("failed to store linkedin account id", "error", err)
		}
	}

	target := s.redirectTarget(q.Get("redirect"))
	if target == "" && len(s.config.CORS.AllowedOrigins) > 0 {
		target = s.config.CORS.AllowedOrigins[0] + "/"
	}
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// redirectTarget returns raw if it is a safe post-auth destination: a
// local path or a URL on one of the allowed app origins. Anything else
// yields "" so callers fall back to the app root instead of becoming an
// open redirect.
func (s *Server) redirectTarget(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	origin := u.Scheme + "://" + u.Host
	for _, allowed := range s.config.CORS.AllowedOrigins {
		if origin == allowed {
			return raw
		}
	}
	return ""
}

// handleLinkedInDisconnect handles DELETE /api/v1/linkedin/account
func (s *Server) handleLinkedInDisconnect(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	if err := s.settings.ClearAccountID(uid); err != nil {
		s.logger.Error("failed to clear linkedin account id", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to disconnect account")
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

// handleListDispatches handles GET /api/v1/dispatches
func (s *Server) handleListDispatches(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	records, err := s.journal.List(uid, 50)
	if err != nil {
		s.logger.Error("failed to list dispatches", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to load dispatches")
		return
	}
	if records == nil {
		records = []journal.Record{}
	}
	s.sendJSON(w, http.StatusOK, DispatchListResponse{Dispatches: records})
}

// sendResult maps a submission outcome onto an HTTP status.
func (s *Server) sendResult(w http.ResponseWriter, resp CampaignResponse) {
	status := http.StatusOK
	if resp.Status != campaign.StatusSuccess {
		status = http.StatusUnprocessableEntity
	}
	s.sendJSON(w, status, resp)
}

// sendJSON sends a JSON response
func (s *Server) sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// sendError sends an error response
func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, ErrorResponse{Error: message})
}
