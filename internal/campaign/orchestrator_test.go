package campaign

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/psilva/leadboard/internal/journal"
	"github.com/psilva/leadboard/internal/leads"
	"github.com/psilva/leadboard/internal/metrics"
	"github.com/psilva/leadboard/internal/models"
	"github.com/psilva/leadboard/internal/webhook"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("journal.Open() error = %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return New(webhook.NewClient(testLogger()), j, metrics.New(), testLogger())
}

func testSettings() *models.Settings {
	return &models.Settings{
		UserID:                 "user-1",
		WebhookURL:             "http://example.invalid/search",
		LinkedinWebhookURL:     "http://example.invalid/linkedin",
		InitialEmailWebhookURL: "http://example.invalid/emails",
		LinkedinAccountID:      "acct-123",
	}
}

func testLeads(n int) []leads.Lead {
	out := make([]leads.Lead, n)
	for i := range out {
		out[i] = leads.Lead{FirstName: "Ana", LinkedinURL: "http://x"}
	}
	return out
}

// countingServer returns a server plus a counter of requests it received.
func countingServer(t *testing.T, status int) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestSendLinkedIn_PreconditionOrder(t *testing.T) {
	o := testOrchestrator(t)
	srv, hits := countingServer(t, http.StatusOK)

	settings := testSettings()
	settings.LinkedinWebhookURL = srv.URL

	cases := []struct {
		name     string
		mutate   func(s *models.Settings, r *LinkedInRequest)
		wantMsg  string
	}{
		{
			name:    "no account",
			mutate:  func(s *models.Settings, r *LinkedInRequest) { s.LinkedinAccountID = "" },
			wantMsg: "Connect your LinkedIn account first.",
		},
		{
			name:    "no webhook",
			mutate:  func(s *models.Settings, r *LinkedInRequest) { s.LinkedinWebhookURL = "" },
			wantMsg: "Configure your LinkedIn webhook URL in Settings.",
		},
		{
			name:    "no leads",
			mutate:  func(s *models.Settings, r *LinkedInRequest) { r.Leads = nil },
			wantMsg: "Upload a CSV with at least one lead.",
		},
		{
			name:    "blank template",
			mutate:  func(s *models.Settings, r *LinkedInRequest) { r.MessageTemplate = "   " },
			wantMsg: "Write a message template.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := *settings
			req := LinkedInRequest{Leads: testLeads(2), MessageTemplate: "Hi {{firstName}}"}
			tc.mutate(&s, &req)

			res := o.SendLinkedIn(context.Background(), "user-1", &s, req)
			if res.Status != StatusError {
				t.Errorf("status = %s, want error", res.Status)
			}
			if res.Message != tc.wantMsg {
				t.Errorf("message = %q, want %q", res.Message, tc.wantMsg)
			}
		})
	}

	// Account check comes first even when everything is missing.
	res := o.SendLinkedIn(context.Background(), "user-1", nil, LinkedInRequest{})
	if res.Message != "Connect your LinkedIn account first." {
		t.Errorf("nil settings message = %q", res.Message)
	}

	if hits.Load() != 0 {
		t.Errorf("precondition failures made %d network requests, want 0", hits.Load())
	}
}

func TestSendLinkedIn_Success(t *testing.T) {
	o := testOrchestrator(t)

	var payload linkedInPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	settings := testSettings()
	settings.LinkedinWebhookURL = srv.URL

	res := o.SendLinkedIn(context.Background(), "user-1", settings, LinkedInRequest{
		Leads:           testLeads(3),
		MessageTemplate: "Hi {{firstName}}",
		DelaySeconds:    60,
	})

	if res.Status != StatusSuccess {
		t.Fatalf("status = %s (%s), want success", res.Status, res.Message)
	}
	if res.Message != "Campaign sent! 3 leads will be processed." {
		t.Errorf("message = %q", res.Message)
	}

	if payload.UserID != "user-1" || payload.LinkedInAccountID != "acct-123" {
		t.Errorf("payload identity = %q / %q", payload.UserID, payload.LinkedInAccountID)
	}
	if len(payload.Leads) != 3 {
		t.Errorf("payload leads = %d, want 3", len(payload.Leads))
	}
	if payload.DelaySeconds != 60 {
		t.Errorf("payload delaySeconds = %d, want 60", payload.DelaySeconds)
	}
	if payload.CampaignName != DefaultLinkedInCampaign {
		t.Errorf("payload campaignName = %q, want default", payload.CampaignName)
	}
}

func TestSendLinkedIn_MaxLeadsCap(t *testing.T) {
	o := testOrchestrator(t)

	var payload linkedInPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	settings := testSettings()
	settings.LinkedinWebhookURL = srv.URL

	res := o.SendLinkedIn(context.Background(), "user-1", settings, LinkedInRequest{
		Leads:           testLeads(10),
		MessageTemplate: "Hi",
		MaxLeads:        4,
	})

	if len(payload.Leads) != 4 {
		t.Errorf("payload leads = %d, want 4", len(payload.Leads))
	}
	if res.Message != "Campaign sent! 4 leads will be processed." {
		t.Errorf("message = %q", res.Message)
	}
}

func TestSendLinkedIn_StatusError(t *testing.T) {
	o := testOrchestrator(t)
	srv, hits := countingServer(t, http.StatusBadGateway)

	settings := testSettings()
	settings.LinkedinWebhookURL = srv.URL

	res := o.SendLinkedIn(context.Background(), "user-1", settings, LinkedInRequest{
		Leads:           testLeads(1),
		MessageTemplate: "Hi",
	})

	if res.Status != StatusError {
		t.Errorf("status = %s, want error", res.Status)
	}
	if res.Message != "Webhook error: 502" {
		t.Errorf("message = %q, want Webhook error: 502", res.Message)
	}
	if hits.Load() != 1 {
		t.Errorf("requests = %d, want exactly 1 (no retry)", hits.Load())
	}
}

func TestSendLinkedIn_Unreachable(t *testing.T) {
	o := testOrchestrator(t)

	settings := testSettings()
	settings.LinkedinWebhookURL = "http://127.0.0.1:1"

	res := o.SendLinkedIn(context.Background(), "user-1", settings, LinkedInRequest{
		Leads:           testLeads(1),
		MessageTemplate: "Hi",
	})

	if res.Status != StatusError {
		t.Errorf("status = %s, want error", res.Status)
	}
	if res.Message != "Could not reach the webhook. Check if it is accessible." &&
		res.Message != "Request timed out. Check your webhook URL." {
		t.Errorf("message = %q", res.Message)
	}
}

func TestSendLinkedIn_JournalsDispatch(t *testing.T) {
	o := testOrchestrator(t)
	srv, _ := countingServer(t, http.StatusOK)

	settings := testSettings()
	settings.LinkedinWebhookURL = srv.URL

	o.SendLinkedIn(context.Background(), "user-1", settings, LinkedInRequest{
		Leads:           testLeads(2),
		MessageTemplate: "Hi",
		CampaignName:    "Spring Launch",
	})

	recs, err := o.journal.List("user-1", 0)
	if err != nil {
		t.Fatalf("journal.List() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("journal has %d records, want 1", len(recs))
	}
	rec := recs[0]
	if rec.Kind != journal.KindLinkedIn || rec.CampaignName != "Spring Launch" || rec.LeadCount != 2 || rec.Status != "success" {
		t.Errorf("journal record = %+v", rec)
	}
}

func TestTriggerSearch(t *testing.T) {
	o := testOrchestrator(t)

	var payload searchPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	settings := testSettings()
	settings.WebhookURL = srv.URL

	res := o.TriggerSearch(context.Background(), "user-1", settings, SearchRequest{
		Region:   "EMEA",
		Industry: "fintech",
		Keywords: []string{"payments", "risk"},
	})

	if res.Status != StatusSuccess {
		t.Fatalf("status = %s (%s)", res.Status, res.Message)
	}
	if payload.Campaign != DefaultSearchCampaign {
		t.Errorf("campaign = %q, want %q", payload.Campaign, DefaultSearchCampaign)
	}
	if payload.Region != "EMEA" || payload.Industry != "fintech" {
		t.Errorf("payload = %+v", payload)
	}
	if !reflect.DeepEqual(payload.Keywords, []string{"payments", "risk"}) {
		t.Errorf("keywords = %v", payload.Keywords)
	}
}

func TestTriggerSearch_NoWebhook(t *testing.T) {
	o := testOrchestrator(t)

	res := o.TriggerSearch(context.Background(), "user-1", &models.Settings{}, SearchRequest{})
	if res.Message != "Please configure your webhook URL in Settings first." {
		t.Errorf("message = %q", res.Message)
	}
}

func TestSendInitialEmails(t *testing.T) {
	o := testOrchestrator(t)

	var payload initialEmailsPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	settings := testSettings()
	settings.InitialEmailWebhookURL = srv.URL

	res := o.SendInitialEmails(context.Background(), "user-1", settings, []string{"a@x.com", "b@y.com"})
	if res.Status != StatusSuccess {
		t.Fatalf("status = %s (%s)", res.Status, res.Message)
	}
	if res.Message != "Webhook triggered for 2 recipients." {
		t.Errorf("message = %q", res.Message)
	}
	if !reflect.DeepEqual(payload.Emails, []string{"a@x.com", "b@y.com"}) {
		t.Errorf("payload emails = %v", payload.Emails)
	}
}

func TestSendInitialEmails_SingularMessage(t *testing.T) {
	o := testOrchestrator(t)
	srv, _ := countingServer(t, http.StatusOK)

	settings := testSettings()
	settings.InitialEmailWebhookURL = srv.URL

	res := o.SendInitialEmails(context.Background(), "user-1", settings, []string{"a@x.com"})
	if res.Message != "Webhook triggered for 1 recipient." {
		t.Errorf("message = %q", res.Message)
	}
}

func TestSendInitialEmails_Preconditions(t *testing.T) {
	o := testOrchestrator(t)

	res := o.SendInitialEmails(context.Background(), "user-1", &models.Settings{}, []string{"a@x.com"})
	if res.Message != "Configure your initial email webhook URL in Settings." {
		t.Errorf("message = %q", res.Message)
	}

	res = o.SendInitialEmails(context.Background(), "user-1", testSettings(), nil)
	if res.Message != "Select at least one email first." {
		t.Errorf("message = %q", res.Message)
	}
}

func TestSplitKeywords(t *testing.T) {
	got := SplitKeywords(" payments, risk ,, lending ")
	want := []string{"payments", "risk", "lending"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitKeywords() = %v, want %v", got, want)
	}

	if got := SplitKeywords(""); len(got) != 0 {
		t.Errorf("SplitKeywords(empty) = %v, want empty", got)
	}
}
