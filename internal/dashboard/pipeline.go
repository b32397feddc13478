// Package dashboard holds the view state logic for the sent-email table:
// filtering, sorting, pagination and row selection. Everything here is pure
// in-memory computation over a user's full email list so it can be driven by
// handlers and tested without a server.
package dashboard

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/psilva/leadboard/internal/models"
)

// PageSize is the fixed number of rows per dashboard page.
const PageSize = 10

// SortField enumerates the sortable email columns. Sorting is restricted to
// this closed set; an unknown field falls back to date_sent.
type SortField string

const (
	SortCompany        SortField = "company"
	SortEmail          SortField = "email"
	SortRegion         SortField = "region"
	SortIndustry       SortField = "industry"
	SortStatus         SortField = "status"
	SortClassification SortField = "lead_classification"
	SortCampaign       SortField = "campaign_name"
	SortDateSent       SortField = "date_sent"
)

// Params fully determines the visible slice for a given email list.
type Params struct {
	Status         string
	Classification string
	Campaign       string
	Search         string
	SortField      SortField
	Direction      string // "asc" or "desc"
	Page           int
}

// View is one page of the filtered, sorted email list.
type View struct {
	Emails     []models.Email `json:"emails"`
	Total      int            `json:"total"`
	TotalPages int            `json:"total_pages"`
	Page       int            `json:"page"`
}

// Apply runs the filter/sort/paginate pipeline. It never mutates the input
// slice and identical inputs always produce identical output.
func Apply(emails []models.Email, p Params) View {
	filtered := make([]models.Email, 0, len(emails))
	for _, e := range emails {
		if !matches(e, p) {
			continue
		}
		filtered = append(filtered, e)
	}

	sortEmails(filtered, p.SortField, p.Direction)

	total := len(filtered)
	totalPages := (total + PageSize - 1) / PageSize

	page := p.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * PageSize
	if start > total {
		start = total
	}
	end := start + PageSize
	if end > total {
		end = total
	}

	return View{
		Emails:     filtered[start:end],
		Total:      total,
		TotalPages: totalPages,
		Page:       page,
	}
}

func matches(e models.Email, p Params) bool {
	if p.Status != "" && p.Status != "all" && e.Status != p.Status {
		return false
	}
	if p.Classification != "" && p.Classification != "all" && e.LeadClassification != p.Classification {
		return false
	}
	if p.Campaign != "" && !containsFold(e.CampaignName, p.Campaign) {
		return false
	}
	// Free-text search deliberately matches company and email only.
	if p.Search != "" && !containsFold(e.Company, p.Search) && !containsFold(e.Email, p.Search) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// sortEmails orders the slice in place. Rows with a zero value on the sort
// field go after all others regardless of direction, so the table never leads
// with blanks.
func sortEmails(emails []models.Email, field SortField, direction string) {
	desc := direction == "desc"
	col := collate.New(language.Und)

	sort.SliceStable(emails, func(i, j int) bool {
		if field == SortDateSent {
			a, b := emails[i].DateSent, emails[j].DateSent
			if a.IsZero() || b.IsZero() {
				return !a.IsZero() && b.IsZero()
			}
			if desc {
				return a.After(b)
			}
			return a.Before(b)
		}

		a := stringKey(emails[i], field)
		b := stringKey(emails[j], field)
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		c := col.CompareString(a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func stringKey(e models.Email, field SortField) string {
	switch field {
	case SortCompany:
		return e.Company
	case SortEmail:
		return e.Email
	case SortRegion:
		return e.Region
	case SortIndustry:
		return e.Industry
	case SortStatus:
		return e.Status
	case SortClassification:
		return e.LeadClassification
	case SortCampaign:
		return e.CampaignName
	default:
		return ""
	}
}

// ParseSortField maps a query value onto the sortable column set, defaulting
// to date_sent for anything unknown.
func ParseSortField(s string) SortField {
	switch SortField(s) {
	case SortCompany, SortEmail, SortRegion, SortIndustry, SortStatus, SortClassification, SortCampaign, SortDateSent:
		return SortField(s)
	default:
		return SortDateSent
	}
}
