// Package message renders outreach message templates against a single lead.
package message

import (
	"regexp"

	"github.com/psilva/leadboard/internal/leads"
)

var placeholderPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Render substitutes every {{firstName}}, {{lastName}}, {{company}} and
// {{position}} occurrence in template with the lead's values. Placeholders
// outside that set are left untouched so a typo is visible in the preview
// instead of silently disappearing. An empty template or nil lead renders
// to the empty string.
func Render(template string, lead *leads.Lead) string {
	if template == "" || lead == nil {
		return ""
	}

	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		switch match[2 : len(match)-2] {
		case "firstName":
			return lead.FirstName
		case "lastName":
			return lead.LastName
		case "company":
			return lead.Company
		case "position":
			return lead.Position
		default:
			return match
		}
	})
}
