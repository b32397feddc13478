// Package leads parses uploaded CSV lead lists for outreach campaigns.
//
// The format is a plain comma-separated file with a header row. Fields are
// split on every comma: there is no quoting or escaping, so a comma inside a
// value shifts the columns of that row. This matches the upstream format and
// is an accepted limitation, not something the parser tries to repair.
package leads

import (
	"fmt"
	"strings"
)

// Lead is a single prospective contact imported from CSV.
type Lead struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Company     string `json:"company"`
	Position    string `json:"position"`
	LinkedinURL string `json:"linkedinUrl"`
}

// Result holds the parsed leads plus one message per rejected row.
// A file can produce both: bad rows are skipped, good rows are kept.
type Result struct {
	Leads  []Lead   `json:"leads"`
	Errors []string `json:"errors"`
}

// requiredHeaders are the column names every lead file must declare.
var requiredHeaders = []string{"firstName", "lastName", "company", "position", "linkedinUrl"}

// Parse converts raw CSV text into leads. Row numbers in error messages are
// 1-based over the non-empty lines, counting the header as row 1.
func Parse(text string) Result {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) < 2 {
		return Result{Errors: []string{"CSV must have a header row and at least one data row."}}
	}

	headers := splitTrim(lines[0])

	var missing []string
	for _, h := range requiredHeaders {
		if !contains(headers, h) {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return Result{Errors: []string{"Missing columns: " + strings.Join(missing, ", ")}}
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}

	result := Result{}
	for i := 1; i < len(lines); i++ {
		values := splitTrim(lines[i])

		if len(values) < len(headers) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Row %d: not enough columns (expected %d, got %d)", i+1, len(headers), len(values)))
			continue
		}

		firstName := values[index["firstName"]]
		linkedinURL := values[index["linkedinUrl"]]

		if firstName == "" || linkedinURL == "" {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Row %d: firstName and linkedinUrl are required", i+1))
			continue
		}

		result.Leads = append(result.Leads, Lead{
			FirstName:   firstName,
			LastName:    values[index["lastName"]],
			Company:     values[index["company"]],
			Position:    values[index["position"]],
			LinkedinURL: linkedinURL,
		})
	}

	return result
}

func splitTrim(line string) []string {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
