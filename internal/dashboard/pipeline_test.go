package dashboard

import (
	"reflect"
	"testing"
	"time"

	"github.com/psilva/leadboard/internal/models"
)

func testEmails() []models.Email {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []models.Email{
		{ID: "1", Company: "Acme", Email: "ceo@acme.com", Status: models.StatusSent, LeadClassification: models.ClassificationWarm, CampaignName: "Spring Launch", DateSent: base},
		{ID: "2", Company: "Globex", Email: "cto@globex.io", Status: models.StatusReplied, LeadClassification: models.ClassificationHot, CampaignName: "Spring Launch", DateSent: base.Add(24 * time.Hour)},
		{ID: "3", Company: "Initech", Email: "vp@initech.com", Status: models.StatusBounced, LeadClassification: models.ClassificationCold, CampaignName: "Winter Push", DateSent: base.Add(48 * time.Hour)},
		{ID: "4", Company: "Umbrella", Email: "md@umbrella.org", Status: models.StatusSent, LeadClassification: models.ClassificationHot, CampaignName: "", DateSent: time.Time{}},
	}
}

func ids(emails []models.Email) []string {
	out := make([]string, len(emails))
	for i, e := range emails {
		out[i] = e.ID
	}
	return out
}

func TestApply_StatusFilter(t *testing.T) {
	view := Apply(testEmails(), Params{Status: models.StatusSent, SortField: SortCompany, Direction: "asc"})

	if got, want := ids(view.Emails), []string{"1", "4"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Apply() ids = %v, want %v", got, want)
	}
	if view.Total != 2 {
		t.Errorf("Apply() total = %d, want 2", view.Total)
	}
}

func TestApply_AllPassthrough(t *testing.T) {
	view := Apply(testEmails(), Params{Status: "all", Classification: "all", SortField: SortCompany, Direction: "asc"})

	if view.Total != 4 {
		t.Errorf("Apply() total = %d, want 4", view.Total)
	}
}

func TestApply_ClassificationFilter(t *testing.T) {
	view := Apply(testEmails(), Params{Classification: models.ClassificationHot, SortField: SortCompany, Direction: "asc"})

	if got, want := ids(view.Emails), []string{"2", "4"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Apply() ids = %v, want %v", got, want)
	}
}

func TestApply_CampaignSubstring(t *testing.T) {
	view := Apply(testEmails(), Params{Campaign: "spring", SortField: SortCompany, Direction: "asc"})

	if got, want := ids(view.Emails), []string{"1", "2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Apply() ids = %v, want %v", got, want)
	}
}

func TestApply_SearchCompanyOrEmail(t *testing.T) {
	// "globex" matches company of 2; "acme" matches email of 1 as well.
	view := Apply(testEmails(), Params{Search: "GLOBEX", SortField: SortCompany, Direction: "asc"})
	if got, want := ids(view.Emails), []string{"2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Apply() ids = %v, want %v", got, want)
	}

	// Region is not searched.
	emails := testEmails()
	emails[0].Region = "globex-region"
	view = Apply(emails, Params{Search: "globex-region"})
	if view.Total != 0 {
		t.Errorf("Apply() search matched region, total = %d, want 0", view.Total)
	}
}

func TestApply_SortDirections(t *testing.T) {
	emails := testEmails()

	asc := Apply(emails, Params{SortField: SortCompany, Direction: "asc"})
	if got, want := ids(asc.Emails), []string{"1", "2", "3", "4"}; !reflect.DeepEqual(got, want) {
		t.Errorf("asc ids = %v, want %v", got, want)
	}

	desc := Apply(emails, Params{SortField: SortCompany, Direction: "desc"})
	if got, want := ids(desc.Emails), []string{"4", "3", "2", "1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("desc ids = %v, want %v", got, want)
	}
}

func TestApply_MissingValuesSortLast(t *testing.T) {
	emails := testEmails() // email 4 has empty campaign and zero date

	for _, dir := range []string{"asc", "desc"} {
		view := Apply(emails, Params{SortField: SortCampaign, Direction: dir})
		if got := view.Emails[len(view.Emails)-1].ID; got != "4" {
			t.Errorf("sort %s: last id = %s, want 4 (empty campaign last)", dir, got)
		}

		view = Apply(emails, Params{SortField: SortDateSent, Direction: dir})
		if got := view.Emails[len(view.Emails)-1].ID; got != "4" {
			t.Errorf("sort %s: last id = %s, want 4 (zero date last)", dir, got)
		}
	}
}

func TestApply_DateSort(t *testing.T) {
	view := Apply(testEmails(), Params{SortField: SortDateSent, Direction: "desc"})

	if got, want := ids(view.Emails), []string{"3", "2", "1", "4"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Apply() ids = %v, want %v", got, want)
	}
}

func TestApply_Pagination(t *testing.T) {
	emails := make([]models.Email, 0, 25)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		emails = append(emails, models.Email{
			ID:       string(rune('a' + i)),
			Company:  "Co",
			Status:   models.StatusSent,
			DateSent: base.Add(time.Duration(i) * time.Hour),
		})
	}

	view := Apply(emails, Params{SortField: SortDateSent, Direction: "asc", Page: 1})
	if len(view.Emails) != PageSize {
		t.Errorf("page 1 size = %d, want %d", len(view.Emails), PageSize)
	}
	if view.TotalPages != 3 {
		t.Errorf("total pages = %d, want 3", view.TotalPages)
	}

	view = Apply(emails, Params{SortField: SortDateSent, Direction: "asc", Page: 3})
	if len(view.Emails) != 5 {
		t.Errorf("page 3 size = %d, want 5", len(view.Emails))
	}

	view = Apply(emails, Params{SortField: SortDateSent, Direction: "asc", Page: 99})
	if len(view.Emails) != 0 {
		t.Errorf("page 99 size = %d, want 0", len(view.Emails))
	}
}

func TestApply_Idempotent(t *testing.T) {
	emails := testEmails()
	params := Params{Status: "all", Campaign: "spring", SortField: SortEmail, Direction: "desc", Page: 1}

	first := Apply(emails, params)
	second := Apply(emails, params)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Apply() not idempotent:\nfirst  = %v\nsecond = %v", ids(first.Emails), ids(second.Emails))
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	emails := testEmails()
	before := ids(emails)

	Apply(emails, Params{SortField: SortCompany, Direction: "desc"})

	if got := ids(emails); !reflect.DeepEqual(got, before) {
		t.Errorf("Apply() reordered input slice: %v, want %v", got, before)
	}
}

func TestParseSortField(t *testing.T) {
	if got := ParseSortField("company"); got != SortCompany {
		t.Errorf("ParseSortField(company) = %v", got)
	}
	if got := ParseSortField("bogus"); got != SortDateSent {
		t.Errorf("ParseSortField(bogus) = %v, want date_sent", got)
	}
}
