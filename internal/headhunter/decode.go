package headhunter

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// GroupError reports a nested group of a raw item that could not be decoded.
// The group is left absent on the resulting Vacancy.
type GroupError struct {
	VacancyID string
	Group     string
	Err       error
}

func (e GroupError) Error() string {
	return fmt.Sprintf("vacancy %q: group %q: %v", e.VacancyID, e.Group, e.Err)
}

func (e GroupError) Unwrap() error { return e.Err }

// DecodeVacancies decodes raw items one by one. Items that are not objects are
// skipped and reported; malformed groups inside an item are dropped and reported.
func DecodeVacancies(items []Item) (*Vacancies, []GroupError) {
	var errs []GroupError
	vacancies := make([]*Vacancy, 0, len(items))

	for idx, item := range items {
		raw, ok := item.(map[string]any)
		if !ok {
			errs = append(errs, GroupError{
				VacancyID: fmt.Sprintf("#%d", idx),
				Group:     "item",
				Err:       fmt.Errorf("expected object, got %T", item),
			})
			continue
		}

		vacancy, groupErrs := DecodeVacancy(raw)
		errs = append(errs, groupErrs...)
		vacancies = append(vacancies, vacancy)
	}

	return &Vacancies{Items: vacancies}, errs
}

// DecodeVacancy decodes one raw item. Each group is decoded on its own with weak
// typing, so numeric ids become strings and a broken salary does not take the
// role list down with it.
func DecodeVacancy(item map[string]any) (*Vacancy, []GroupError) {
	v := &Vacancy{}

	targets := []struct {
		key    string
		target any
		reset  func()
	}{
		{"id", &v.ID, func() { v.ID = "" }},
		{"name", &v.Name, func() { v.Name = "" }},
		{"alternate_url", &v.AlternateURL, func() { v.AlternateURL = "" }},
		{"published_at", &v.PublishedAt, func() { v.PublishedAt = "" }},
		{"area", &v.Area, func() { v.Area = nil }},
		{"salary", &v.Salary, func() { v.Salary = nil }},
		{"salary_range", &v.SalaryRange, func() { v.SalaryRange = nil }},
		{"professional_roles", &v.ProfessionalRoles, func() { v.ProfessionalRoles = nil }},
		{"employer", &v.Employer, func() { v.Employer = nil }},
		{"experience", &v.Experience, func() { v.Experience = nil }},
		{"employment", &v.Employment, func() { v.Employment = nil }},
		{"schedule", &v.Schedule, func() { v.Schedule = nil }},
	}

	var errs []GroupError
	for _, t := range targets {
		raw, ok := item[t.key]
		if !ok || raw == nil {
			continue
		}

		if err := decodeGroup(raw, t.target); err != nil {
			t.reset()
			errs = append(errs, GroupError{Group: t.key, Err: err})
		}
	}

	for i := range errs {
		errs[i].VacancyID = v.ID
	}

	return v, errs
}

func decodeGroup(raw, target any) error {
	cfg := &mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}

	return decoder.Decode(raw)
}

// ItemID returns the id of a raw item, or "" when the item has none.
func ItemID(item Item) string {
	raw, ok := item.(map[string]any)
	if !ok {
		return ""
	}

	var id string
	if err := decodeGroup(raw["id"], &id); err != nil {
		return ""
	}
	return id
}
