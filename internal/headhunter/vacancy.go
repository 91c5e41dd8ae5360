package headhunter

// Vacancies is an ordered collection of vacancies. Filters and queries treat it
// as read-only and build new collections instead of editing Items in place.
type Vacancies struct {
	Items []*Vacancy
}

// Vacancy is a single raw record from the hh.ru vacancies endpoint.
// Every nested group is optional: nil means the group was absent in the
// source (or could not be decoded), which is different from a zero value.
type Vacancy struct {
	ID                string             `json:"id,omitempty"`
	Name              string             `json:"name,omitempty"`
	AlternateURL      string             `json:"alternate_url,omitempty"`
	PublishedAt       string             `json:"published_at,omitempty"`
	Area              *Label             `json:"area,omitempty"`
	Salary            *Salary            `json:"salary,omitempty"`
	SalaryRange       *SalaryRange       `json:"salary_range,omitempty"`
	ProfessionalRoles []ProfessionalRole `json:"professional_roles,omitempty"`
	Employer          *Employer          `json:"employer,omitempty"`
	Experience        *Label             `json:"experience,omitempty"`
	Employment        *Label             `json:"employment,omitempty"`
	Schedule          *Label             `json:"schedule,omitempty"`
}

// Label is the common {id, name} dictionary entry used by hh.ru.
type Label struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type Salary struct {
	From     *float64 `json:"from,omitempty"`
	To       *float64 `json:"to,omitempty"`
	Currency string   `json:"currency,omitempty"`
	Gross    *bool    `json:"gross,omitempty"`
}

// SalaryRange carries the pay period hint. Mode.ID is one of MONTH, SHIFT,
// HOUR, FLY_IN_FLY_OUT upstream, but the list is not guaranteed.
type SalaryRange struct {
	Mode      *Label `json:"mode,omitempty"`
	Frequency *Label `json:"frequency,omitempty"`
}

type ProfessionalRole struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type Employer struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	AlternateURL string `json:"alternate_url,omitempty"`
	Trusted      bool   `json:"trusted,omitempty"`
}

func (v *Vacancies) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Items)
}

// Select returns a new collection with the vacancies for which keep returns true.
func (v *Vacancies) Select(keep func(*Vacancy) bool) *Vacancies {
	selected := make([]*Vacancy, 0, v.Len())
	for _, vacancy := range v.Items {
		if keep(vacancy) {
			selected = append(selected, vacancy)
		}
	}
	return &Vacancies{Items: selected}
}

// EmployerID returns the employer id or an empty string when the employer group is absent.
func (va *Vacancy) EmployerID() string {
	if va.Employer == nil {
		return ""
	}
	return va.Employer.ID
}

// RoleIDs returns professional role ids in source order.
func (va *Vacancy) RoleIDs() []string {
	ids := make([]string, 0, len(va.ProfessionalRoles))
	for _, role := range va.ProfessionalRoles {
		ids = append(ids, role.ID)
	}
	return ids
}

// SalaryMode returns salary_range.mode.id or an empty string when absent.
func (va *Vacancy) SalaryMode() string {
	if va.SalaryRange == nil || va.SalaryRange.Mode == nil {
		return ""
	}
	return va.SalaryRange.Mode.ID
}
