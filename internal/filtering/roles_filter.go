package filtering

import (
	"context"
	"errors"
	"strings"

	"github.com/swwwjjw/barometer-pulkovo/internal/headhunter"
	"github.com/swwwjjw/barometer-pulkovo/internal/roles"
)

type rolesFilter struct {
	role    roles.Role
	matcher roles.Matcher
}

// NewRoles creates a filter that keeps vacancies sharing at least one
// professional role with the given role.
func NewRoles(role roles.Role) Filter {
	return &rolesFilter{role: role, matcher: role.Matcher()}
}

func (f *rolesFilter) Name() string { return "roles" }

func (f *rolesFilter) Disable(string) {}

func (f *rolesFilter) IsEnabled() bool { return true }

func (f *rolesFilter) Validate() error {
	if len(f.matcher) == 0 {
		return errors.New("role has no ids")
	}
	return nil
}

func (f *rolesFilter) Apply(_ context.Context, v *headhunter.Vacancies) (*headhunter.Vacancies, Step, error) {
	initial := v.Len()
	matched := v.Select(f.matcher.Match)

	return matched, Step{Initial: initial, Dropped: initial - matched.Len(), Left: matched.Len()}, nil
}

func (f *rolesFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{
			"role": f.role.Name,
			"ids":  strings.Join(f.role.IDs, ","),
		},
	}
}
