package roles

import (
	"errors"
	"strings"

	"github.com/swwwjjw/barometer-pulkovo/internal/headhunter"
)

var ErrRoleNotFound = errors.New("role not found")

// Role groups one or more hh.ru professional role ids under a display name.
type Role struct {
	Name string   `mapstructure:"name" json:"name"`
	IDs  []string `mapstructure:"ids" json:"ids"`
}

// Catalog is the ordered role configuration. It is fixed at startup.
type Catalog []Role

// ByIndex returns the role at position i.
func (c Catalog) ByIndex(i int) (Role, error) {
	if i < 0 || i >= len(c) {
		return Role{}, ErrRoleNotFound
	}
	return c[i], nil
}

// ByIDs returns the first configured role whose id set equals ids.
func (c Catalog) ByIDs(ids []string) (Role, error) {
	want := NewMatcher(ids...)
	if len(want) == 0 {
		return Role{}, ErrRoleNotFound
	}

	for _, role := range c {
		if NewMatcher(role.IDs...).Equal(want) {
			return role, nil
		}
	}
	return Role{}, ErrRoleNotFound
}

func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for _, role := range c {
		names = append(names, role.Name)
	}
	return names
}

// Matcher is a set of normalized role ids.
type Matcher map[string]struct{}

func NewMatcher(ids ...string) Matcher {
	m := make(Matcher, len(ids))
	for _, id := range ids {
		if id = NormalizeID(id); id != "" {
			m[id] = struct{}{}
		}
	}
	return m
}

// Matcher returns the id set of the role.
func (r Role) Matcher() Matcher {
	return NewMatcher(r.IDs...)
}

// Match reports whether v has at least one professional role from the set.
// Vacancies without roles never match.
func (m Matcher) Match(v *headhunter.Vacancy) bool {
	if v == nil {
		return false
	}
	for _, id := range v.RoleIDs() {
		if _, ok := m[NormalizeID(id)]; ok {
			return true
		}
	}
	return false
}

func (m Matcher) Equal(other Matcher) bool {
	if len(m) != len(other) {
		return false
	}
	for id := range m {
		if _, ok := other[id]; !ok {
			return false
		}
	}
	return true
}

// NormalizeID brings ids decoded from yaml ints, json floats and plain strings
// to one representation: "31", 31 and 31.0 all become "31".
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if trimmed, ok := strings.CutSuffix(id, ".0"); ok && trimmed != "" {
		return trimmed
	}
	return id
}

// Defaults is the role list of the Pulkovo salary dashboard.
func Defaults() Catalog {
	return Catalog{
		{Name: "Грузчик на склад", IDs: []string{"31", "52"}},
		{Name: "Аналитик данных", IDs: []string{"156", "150", "10"}},
		{Name: "ML инженер", IDs: []string{"165", "96"}},
		{Name: "Машинист катка", IDs: []string{"63"}},
		{Name: "Инженер склада", IDs: []string{"81"}},
		{Name: "Машинист фрезы", IDs: []string{"128", "86"}},
		{Name: "Агент по регистрации пассажиров (ПО)", IDs: []string{"70"}},
		{Name: "Фельдшер / фельдшер скорой медицинской помощи", IDs: []string{"15", "24", "64"}},
		{Name: "Специалист по обслуживанию ВС", IDs: []string{"111", "173", "44", "46"}},
		{Name: "Мойщик-уборщик", IDs: []string{"130"}},
		{Name: "Агент по сервису", IDs: []string{"89"}},
		{Name: "Агент по сервису в Бизнес-зал", IDs: []string{"89"}},
		{Name: "Медицинская сестра/медицинский брат", IDs: []string{"64"}},
		{Name: "Системный инженер", IDs: []string{"114"}},
		{Name: "Инспектор Перронного Контроля", IDs: []string{"131", "81", "52"}},
		{Name: "Кинолог", IDs: []string{"90", "120"}},
		{Name: "Инженер холодильных установок", IDs: []string{"111", "144"}},
		{Name: "Инспектор Группы Быстрого Реагирования", IDs: []string{"90", "120", "95"}},
	}
}
