package store

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bigkaa/castadmin/internal/tablecfg"
)

// ErrDuplicateProfile: профиль с таким именем уже существует для ресурса.
var ErrDuplicateProfile = errors.New("профиль фильтров с таким именем уже существует")

// ErrEmptyProfileName: имя профиля не задано.
var ErrEmptyProfileName = errors.New("имя профиля фильтров не задано")

func reduceProfiles(s ProfileState, a Action) ProfileState {
	switch a := a.(type) {
	case LoadProfiles:
		s.Profiles = map[tablecfg.Resource]map[string]FilterProfile{}
		for _, p := range a.Profiles {
			s.Profiles = withProfile(s.Profiles, p)
		}
		s.ValidName = true
	case CreateProfile:
		if s.Exists(a.Profile.Resource, a.Profile.Name) || a.Profile.Name == "" {
			s.ValidName = false
			return s
		}
		s.Profiles = withProfile(s.Profiles, a.Profile)
		s.ValidName = true
		s.Editing = ""
	case EditProfile:
		renamed := a.OriginalName != a.Profile.Name
		if a.Profile.Name == "" || (renamed && s.Exists(a.Profile.Resource, a.Profile.Name)) {
			s.ValidName = false
			return s
		}
		if renamed {
			s.Profiles = withoutProfile(s.Profiles, a.Profile.Resource, a.OriginalName)
		}
		s.Profiles = withProfile(s.Profiles, a.Profile)
		s.ValidName = true
		s.Editing = ""
	case RemoveProfile:
		s.Profiles = withoutProfile(s.Profiles, a.Resource, a.Name)
	case CancelProfileEdit:
		s.Editing = ""
		s.ValidName = true
	case StartProfileEdit:
		if s.Exists(a.Resource, a.Name) {
			s.Editing = a.Name
			s.ValidName = true
		}
	}
	return s
}

// Exists проверяет наличие профиля (ресурс, имя).
func (s ProfileState) Exists(r tablecfg.Resource, name string) bool {
	_, ok := s.Profiles[r][name]
	return ok
}

// Get возвращает профиль (ресурс, имя).
func (s ProfileState) Get(r tablecfg.Resource, name string) (FilterProfile, bool) {
	p, ok := s.Profiles[r][name]
	return p, ok
}

// List возвращает профили ресурса, отсортированные по имени.
func (s ProfileState) List(r tablecfg.Resource) []FilterProfile {
	out := make([]FilterProfile, 0, len(s.Profiles[r]))
	for _, p := range s.Profiles[r] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ValidateProfile проверяет, можно ли создать профиль p.
func ValidateProfile(s ProfileState, p FilterProfile) error {
	if p.Name == "" {
		return ErrEmptyProfileName
	}
	if s.Exists(p.Resource, p.Name) {
		return fmt.Errorf("%s/%s: %w", p.Resource, p.Name, ErrDuplicateProfile)
	}
	return nil
}

// withProfile возвращает копию карты профилей с добавленным p.
// Вложенная карта ресурса тоже копируется.
func withProfile(m map[tablecfg.Resource]map[string]FilterProfile, p FilterProfile) map[tablecfg.Resource]map[string]FilterProfile {
	out := make(map[tablecfg.Resource]map[string]FilterProfile, len(m)+1)
	for r, inner := range m {
		out[r] = inner
	}
	inner := make(map[string]FilterProfile, len(m[p.Resource])+1)
	for name, v := range m[p.Resource] {
		inner[name] = v
	}
	p.FilterMap = copyFilters(p.FilterMap)
	inner[p.Name] = p
	out[p.Resource] = inner
	return out
}

func withoutProfile(m map[tablecfg.Resource]map[string]FilterProfile, r tablecfg.Resource, name string) map[tablecfg.Resource]map[string]FilterProfile {
	if _, ok := m[r][name]; !ok {
		return m
	}
	out := make(map[tablecfg.Resource]map[string]FilterProfile, len(m))
	for res, inner := range m {
		out[res] = inner
	}
	inner := make(map[string]FilterProfile, len(m[r]))
	for n, v := range m[r] {
		if n != name {
			inner[n] = v
		}
	}
	out[r] = inner
	return out
}
