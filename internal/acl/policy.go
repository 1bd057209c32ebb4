// Пакет acl: редактор политик доступа событий и серий.
//
// Политика в редакторе хранится построчно: одна строка на роль с флагами
// read/write и списком дополнительных действий. На backend она уходит
// списком ACE {action, allow, role}.
package acl

import (
	"sort"

	"github.com/bigkaa/castadmin/internal/occlient"
)

// Стандартные действия ACL.
const (
	ActionRead  = "read"
	ActionWrite = "write"
)

// ACE: элемент ACL в формате backend'а.
type ACE = occlient.ACE

// Policy: строка редактора: права одной роли.
type Policy struct {
	Role    string   `json:"role"`
	Read    bool     `json:"read"`
	Write   bool     `json:"write"`
	Actions []string `json:"actions"`
}

// Valid сообщает, что у строки есть роль и хотя бы одно право.
func (p Policy) Valid() bool {
	return p.Role != "" && (p.Read || p.Write || len(p.Actions) > 0)
}

// FullRights сообщает, что у роли есть и read, и write.
func (p Policy) FullRights() bool {
	return p.Read && p.Write
}

// FromACEs группирует ACE по ролям в порядке первого появления роли.
// read/write берутся из allow; прочие действия попадают в Actions,
// только если разрешены.
func FromACEs(aces []ACE) []Policy {
	index := make(map[string]int)
	var out []Policy
	for _, ace := range aces {
		i, ok := index[ace.Role]
		if !ok {
			i = len(out)
			index[ace.Role] = i
			out = append(out, Policy{Role: ace.Role, Actions: []string{}})
		}
		switch ace.Action {
		case ActionRead:
			out[i].Read = ace.Allow
		case ActionWrite:
			out[i].Write = ace.Allow
		default:
			if ace.Allow && !contains(out[i].Actions, ace.Action) {
				out[i].Actions = append(out[i].Actions, ace.Action)
			}
		}
	}
	if out == nil {
		out = []Policy{}
	}
	return out
}

// ToACEs разворачивает строки редактора в список ACE.
// Передаются только разрешённые действия.
func ToACEs(policies []Policy) []ACE {
	out := []ACE{}
	for _, p := range policies {
		if p.Read {
			out = append(out, ACE{Action: ActionRead, Allow: true, Role: p.Role})
		}
		if p.Write {
			out = append(out, ACE{Action: ActionWrite, Allow: true, Role: p.Role})
		}
		for _, a := range p.Actions {
			out = append(out, ACE{Action: a, Allow: true, Role: p.Role})
		}
	}
	return out
}

// Validation: результат проверки набора строк перед сохранением.
type Validation struct {
	// AllRulesValid: у каждой строки есть роль и хотя бы одно право.
	AllRulesValid bool
	// HasFullRights: хотя бы у одной роли есть read и write.
	HasFullRights bool
}

// OK сообщает, что набор можно сохранять.
func (v Validation) OK() bool {
	return v.AllRulesValid && v.HasFullRights
}

// Validate проверяет набор строк.
func Validate(policies []Policy) Validation {
	v := Validation{AllRulesValid: true}
	for _, p := range policies {
		if !p.Valid() {
			v.AllRulesValid = false
		}
		if p.FullRights() {
			v.HasFullRights = true
		}
	}
	return v
}

// Equal сравнивает наборы строк без учёта порядка строк и действий.
func Equal(a, b []Policy) bool {
	if len(a) != len(b) {
		return false
	}
	as, bs := normalized(a), normalized(b)
	for i := range as {
		if as[i].Role != bs[i].Role || as[i].Read != bs[i].Read || as[i].Write != bs[i].Write {
			return false
		}
		if len(as[i].Actions) != len(bs[i].Actions) {
			return false
		}
		for j := range as[i].Actions {
			if as[i].Actions[j] != bs[i].Actions[j] {
				return false
			}
		}
	}
	return true
}

func normalized(in []Policy) []Policy {
	out := clonePolicies(in)
	for i := range out {
		sort.Strings(out[i].Actions)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out
}

func clonePolicies(in []Policy) []Policy {
	out := make([]Policy, len(in))
	for i, p := range in {
		p.Actions = append([]string{}, p.Actions...)
		out[i] = p
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
