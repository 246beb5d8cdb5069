// Package localize translates the text fields of backend JSON payloads for
// a closed set of record types.
package localize

// Type tags a translatable record shape.
type Type string

const (
	TypeNone               Type = ""
	TypeSession            Type = "session"
	TypeJobOffer           Type = "job_offer"
	TypeTraining           Type = "training"
	TypeNews               Type = "news"
	TypeOrganizationCenter Type = "organization_center"
	TypeSpecialty          Type = "specialty"
	TypeEvent              Type = "event"
	TypeCategory           Type = "category"
)

// Rule maps a structural predicate to a type.
type Rule struct {
	Type  Type
	Match func(obj map[string]any) bool
}

// DefaultRules returns the detection table, most specific first.
func DefaultRules() []Rule {
	return []Rule{
		{TypeSession, func(o map[string]any) bool {
			_, nested := o["training"].(map[string]any)
			return nested && has(o, "start_date")
		}},
		{TypeJobOffer, func(o map[string]any) bool {
			return has(o, "title") && hasAny(o, "missions", "profile", "contract_type")
		}},
		{TypeTraining, func(o map[string]any) bool {
			return has(o, "title", "presentation")
		}},
		{TypeNews, func(o map[string]any) bool {
			return has(o, "title", "content")
		}},
		{TypeOrganizationCenter, func(o map[string]any) bool {
			return has(o, "name", "description", "id") && hasAny(o, "city", "address")
		}},
		{TypeSpecialty, func(o map[string]any) bool {
			return has(o, "name", "description", "id")
		}},
		{TypeEvent, func(o map[string]any) bool {
			return has(o, "title", "description") && hasAny(o, "date", "start_date")
		}},
	}
}

// Detect returns the type of the first matching rule, or TypeNone.
func Detect(rules []Rule, obj map[string]any) Type {
	if obj == nil {
		return TypeNone
	}
	for _, r := range rules {
		if r.Match(obj) {
			return r.Type
		}
	}
	return TypeNone
}

// has reports whether every key is present with a non-null value.
func has(obj map[string]any, keys ...string) bool {
	for _, k := range keys {
		if v, ok := obj[k]; !ok || v == nil {
			return false
		}
	}
	return true
}

func hasAny(obj map[string]any, keys ...string) bool {
	for _, k := range keys {
		if has(obj, k) {
			return true
		}
	}
	return false
}
