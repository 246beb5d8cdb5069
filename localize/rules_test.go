package localize

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		obj  map[string]any
		want Type
	}{
		{"session", map[string]any{"training": map[string]any{"title": "x"}, "start_date": "2024-01-01"}, TypeSession},
		{"session needs object training", map[string]any{"training": "x", "start_date": "2024-01-01"}, TypeNone},
		{"job offer with missions", map[string]any{"title": "Poste", "missions": "m"}, TypeJobOffer},
		{"job offer with contract", map[string]any{"title": "Poste", "contract_type": "CDI"}, TypeJobOffer},
		{"training", map[string]any{"title": "Soudure", "presentation": "p"}, TypeTraining},
		{"news", map[string]any{"title": "Actu", "content": "c"}, TypeNews},
		{"center with city", map[string]any{"id": 1, "name": "Centre", "description": "d", "city": "Dakar"}, TypeOrganizationCenter},
		{"center with address", map[string]any{"id": 1, "name": "Centre", "description": "d", "address": "rue"}, TypeOrganizationCenter},
		{"specialty", map[string]any{"id": 1, "name": "Électricité", "description": "d"}, TypeSpecialty},
		{"event", map[string]any{"title": "Forum", "description": "d", "date": "2024-05-01"}, TypeEvent},
		{"event with start_date", map[string]any{"title": "Forum", "description": "d", "start_date": "2024-05-01"}, TypeEvent},
		{"null value is absent", map[string]any{"title": "Actu", "content": nil}, TypeNone},
		{"unknown", map[string]any{"foo": "bar"}, TypeNone},
		{"nil", nil, TypeNone},
	}

	rules := DefaultRules()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(rules, tt.obj); got != tt.want {
				t.Errorf("Detect() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetect_FirstMatchWins(t *testing.T) {
	// matches both job offer and training
	obj := map[string]any{"title": "t", "presentation": "p", "profile": "x"}
	if got := Detect(DefaultRules(), obj); got != TypeJobOffer {
		t.Errorf("Expected job_offer, got %q", got)
	}

	custom := []Rule{{TypeTraining, func(o map[string]any) bool { return has(o, "presentation") }}}
	if got := Detect(append(custom, DefaultRules()...), obj); got != TypeTraining {
		t.Errorf("Expected training, got %q", got)
	}
}

func TestDefaultSchemas_CoverRules(t *testing.T) {
	schemas := DefaultSchemas()
	for _, r := range DefaultRules() {
		if len(schemas[r.Type].Fields) == 0 {
			t.Errorf("type %q has no translatable fields", r.Type)
		}
	}
	if _, ok := schemas[TypeCategory]; !ok {
		t.Error("category schema missing")
	}
}
