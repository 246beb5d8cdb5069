package localize

// Schema lists the fields of a type that hold source-language text and the
// fields that hold nested records.
type Schema struct {
	Fields []string
	Nested []string
}

// DefaultSchemas returns the schema of every known type.
//
// A nested field named after a type (training, specialty, category) uses
// that type when its value matches no rule.
func DefaultSchemas() map[Type]Schema {
	return map[Type]Schema{
		TypeSession: {
			Fields: []string{"title", "description", "location"},
			Nested: []string{"training"},
		},
		TypeJobOffer: {
			Fields: []string{"title", "description", "missions", "profile", "competencies", "advantages", "location"},
			Nested: []string{"specialty"},
		},
		TypeTraining: {
			Fields: []string{"title", "presentation", "target_skills", "program", "target_audience",
				"prerequisites", "enrollment", "duration_description"},
			Nested: []string{"specialty"},
		},
		TypeNews: {
			Fields: []string{"title", "summary", "content"},
			Nested: []string{"category"},
		},
		TypeOrganizationCenter: {
			Fields: []string{"name", "description", "address", "city"},
		},
		TypeSpecialty: {
			Fields: []string{"name", "description"},
		},
		TypeEvent: {
			Fields: []string{"title", "description", "location"},
		},
		TypeCategory: {
			Fields: []string{"name", "description"},
		},
	}
}
