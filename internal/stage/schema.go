package stage

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/valpere/peredoc/internal/profile"
)

// analysisShape and reviewShape describe the JSON the analysis and review
// prompts ask for. Profiles add their own fields on top.
type analysisShape struct {
	DocumentType         string   `json:"document_type" jsonschema:"description=Document type such as formal or informal or technical or creative"`
	ContentSections      []string `json:"content_sections" jsonschema:"description=Content sections in reading order"`
	FormattingElements   []string `json:"formatting_elements" jsonschema:"description=Special formatting elements such as tables or lists or headers"`
	TechnicalTerminology []string `json:"technical_terminology" jsonschema:"description=Terms that need care during translation"`
	ComplexityLevel      string   `json:"complexity_level" jsonschema:"enum=low,enum=medium,enum=high"`
}

type reviewShape struct {
	OverallQuality       int      `json:"overall_quality" jsonschema:"minimum=1,maximum=10"`
	Accuracy             int      `json:"accuracy" jsonschema:"minimum=1,maximum=10"`
	Fluency              int      `json:"fluency" jsonschema:"minimum=1,maximum=10"`
	StylePreservation    int      `json:"style_preservation" jsonschema:"minimum=1,maximum=10"`
	SpecificIssues       []string `json:"specific_issues" jsonschema:"description=Problems found in the translation"`
	SuggestedCorrections []string `json:"suggested_corrections" jsonschema:"description=Concrete fixes; leave empty when none are needed"`
}

// responseSchema renders the JSON schema of shape extended with the
// profile's extra fields.
func responseSchema(shape any, extra []profile.Field) string {
	r := &jsonschema.Reflector{Anonymous: true, DoNotReference: true, ExpandedStruct: true}
	s := r.Reflect(shape)
	s.Version = ""

	for _, f := range extra {
		prop := &jsonschema.Schema{Description: f.Description}
		if f.List {
			prop.Type = "array"
			prop.Items = &jsonschema.Schema{Type: "string"}
		} else {
			prop.Type = "integer"
			prop.Minimum = json.Number("1")
			prop.Maximum = json.Number("10")
		}
		s.Properties.Set(f.Key, prop)
		s.Required = append(s.Required, f.Key)
	}

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

func schemaInstruction(shape any, extra []profile.Field) string {
	schema := responseSchema(shape, extra)
	if schema == "" {
		return "Respond in JSON format."
	}
	return "Respond in JSON format. The response must be a single JSON object matching this schema:\n" + schema
}
