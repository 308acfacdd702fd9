package templates

import (
	"sort"
	"strings"
)

const (
	TypeCitizenship  = "citizenship"
	TypeBirth        = "birth"
	TypeResidence    = "residence"
	TypeMarriage     = "marriage"
	TypeRelationship = "relationship"

	// TypeGeneral backs unknown document types with the common field set.
	TypeGeneral = "general"
)

// Template is a sifaris letter definition: form schema plus letter copy.
type Template struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Subject     string      `json:"subject"`
	Addressee   []string    `json:"addressee"`
	Fields      []FieldSpec `json:"fields"`
	// Emphasis lists the points a formal rewrite should stress.
	Emphasis []string `json:"-"`
}

// Field returns the named field spec.
func (t Template) Field(id string) (FieldSpec, bool) {
	for _, f := range t.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldSpec{}, false
}

var registry = map[string]Template{
	TypeCitizenship: {
		ID:          TypeCitizenship,
		Name:        "नागरिकता सिफारिस",
		Description: "नागरिकता प्रमाणपत्र प्राप्त गर्नको लागि सिफारिस",
		Subject:     "विषय: नागरिकता सिफारिस सम्बन्धमा।",
		Addressee:   []string{"श्री जिल्ला प्रशासन कार्यालय,", "जिल्ला।"},
		Fields:      withCommon(citizenshipFields),
		Emphasis: []string{
			"The legal basis for citizenship",
			"Verification of identity and residence",
			"Confirmation of eligibility criteria",
		},
	},
	TypeBirth: {
		ID:          TypeBirth,
		Name:        "जन्मदर्ता सिफारिस",
		Description: "जन्मदर्ता प्रमाणपत्र प्राप्त गर्नको लागि सिफारिस",
		Subject:     "विषय: जन्मदर्ता सिफारिस सम्बन्धमा।",
		Addressee:   []string{"श्री स्थानीय पञ्जिकाधिकारीज्यू,", "वडा कार्यालय।"},
		Fields:      withCommon(birthFields),
		Emphasis: []string{
			"Details about the birth (place, time if available)",
			"Family information",
			"Importance of timely registration",
		},
	},
	TypeResidence: {
		ID:          TypeResidence,
		Name:        "बसोबास प्रमाण पत्र सिफारिस",
		Description: "स्थायी बसोबास प्रमाणित गर्नको लागि सिफारिस",
		Subject:     "विषय: बसोबास प्रमाणित सिफारिस सम्बन्धमा।",
		Addressee:   []string{"श्री सम्बन्धित निकाय,"},
		Fields:      withCommon(residenceFields),
		Emphasis: []string{
			"Duration of residence",
			"Verification of address",
			"Purpose of the certificate",
		},
	},
	TypeMarriage: {
		ID:          TypeMarriage,
		Name:        "विवाह प्रमाणिकरण सिफारिस",
		Description: "विवाह दर्ता प्रमाणपत्र प्राप्त गर्नको लागि सिफारिस",
		Subject:     "विषय: विवाह प्रमाणित सिफारिस सम्बन्धमा।",
		Addressee:   []string{"श्री जिल्ला प्रशासन कार्यालय,", "जिल्ला।"},
		Fields:      withCommon(marriageFields),
		Emphasis: []string{
			"Details of the marriage ceremony",
			"Legal status of the marriage",
			"Verification of the relationship",
		},
	},
	TypeRelationship: {
		ID:          TypeRelationship,
		Name:        "नाता प्रमाणिकरण सिफारिस",
		Description: "नाता प्रमाणित प्रमाणपत्र प्राप्त गर्नको लागि सिफारिस",
		Subject:     "विषय: नाता प्रमाणित सिफारिस सम्बन्धमा।",
		Addressee:   []string{"श्री सम्बन्धित निकाय,"},
		Fields:      withCommon(relationshipFields),
		Emphasis: []string{
			"Nature of the relationship",
			"Verification of the relationship",
			"Purpose of the certificate",
		},
	},
}

var general = Template{
	ID:          TypeGeneral,
	Name:        "सामान्य सिफारिस",
	Description: "सामान्य प्रयोजनको लागि सिफारिस",
	Subject:     "विषय: सिफारिस सम्बन्धमा।",
	Addressee:   []string{"श्री सम्बन्धित निकाय,", "जो जससँग सम्बन्धित छ।"},
	Fields:      withCommon(nil),
}

var aliases = map[string]string{
	"citizenship-sifaris":              TypeCitizenship,
	"birth-sifaris":                    TypeBirth,
	"birth-registration":               TypeBirth,
	"residence-sifaris":                TypeResidence,
	"marriage-sifaris":                 TypeMarriage,
	"relationship-sifaris":             TypeRelationship,
	"relationship-certificate-sifaris": TypeRelationship,
}

// Normalize maps a client-supplied document type onto a canonical template id.
// Unknown values are returned lowercased so they still name the document.
func Normalize(documentType string) string {
	key := strings.ToLower(strings.TrimSpace(documentType))
	if canonical, ok := aliases[key]; ok {
		return canonical
	}
	return key
}

// Lookup returns the template for a canonical id or alias.
func Lookup(documentType string) (Template, bool) {
	t, ok := registry[Normalize(documentType)]
	return t, ok
}

// Resolve never fails: unknown types get the general template.
func Resolve(documentType string) Template {
	if t, ok := Lookup(documentType); ok {
		return t
	}
	return general
}

// FieldsFor returns the ordered field specs for a document type. Unknown
// types yield the common field set.
func FieldsFor(documentType string) []FieldSpec {
	fields := Resolve(documentType).Fields
	out := make([]FieldSpec, len(fields))
	copy(out, fields)
	return out
}

// List returns the canonical templates ordered by id.
func List() []Template {
	out := make([]Template, 0, len(registry))
	for _, t := range registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
