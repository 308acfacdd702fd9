package templates

// Kind is the input widget/value class of a template field.
type Kind string

const (
	KindText     Kind = "text"
	KindNumber   Kind = "number"
	KindDate     Kind = "date"
	KindTextarea Kind = "textarea"
	KindSelect   Kind = "select"
)

// Option is one allowed value of a select field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldSpec describes one form field of a template.
type FieldSpec struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Kind        Kind     `json:"type"`
	Required    bool     `json:"required"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []Option `json:"options,omitempty"`
}

// OptionLabel returns the display label for a select value, or the value itself.
func (f FieldSpec) OptionLabel(value string) string {
	for _, opt := range f.Options {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}

const (
	FieldFullName          = "fullName"
	FieldFatherName        = "fatherName"
	FieldMotherName        = "motherName"
	FieldPermanentAddress  = "permanentAddress"
	FieldWardNo            = "wardNo"
	FieldReason            = "reason"
	FieldAdditionalDetails = "additionalDetails"

	FieldDateOfBirth       = "dateOfBirth"
	FieldCitizenshipType   = "citizenshipType"
	FieldBirthPlace        = "birthPlace"
	FieldGender            = "gender"
	FieldResidingSince     = "residingSince"
	FieldCurrentAddress    = "currentAddress"
	FieldSpouseName        = "spouseName"
	FieldMarriageDate      = "marriageDate"
	FieldMarriageType      = "marriageType"
	FieldRelatedPersonName = "relatedPersonName"
	FieldRelationship      = "relationship"
)

var commonFields = []FieldSpec{
	{ID: FieldFullName, Label: "पूरा नाम", Kind: KindText, Required: true, Placeholder: "पूरा नाम लेख्नुहोस्"},
	{ID: FieldFatherName, Label: "बुवाको नाम", Kind: KindText, Required: true, Placeholder: "बुवाको नाम लेख्नुहोस्"},
	{ID: FieldMotherName, Label: "आमाको नाम", Kind: KindText, Required: true, Placeholder: "आमाको नाम लेख्नुहोस्"},
	{ID: FieldPermanentAddress, Label: "स्थायी ठेगाना", Kind: KindText, Required: true, Placeholder: "स्थायी ठेगाना लेख्नुहोस्"},
	{ID: FieldWardNo, Label: "वडा नं", Kind: KindNumber, Required: true, Placeholder: "वडा नं लेख्नुहोस्"},
	{ID: FieldReason, Label: "सिफारिसको कारण", Kind: KindTextarea, Required: true, Placeholder: "सिफारिसको कारण लेख्नुहोस्"},
}

var additionalDetailsField = FieldSpec{
	ID:          FieldAdditionalDetails,
	Label:       "अतिरिक्त जानकारी",
	Kind:        KindTextarea,
	Placeholder: "थप विवरण भए लेख्नुहोस्",
}

var dateOfBirthField = FieldSpec{ID: FieldDateOfBirth, Label: "जन्म मिति", Kind: KindDate, Required: true}

var citizenshipFields = []FieldSpec{
	dateOfBirthField,
	{
		ID: FieldCitizenshipType, Label: "नागरिकताको प्रकार", Kind: KindSelect, Required: true,
		Options: []Option{
			{Value: "birthCitizenship", Label: "जन्मको आधारमा"},
			{Value: "descentCitizenship", Label: "वंशजको आधारमा"},
		},
	},
}

var birthFields = []FieldSpec{
	dateOfBirthField,
	{ID: FieldBirthPlace, Label: "जन्म स्थान", Kind: KindText, Required: true, Placeholder: "जन्म स्थान लेख्नुहोस्"},
	{
		ID: FieldGender, Label: "लिङ्ग", Kind: KindSelect, Required: true,
		Options: []Option{
			{Value: "male", Label: "पुरुष"},
			{Value: "female", Label: "महिला"},
			{Value: "other", Label: "अन्य"},
		},
	},
}

var residenceFields = []FieldSpec{
	{ID: FieldResidingSince, Label: "बसोबास गरेको मिति देखि", Kind: KindDate, Required: true},
	{ID: FieldCurrentAddress, Label: "हालको ठेगाना", Kind: KindText, Required: true, Placeholder: "हालको ठेगाना लेख्नुहोस्"},
}

var marriageFields = []FieldSpec{
	{ID: FieldSpouseName, Label: "पति/पत्नीको नाम", Kind: KindText, Required: true, Placeholder: "पति/पत्नीको नाम लेख्नुहोस्"},
	{ID: FieldMarriageDate, Label: "विवाह मिति", Kind: KindDate, Required: true},
	{
		ID: FieldMarriageType, Label: "विवाहको प्रकार", Kind: KindSelect, Required: true,
		Options: []Option{
			{Value: "arranged", Label: "माग विवाह"},
			{Value: "love", Label: "प्रेम विवाह"},
			{Value: "court", Label: "अदालती विवाह"},
		},
	},
}

var relationshipFields = []FieldSpec{
	{ID: FieldRelatedPersonName, Label: "सम्बन्धित व्यक्तिको नाम", Kind: KindText, Required: true, Placeholder: "सम्बन्धित व्यक्तिको नाम लेख्नुहोस्"},
	{
		ID: FieldRelationship, Label: "नाता", Kind: KindSelect, Required: true,
		Options: []Option{
			{Value: "father", Label: "बुवा"},
			{Value: "mother", Label: "आमा"},
			{Value: "son", Label: "छोरा"},
			{Value: "daughter", Label: "छोरी"},
			{Value: "brother", Label: "भाइ"},
			{Value: "sister", Label: "बहिनी"},
			{Value: "husband", Label: "पति"},
			{Value: "wife", Label: "पत्नी"},
			{Value: "other", Label: "अन्य"},
		},
	},
}

func withCommon(specific []FieldSpec) []FieldSpec {
	out := make([]FieldSpec, 0, len(commonFields)+len(specific)+1)
	out = append(out, commonFields...)
	out = append(out, specific...)
	return append(out, additionalDetailsField)
}
