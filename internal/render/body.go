package render

import (
	"fmt"
	"strings"

	"github.com/lekhapadi/lekhapadi-backend/internal/templates"
)

type bodyBuilder func(t templates.Template, v templates.Values) string

var bodies = map[string]bodyBuilder{
	templates.TypeCitizenship:  citizenshipBody,
	templates.TypeBirth:        birthBody,
	templates.TypeResidence:    residenceBody,
	templates.TypeMarriage:     marriageBody,
	templates.TypeRelationship: relationshipBody,
}

// Body returns the single letter paragraph for a validated submission.
func Body(t templates.Template, v templates.Values) string {
	build, ok := bodies[t.ID]
	if !ok {
		build = generalBody
	}
	return withReason(build(t, v), v.Get(templates.FieldReason))
}

func optionLabel(t templates.Template, field, value string) string {
	if spec, ok := t.Field(field); ok {
		return spec.OptionLabel(value)
	}
	return value
}

func parents(v templates.Values) string {
	return fmt.Sprintf("श्री %s तथा श्रीमती %s", v.Get(templates.FieldFatherName), v.Get(templates.FieldMotherName))
}

func citizenshipBody(t templates.Template, v templates.Values) string {
	return fmt.Sprintf(
		"प्रस्तुत विषयमा यस वडा नं. %s, %s स्थायी ठेगाना भएका %s को %s छोरा/छोरी मिति %s मा जन्म भएको श्री %s लाई नेपाली नागरिकताको प्रमाण-पत्र प्रदान गरिदिनुहुन सिफारिस साथ अनुरोध गर्दछु।",
		v.Get(templates.FieldWardNo),
		v.Get(templates.FieldPermanentAddress),
		parents(v),
		optionLabel(t, templates.FieldCitizenshipType, v.Get(templates.FieldCitizenshipType)),
		v.Get(templates.FieldDateOfBirth),
		v.Get(templates.FieldFullName),
	)
}

func childWord(gender string) string {
	switch gender {
	case "male":
		return "छोरा"
	case "female":
		return "छोरी"
	default:
		return "सन्तान"
	}
}

func birthBody(_ templates.Template, v templates.Values) string {
	return fmt.Sprintf(
		"प्रस्तुत विषयमा यस वडा नं. %s, %s निवासी %s को %s मिति %s मा %s मा जन्म भएको श्री %s को जन्मदर्ता गरिदिनुहुन सिफारिस साथ अनुरोध गर्दछु।",
		v.Get(templates.FieldWardNo),
		v.Get(templates.FieldPermanentAddress),
		parents(v),
		childWord(v.Get(templates.FieldGender)),
		v.Get(templates.FieldDateOfBirth),
		v.Get(templates.FieldBirthPlace),
		v.Get(templates.FieldFullName),
	)
}

func residenceBody(_ templates.Template, v templates.Values) string {
	return fmt.Sprintf(
		"प्रस्तुत विषयमा %s स्थायी ठेगाना भएका %s का सन्तान श्री %s मिति %s देखि यस वडा नं. %s अन्तर्गत %s मा बसोबास गर्दै आउनुभएको व्यहोरा प्रमाणित गरी सिफारिस साथ अनुरोध गर्दछु।",
		v.Get(templates.FieldPermanentAddress),
		parents(v),
		v.Get(templates.FieldFullName),
		v.Get(templates.FieldResidingSince),
		v.Get(templates.FieldWardNo),
		v.Get(templates.FieldCurrentAddress),
	)
}

func marriageBody(t templates.Template, v templates.Values) string {
	return fmt.Sprintf(
		"प्रस्तुत विषयमा यस वडा नं. %s, %s निवासी %s का सन्तान श्री %s र श्री %s बीच मिति %s मा %s सम्पन्न भएको व्यहोरा प्रमाणित गरी विवाह दर्ताको लागि सिफारिस साथ अनुरोध गर्दछु।",
		v.Get(templates.FieldWardNo),
		v.Get(templates.FieldPermanentAddress),
		parents(v),
		v.Get(templates.FieldFullName),
		v.Get(templates.FieldSpouseName),
		v.Get(templates.FieldMarriageDate),
		optionLabel(t, templates.FieldMarriageType, v.Get(templates.FieldMarriageType)),
	)
}

func relationshipBody(t templates.Template, v templates.Values) string {
	return fmt.Sprintf(
		"प्रस्तुत विषयमा यस वडा नं. %s, %s निवासी %s का सन्तान श्री %s को %s श्री %s रहेको नाता प्रमाणित गरी सिफारिस साथ अनुरोध गर्दछु।",
		v.Get(templates.FieldWardNo),
		v.Get(templates.FieldPermanentAddress),
		parents(v),
		v.Get(templates.FieldFullName),
		optionLabel(t, templates.FieldRelationship, v.Get(templates.FieldRelationship)),
		v.Get(templates.FieldRelatedPersonName),
	)
}

func generalBody(_ templates.Template, v templates.Values) string {
	return fmt.Sprintf(
		"प्रस्तुत विषयमा यस वडा नं. %s, %s निवासी %s का सन्तान श्री %s ले सिफारिस माग गर्नुभएकोले आवश्यक कार्यको लागि सिफारिस साथ अनुरोध गर्दछु।",
		v.Get(templates.FieldWardNo),
		v.Get(templates.FieldPermanentAddress),
		parents(v),
		v.Get(templates.FieldFullName),
	)
}

func withReason(body, reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return body
	}
	reason = strings.TrimRight(reason, "।.")
	return body + " सिफारिसको कारण: " + reason + "।"
}
