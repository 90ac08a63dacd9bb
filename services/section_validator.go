package services

import (
	"strings"

	"shop_visit_app_go/models"
)

// Form section indexes, in navigation order
const (
	SectionShopInfo = iota
	SectionProductVisibility
	SectionTraining
	SectionCommercial
	SectionPhotos
	SectionSignature
	SectionCount
)

// sectionRequiredFields is the declarative gate table: the fields a
// section demands before forward navigation is allowed. Conditional
// additions (visit_date, follow_up_notes) are handled in
// RequiredFieldsForSection because they depend on the record state.
var sectionRequiredFields = map[int][]string{
	SectionShopInfo:          {"customer_id", "shop_name", "shop_type", "visit_purpose", "visit_duration"},
	SectionProductVisibility: {"product_visibility_score", "competitor_presence"},
	SectionTraining:          {},
	SectionCommercial:        {"commercial_outcome", "overall_satisfaction"},
	SectionPhotos:            {}, // photos never block navigation
	SectionSignature:         {"signature", "signature_signer_name"},
}

// fieldLabels maps wire field names to the labels shown in validation
// messages
var fieldLabels = map[string]string{
	"customer_id":              "Customer/Shop",
	"shop_name":                "Shop Name",
	"shop_type":                "Shop Type",
	"visit_date":               "Visit Date",
	"visit_purpose":            "Visit Purpose",
	"visit_duration":           "Visit Duration",
	"product_visibility_score": "Overall Product Visibility Score",
	"competitor_presence":      "Competitor Presence",
	"commercial_outcome":       "Commercial Result",
	"overall_satisfaction":     "Overall Satisfaction Rating",
	"follow_up_notes":          "Follow-up Notes",
	"visit_photos":             "Visit Photos",
	"signature":                "Signature",
	"signature_signer_name":    "Signer Name",
}

// FieldLabel returns the human-readable label for a wire field name
func FieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

// JoinFieldLabels renders a field list as a single comma-separated
// message fragment
func JoinFieldLabels(fields []string) string {
	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = FieldLabel(f)
	}
	return strings.Join(labels, ", ")
}

// RequiredFieldsForSection returns the required-field set gating
// forward navigation out of a section, including the conditional
// rules: visit_date is required unless the visit is still an
// appointment, and follow-up notes are required once the follow-up
// flag is set.
func RequiredFieldsForSection(section int, v *models.ShopVisit) []string {
	fields := append([]string(nil), sectionRequiredFields[section]...)

	if section == SectionShopInfo && !v.IsAppointment() {
		fields = append(fields, "visit_date")
	}
	if section == SectionCommercial && v.FollowUpRequired {
		fields = append(fields, "follow_up_notes")
	}
	return fields
}

// MissingFieldsForSection filters the section's required fields down
// to those the record has not answered yet
func MissingFieldsForSection(section int, v *models.ShopVisit) []string {
	var missing []string
	for _, field := range RequiredFieldsForSection(section, v) {
		if isFieldMissing(v, field) {
			missing = append(missing, field)
		}
	}
	return missing
}

// isFieldMissing applies the per-field emptiness rules. Note the
// asymmetry between the two scored fields: a satisfaction of 0 is
// missing (the scale is 1-10) while a visibility score of 0 is a valid
// answer (the scale is 0-100) and only NULL counts as unanswered.
func isFieldMissing(v *models.ShopVisit, field string) bool {
	switch field {
	case "customer_id":
		return v.CustomerID == ""
	case "shop_name":
		return v.ShopName == ""
	case "shop_type":
		return v.ShopType == ""
	case "visit_date":
		return v.VisitDate.IsZero()
	case "visit_purpose":
		return v.VisitPurpose == ""
	case "visit_duration":
		return v.VisitDuration == 0
	case "product_visibility_score":
		return v.ProductVisibilityScore == nil
	case "competitor_presence":
		return v.CompetitorPresence == ""
	case "commercial_outcome":
		return v.CommercialOutcome == ""
	case "overall_satisfaction":
		return v.OverallSatisfaction == 0
	case "follow_up_notes":
		return v.FollowUpNotes == ""
	case "visit_photos":
		return len(v.VisitPhotos) == 0
	case "signature":
		return v.Signature == nil || *v.Signature == ""
	case "signature_signer_name":
		return v.SignatureSignerName == nil || *v.SignatureSignerName == ""
	}
	return false
}
