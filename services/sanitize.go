package services

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// SanitizeText strips any HTML from user-entered free text (visit
// notes, follow-up notes, appointment descriptions) before it is
// persisted or embedded into report HTML.
func SanitizeText(input string) string {
	return strings.TrimSpace(textPolicy.Sanitize(input))
}

// freeTextFields are the update keys that carry user-entered prose
var freeTextFields = map[string]bool{
	"notes":                        true,
	"follow_up_notes":              true,
	"appointment_description":      true,
	"support_materials_other_text": true,
	"visit_notes":                  true,
}

// IsFreeTextField reports whether an update key holds free text that
// must be sanitized
func IsFreeTextField(key string) bool {
	return freeTextFields[key]
}
