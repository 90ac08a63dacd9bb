package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"shop_visit_app_go/models"
)

func TestBuildVisitReportHTML(t *testing.T) {
	visibility := 0
	score := 82
	priority := models.PriorityLow
	sig := "data:image/png;base64,iVBORw0KGgo="
	signer := "Pat Murphy"
	signedAt := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	followUp := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)

	t.Run("full report", func(t *testing.T) {
		visit := models.ShopVisit{
			ShopName:               "Corner Stores Ltd",
			ShopType:               "convenience",
			ShopAddress:            "14 Main Street",
			City:                   "Cork",
			VisitStatus:            models.VisitStatusDone,
			VisitDate:              time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
			VisitDuration:          45,
			VisitPurpose:           "routine_check",
			ProductVisibilityScore: &visibility,
			ProductsDiscussed:      []string{"vitamin_range"},
			TrainingProvided:       true,
			CommercialOutcome:      models.OutcomeNewOrder,
			OverallSatisfaction:    10,
			FollowUpRequired:       true,
			FollowUpNotes:          "drop off the new catalogue",
			FollowUpDate:           &followUp,
			CalculatedScore:        &score,
			PriorityLevel:          &priority,
			Signature:              &sig,
			SignatureSignerName:    &signer,
			SignatureDate:          &signedAt,
		}

		html, err := BuildVisitReportHTML(&visit)
		assert.NoError(t, err)
		assert.Contains(t, html, "Corner Stores Ltd")
		assert.Contains(t, html, "August 31, 2026")
		assert.Contains(t, html, "0 / 100", "a zero visibility score is a real answer")
		assert.Contains(t, html, "10 / 10")
		assert.Contains(t, html, "82 / 100")
		assert.Contains(t, html, "Pat Murphy")
		assert.Contains(t, html, sig)
		assert.Contains(t, html, "drop off the new catalogue")
	})

	t.Run("unanswered fields", func(t *testing.T) {
		visit := models.ShopVisit{
			ShopName:  "Quay Pharmacy",
			VisitDate: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		}

		html, err := BuildVisitReportHTML(&visit)
		assert.NoError(t, err)
		assert.Contains(t, html, "Not answered")
		assert.NotContains(t, html, "score-box", "no score section without a calculated score")
		assert.NotContains(t, html, "<img", "no signature block without a signature")
	})

	t.Run("notes are escaped", func(t *testing.T) {
		visit := models.ShopVisit{
			ShopName:  "Quay Pharmacy",
			VisitDate: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
			Notes:     `<script>alert("x")</script>`,
		}

		html, err := BuildVisitReportHTML(&visit)
		assert.NoError(t, err)
		assert.NotContains(t, html, "<script>alert")
	})
}
