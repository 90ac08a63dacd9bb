package services

import (
	"math"

	"shop_visit_app_go/models"
)

// commercialOutcomeWeights maps each commercial outcome to its
// contribution to the visit quality score
var commercialOutcomeWeights = map[string]float64{
	models.OutcomeNewOrder:          25,
	models.OutcomeOrderCommitment:   20,
	models.OutcomePriceNegotiation:  15,
	models.OutcomeComplaintResolved: 10,
	models.OutcomeInformationOnly:   5,
	models.OutcomeNoOutcome:         0,
}

// CalculateScore computes the visit quality score from the record
// fields. The result is always an integer in [0, 100].
func CalculateScore(v *models.ShopVisit) int {
	var score float64

	if v.ProductVisibilityScore != nil {
		score += float64(*v.ProductVisibilityScore) * 0.3
	}
	if v.TrainingProvided {
		score += 20
	}
	score += commercialOutcomeWeights[v.CommercialOutcome]
	score += float64(v.OverallSatisfaction) * 2.5

	return int(math.Round(math.Min(100, math.Max(0, score))))
}

// PriorityLevel derives the follow-up priority tier from the score.
// High scores mean the visit went well and needs little attention.
func PriorityLevel(score int) string {
	if score >= 80 {
		return models.PriorityLow
	}
	if score >= 60 {
		return models.PriorityMedium
	}
	return models.PriorityHigh
}
