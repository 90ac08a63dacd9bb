package services

import (
	"fmt"

	"shop_visit_app_go/models"
)

// submissionRequiredFields are the questionnaire fields that must be
// present before a report may be submitted
var submissionRequiredFields = []string{"customer_id", "shop_name", "shop_type", "visit_date", "visit_purpose"}

// SubmissionChecklist is the pre-submit gate. Each item is surfaced
// individually so the UI can show pass/fail per check, not just an
// aggregate.
type SubmissionChecklist struct {
	QuestionnaireComplete bool `json:"questionnaire_complete"`
	FollowUpSatisfied     bool `json:"follow_up_satisfied"`
	SignatureAttached     bool `json:"signature_attached"`
	NotSubmitted          bool `json:"not_submitted"`

	// Informational only: photos are optional and never block
	// submission, but the checklist still shows them.
	PhotosAttached bool `json:"photos_attached"`
}

// Ready reports whether submission is enabled
func (c SubmissionChecklist) Ready() bool {
	return c.QuestionnaireComplete && c.FollowUpSatisfied && c.SignatureAttached && c.NotSubmitted
}

// BuildChecklist evaluates the pre-submit checklist for a record
func BuildChecklist(v *models.ShopVisit) SubmissionChecklist {
	followUpOK := true
	if v.FollowUpRequired {
		followUpOK = v.FollowUpNotes != ""
	}

	return SubmissionChecklist{
		QuestionnaireComplete: v.CustomerID != "" && v.ShopName != "" && v.ShopType != "" && v.VisitPurpose != "",
		FollowUpSatisfied:     followUpOK,
		SignatureAttached:     v.HasSignature(),
		NotSubmitted:          !v.IsDone(),
		PhotosAttached:        len(v.VisitPhotos) > 0,
	}
}

// Checklist returns the pre-submit checklist for the current draft
func (l *VisitLifecycle) Checklist() SubmissionChecklist {
	l.mu.Lock()
	defer l.mu.Unlock()
	return BuildChecklist(&l.draft)
}

// Submit finalizes the visit report: it validates the checklist and
// the mandatory fields, computes the quality score, marks the record
// done and issues one final full write. On failure the in-memory
// status is left unchanged so resubmission is safe; on success the
// record is locked and this controller accepts no further mutation.
func (l *VisitLifecycle) Submit() (*models.ShopVisit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrLifecycleClosed
	}
	if l.draft.IsDone() {
		return nil, ErrVisitLocked
	}

	var missing []string
	for _, field := range submissionRequiredFields {
		if isFieldMissing(&l.draft, field) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("please fill in all required fields: %s", JoinFieldLabels(missing))
	}

	if !l.draft.IsAppointment() && DateOnly(l.draft.VisitDate).After(DateOnly(l.clock.Now())) {
		return nil, ErrFutureVisitDate
	}

	if l.draft.Signature != nil && *l.draft.Signature != "" &&
		(l.draft.SignatureSignerName == nil || *l.draft.SignatureSignerName == "") {
		return nil, ErrSignerNameRequired
	}

	checklist := BuildChecklist(&l.draft)
	if !checklist.Ready() {
		return nil, fmt.Errorf("pre-submission checklist incomplete: questionnaire=%t, follow-up=%t, signature=%t",
			checklist.QuestionnaireComplete, checklist.FollowUpSatisfied, checklist.SignatureAttached)
	}

	l.cancelPendingTimer()

	payload := l.cloneDraft()
	payload.VisitStatus = models.VisitStatusDone
	payload.SyncLegacyDraftFlag()
	score := CalculateScore(&payload)
	priority := PriorityLevel(score)
	payload.CalculatedScore = &score
	payload.PriorityLevel = &priority
	payload.DraftSavedAt = nil

	var err error
	if payload.ID == "" {
		err = l.store.CreateVisit(&payload)
	} else {
		err = l.store.UpdateVisit(payload.ID, &payload)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to submit visit report: %w", err)
	}

	l.draft = payload
	snap := l.cloneDraft()
	l.snapshot = &snap
	l.createAttempted = true
	l.state = flowDone
	l.lastSavedAt = l.clock.Now()

	submitted := l.cloneDraft()
	return &submitted, nil
}
