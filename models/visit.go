package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Visit status constants. Transitions are monotonic:
// appointment -> draft -> done, and "done" is terminal.
const (
	VisitStatusAppointment = "appointment"
	VisitStatusDraft       = "draft"
	VisitStatusDone        = "done"
)

// Commercial outcome constants
const (
	OutcomeNewOrder          = "new_order"
	OutcomeOrderCommitment   = "order_commitment"
	OutcomePriceNegotiation  = "price_negotiation"
	OutcomeComplaintResolved = "complaint_resolved"
	OutcomeInformationOnly   = "information_only"
	OutcomeNoOutcome         = "no_outcome"
)

// Priority level constants (derived from the calculated score)
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ShopVisit represents a single field-sales visit report
type ShopVisit struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Customer relationship
	CustomerID string    `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer   *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	// Shop Info Snapshot (duplicated from customer so the report stays
	// accurate even if the customer record changes later)
	ShopName      string `gorm:"size:255;not null" json:"shop_name"`
	ShopType      string `gorm:"size:100" json:"shop_type"`
	ShopAddress   string `gorm:"type:text" json:"shop_address"`
	Zipcode       string `gorm:"size:20" json:"zipcode"`
	City          string `gorm:"size:100" json:"city"`
	County        string `gorm:"size:100" json:"county"`
	ContactPerson string `gorm:"size:255" json:"contact_person"`
	ContactPhone  string `gorm:"size:50" json:"contact_phone"`
	ContactEmail  string `gorm:"size:255" json:"contact_email"`
	JobTitle      string `gorm:"size:100" json:"job_title"`
	ShopTimings   string `gorm:"type:text" json:"shop_timings"`

	// Status and workflow
	VisitStatus string `gorm:"size:20;default:'draft';index" json:"visit_status"`

	// Appointment stage fields
	AssignedUserID         *string    `gorm:"type:uuid;index" json:"assigned_user_id,omitempty"`
	AssignedUser           *User      `gorm:"foreignKey:AssignedUserID" json:"assigned_user,omitempty"`
	PlannedVisitDate       *time.Time `gorm:"index" json:"planned_visit_date,omitempty"`
	AppointmentDescription string     `gorm:"type:text" json:"appointment_description"`

	// Schedule
	VisitDate     time.Time `gorm:"not null;index" json:"visit_date"`
	VisitDuration int       `gorm:"default:60" json:"visit_duration"` // minutes
	VisitPurpose  string    `gorm:"size:100" json:"visit_purpose"`

	// Product visibility. The score is a pointer because 0 is a valid
	// value; only NULL counts as not answered.
	ProductVisibilityScore *int     `json:"product_visibility_score,omitempty"`
	ProductsDiscussed      []string `gorm:"serializer:json" json:"products_discussed"`
	CompetitorPresence     string   `gorm:"size:50" json:"competitor_presence"`

	// Training & support
	TrainingProvided          bool     `gorm:"not null;default:false" json:"training_provided"`
	TrainingTopics            []string `gorm:"serializer:json" json:"training_topics"`
	SupportMaterialsRequired  bool     `gorm:"not null;default:false" json:"support_materials_required"`
	SupportMaterialsItems     []string `gorm:"serializer:json" json:"support_materials_items"`
	SupportMaterialsOtherText string   `gorm:"type:text" json:"support_materials_other_text"`

	// Commercial outcomes
	CommercialOutcome   string         `gorm:"size:100" json:"commercial_outcome"`
	OrderValue          float64        `gorm:"default:0" json:"order_value"`
	OverallSatisfaction int            `gorm:"default:0" json:"overall_satisfaction"` // 1-10; 0 means not answered
	SalesData           map[string]any `gorm:"serializer:json" json:"sales_data"`

	// Follow-up
	FollowUpRequired       bool       `gorm:"not null;default:false;index" json:"follow_up_required"`
	FollowUpNotes          string     `gorm:"type:text" json:"follow_up_notes"`
	FollowUpDate           *time.Time `gorm:"index" json:"follow_up_date,omitempty"`
	FollowUpAssignedUserID *string    `gorm:"type:uuid" json:"follow_up_assigned_user_id,omitempty"`
	FollowUpStage          *string    `gorm:"size:50" json:"follow_up_stage,omitempty"`
	FollowUpReminderSentAt *time.Time `json:"follow_up_reminder_sent_at,omitempty"`

	// Photos & notes
	Notes          string         `gorm:"type:text" json:"notes"`
	VisitPhotos    []string       `gorm:"serializer:json" json:"visit_photos"`
	GPSCoordinates map[string]any `gorm:"serializer:json" json:"gps_coordinates,omitempty"`

	// Signature
	Signature           *string    `gorm:"type:text" json:"signature,omitempty"` // base64 image
	SignatureSignerName *string    `gorm:"size:255" json:"signature_signer_name,omitempty"`
	SignatureDate       *time.Time `json:"signature_date,omitempty"`

	// Derived at submission time
	CalculatedScore *int    `json:"calculated_score,omitempty"`
	PriorityLevel   *string `gorm:"size:50" json:"priority_level,omitempty"`

	// Draft bookkeeping. IsDraft is a legacy mirror of VisitStatus kept
	// for older API consumers.
	IsDraft      bool       `gorm:"not null;default:false" json:"is_draft"`
	DraftSavedAt *time.Time `json:"draft_saved_at,omitempty"`

	// Attribution
	CreatedByID *string `gorm:"type:uuid" json:"created_by,omitempty"`
}

// BeforeCreate hook to generate UUID and default the visit date
func (v *ShopVisit) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.VisitDate.IsZero() {
		v.VisitDate = time.Now().UTC()
	}
	return nil
}

// BeforeSave hook keeps the legacy draft flag in sync with the status
func (v *ShopVisit) BeforeSave(tx *gorm.DB) error {
	v.SyncLegacyDraftFlag()
	return nil
}

// SyncLegacyDraftFlag recomputes the backward-compatibility is_draft
// mirror: true unless the visit has been submitted.
func (v *ShopVisit) SyncLegacyDraftFlag() {
	v.IsDraft = v.VisitStatus != VisitStatusDone
}

// TableName specifies the table name for ShopVisit model
func (ShopVisit) TableName() string {
	return "shop_visits"
}

// IsValidVisitStatus checks if the status is valid
func IsValidVisitStatus(status string) bool {
	switch status {
	case VisitStatusAppointment, VisitStatusDraft, VisitStatusDone:
		return true
	}
	return false
}

// StatusRank orders statuses for the monotonic-transition rule.
// A visit may only move to a status with an equal or higher rank.
func StatusRank(status string) int {
	switch status {
	case VisitStatusAppointment:
		return 0
	case VisitStatusDraft:
		return 1
	case VisitStatusDone:
		return 2
	}
	return -1
}

// IsDone checks if the visit has been submitted and locked
func (v *ShopVisit) IsDone() bool {
	return v.VisitStatus == VisitStatusDone
}

// IsEditable checks if the visit still accepts field mutation
func (v *ShopVisit) IsEditable() bool {
	return !v.IsDone()
}

// IsAppointment checks if the visit is still a planned future visit
func (v *ShopVisit) IsAppointment() bool {
	return v.VisitStatus == VisitStatusAppointment
}

// HasSignature checks if a complete signature payload is attached
func (v *ShopVisit) HasSignature() bool {
	return v.Signature != nil && *v.Signature != "" &&
		v.SignatureSignerName != nil && *v.SignatureSignerName != "" &&
		v.SignatureDate != nil
}
