package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer status constants
const (
	CustomerStatusActive   = "active"
	CustomerStatusInactive = "inactive"
)

// Customer represents a shop the sales team visits
type Customer struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ShopName      string `gorm:"size:255;not null;index" json:"shop_name"`
	ShopType      string `gorm:"size:100" json:"shop_type"`
	ShopAddress   string `gorm:"type:text" json:"shop_address"`
	Zipcode       string `gorm:"size:20" json:"zipcode"`
	City          string `gorm:"size:100;index" json:"city"`
	County        string `gorm:"size:100" json:"county"`
	ContactPerson string `gorm:"size:255" json:"contact_person"`
	ContactPhone  string `gorm:"size:50" json:"contact_phone"`
	ContactEmail  string `gorm:"size:255" json:"contact_email"`
	JobTitle      string `gorm:"size:100" json:"job_title"`
	ShopTimings   string `gorm:"type:text" json:"shop_timings"` // e.g. "Mon-Fri: 9:00 AM - 6:00 PM"
	VisitNotes    string `gorm:"type:text" json:"visit_notes"`  // notes for the next visit
	Status        string `gorm:"size:20;default:'active'" json:"status"`

	// Relationships
	Visits []ShopVisit `gorm:"foreignKey:CustomerID" json:"visits,omitempty"`
}

// BeforeCreate hook to generate UUID
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Customer model
func (Customer) TableName() string {
	return "customers"
}

// IsActive checks if the customer is still visitable
func (c *Customer) IsActive() bool {
	return c.Status != CustomerStatusInactive
}
