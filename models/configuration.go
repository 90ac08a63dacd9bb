package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Configuration option types
const (
	ConfigTypeVisitPurposes   = "visit_purposes"
	ConfigTypeShopTypes       = "shop_types"
	ConfigTypeProducts        = "products"
	ConfigTypeTrainingTopics  = "training_topics"
	ConfigTypeSupportMaterial = "support_materials"
)

// Configuration is an admin-managed option list entry (visit purposes,
// shop types, product catalogue, ...) surfaced as form choices.
type Configuration struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ConfigType   string `gorm:"size:100;not null;index" json:"config_type"`
	ConfigName   string `gorm:"type:text;not null" json:"config_name"`
	ConfigValue  string `gorm:"size:255;not null" json:"config_value"`
	IsActive     bool   `gorm:"not null;default:true" json:"is_active"`
	DisplayOrder int    `gorm:"default:0" json:"display_order"`
}

// BeforeCreate hook to generate UUID
func (c *Configuration) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Configuration model
func (Configuration) TableName() string {
	return "configurations"
}
