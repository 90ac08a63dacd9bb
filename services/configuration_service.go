package services

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"shop_visit_app_go/models"
)

// GetConfigOptions fetches active options for a config type, in display order
func GetConfigOptions(db *gorm.DB, configType string) ([]models.Configuration, error) {
	var options []models.Configuration
	err := db.
		Where("config_type = ?", configType).
		Where("is_active = ?", true).
		Order("display_order ASC").
		Find(&options).Error
	return options, err
}

// GetAllConfigOptions fetches every option grouped by config type
func GetAllConfigOptions(db *gorm.DB) (map[string][]models.Configuration, error) {
	var options []models.Configuration
	err := db.Order("config_type ASC, display_order ASC").Find(&options).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]models.Configuration)
	for _, opt := range options {
		grouped[opt.ConfigType] = append(grouped[opt.ConfigType], opt)
	}
	return grouped, nil
}

// CreateConfigOption creates a new option for a config type
func CreateConfigOption(db *gorm.DB, option *models.Configuration) error {
	if option.ConfigType == "" || option.ConfigValue == "" {
		return fmt.Errorf("config type and value are required")
	}
	if option.ConfigName == "" {
		option.ConfigName = option.ConfigValue
	}
	option.IsActive = true
	return db.Create(option).Error
}

// UpdateConfigOption applies partial updates to an option
func UpdateConfigOption(db *gorm.DB, id string, updates map[string]interface{}) (*models.Configuration, error) {
	var option models.Configuration
	if err := db.First(&option, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&option).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &option, nil
}

// DeleteConfigOption deactivates an option so historical visits keep
// their stored value
func DeleteConfigOption(db *gorm.DB, id string) error {
	return db.Model(&models.Configuration{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// ValidateConfigOption checks whether a value is an active option of
// the given config type
func ValidateConfigOption(db *gorm.DB, configType, value string) bool {
	var count int64
	db.Model(&models.Configuration{}).
		Where("config_type = ?", configType).
		Where("config_value = ?", value).
		Where("is_active = ?", true).
		Count(&count)
	return count > 0
}

var defaultConfigOptions = map[string][]string{
	models.ConfigTypeVisitPurposes: {
		"routine_check", "new_product_introduction", "complaint_follow_up",
		"order_collection", "training_session", "relationship_building",
	},
	models.ConfigTypeShopTypes: {
		"pharmacy", "supermarket", "convenience_store", "specialty_store", "wholesaler",
	},
	models.ConfigTypeProducts: {
		"vitamin_range", "skincare_line", "infant_nutrition", "sports_supplements",
	},
	models.ConfigTypeTrainingTopics: {
		"product_knowledge", "merchandising", "promotions", "ordering_process",
	},
	models.ConfigTypeSupportMaterial: {
		"posters", "shelf_strips", "brochures", "samples", "display_stands", "other",
	},
}

// SeedDefaultConfigurations inserts the default option lists if the
// table is empty
func SeedDefaultConfigurations(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Configuration{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil // Already seeded
	}

	for configType, values := range defaultConfigOptions {
		for i, value := range values {
			option := models.Configuration{
				ConfigType:   configType,
				ConfigName:   value,
				ConfigValue:  value,
				IsActive:     true,
				DisplayOrder: i,
			}
			if err := db.Create(&option).Error; err != nil {
				return fmt.Errorf("failed to seed %s option %q: %w", configType, value, err)
			}
		}
	}

	log.Println("Seeded default configuration options")
	return nil
}
