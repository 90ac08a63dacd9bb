package services

import (
	"gorm.io/gorm"

	"shop_visit_app_go/models"
)

// CreateCustomer persists a new customer
func CreateCustomer(db *gorm.DB, c *models.Customer) error {
	return db.Create(c).Error
}

// GetCustomerByID fetches a single customer
func GetCustomerByID(db *gorm.DB, id string) (*models.Customer, error) {
	var customer models.Customer
	err := db.First(&customer, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// ListCustomers fetches customers, optionally filtered by a search
// term matching shop name or city
func ListCustomers(db *gorm.DB, search string) ([]models.Customer, error) {
	query := db.Model(&models.Customer{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("shop_name LIKE ? OR city LIKE ?", pattern, pattern)
	}

	var customers []models.Customer
	err := query.Order("shop_name asc").Find(&customers).Error
	return customers, err
}

// UpdateCustomer updates an existing customer
func UpdateCustomer(db *gorm.DB, id string, updates map[string]interface{}) error {
	return db.Model(&models.Customer{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteCustomer soft-deletes a customer
func DeleteCustomer(db *gorm.DB, id string) error {
	return db.Delete(&models.Customer{}, "id = ?", id).Error
}
