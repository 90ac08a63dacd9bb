package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"shop_visit_app_go/models"
)

// VisitStore is the persistence boundary the lifecycle controller
// writes through. The gorm-backed implementation is GormVisitStore;
// tests drive the controller with an in-memory fake.
type VisitStore interface {
	CreateVisit(v *models.ShopVisit) error
	GetVisit(id string) (*models.ShopVisit, error)
	UpdateVisit(id string, v *models.ShopVisit) error
	DeleteVisit(id string) error
	GetCustomer(id string) (*models.Customer, error)
}

// GormVisitStore adapts the database to the VisitStore interface
type GormVisitStore struct {
	db *gorm.DB
}

// NewGormVisitStore returns a store backed by the given database
func NewGormVisitStore(db *gorm.DB) *GormVisitStore {
	return &GormVisitStore{db: db}
}

func (s *GormVisitStore) CreateVisit(v *models.ShopVisit) error {
	return CreateVisit(s.db, v)
}

func (s *GormVisitStore) GetVisit(id string) (*models.ShopVisit, error) {
	return GetVisitByID(s.db, id)
}

func (s *GormVisitStore) UpdateVisit(id string, v *models.ShopVisit) error {
	return UpdateVisit(s.db, id, v)
}

func (s *GormVisitStore) DeleteVisit(id string) error {
	return DeleteVisit(s.db, id)
}

func (s *GormVisitStore) GetCustomer(id string) (*models.Customer, error) {
	return GetCustomerByID(s.db, id)
}

// CreateVisit persists a new visit record after checking the customer
// reference exists
func CreateVisit(db *gorm.DB, v *models.ShopVisit) error {
	if v.CustomerID == "" {
		return errors.New("visit requires a customer reference")
	}
	var count int64
	if err := db.Model(&models.Customer{}).Where("id = ?", v.CustomerID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errors.New("customer not found")
	}
	return db.Create(v).Error
}

// GetVisitByID fetches a single visit with its customer
func GetVisitByID(db *gorm.DB, id string) (*models.ShopVisit, error) {
	var visit models.ShopVisit
	err := db.Preload("Customer").First(&visit, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &visit, nil
}

// UpdateVisit replaces the stored record with the full given state.
// Submitted visits are immutable.
func UpdateVisit(db *gorm.DB, id string, v *models.ShopVisit) error {
	var existing models.ShopVisit
	if err := db.Select("id", "visit_status").First(&existing, "id = ?", id).Error; err != nil {
		return err
	}
	if existing.IsDone() {
		return ErrVisitLocked
	}
	v.ID = id
	return db.Session(&gorm.Session{FullSaveAssociations: false}).
		Omit("Customer", "AssignedUser", "CreatedAt").
		Save(v).Error
}

// DeleteVisit soft-deletes a visit record
func DeleteVisit(db *gorm.DB, id string) error {
	return db.Delete(&models.ShopVisit{}, "id = ?", id).Error
}

// VisitFilters narrows visit listings
type VisitFilters struct {
	Status     string
	CustomerID string
	CreatedBy  string
	DateFrom   time.Time
	DateTo     time.Time
}

// ListVisits fetches visits matching the filters, newest first
func ListVisits(db *gorm.DB, filters VisitFilters) ([]models.ShopVisit, error) {
	query := db.Model(&models.ShopVisit{}).Preload("Customer")

	if filters.Status != "" {
		query = query.Where("visit_status = ?", filters.Status)
	}
	if filters.CustomerID != "" {
		query = query.Where("customer_id = ?", filters.CustomerID)
	}
	if filters.CreatedBy != "" {
		query = query.Where("created_by_id = ?", filters.CreatedBy)
	}
	if !filters.DateFrom.IsZero() {
		query = query.Where("visit_date >= ?", filters.DateFrom)
	}
	if !filters.DateTo.IsZero() {
		query = query.Where("visit_date <= ?", filters.DateTo)
	}

	var visits []models.ShopVisit
	err := query.Order("visit_date desc").Find(&visits).Error
	return visits, err
}

// GetPlannedVisits fetches appointments ordered by planned date
func GetPlannedVisits(db *gorm.DB) ([]models.ShopVisit, error) {
	var visits []models.ShopVisit
	err := db.Preload("Customer").
		Where("visit_status = ?", models.VisitStatusAppointment).
		Order("planned_visit_date asc").
		Find(&visits).Error
	return visits, err
}

// GetVisitsRequiringFollowUp fetches submitted visits with an open
// follow-up, soonest due first
func GetVisitsRequiringFollowUp(db *gorm.DB) ([]models.ShopVisit, error) {
	var visits []models.ShopVisit
	err := db.Preload("Customer").
		Where("follow_up_required = ?", true).
		Where("visit_status = ?", models.VisitStatusDone).
		Order("follow_up_date asc").
		Find(&visits).Error
	return visits, err
}

// GetFollowUpsDueForReminder fetches submitted visits whose follow-up
// date falls inside the window and which have not been reminded yet
func GetFollowUpsDueForReminder(db *gorm.DB, from, to time.Time) ([]models.ShopVisit, error) {
	var visits []models.ShopVisit
	err := db.Preload("Customer").Preload("AssignedUser").
		Where("visit_status = ?", models.VisitStatusDone).
		Where("follow_up_required = ?", true).
		Where("follow_up_date >= ? AND follow_up_date <= ?", from, to).
		Where("follow_up_reminder_sent_at IS NULL").
		Find(&visits).Error
	return visits, err
}
