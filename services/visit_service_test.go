package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"shop_visit_app_go/models"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Customer{},
		&models.ShopVisit{},
		&models.AuditLog{},
		&models.Configuration{},
	)
	assert.NoError(t, err)
	return db
}

func seedCustomer(t *testing.T, db *gorm.DB) models.Customer {
	t.Helper()
	customer := testCustomer()
	customer.ID = ""
	assert.NoError(t, db.Create(&customer).Error)
	return customer
}

func TestVisitService(t *testing.T) {
	db := setupServiceTestDB(t)
	customer := seedCustomer(t, db)

	t.Run("create requires an existing customer", func(t *testing.T) {
		err := CreateVisit(db, &models.ShopVisit{ShopName: "No Customer"})
		assert.Error(t, err)

		err = CreateVisit(db, &models.ShopVisit{CustomerID: "11111111-1111-1111-1111-111111111111", ShopName: "Ghost"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "customer not found")
	})

	t.Run("create and fetch", func(t *testing.T) {
		visit := models.ShopVisit{
			CustomerID:  customer.ID,
			ShopName:    customer.ShopName,
			VisitStatus: models.VisitStatusDraft,
			VisitDate:   time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		}
		assert.NoError(t, CreateVisit(db, &visit))
		assert.NotEmpty(t, visit.ID)

		got, err := GetVisitByID(db, visit.ID)
		assert.NoError(t, err)
		assert.Equal(t, customer.ShopName, got.ShopName)
		if assert.NotNil(t, got.Customer) {
			assert.Equal(t, customer.ID, got.Customer.ID)
		}
		assert.True(t, got.IsDraft, "draft flag synced on save")
	})

	t.Run("submitted visits are immutable", func(t *testing.T) {
		visit := models.ShopVisit{
			CustomerID:  customer.ID,
			ShopName:    customer.ShopName,
			VisitStatus: models.VisitStatusDone,
			VisitDate:   time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC),
		}
		assert.NoError(t, CreateVisit(db, &visit))

		visit.Notes = "changed after submission"
		assert.ErrorIs(t, UpdateVisit(db, visit.ID, &visit), ErrVisitLocked)
	})

	t.Run("update replaces the draft", func(t *testing.T) {
		visit := models.ShopVisit{
			CustomerID:  customer.ID,
			ShopName:    customer.ShopName,
			VisitStatus: models.VisitStatusDraft,
			VisitDate:   time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		}
		assert.NoError(t, CreateVisit(db, &visit))

		visit.Notes = "restock agreed"
		visit.ProductsDiscussed = []string{"vitamin_range", "skincare_line"}
		assert.NoError(t, UpdateVisit(db, visit.ID, &visit))

		got, err := GetVisitByID(db, visit.ID)
		assert.NoError(t, err)
		assert.Equal(t, "restock agreed", got.Notes)
		assert.Equal(t, []string{"vitamin_range", "skincare_line"}, got.ProductsDiscussed)
	})

	t.Run("soft delete", func(t *testing.T) {
		visit := models.ShopVisit{
			CustomerID:  customer.ID,
			ShopName:    customer.ShopName,
			VisitStatus: models.VisitStatusDraft,
			VisitDate:   time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC),
		}
		assert.NoError(t, CreateVisit(db, &visit))
		assert.NoError(t, DeleteVisit(db, visit.ID))

		_, err := GetVisitByID(db, visit.ID)
		assert.Error(t, err)
	})
}

func TestVisitListings(t *testing.T) {
	db := setupServiceTestDB(t)
	customer := seedCustomer(t, db)
	repID := "rep-1"
	db.Create(&models.User{ID: repID, Name: "Anna Kelly", Email: "anna@shopvisits.app", Password: "x", Role: models.RoleSalesRep})

	planned := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	followUp := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	visits := []models.ShopVisit{
		{
			CustomerID: customer.ID, ShopName: customer.ShopName,
			VisitStatus: models.VisitStatusAppointment,
			VisitDate:   planned, PlannedVisitDate: &planned,
		},
		{
			CustomerID: customer.ID, ShopName: customer.ShopName,
			VisitStatus: models.VisitStatusDraft,
			VisitDate:   time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
			CreatedByID: &repID,
		},
		{
			CustomerID: customer.ID, ShopName: customer.ShopName,
			VisitStatus:      models.VisitStatusDone,
			VisitDate:        time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
			FollowUpRequired: true, FollowUpDate: &followUp,
			AssignedUserID: &repID,
		},
	}
	for i := range visits {
		assert.NoError(t, CreateVisit(db, &visits[i]))
	}

	t.Run("status filter", func(t *testing.T) {
		got, err := ListVisits(db, VisitFilters{Status: models.VisitStatusDone})
		assert.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("creator filter", func(t *testing.T) {
		got, err := ListVisits(db, VisitFilters{CreatedBy: repID})
		assert.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, models.VisitStatusDraft, got[0].VisitStatus)
	})

	t.Run("date range newest first", func(t *testing.T) {
		got, err := ListVisits(db, VisitFilters{
			DateFrom: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			DateTo:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		})
		assert.NoError(t, err)
		if assert.Len(t, got, 2) {
			assert.True(t, got[0].VisitDate.After(got[1].VisitDate))
		}
	})

	t.Run("planned visits", func(t *testing.T) {
		got, err := GetPlannedVisits(db)
		assert.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, models.VisitStatusAppointment, got[0].VisitStatus)
	})

	t.Run("open follow-ups", func(t *testing.T) {
		got, err := GetVisitsRequiringFollowUp(db)
		assert.NoError(t, err)
		assert.Len(t, got, 1)
		assert.True(t, got[0].FollowUpRequired)
	})

	t.Run("follow-ups due for reminder", func(t *testing.T) {
		got, err := GetFollowUpsDueForReminder(db,
			time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC))
		assert.NoError(t, err)
		if assert.Len(t, got, 1) {
			assert.NotNil(t, got[0].AssignedUser)
		}

		// Already reminded visits drop out of the window
		now := time.Now().UTC()
		db.Model(&got[0]).Update("follow_up_reminder_sent_at", &now)
		got, err = GetFollowUpsDueForReminder(db,
			time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC))
		assert.NoError(t, err)
		assert.Empty(t, got)
	})
}
