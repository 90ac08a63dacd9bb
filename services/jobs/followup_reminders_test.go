package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"shop_visit_app_go/config"
	"shop_visit_app_go/models"
)

func setupJobsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.ShopVisit{},
	)
	assert.NoError(t, err)
	return db
}

func TestSendFollowUpReminders(t *testing.T) {
	db := setupJobsTestDB(t)
	cfg := &config.Config{EmailTestMode: true, FollowUpReminderDays: 1, AppURL: "http://localhost:8080"}

	rep := models.User{Name: "Anna Kelly", Email: "anna@shopvisits.app", Password: "x", Role: models.RoleSalesRep}
	assert.NoError(t, db.Create(&rep).Error)
	noMail := models.User{Name: "Ben Doyle", Email: "ben@shopvisits.app", Password: "x", Role: models.RoleSalesRep}
	assert.NoError(t, db.Create(&noMail).Error)
	db.Model(&noMail).Update("email", "")
	customer := models.Customer{ShopName: "Corner Stores Ltd", City: "Cork"}
	assert.NoError(t, db.Create(&customer).Error)

	dueDate := time.Now().UTC().Add(12 * time.Hour)
	farDate := time.Now().UTC().Add(30 * 24 * time.Hour)

	due := models.ShopVisit{
		CustomerID: customer.ID, ShopName: customer.ShopName,
		VisitStatus:      models.VisitStatusDone,
		VisitDate:        time.Now().UTC().Add(-48 * time.Hour),
		FollowUpRequired: true, FollowUpDate: &dueDate,
		FollowUpNotes:  "drop off the new catalogue",
		AssignedUserID: &rep.ID,
	}
	assert.NoError(t, db.Create(&due).Error)

	unassigned := models.ShopVisit{
		CustomerID: customer.ID, ShopName: customer.ShopName,
		VisitStatus:      models.VisitStatusDone,
		VisitDate:        time.Now().UTC().Add(-48 * time.Hour),
		FollowUpRequired: true, FollowUpDate: &dueDate,
		AssignedUserID: &noMail.ID,
	}
	assert.NoError(t, db.Create(&unassigned).Error)

	notYetDue := models.ShopVisit{
		CustomerID: customer.ID, ShopName: customer.ShopName,
		VisitStatus:      models.VisitStatusDone,
		VisitDate:        time.Now().UTC().Add(-48 * time.Hour),
		FollowUpRequired: true, FollowUpDate: &farDate,
		AssignedUserID: &rep.ID,
	}
	assert.NoError(t, db.Create(&notYetDue).Error)

	SendFollowUpReminders(db, cfg)

	var after models.ShopVisit
	assert.NoError(t, db.First(&after, "id = ?", due.ID).Error)
	assert.NotNil(t, after.FollowUpReminderSentAt, "due visit gets stamped")

	after = models.ShopVisit{}
	assert.NoError(t, db.First(&after, "id = ?", unassigned.ID).Error)
	assert.Nil(t, after.FollowUpReminderSentAt, "rep without email is skipped")

	after = models.ShopVisit{}
	assert.NoError(t, db.First(&after, "id = ?", notYetDue.ID).Error)
	assert.Nil(t, after.FollowUpReminderSentAt, "outside the window")

	// A second run must not remind the same visit again
	after = models.ShopVisit{}
	db.First(&after, "id = ?", due.ID)
	first := *after.FollowUpReminderSentAt
	SendFollowUpReminders(db, cfg)
	after = models.ShopVisit{}
	db.First(&after, "id = ?", due.ID)
	assert.Equal(t, first.Unix(), after.FollowUpReminderSentAt.Unix())
}
