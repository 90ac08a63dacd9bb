package jobs

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"shop_visit_app_go/config"
	"shop_visit_app_go/services"
)

// StartScheduler starts the background cron scheduler. The follow-up
// reminder job runs every morning at 07:00 UTC; expired sessions are
// swept nightly.
func StartScheduler(database *gorm.DB, cfg *config.Config) {
	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc("0 7 * * *", func() {
		SendFollowUpReminders(database, cfg)
	})
	if err != nil {
		log.Fatalf("[CRON] Failed to schedule follow-up reminder job: %v", err)
	}

	_, err = c.AddFunc("0 3 * * *", func() {
		if err := services.CleanupExpiredSessions(database); err != nil {
			log.Printf("[CRON] Session cleanup failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("[CRON] Failed to schedule session cleanup job: %v", err)
	}

	c.Start()
	log.Println("[CRON] Scheduler started")
}

// SendFollowUpReminders finds submitted visits whose follow-up date is
// coming up and emails the assigned sales rep once per visit
func SendFollowUpReminders(database *gorm.DB, cfg *config.Config) {
	log.Println("Starting follow-up reminder job...")

	days := cfg.FollowUpReminderDays
	if days <= 0 {
		days = 1
	}

	now := time.Now().UTC()
	windowStart := now.Truncate(24 * time.Hour)
	windowEnd := windowStart.Add(time.Duration(days+1) * 24 * time.Hour)

	visits, err := services.GetFollowUpsDueForReminder(database, windowStart, windowEnd)
	if err != nil {
		log.Printf("Error fetching follow-ups for reminders: %v", err)
		return
	}

	log.Printf("Found %d follow-ups to remind", len(visits))

	for _, visit := range visits {
		if visit.AssignedUser == nil || visit.AssignedUser.Email == "" {
			log.Printf("Skipping reminder for visit %s: no assigned user with email", visit.ID)
			continue
		}

		contactPerson := visit.ContactPerson
		if contactPerson == "" && visit.Customer != nil {
			contactPerson = visit.Customer.ContactPerson
		}

		email := services.BuildFollowUpReminderEmail(visit.AssignedUser.Email, services.FollowUpReminderEmailData{
			RepName:       visit.AssignedUser.Name,
			ShopName:      visit.ShopName,
			ContactPerson: contactPerson,
			FollowUpDate:  visit.FollowUpDate.Format("Monday, January 2, 2006"),
			VisitDate:     visit.VisitDate.Format("January 2, 2006"),
			Notes:         visit.FollowUpNotes,
			VisitLink:     cfg.AppURL + "/visits/" + visit.ID,
		})

		if err := services.SendEmail(cfg, email); err != nil {
			log.Printf("Failed to send reminder for visit %s: %v", visit.ID, err)
			continue
		}

		sentAt := time.Now().UTC()
		database.Model(&visit).Update("follow_up_reminder_sent_at", sentAt)
		log.Printf("Sent follow-up reminder for visit %s", visit.ID)
	}

	log.Println("Follow-up reminder job completed")
}
