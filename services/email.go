package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"strings"

	"github.com/resend/resend-go/v2"

	"shop_visit_app_go/config"
)

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// SendEmail sends an email using Resend API
func SendEmail(cfg *config.Config, email *Email) error {
	// In development mode, log the email instead of sending
	if cfg.EmailTestMode {
		logEmailToConsole(email)
		return nil
	}

	if cfg.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}

	client := resend.NewClient(cfg.ResendAPIKey)
	fromAddress := fmt.Sprintf("%s <%s>", cfg.EmailFromName, cfg.EmailFrom)

	params := &resend.SendEmailRequest{
		From:    fromAddress,
		To:      email.To,
		Subject: email.Subject,
	}
	if email.HTMLBody != "" {
		params.Html = email.HTMLBody
	}
	if email.TextBody != "" {
		params.Text = email.TextBody
	}
	if params.Html == "" && params.Text == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	sent, err := client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %v", err)
	}

	log.Printf("Email sent successfully via Resend (ID: %s) to: %v", sent.Id, email.To)
	return nil
}

// SendEmailAsync sends an email in a goroutine so handlers do not
// block on the Resend API
func SendEmailAsync(cfg *config.Config, email *Email) {
	emailCopy := &Email{
		To:       append([]string{}, email.To...),
		Subject:  email.Subject,
		HTMLBody: email.HTMLBody,
		TextBody: email.TextBody,
	}

	go func(cfg *config.Config, email *Email) {
		if err := SendEmail(cfg, email); err != nil {
			log.Printf("Error sending async email: %v", err)
		}
	}(cfg, emailCopy)
}

// logEmailToConsole logs email details to console in development mode
func logEmailToConsole(email *Email) {
	separator := strings.Repeat("=", 80)
	log.Printf("\n%s\nEMAIL (Development Mode - Not Actually Sent)\n%s", separator, separator)
	log.Printf("To: %v", email.To)
	log.Printf("Subject: %s", email.Subject)
	log.Printf("\n--- TEXT BODY ---\n%s", email.TextBody)
	log.Printf("%s\n", separator)
}

// FollowUpReminderEmailData contains data for the follow-up reminder
// email template
type FollowUpReminderEmailData struct {
	RepName       string
	ShopName      string
	ContactPerson string
	FollowUpDate  string
	VisitDate     string
	Notes         string
	VisitLink     string
}

var followUpReminderHTML = template.Must(template.New("follow_up_reminder").Parse(`
<h2>Follow-up due: {{.ShopName}}</h2>
<p>Hi {{.RepName}},</p>
<p>Your visit to <strong>{{.ShopName}}</strong> on {{.VisitDate}} has a follow-up due on <strong>{{.FollowUpDate}}</strong>.</p>
{{if .ContactPerson}}<p>Contact: {{.ContactPerson}}</p>{{end}}
{{if .Notes}}<p>Notes: {{.Notes}}</p>{{end}}
{{if .VisitLink}}<p><a href="{{.VisitLink}}">Open the visit report</a></p>{{end}}
`))

// BuildFollowUpReminderEmail creates a reminder email for a due
// follow-up
func BuildFollowUpReminderEmail(repEmail string, data FollowUpReminderEmailData) *Email {
	var buf bytes.Buffer
	if err := followUpReminderHTML.Execute(&buf, data); err != nil {
		log.Printf("Error rendering follow-up reminder email: %v", err)
	}

	text := fmt.Sprintf("Hi %s,\n\nYour visit to %s on %s has a follow-up due on %s.\n",
		data.RepName, data.ShopName, data.VisitDate, data.FollowUpDate)
	if data.Notes != "" {
		text += fmt.Sprintf("\nNotes: %s\n", data.Notes)
	}

	return &Email{
		To:       []string{repEmail},
		Subject:  fmt.Sprintf("Follow-up due %s: %s", data.FollowUpDate, data.ShopName),
		HTMLBody: buf.String(),
		TextBody: text,
	}
}
