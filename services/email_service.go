package services

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"

	"mygym-server/model"
)

// EmailService delivers notification emails over SMTP. Configuration comes
// from environment variables; an unconfigured service is a valid state and
// callers must check IsConfigured before sending.
type EmailService struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewEmailService creates an email service from environment configuration
func NewEmailService() *EmailService {
	return &EmailService{
		host:     os.Getenv("SMTP_HOST"),
		port:     getEnvOrDefault("SMTP_PORT", "587"),
		username: os.Getenv("SMTP_USERNAME"),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     getEnvOrDefault("SMTP_FROM", "noreply@mygym.local"),
	}
}

// IsConfigured reports whether SMTP credentials are present
func (s *EmailService) IsConfigured() bool {
	return s.host != "" && s.username != "" && s.password != ""
}

// SendNotificationEmail delivers a formatted notification to one address
func (s *EmailService) SendNotificationEmail(to, subject, body string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email service is not configured")
	}

	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	log.Printf("notification email sent to %s: %s", to, subject)
	return nil
}

// SendNotification renders a notification as email and delivers it
func (s *EmailService) SendNotification(notifications *GraduationNotificationService, notification model.GraduationNotification, to string) error {
	body := notifications.FormatNotificationMessage(notification, model.NotificationFormatEmail)
	return s.SendNotificationEmail(to, notification.Title, body)
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
