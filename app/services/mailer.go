package services

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/jdlcruz/go-hardwarepos/app/models"
	"github.com/jdlcruz/go-hardwarepos/app/utils/format"
)

type MailerConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Mailer is the SMTP implementation of Notifier.
type Mailer struct {
	config MailerConfig
}

func NewMailer(cfg MailerConfig) *Mailer {
	return &Mailer{
		config: cfg,
	}
}

func (m *Mailer) NotifyStatusChange(event StatusChangeEvent) error {
	if event.UserEmail == "" {
		return nil
	}
	subject := fmt.Sprintf("Reservation %s is now %s", event.ReservationID, models.ReservationStatusLabel(event.NewStatus))
	body := BuildStatusChangeEmailBody(event)
	return m.SendHTMLEmail(event.UserEmail, subject, body)
}

func (m *Mailer) SendHTMLEmail(to, subject, htmlBody string) error {

	headers := map[string]string{
		"From":         m.config.From,
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=\"UTF-8\"",
	}

	var msg string
	for k, v := range headers {
		msg += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	msg += "\r\n" + htmlBody

	auth := smtp.PlainAuth(m.config.From, m.config.Username, m.config.Password, m.config.Host)

	addr := fmt.Sprintf("%s:%s", m.config.Host, m.config.Port)

	err := smtp.SendMail(addr, auth, m.config.From, []string{to}, []byte(msg))
	if err != nil {
		log.Printf("ERROR: Mailer: failed to send status email to %s: %v", to, err)
		return fmt.Errorf("failed to send status email: %w", err)
	}

	return nil
}

func BuildStatusChangeEmailBody(event StatusChangeEvent) string {
	return fmt.Sprintf(`
        <!DOCTYPE html>
        <html>
        <head>
            <meta charset="utf-8">
            <title>Reservation Update</title>
            <style>
                body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
                .container { max-width: 600px; margin: 20px auto; padding: 20px; border: 1px solid #ddd; border-radius: 5px; }
                .header { background-color: #f8f8f8; padding: 10px 0; text-align: center; border-bottom: 1px solid #ddd; }
                .status { font-size: 1.4em; font-weight: bold; color: #007bff; margin: 20px 0; }
                .footer { font-size: 0.8em; color: #777; text-align: center; margin-top: 20px; border-top: 1px solid #ddd; padding-top: 10px; }
            </style>
        </head>
        <body>
            <div class="container">
                <div class="header">
                    <h2>Reservation Update</h2>
                </div>
                <div class="content">
                    <p>Your reservation <strong>%s</strong> changed from <em>%s</em> to:</p>
                    <p class="status">%s</p>
                    <p>Reservation total: <strong>%s</strong></p>
                    <p>Please bring your reservation ID when picking up your items.</p>
                    <p>Thank you,</p>
                    <p>JDL Hardware &amp; Tools</p>
                </div>
                <div class="footer">
                    <p>&copy; 2026 JDL Hardware &amp; Tools. All rights reserved.</p>
                </div>
            </div>
        </body>
        </html>
    `, event.ReservationID,
		models.ReservationStatusLabel(event.OldStatus),
		models.ReservationStatusLabel(event.NewStatus),
		format.Peso(event.TotalPrice))
}
