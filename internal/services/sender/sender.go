// Package services содержит отправку писем о готовности результатов скана.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	smtplib "github.com/soulsirensomatics/portal/internal/lib/smtp"
	"github.com/soulsirensomatics/portal/internal/lib/sl"
	"github.com/soulsirensomatics/portal/internal/models"
)

var (
	sentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_notification_emails_sent_total",
		Help: "Number of scan-ready emails sent.",
	})
	sendFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_notification_emails_failed_total",
		Help: "Number of scan-ready emails that failed to send.",
	})
)

// SenderService отправляет письма клиентам по событиям из очереди.
type SenderService struct {
	transport smtplib.TransportInterface
	clientURL string
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtplib.TransportInterface, clientURL string, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		clientURL: clientURL,
		log:       log,
	}
}

// SendScanReady отправляет письмо о готовности результатов скана.
// Тело сообщения — событие ScanReadyEvent в JSON.
func (s *SenderService) SendScanReady(body []byte) error {
	var event models.ScanReadyEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal scan ready event", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	name := event.FirstName
	if name == "" {
		name = "Beautiful Soul"
	}

	subject := "Your Energetic Scan Results Are Ready - Soul Siren Somatics"
	bodyText := fmt.Sprintf(`Dear %s,

Your energetic scan from %s has been completed, and your personalized results are now available in your portal.

Your scan provides valuable insights into your current energetic state across physical, nervous system, and energetic dimensions. Use these insights to guide your healing journey.

View your results: %s/portal/scans

With love and light,
Soul Siren Somatics`,
		name, event.ScanDate.Format("Monday, January 2, 2006"), s.clientURL)

	if err := s.sendEmail([]string{event.Email}, subject, bodyText); err != nil {
		sendFailedTotal.Inc()
		return err
	}
	sentTotal.Inc()
	s.log.Info("scan ready email sent",
		slog.Int("scan_id", event.ScanID),
		slog.String("to", event.Email))
	return nil
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"Date: " + time.Now().UTC().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}
	return nil
}
