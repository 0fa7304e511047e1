package service

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-mail/mail/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type EmailSender struct {
	dialer  *mail.Dialer
	logger  *logrus.Logger
	enabled bool
}

func NewEmailSender(logger *logrus.Logger) *EmailSender {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPortStr := os.Getenv("SMTP_PORT")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	enabled := os.Getenv("EMAIL_SENDER_ENABLED") == "true"
	insecureSkipVerify := os.Getenv("INSECURE_SKIP_VERIFY") == "true"

	smtpPort, err := strconv.Atoi(smtpPortStr)
	if err != nil {
		if enabled {
			logger.Fatalf("Invalid SMTP_PORT: %v", err)
		}
		smtpPort = 587
	}

	d := mail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	d.TLSConfig = &tls.Config{
		ServerName:         smtpHost,
		InsecureSkipVerify: insecureSkipVerify,
	}

	return &EmailSender{
		dialer:  d,
		logger:  logger,
		enabled: enabled,
	}
}

func (es *EmailSender) SendWelcomeEmail(email, name string) error {
	if !es.enabled {
		es.logger.Warn("Email notifications disabled")
		return nil
	}

	subject := "Bienvenido a Banca GT"
	content := fmt.Sprintf(`
		<h1>Bienvenido, %s</h1>
		<p>Tu registro fue exitoso y tu cuenta en quetzales ya está activa.</p>
		<small>Este es un mensaje automático, por favor no lo respondas</small>
	`, name)

	return es.sendEmail(email, subject, content)
}

func (es *EmailSender) SendPasswordResetEmail(email, code string) error {
	if !es.enabled {
		es.logger.Warn("Email notifications disabled")
		return nil
	}

	subject := "Código para restablecer contraseña"
	content := fmt.Sprintf(`
		<h1>Restablecimiento de contraseña</h1>
		<p>Tu código de recuperación es: <strong>%s</strong></p>
		<p>El código expira en una hora.</p>
		<small>Este es un mensaje automático, por favor no lo respondas</small>
	`, code)

	return es.sendEmail(email, subject, content)
}

func (es *EmailSender) SendTransferNotification(email string, amount decimal.Decimal, from, to string) error {
	if !es.enabled {
		es.logger.Warn("Email notifications disabled")
		return nil
	}

	subject := "Notificación de transferencia"
	content := fmt.Sprintf(`
		<h1>Notificación de transferencia</h1>
		<p>Monto: <strong>Q%s</strong></p>
		<p>Cuenta de origen: <strong>%s</strong></p>
		<p>Cuenta de destino: <strong>%s</strong></p>
		<p>Fecha: <strong>%s</strong></p>
		<small>Este es un mensaje automático, por favor no lo respondas</small>
	`, amount.StringFixed(2), from, to, time.Now().Format("02/01/2006 15:04"))

	return es.sendEmail(email, subject, content)
}

func (es *EmailSender) sendEmail(to, subject, body string) error {
	m := mail.NewMessage()
	m.SetHeader("From", os.Getenv("SMTP_USER"))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := es.dialer.DialAndSend(m); err != nil {
		es.logger.WithError(err).Error("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	es.logger.Infof("Email sent to %s", to)
	return nil
}
