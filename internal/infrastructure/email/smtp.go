// Package email delivers verification codes over SMTP.
package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
}

// CodeSender is implemented by anything able to deliver a verification code.
type CodeSender interface {
	SendVerificationCode(to, code string) error
}

type SMTPEmailService struct {
	config SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPEmailService(config SMTPConfig) *SMTPEmailService {
	dialer := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)

	return &SMTPEmailService{
		config: config,
		dialer: dialer,
	}
}

func (s *SMTPEmailService) SendVerificationCode(to, code string) error {
	subject := "Код подтверждения ORTP бота"
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Подтверждение почты</h2>
			<p>Ваш код подтверждения: <b>%s</b></p>
			<p>Введите его в чате с ботом. Код действителен 10 минут.</p>
			<p>Если вы не запрашивали код, просто проигнорируйте это письмо.</p>
		</body>
		</html>
	`, code)

	plainBody := fmt.Sprintf(`
Подтверждение почты

Ваш код подтверждения: %s

Введите его в чате с ботом. Код действителен 10 минут.

Если вы не запрашивали код, просто проигнорируйте это письмо.
	`, code)

	return s.sendEmail(to, subject, htmlBody, plainBody)
}

func (s *SMTPEmailService) sendEmail(to, subject, htmlBody, plainBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.FromAddress)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
