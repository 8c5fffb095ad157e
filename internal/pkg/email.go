package pkg

import (
	"crypto/tls"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (c SMTPConfig) Enabled() bool { return c.Host != "" && c.From != "" }

func SendEmail(cfg SMTPConfig, to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	return d.DialAndSend(m)
}

// DecisionEmail 审核结果通知邮件的主题与正文
func DecisionEmail(title, status string) (subject, body string) {
	subject = fmt.Sprintf("Your submission was %s", status)
	body = fmt.Sprintf(`<p>Hello,</p><p>Your submission <b>%s</b> has been <b>%s</b> by a moderator.</p>`,
		html.EscapeString(title), html.EscapeString(status))
	return subject, body
}
