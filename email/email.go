package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
)

const recoveryTemplate = `
<html>
<body>
<p>Hello,</p>
<p>Your password recovery code is <strong>{{.Code}}</strong>.</p>
<p>It expires shortly and can be used once. If you did not request it, ignore this email.</p>
</body>
</html>`

type Mailer struct {
	from     string
	password string
	host     string
	port     string
	tmpl     *template.Template
}

func New(from, password, host, port string) Mailer {
	return Mailer{
		from:     from,
		password: password,
		host:     host,
		port:     port,
		tmpl:     template.Must(template.New("recovery").Parse(recoveryTemplate)),
	}
}

func (m Mailer) SendRecoveryCode(to string, code string) error {
	var body bytes.Buffer
	if err := m.tmpl.Execute(&body, struct{ Code string }{code}); err != nil {
		return fmt.Errorf("rendering recovery email: %w", err)
	}

	msg := bytes.Buffer{}
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: Password recovery\r\n")
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.Write(body.Bytes())

	var auth smtp.Auth
	if m.password != "" {
		auth = smtp.PlainAuth("", m.from, m.password, m.host)
	}

	addr := m.host + ":" + m.port
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("sending recovery email to %s: %w", to, err)
	}

	return nil
}
