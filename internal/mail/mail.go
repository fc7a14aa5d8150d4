package mail

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
)

// Mailer is what the handlers depend on; tests swap in a recorder.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	if m.Username == "" {
		return fmt.Errorf("mail: SMTP_USER not configured")
	}

	raw := buildRaw(m.From, to, subject, htmlBody)
	addr := m.Host + ":" + m.Port
	auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)

	// Implicit TLS on 465, STARTTLS otherwise.
	if m.Port == "465" {
		return m.sendTLS(addr, auth, to, raw)
	}
	return smtp.SendMail(addr, auth, m.From, []string{to}, raw)
}

func (m *SMTPMailer) sendTLS(addr string, auth smtp.Auth, to string, raw []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.Host})
	if err != nil {
		return fmt.Errorf("mail: TLS dial: %w", err)
	}
	client, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(m.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	defer w.Close()
	_, err = w.Write(raw)
	return err
}

func buildRaw(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

var verificationTmpl = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
    <head></head>
    <body>
        <div style="display: flex; align-items: center; justify-content: center; flex-direction: column;">
            <h3>Account Verification</h3>
            <p>Thanks for choosing our services. Please click the button below to verify your account:</p>
            <a style="margin-top: 1rem; padding: 1rem; border-radius: 0.5rem; font-size: 1rem; text-decoration: none;
            background: #0275d8; color: white;" href="{{.Link}}">
                Verify your email
            </a>
            <p>If you did not register for our services, please ignore this email.</p>
        </div>
    </body>
</html>`))

func VerificationBody(verifyLink string) (string, error) {
	var buf bytes.Buffer
	if err := verificationTmpl.Execute(&buf, struct{ Link string }{Link: verifyLink}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SendVerification emails the signed token back to the user as a clickable link.
func SendVerification(m Mailer, email, token, baseURL string) error {
	link := baseURL + "/verification?token=" + token
	body, err := VerificationBody(link)
	if err != nil {
		return err
	}
	return m.Send(email, "Verification Email", body)
}
