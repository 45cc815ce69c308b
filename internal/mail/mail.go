// Package mail sends verification and inactivity-reminder emails over SMTP.
package mail

import (
	"fmt"
	"strings"

	gomail "github.com/wneessen/go-mail"
)

// Config holds the SMTP relay settings and the set of email domains a member
// may verify with.
type Config struct {
	Host           string
	Port           int
	From           string
	AllowedDomains []string
}

// Mailer sends guild emails. The zero Mailer is unusable; construct with New.
type Mailer struct {
	cfg Config
}

// New returns a Mailer for the given SMTP settings.
func New(cfg Config) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = 25
	}
	return &Mailer{cfg: cfg}
}

// AllowedEmail reports whether the address ends in one of the allowed
// domains.
func (m *Mailer) AllowedEmail(email string) bool {
	for _, d := range m.cfg.AllowedDomains {
		if strings.HasSuffix(email, "@"+d) {
			return true
		}
	}
	return false
}

// VerifyBody builds the body of a verification email. Split out for tests.
func VerifyBody(token string) string {
	return fmt.Sprintf(`Hello!
You are receiving this email because you have requested to verify yourself as
a member on the guild Discord server.

Your verification token is: %s

DM the bot and run: verify complete %s
The token expires after 30 minutes.
`, token, token)
}

// ReminderBody builds the body of an inactivity reminder email.
func ReminderBody() string {
	return `Heya!
You are receiving this email because you haven't been active on the guild
Discord server for a while. To remain in the server you'll need to re-verify,
or you'll be removed in a week.
`
}

// SendVerification emails a verification token to the address.
func (m *Mailer) SendVerification(to, token string) error {
	return m.send(to, "Guild Discord verification", VerifyBody(token))
}

// SendReminder emails an inactivity reminder.
func (m *Mailer) SendReminder(to string) error {
	return m.send(to, "Guild Discord inactivity reminder", ReminderBody())
}

func (m *Mailer) send(to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	client, err := gomail.NewClient(m.cfg.Host,
		gomail.WithPort(m.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}
