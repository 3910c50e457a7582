package emailsvc

import (
	"context"
	"io"
	"net/mail"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"

	"github.com/fmlibermann/website/core"
)

// dialer is the part of *gomail.Dialer used to deliver messages.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	dialer dialer
	from   mail.Address
}

var _ core.EmailService = (*smtpService)(nil)

func NewSMTPService(conf *core.Config) core.EmailService {
	smtp := conf.Email.SMTP
	return &smtpService{
		dialer: gomail.NewDialer(smtp.Host, smtp.Port, smtp.Username, smtp.Password),
		from:   conf.DefaultFromEmail(),
	}
}

func (svc *smtpService) prepare(msg core.EmailMessage) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", svc.from.Address, svc.from.Name)
	m.SetHeader("Subject", msg.Subject)

	formatAll := func(addrs []mail.Address) []string {
		formatted := make([]string, 0, len(addrs))
		for _, a := range addrs {
			formatted = append(formatted, m.FormatAddress(a.Address, a.Name))
		}
		return formatted
	}
	m.SetHeader("To", formatAll(msg.To)...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", formatAll(msg.Cc)...)
	}
	if len(msg.Bcc) > 0 {
		m.SetHeader("Bcc", formatAll(msg.Bcc)...)
	}
	m.SetBody("text/plain", msg.TextContent)

	for _, at := range msg.Attachments {
		content := at.Content
		m.Attach(
			at.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {at.ContentType}}),
		)
	}
	return m
}

// Send dials a new connection per message; the dial is abandoned when ctx is done.
func (svc *smtpService) Send(ctx context.Context, msg core.EmailMessage) error {
	m := svc.prepare(msg)

	errc := make(chan error, 1)
	go func() { errc <- svc.dialer.DialAndSend(m) }()

	select {
	case err := <-errc:
		return errors.Wrap(err, "sending email")
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "sending email")
	}
}
