package emailsvc

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/fmlibermann/website/core"
)

type consoleService struct {
	defaultFromEmail mail.Address
	disableOutput    bool

	mu  sync.Mutex
	out io.Writer
}

var _ core.EmailService = (*consoleService)(nil)

// NewConsoleService prints emails to stdout instead of sending them.
func NewConsoleService(conf *core.Config) core.EmailService {
	return &consoleService{
		defaultFromEmail: conf.DefaultFromEmail(),
		out:              os.Stdout,
	}
}

func (svc *consoleService) Send(_ context.Context, msg core.EmailMessage) error {
	body, err := svc.format(msg)
	if err != nil {
		return err
	}
	if !svc.disableOutput {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		_, _ = fmt.Fprintln(svc.out, body)
	}
	return nil
}

func (svc *consoleService) format(msg core.EmailMessage) (string, error) {
	body := new(strings.Builder)

	// Write mail header
	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.defaultFromEmail.String())
	_, _ = fmt.Fprint(body, "MIME-Version: 1.0\r\n")
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", msg.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n", joinAddresses(msg.To))
	if len(msg.Cc) > 0 {
		_, _ = fmt.Fprintf(body, "CC: %s\r\n", joinAddresses(msg.Cc))
	}
	if len(msg.Bcc) > 0 {
		_, _ = fmt.Fprintf(body, "BCC: %s\r\n", joinAddresses(msg.Bcc))
	}

	mixedW := multipart.NewWriter(body)
	_, _ = fmt.Fprintf(body, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mixedW.Boundary())

	w, err := mixedW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=utf-8"}})
	if err != nil {
		return "", errors.Wrap(err, "creating text/plain part")
	}
	_, _ = fmt.Fprintf(w, "%s\r\n", msg.TextContent)

	// attachment contents are summarized, not dumped
	for _, at := range msg.Attachments {
		w, err = mixedW.CreatePart(textproto.MIMEHeader{
			"Content-Type":        {at.ContentType},
			"Content-Disposition": {fmt.Sprintf("attachment; filename=%q", at.Filename)},
		})
		if err != nil {
			return "", errors.Wrap(err, "creating "+at.ContentType+" part")
		}
		_, _ = fmt.Fprintf(w, "<%d bytes>\r\n", len(at.Content))
	}

	if err = mixedW.Close(); err != nil {
		return "", errors.Wrap(err, "closing multipart/mixed")
	}
	return body.String(), nil
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}

// ConsoleServiceMock records every message instead of printing it.
// Sends to addresses registered with FailFor return the registered error.
type ConsoleServiceMock struct {
	consoleService

	mu      sync.Mutex
	sent    []core.EmailMessage
	failFor map[string]error
	delay   time.Duration
}

var _ core.EmailService = (*ConsoleServiceMock)(nil)

func NewConsoleServiceMock() *ConsoleServiceMock {
	return &ConsoleServiceMock{
		consoleService: consoleService{
			defaultFromEmail: mail.Address{Name: "Test", Address: "noreply@test.tz"},
			disableOutput:    true,
		},
		failFor: make(map[string]error),
	}
}

func (svc *ConsoleServiceMock) Send(ctx context.Context, msg core.EmailMessage) error {
	svc.mu.Lock()
	delay := svc.delay
	svc.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if _, err := svc.format(msg); err != nil {
		return err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.sent = append(svc.sent, msg)
	for _, to := range msg.To {
		if err, ok := svc.failFor[to.Address]; ok {
			return err
		}
	}
	return nil
}

// FailFor makes every send to addr fail with err.
func (svc *ConsoleServiceMock) FailFor(addr string, err error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.failFor[addr] = err
}

// Delay holds every send for d, or until its context is done.
func (svc *ConsoleServiceMock) Delay(d time.Duration) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.delay = d
}

// SentMessages returns the messages that reached delivery, failed ones included.
func (svc *ConsoleServiceMock) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	msgs := make([]core.EmailMessage, len(svc.sent))
	copy(msgs, svc.sent)
	return msgs
}

func (svc *ConsoleServiceMock) Reset() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.sent = nil
	svc.failFor = make(map[string]error)
	svc.delay = 0
}
