package core

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"text/template"
	"time"

	"github.com/pkg/errors"
)

var (
	emailTemplatesDir = "templates/email"

	errNoRecipients = errors.New("message has no recipients")
	errNoContent    = errors.New("message has no content")

	contentTypes = map[string]string{
		".pdf":  "application/pdf",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
	}
)

type (
	// Attachment is built once per file and may be reused across messages.
	Attachment struct {
		Filename    string
		ContentType string
		Content     []byte
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // simple text/plain, non-templated content
		Attachments []Attachment

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
	}

	ContextData struct {
		AppName string
		Data    interface{}
	}

	// EmailService is any service that can deliver a rendered email.
	EmailService interface {
		Send(ctx context.Context, msg EmailMessage) error
	}

	EmailTemplates map[string]*template.Template
)

// ContentTypeFor infers a MIME type from the extension of filename.
func ContentTypeFor(filename string) (string, bool) {
	ct, ok := contentTypes[strings.ToLower(path.Ext(filename))]
	return ct, ok
}

// NewAttachment creates an Attachment, inferring the content type when not provided.
func NewAttachment(filename string, content []byte, contentType ...string) Attachment {
	at := Attachment{Filename: filename, Content: content}
	if len(contentType) > 0 && contentType[0] != "" {
		at.ContentType = contentType[0]
	} else if ct, ok := ContentTypeFor(filename); ok {
		at.ContentType = ct
	} else {
		at.ContentType = http.DetectContentType(content)
	}
	return at
}

// ReadAttachment is NewAttachment for a reader.
func ReadAttachment(r io.Reader, filename string, contentType ...string) (Attachment, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Attachment{}, errors.Wrap(err, "reading attachment")
	}
	return NewAttachment(filename, content, contentType...), nil
}

func (m *EmailMessage) Attach(at ...Attachment) {
	m.Attachments = append(m.Attachments, at...)
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return m.TextContent != "" }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

// ParseEmailTemplates parses every `templates/email/*.txt` of fsys together with `_base.txt`.
// Files starting with "_" are partials.
func ParseEmailTemplates(fsys fs.FS, strict bool) (EmailTemplates, error) {
	tmpls := make(EmailTemplates)
	fps, err := fs.Glob(fsys, path.Join(emailTemplatesDir, "*.txt"))
	if err != nil {
		return nil, errors.Wrap(err, "listing email templates")
	}
	base := path.Join(emailTemplatesDir, "_base.txt")
	for _, fp := range fps {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		tmpl, err := template.ParseFS(fsys, base, fp)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", fname)
		}
		if strict {
			tmpl = tmpl.Option("missingkey=error")
		}
		tmpls[strings.TrimSuffix(fname, ".txt")] = tmpl
	}
	return tmpls, nil
}

func (t EmailTemplates) render(msg *EmailMessage, appName string) error {
	if msg.BodyStr != "" {
		msg.TextContent = msg.BodyStr
		return nil
	} else if msg.TemplateName == "" {
		return nil
	}

	tmpl, ok := t[msg.TemplateName]
	if !ok {
		return errors.Errorf("email template %q not found", msg.TemplateName)
	}
	var buff bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buff, "base", ContextData{AppName: appName, Data: msg.TemplateData}); err != nil {
		return errors.Wrapf(err, "executing %s", msg.TemplateName)
	}
	msg.TextContent = buff.String()
	return nil
}

// Mailer renders messages and hands them to an EmailService, one bounded attempt per call.
type Mailer struct {
	svc       EmailService
	templates EmailTemplates
	appName   string
	timeout   time.Duration
	logger    Logger
}

func NewMailer(svc EmailService, templates EmailTemplates, conf *Config, logger Logger) *Mailer {
	return &Mailer{
		svc:       svc,
		templates: templates,
		appName:   conf.AppName,
		timeout:   conf.Email.SendTimeout,
		logger:    logger,
	}
}

// Send delivers msg or returns a *NotificationError describing op.
// The attempt is abandoned once the send timeout elapses.
func (m *Mailer) Send(ctx context.Context, op string, msg EmailMessage) error {
	if err := m.templates.render(&msg, m.appName); err != nil {
		return m.fail(op, err)
	}
	if !msg.HasRecipients() {
		return m.fail(op, errNoRecipients)
	}
	if !(msg.HasContent() || msg.HasAttachments()) {
		return m.fail(op, errNoContent)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	errc := make(chan error, 1)
	go func() { errc <- m.svc.Send(ctx, msg) }()

	var err error
	select {
	case err = <-errc:
	case <-ctx.Done():
		err = errors.Wrap(ctx.Err(), "sending email")
	}
	if err != nil {
		return m.fail(op, err)
	}
	return nil
}

func (m *Mailer) fail(op string, err error) error {
	m.logger.Error("email not sent: "+op, err)
	return NewNotificationError(op, err)
}
