// Package emailsvc delivers core.EmailMessage values: printed to the console in development and
// sent through SendGrid otherwise.
package emailsvc

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mygithubaccountn/EduPacee/core"
)

type consoleService struct {
	from            mail.Address
	subjPrefix      string
	frontendBaseURL string
	out             io.Writer // nil disables output
	logger          core.Logger
	outbox          *Outbox
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService(conf *core.Config, out io.Writer, logger core.Logger) core.EmailService {
	return &consoleService{
		from:            conf.DefaultFromEmail,
		subjPrefix:      "[" + conf.AppName + "] ",
		frontendBaseURL: conf.FrontendBaseURL,
		out:             out,
		logger:          logger,
	}
}

func (svc *consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.deliver(msg)
	}
}

func (svc *consoleService) deliver(msg *core.EmailMessage) {
	if err := msg.Render(svc.frontendBaseURL); err != nil {
		svc.logger.Error("rendering email", errors.Wrap(err, msg.TemplateName))
		return
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return
	}
	if svc.out != nil {
		if err := svc.write(svc.out, *msg); err != nil {
			svc.logger.Error("writing email", err)
		}
	}
	if svc.outbox != nil {
		svc.outbox.add(*msg)
	}
}

// write prints msg as a MIME message: multipart/alternative text and html parts, wrapped in multipart/mixed
// when there are attachments.
func (svc *consoleService) write(w io.Writer, msg core.EmailMessage) error {
	body := new(strings.Builder)
	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.from.String())
	_, _ = fmt.Fprint(body, "MIME-Version: 1.0\r\n")
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", svc.subjPrefix+msg.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n", joinAddresses(msg.To))
	if len(msg.Cc) > 0 {
		_, _ = fmt.Fprintf(body, "Cc: %s\r\n", joinAddresses(msg.Cc))
	}
	if len(msg.Bcc) > 0 {
		_, _ = fmt.Fprintf(body, "Bcc: %s\r\n", joinAddresses(msg.Bcc))
	}

	var mixedW *multipart.Writer
	altW := multipart.NewWriter(body)
	if msg.HasAttachments() {
		mixedW = multipart.NewWriter(body)
		_, _ = fmt.Fprintf(body, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mixedW.Boundary())
		_, err := mixedW.CreatePart(textproto.MIMEHeader{"Content-Type": {"multipart/alternative; boundary=" + altW.Boundary()}})
		if err != nil {
			return errors.Wrap(err, "creating multipart/alternative part")
		}
	} else {
		_, _ = fmt.Fprintf(body, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", altW.Boundary())
	}

	part, err := altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=utf-8"}})
	if err != nil {
		return errors.Wrap(err, "creating text/plain part")
	}
	_, _ = fmt.Fprintf(part, "%s\r\n", msg.TextContent)
	if msg.HTMLContent != "" {
		part, err = altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=utf-8"}})
		if err != nil {
			return errors.Wrap(err, "creating text/html part")
		}
		_, _ = fmt.Fprintf(part, "%s\r\n", msg.HTMLContent)
	}
	if err := altW.Close(); err != nil {
		return err
	}

	if mixedW != nil {
		for _, at := range msg.Attachments {
			part, err = mixedW.CreatePart(textproto.MIMEHeader{
				"Content-Type":              {at.ContentType},
				"Content-Transfer-Encoding": {"base64"},
				"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", at.Filename)},
			})
			if err != nil {
				return errors.Wrap(err, "creating "+at.ContentType+" part")
			}
			_, _ = fmt.Fprintf(part, "%s\r\n", at.Content.String())
		}
		if err := mixedW.Close(); err != nil {
			return err
		}
	}

	_, err = io.WriteString(w, body.String()+"\n")
	return err
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}

// Outbox records the messages delivered by a console service mock.
type Outbox struct {
	mu       sync.Mutex
	messages []core.EmailMessage
}

func (o *Outbox) add(msg core.EmailMessage) {
	o.mu.Lock()
	o.messages = append(o.messages, msg)
	o.mu.Unlock()
}

// Messages returns a copy of the delivered messages, oldest first.
func (o *Outbox) Messages() []core.EmailMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]core.EmailMessage(nil), o.messages...)
}

func (o *Outbox) Reset() {
	o.mu.Lock()
	o.messages = nil
	o.mu.Unlock()
}

type consoleServiceMock struct {
	*consoleService
}

// NewConsoleServiceMock renders and records messages synchronously without printing them.
func NewConsoleServiceMock(conf *core.Config, logger core.Logger) (core.EmailService, *Outbox) {
	svc := NewConsoleService(conf, nil, logger).(*consoleService)
	svc.outbox = &Outbox{}
	return &consoleServiceMock{consoleService: svc}, svc.outbox
}

func (svc *consoleServiceMock) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		svc.deliver(msg)
	}
}
