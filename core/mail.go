package core

import (
	"bytes"
	"encoding/base64"
	htmltmpl "html/template"
	"io"
	"io/fs"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

const (
	textExt = ".txt"
	htmlExt = ".gohtml"

	layoutPrefix = "_base"
	layoutName   = "base"
)

// emailTemplates holds the parsed templates by name (file name without extension).
type emailTemplates struct {
	text map[string]*texttmpl.Template
	html map[string]*htmltmpl.Template
}

var (
	templates   emailTemplates
	templatesMu sync.RWMutex
)

type (
	Attachment struct {
		Content     *bytes.Buffer // base64 encoded
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // plain text, used instead of the text template
		Attachments []Attachment

		TemplateName string
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// Render fills TextContent and HTMLContent from BodyStr or the parsed templates.
// A message whose template was never parsed renders no content.
func (m *EmailMessage) Render(frontendBaseURL string) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}

	templatesMu.RLock()
	txt := templates.text[m.TemplateName]
	html := templates.html[m.TemplateName]
	templatesMu.RUnlock()

	data := ContextData{FrontendBaseURL: frontendBaseURL, Data: m.TemplateData}
	var buf bytes.Buffer
	if txt != nil && m.BodyStr == "" {
		if err := txt.ExecuteTemplate(&buf, layoutName, data); err != nil {
			return errors.Wrapf(err, "rendering %s%s", m.TemplateName, textExt)
		}
		m.TextContent = buf.String()
	}
	if html != nil {
		buf.Reset()
		if err := html.ExecuteTemplate(&buf, layoutName, data); err != nil {
			return errors.Wrapf(err, "rendering %s%s", m.TemplateName, htmlExt)
		}
		m.HTMLContent = buf.String()
	}
	return nil
}

// Attach reads r fully and adds it base64 encoded. The content type is sniffed when ct is omitted.
func (m *EmailMessage) Attach(r io.Reader, filename string, ct ...string) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrapf(err, "reading attachment %q", filename)
	}

	at := Attachment{Filename: filename, Content: new(bytes.Buffer)}
	encoder := base64.NewEncoder(base64.StdEncoding, at.Content)
	if _, err = encoder.Write(content); err != nil {
		return err
	}
	if err = encoder.Close(); err != nil {
		return err
	}

	at.ContentType = http.DetectContentType(content)
	if len(ct) > 0 {
		at.ContentType = ct[0]
	}
	m.Attachments = append(m.Attachments, at)
	return nil
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return (m.TextContent != "") || (m.HTMLContent != "") }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

// ParseEmailTemplates parses every `<name>.txt` and `<name>.gohtml` found in dir together with
// the matching `_base` layout, replacing the previously parsed set.
// In strict mode a missing template key fails the rendering.
func ParseEmailTemplates(fsys fs.FS, dir string, strict bool) error {
	fps, err := fs.Glob(fsys, path.Join(dir, "*"))
	if err != nil {
		return errors.Wrap(err, "listing email templates")
	}

	parsed := emailTemplates{
		text: make(map[string]*texttmpl.Template),
		html: make(map[string]*htmltmpl.Template),
	}
	for _, fp := range fps {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		ext := path.Ext(fname)
		name := strings.TrimSuffix(fname, ext)
		layout := path.Join(dir, layoutPrefix+ext)

		switch ext {
		case textExt:
			tmpl, err := texttmpl.ParseFS(fsys, layout, fp)
			if err != nil {
				return errors.Wrapf(err, "parsing %s", fp)
			}
			if strict {
				tmpl.Option("missingkey=error")
			}
			parsed.text[name] = tmpl
		case htmlExt:
			tmpl, err := htmltmpl.ParseFS(fsys, layout, fp)
			if err != nil {
				return errors.Wrapf(err, "parsing %s", fp)
			}
			if strict {
				tmpl.Option("missingkey=error")
			}
			parsed.html[name] = tmpl
		}
	}

	templatesMu.Lock()
	templates = parsed
	templatesMu.Unlock()
	return nil
}
