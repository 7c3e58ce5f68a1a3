package core

import (
	"encoding/base64"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mailFS = fstest.MapFS{
	"mail/_base.txt":     {Data: []byte(`{{define "base"}}Hi,{{template "content" .}} -- {{.FrontendBaseURL}}{{end}}`)},
	"mail/_base.gohtml":  {Data: []byte(`{{define "base"}}<p>{{template "content" .}}</p>{{end}}`)},
	"mail/hello.txt":     {Data: []byte(`{{define "content"}} {{.Data.Name}}{{end}}`)},
	"mail/hello.gohtml":  {Data: []byte(`{{define "content"}}<b>{{.Data.Name}}</b>{{end}}`)},
	"mail/text-only.txt": {Data: []byte(`{{define "content"}} plain{{end}}`)},
	"mail/README.md":     {Data: []byte(`ignored`)},
}

func TestParseEmailTemplates(t *testing.T) {
	require.NoError(t, ParseEmailTemplates(mailFS, "mail", true))

	tests := []struct {
		name     string
		msg      EmailMessage
		wantText string
		wantHTML string
	}{
		{
			name:     "text and html",
			msg:      EmailMessage{TemplateName: "hello", TemplateData: map[string]string{"Name": "<Ada>"}},
			wantText: "Hi, <Ada> -- http://front",
			wantHTML: "<p><b>&lt;Ada&gt;</b></p>",
		},
		{
			name:     "text only",
			msg:      EmailMessage{TemplateName: "text-only"},
			wantText: "Hi, plain -- http://front",
		},
		{
			name:     "body overrides the text template",
			msg:      EmailMessage{BodyStr: "raw", TemplateName: "hello", TemplateData: map[string]string{"Name": "Ada"}},
			wantText: "raw",
			wantHTML: "<p><b>Ada</b></p>",
		},
		{name: "unknown template", msg: EmailMessage{TemplateName: "README"}},
		{name: "plain body", msg: EmailMessage{BodyStr: "just text"}, wantText: "just text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.msg
			require.NoError(t, msg.Render("http://front"))
			assert.Equal(t, tt.wantText, msg.TextContent)
			assert.Equal(t, tt.wantHTML, msg.HTMLContent)
		})
	}

	// strict mode rejects missing keys
	msg := EmailMessage{TemplateName: "hello", TemplateData: map[string]string{}}
	assert.Error(t, msg.Render("http://front"))
}

func TestParseEmailTemplates_missingLayout(t *testing.T) {
	fsys := fstest.MapFS{"mail/hello.txt": {Data: []byte(`{{define "content"}}x{{end}}`)}}
	assert.Error(t, ParseEmailTemplates(fsys, "mail", false))
}

func TestEmailMessage_Attach(t *testing.T) {
	var msg EmailMessage
	assert.False(t, msg.HasAttachments())

	require.NoError(t, msg.Attach(strings.NewReader("a,b\n1,2\n"), "rows.csv", "text/csv"))
	require.NoError(t, msg.Attach(strings.NewReader("hello"), "hello.txt"))
	require.Len(t, msg.Attachments, 2)

	at := msg.Attachments[0]
	assert.Equal(t, "rows.csv", at.Filename)
	assert.Equal(t, "text/csv", at.ContentType)
	decoded, err := base64.StdEncoding.DecodeString(at.Content.String())
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(decoded))

	assert.Equal(t, "text/plain; charset=utf-8", msg.Attachments[1].ContentType)
}
