package mail

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/iliyamo/quiz-api/internal/queue"
)

type template struct {
	subject string
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

var templates = map[queue.EmailKind]template{
	queue.EmailVerify: {
		subject: "Verify your email address",
		text: texttemplate.Must(texttemplate.New("verify").Parse(
			"Hi {{.Name}},\n\nYour verification code is {{.Token}}. It is valid for 24 hours.\n\nIf you did not sign up, ignore this email.\n")),
		html: htmltemplate.Must(htmltemplate.New("verify").Parse(
			`<p>Hi {{.Name}},</p><p>Your verification code is <strong>{{.Token}}</strong>. It is valid for 24 hours.</p><p>If you did not sign up, ignore this email.</p>`)),
	},
	queue.EmailResetPassword: {
		subject: "Reset your password",
		text: texttemplate.Must(texttemplate.New("reset").Parse(
			"Hi {{.Name}},\n\nUse this token to reset your password within one hour:\n\n{{.Token}}\n\nIf you did not ask for a reset, ignore this email.\n")),
		html: htmltemplate.Must(htmltemplate.New("reset").Parse(
			`<p>Hi {{.Name}},</p><p>Use this token to reset your password within one hour:</p><pre>{{.Token}}</pre><p>If you did not ask for a reset, ignore this email.</p>`)),
	},
}

// Render returns the subject and the plain and HTML bodies for ev.
func Render(ev queue.EmailEvent) (subject, text, html string, err error) {
	t, ok := templates[ev.Kind]
	if !ok {
		return "", "", "", fmt.Errorf("no template for email kind %q", ev.Kind)
	}
	var tb, hb bytes.Buffer
	if err := t.text.Execute(&tb, ev); err != nil {
		return "", "", "", err
	}
	if err := t.html.Execute(&hb, ev); err != nil {
		return "", "", "", err
	}
	return t.subject, tb.String(), hb.String(), nil
}
