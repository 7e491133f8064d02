// Package mailer renders and sends the transactional emails of the auth flows.
package mailer

import (
	"bytes"
	"context"
	htmltemplate "html/template"
	texttemplate "text/template"
)

const (
	subjectWelcome       = "Welcome to VegBazar"
	subjectPasswordReset = "Reset your VegBazar password"
	subjectVerification  = "Verify your VegBazar admin account"
)

type templatePair struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

func mustPair(name, html, text string) templatePair {
	return templatePair{
		html: htmltemplate.Must(htmltemplate.New(name).Parse(html)),
		text: texttemplate.Must(texttemplate.New(name).Parse(text)),
	}
}

var (
	welcomeTemplates = mustPair("welcome",
		`<p>Hi {{.Username}},</p><p>Welcome to VegBazar! Fresh vegetables are now a few taps away.</p>`,
		"Hi {{.Username}},\n\nWelcome to VegBazar! Fresh vegetables are now a few taps away.\n")

	resetTemplates = mustPair("reset",
		`<p>Hi {{.Username}},</p><p>We received a request to reset your password.</p>`+
			`<p><a href="{{.URL}}">Reset password</a></p><p>This link expires in 24 hours. If you did not ask for it, ignore this email.</p>`,
		"Hi {{.Username}},\n\nWe received a request to reset your password:\n{{.URL}}\n\nThis link expires in 24 hours. If you did not ask for it, ignore this email.\n")

	verifyTemplates = mustPair("verify",
		`<p>Hi {{.Username}},</p><p>Confirm your email to activate the VegBazar admin console.</p>`+
			`<p><a href="{{.URL}}">Verify email</a></p><p>This link expires in 24 hours.</p>`,
		"Hi {{.Username}},\n\nConfirm your email to activate the VegBazar admin console:\n{{.URL}}\n\nThis link expires in 24 hours.\n")
)

type templateData struct {
	Username string
	URL      string
}

type Mailer struct {
	sender Sender
}

func New(sender Sender) *Mailer {
	return &Mailer{sender: sender}
}

func (m *Mailer) SendWelcome(ctx context.Context, to, username string) error {
	return m.send(ctx, to, subjectWelcome, welcomeTemplates, templateData{Username: username})
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to, username, resetURL string) error {
	return m.send(ctx, to, subjectPasswordReset, resetTemplates, templateData{Username: username, URL: resetURL})
}

func (m *Mailer) SendVerification(ctx context.Context, to, username, verifyURL string) error {
	return m.send(ctx, to, subjectVerification, verifyTemplates, templateData{Username: username, URL: verifyURL})
}

func (m *Mailer) send(ctx context.Context, to, subject string, tpl templatePair, data templateData) error {
	var html, text bytes.Buffer
	if err := tpl.html.Execute(&html, data); err != nil {
		return err
	}
	if err := tpl.text.Execute(&text, data); err != nil {
		return err
	}

	return m.sender.Send(ctx, Message{
		To:      to,
		Subject: subject,
		HTML:    html.String(),
		Text:    text.String(),
	})
}
