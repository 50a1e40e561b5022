package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
)

type emailTemplate struct {
	subject string
	body    string
}

const layoutStart = `<div style="font-family:Arial,sans-serif;max-width:560px;margin:0 auto;color:#1f2937">
<h2 style="color:#2563eb">HandyHub</h2>
<p>Hi {{.Name}},</p>`

const layoutEnd = `<p style="color:#6b7280;font-size:12px">This is an automated message from HandyHub. Please do not reply.</p></div>`

var emailTemplates = map[Kind]emailTemplate{
	KindVerification: {
		subject: "Verify your HandyHub email",
		body: `<p>Use the code below to verify your email address. It expires in {{index .Data "expires_in"}}.</p>
<p style="font-size:28px;letter-spacing:6px;font-weight:bold">{{index .Data "code"}}</p>`,
	},
	KindWelcome: {
		subject: "Welcome to HandyHub",
		body:    `<p>Your email is verified and your account is ready. Book trusted help for your home any time.</p>`,
	},
	KindPasswordReset: {
		subject: "Reset your HandyHub password",
		body: `<p>We received a request to reset your password. Use this code within {{index .Data "expires_in"}}:</p>
<p style="font-size:28px;letter-spacing:6px;font-weight:bold">{{index .Data "code"}}</p>
<p>If you did not request this, you can ignore this email.</p>`,
	},
	KindPasswordChanged: {
		subject: "Your HandyHub password was changed",
		body:    `<p>Your password was just changed. If this was not you, reset your password immediately and contact support.</p>`,
	},
	KindLoginCode: {
		subject: "Your HandyHub sign-in code",
		body: `<p>Your one-time sign-in code is:</p>
<p style="font-size:28px;letter-spacing:6px;font-weight:bold">{{index .Data "code"}}</p>`,
	},
	KindBookingConfirmation: {
		subject: "Booking {{index .Data \"code\"}} received",
		body: `<p>Thanks for booking <strong>{{index .Data "service"}}</strong> with {{index .Data "worker"}}.</p>
<ul>
<li>Booking code: <strong>{{index .Data "code"}}</strong></li>
<li>Date: {{index .Data "date"}} {{index .Data "start"}}-{{index .Data "end"}}</li>
<li>Total: {{index .Data "total"}}</li>
</ul>
<p>Your worker will confirm shortly. Keep the booking code to look up your booking.</p>`,
	},
	KindBookingNotification: {
		subject: "New booking request {{index .Data \"code\"}}",
		body: `<p>You have a new booking request for <strong>{{index .Data "service"}}</strong>.</p>
<ul>
<li>Customer: {{index .Data "customer"}}</li>
<li>Date: {{index .Data "date"}} {{index .Data "start"}}-{{index .Data "end"}}</li>
<li>Address: {{index .Data "address"}}</li>
</ul>
<p>Please confirm or decline it from your dashboard.</p>`,
	},
	KindBookingStatusUpdate: {
		subject: "Booking {{index .Data \"code\"}} is now {{index .Data \"status\"}}",
		body: `<p>Your booking <strong>{{index .Data "code"}}</strong> for {{index .Data "service"}} is now <strong>{{index .Data "status"}}</strong>.</p>
{{with index .Data "note"}}<p>Note: {{.}}</p>{{end}}`,
	},
	KindBookingReminder: {
		subject: "Reminder: {{index .Data \"service\"}} tomorrow",
		body: `<p>This is a reminder that <strong>{{index .Data "service"}}</strong> is scheduled for {{index .Data "date"}} at {{index .Data "start"}}.</p>
<p>Booking code: {{index .Data "code"}}</p>`,
	},
	KindApplicationDecision: {
		subject: "Your HandyHub worker application was {{index .Data \"decision\"}}",
		body: `{{if eq (index .Data "decision") "approved"}}<p>Congratulations! Your application was approved. You can now receive bookings.</p>
{{else}}<p>Unfortunately your application was not approved.</p>{{with index .Data "reason"}}<p>Reason: {{.}}</p>{{end}}
<p>You can update your profile and submit again.</p>{{end}}`,
	},
}

// Renderer turns messages into subject and HTML body
type Renderer struct {
	subjects map[Kind]*texttemplate.Template
	bodies   map[Kind]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{
		subjects: make(map[Kind]*texttemplate.Template, len(emailTemplates)),
		bodies:   make(map[Kind]*template.Template, len(emailTemplates)),
	}
	for kind, tpl := range emailTemplates {
		subject, err := texttemplate.New(string(kind) + "-subject").Parse(tpl.subject)
		if err != nil {
			return nil, fmt.Errorf("parse %s subject: %w", kind, err)
		}
		body, err := template.New(string(kind)).Parse(layoutStart + tpl.body + layoutEnd)
		if err != nil {
			return nil, fmt.Errorf("parse %s body: %w", kind, err)
		}
		r.subjects[kind] = subject
		r.bodies[kind] = body
	}
	return r, nil
}

// MustRenderer panics on template errors; templates are compiled in
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Renderer) Render(msg Message) (string, string, error) {
	subjectTpl, ok := r.subjects[msg.Kind]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", msg.Kind)
	}
	view := struct {
		Name string
		Data map[string]string
	}{Name: msg.Name, Data: msg.Data}
	if view.Name == "" {
		view.Name = "there"
	}

	var subject, body bytes.Buffer
	if err := subjectTpl.Execute(&subject, view); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", msg.Kind, err)
	}
	if err := r.bodies[msg.Kind].Execute(&body, view); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", msg.Kind, err)
	}
	return strings.TrimSpace(subject.String()), body.String(), nil
}
