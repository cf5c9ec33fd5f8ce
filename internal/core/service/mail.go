package service

import (
	"bytes"
	"html/template"

	"github.com/rs/zerolog"

	"github.com/eventsphere/eventsphere/internal/core/ports"
)

var mailTemplates = template.Must(template.New("mail").Parse(`
{{define "welcome"}}<p>Hello {{.Username}},</p>
<p>Your EventSphere account for {{.Email}} is ready. Sign in to create events and follow the ones you joined.</p>{{end}}
{{define "notification"}}<p>News about <strong>{{.EventName}}</strong> ({{.EventDate}}, {{.Location}}):</p>
<p>{{.Content}}</p>{{end}}
`))

func renderMail(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := mailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// enqueueMail renders and queues a message. Mail is best effort: failures are
// logged and never surface to the caller.
func enqueueMail(q ports.MailQueue, log zerolog.Logger, to, subject, tmpl string, data any) {
	if q == nil {
		return
	}
	body, err := renderMail(tmpl, data)
	if err != nil {
		log.Error().Err(err).Str("template", tmpl).Msg("failed to render mail")
		return
	}
	q.Enqueue(ports.Mail{To: to, Subject: subject, HTML: body})
}
