package notify

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/benvon/portfolio-api/internal/models"
)

var notificationTemplate = template.Must(template.New("contact").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #111;">
  <h2>New contact form submission</h2>
  <p><strong>Name:</strong> {{.Name}}</p>
  <p><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></p>
  <p><strong>Received:</strong> {{.Received}}</p>
  <p><strong>Message:</strong></p>
  <p style="white-space: pre-wrap;">{{.Message}}</p>
</body>
</html>
`))

// Renderer turns submissions into owner notifications.
type Renderer struct {
	from string
	to   []string
}

// NewRenderer creates a renderer addressing mail from from to the given recipients.
func NewRenderer(from string, to ...string) *Renderer {
	return &Renderer{from: from, to: to}
}

// Render builds the email for sub. User input is HTML-escaped by the template.
// Replies go to the submitter.
func (r *Renderer) Render(sub *models.ContactSubmission) (*models.NotificationEmail, error) {
	if sub == nil {
		return nil, errors.New("nil submission")
	}
	if len(r.to) == 0 {
		return nil, errors.New("no notification recipient configured")
	}

	received := sub.CreatedAt
	if received.IsZero() {
		received = time.Now()
	}

	var buf bytes.Buffer
	err := notificationTemplate.Execute(&buf, struct {
		Name, Email, Message, Received string
	}{
		Name:     sub.Name,
		Email:    sub.Email,
		Message:  sub.Message,
		Received: received.UTC().Format(time.RFC1123),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render notification: %w", err)
	}

	return &models.NotificationEmail{
		From:    r.from,
		To:      append([]string(nil), r.to...),
		Subject: "New contact form submission from " + sub.Name,
		HTML:    buf.String(),
		ReplyTo: sub.Email,
	}, nil
}
