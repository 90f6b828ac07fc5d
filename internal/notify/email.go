// Package notify delivers availability emails through the Brevo
// transactional email API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ritwyck/too-good-to-go-terminal/internal/model"
)

// EmailSender sends notification emails via Brevo's SMTP API.
type EmailSender struct {
	apiURL      string
	apiKey      string
	senderName  string
	senderEmail string
	serverURL   string
	http        *http.Client
	tmpl        *template.Template
	log         *zap.Logger
}

// NewEmailSender creates a sender. serverURL is the public base URL used for
// the unsubscribe link in the email footer.
func NewEmailSender(apiURL, apiKey, senderName, senderEmail, serverURL string, log *zap.Logger) *EmailSender {
	return &EmailSender{
		apiURL:      apiURL,
		apiKey:      apiKey,
		senderName:  senderName,
		senderEmail: senderEmail,
		serverURL:   serverURL,
		http:        &http.Client{Timeout: 30 * time.Second},
		tmpl:        template.Must(template.New("email").Parse(emailTemplate)),
		log:         log,
	}
}

type sendRequest struct {
	Sender      emailAddress   `json:"sender"`
	To          []emailAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

type emailAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type emailData struct {
	Items          []model.Item
	NewStores      int
	UnsubscribeURL string
}

// Send renders and delivers one availability email. An error means nothing
// reached the recipient and the caller must not record the notification.
func (s *EmailSender) Send(ctx context.Context, to string, items []model.Item, newStores int) error {
	var body bytes.Buffer
	err := s.tmpl.Execute(&body, emailData{
		Items:          items,
		NewStores:      newStores,
		UnsubscribeURL: s.serverURL + "/unsubscribe",
	})
	if err != nil {
		return fmt.Errorf("rendering email: %w", err)
	}

	payload, err := json.Marshal(sendRequest{
		Sender:      emailAddress{Name: s.senderName, Email: s.senderEmail},
		To:          []emailAddress{{Email: to}},
		Subject:     subject(newStores),
		HTMLContent: body.String(),
	})
	if err != nil {
		return fmt.Errorf("encoding email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email API returned %d: %s", resp.StatusCode, detail)
	}

	s.log.Debug("email sent", zap.String("to", to), zap.Int("items", len(items)))
	return nil
}

func subject(newStores int) string {
	if newStores == 1 {
		return "A new store has surprise bags available!"
	}
	return fmt.Sprintf("%d new stores have surprise bags available!", newStores)
}

const emailTemplate = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#1a1a2e;font-family:Helvetica,Arial,sans-serif;color:#eaeaea;">
  <div style="max-width:600px;margin:0 auto;padding:24px;">
    <h1 style="color:#6fcf97;font-size:22px;">Surprise bags near you</h1>
    <p style="color:#bbbbbb;">Here is everything currently available from your favorite stores.
    Stores marked <strong style="color:#f2c94c;">NEW</strong> were not in your last update.</p>
    {{range .Items}}
    <div style="background-color:#16213e;border-radius:8px;padding:16px;margin-bottom:12px;">
      <h2 style="margin:0 0 4px 0;font-size:16px;color:#ffffff;">
        {{.Store}}{{if .IsNew}} <span style="background-color:#f2c94c;color:#1a1a2e;border-radius:4px;padding:1px 6px;font-size:11px;">NEW</span>{{end}}
      </h2>
      <p style="margin:2px 0;color:#bbbbbb;font-size:14px;">{{.Name}}</p>
      <p style="margin:2px 0;color:#6fcf97;font-size:14px;">{{.Price}} &middot; {{.Available}} left</p>
      <p style="margin:2px 0;color:#888888;font-size:12px;">{{.Address}}</p>
    </div>
    {{end}}
    <p style="color:#666666;font-size:12px;margin-top:24px;">
      You receive these emails because you signed up for surprise bag alerts.
      <a href="{{.UnsubscribeURL}}" style="color:#6fcf97;">Unsubscribe</a>
    </p>
  </div>
</body>
</html>`
