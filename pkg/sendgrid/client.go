package sendgrid

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/lekhapadi/lekhapadi-backend/pkg/config"
)

const sendEndpoint = "/v3/mail/send"

// Attachment is a file sent alongside the message body.
type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Message is a single-recipient HTML email.
type Message struct {
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Client sends transactional email through the SendGrid v3 API.
type Client struct {
	apiKey string
	host   string
	from   *mail.Email
}

func NewClient(cfg config.SendgridConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("sendgrid api key is required")
	}
	from := strings.TrimSpace(cfg.DefaultFrom)
	if from == "" {
		return nil, errors.New("sendgrid from address is required")
	}
	host := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if host == "" {
		host = "https://api.sendgrid.com"
	}
	return &Client{
		apiKey: cfg.APIKey,
		host:   host,
		from:   mail.NewEmail("Lekhapadi", from),
	}, nil
}

// Send delivers msg and fails on any non-2xx response.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("recipient is required")
	}

	request := sg.GetRequest(c.apiKey, sendEndpoint, c.host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(c.build(msg))

	resp, err := sg.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, strings.TrimSpace(resp.Body))
	}
	return nil
}

func (c *Client) build(msg Message) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(c.from)
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", msg.To))
	m.AddPersonalizations(p)
	m.AddContent(mail.NewContent("text/html", msg.HTML))

	for _, att := range msg.Attachments {
		a := mail.NewAttachment()
		a.SetContent(base64.StdEncoding.EncodeToString(att.Data))
		a.SetType(att.ContentType)
		a.SetFilename(att.FileName)
		a.SetDisposition("attachment")
		m.AddAttachment(a)
	}
	return m
}
