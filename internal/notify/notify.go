package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/google/uuid"

	"github.com/lekhapadi/lekhapadi-backend/pkg/logger"
	"github.com/lekhapadi/lekhapadi-backend/pkg/sendgrid"
)

// SignatureRequest is what a signer needs to review and return a document.
type SignatureRequest struct {
	DocumentID  uuid.UUID
	Title       string
	SignerEmail string
	Message     string
	Attachment  *sendgrid.Attachment
}

// Notifier tells a signer a document awaits them.
type Notifier interface {
	SignatureRequested(ctx context.Context, req SignatureRequest) error
}

type mailer interface {
	Send(ctx context.Context, msg sendgrid.Message) error
}

var signatureRequestHTML = template.Must(template.New("signature_request").Parse(`<h2>Document Signature Request</h2>
<p>You have received a request to sign the document: <strong>{{.Title}}</strong></p>
{{if .Message}}<p>Message from requester: {{.Message}}</p>
{{end}}<p>Please review the attached document, sign it, and upload the signed version using the button below:</p>
<div style="margin: 20px 0;">
  <a href="{{.UploadURL}}" style="background-color: #4CAF50; color: white; padding: 10px 15px; text-decoration: none; border-radius: 4px; font-weight: bold;">UPLOAD SIGNED DOCUMENT</a>
</div>
<p>Thank you!</p>
`))

// EmailNotifier sends the signature request through SendGrid.
type EmailNotifier struct {
	mailer    mailer
	publicURL string
}

func NewEmailNotifier(m mailer, publicURL string) *EmailNotifier {
	return &EmailNotifier{mailer: m, publicURL: strings.TrimRight(publicURL, "/")}
}

// UploadURL is the page where the signer returns the signed copy.
func UploadURL(publicURL string, documentID uuid.UUID) string {
	return fmt.Sprintf("%s/upload-signed/%s", strings.TrimRight(publicURL, "/"), documentID)
}

func (n *EmailNotifier) SignatureRequested(ctx context.Context, req SignatureRequest) error {
	var body bytes.Buffer
	err := signatureRequestHTML.Execute(&body, map[string]string{
		"Title":     req.Title,
		"Message":   strings.TrimSpace(req.Message),
		"UploadURL": UploadURL(n.publicURL, req.DocumentID),
	})
	if err != nil {
		return fmt.Errorf("render signature request email: %w", err)
	}

	msg := sendgrid.Message{
		To:      req.SignerEmail,
		Subject: "Signature Request: " + req.Title,
		HTML:    body.String(),
	}
	if req.Attachment != nil && len(req.Attachment.Data) > 0 {
		msg.Attachments = []sendgrid.Attachment{*req.Attachment}
	}
	return n.mailer.Send(ctx, msg)
}

// LogNotifier only logs; used when no mail transport is configured.
type LogNotifier struct {
	logg      *logger.Logger
	publicURL string
}

func NewLogNotifier(logg *logger.Logger, publicURL string) *LogNotifier {
	return &LogNotifier{logg: logg, publicURL: publicURL}
}

func (n *LogNotifier) SignatureRequested(ctx context.Context, req SignatureRequest) error {
	if n.logg == nil {
		return nil
	}
	ctx = n.logg.WithFields(ctx, map[string]any{
		"document_id":  req.DocumentID.String(),
		"signer_email": req.SignerEmail,
		"upload_url":   UploadURL(n.publicURL, req.DocumentID),
		"attachment":   req.Attachment != nil,
	})
	n.logg.Info(ctx, "signature request email skipped; no mail transport configured")
	return nil
}
