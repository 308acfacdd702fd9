package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/lekhapadi/lekhapadi-backend/pkg/sendgrid"
)

type fakeMailer struct {
	sent []sendgrid.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg sendgrid.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func TestEmailNotifierBuildsMessage(t *testing.T) {
	m := &fakeMailer{}
	id := uuid.MustParse("6f1c2c5e-0e55-4f5b-9d56-1f7c5a0c9e11")
	n := NewEmailNotifier(m, "https://app.lekhapadi.test/")

	err := n.SignatureRequested(context.Background(), SignatureRequest{
		DocumentID:  id,
		Title:       "नागरिकता <सिफारिस>",
		SignerEmail: "signer@example.com",
		Message:     "please sign",
		Attachment:  &sendgrid.Attachment{FileName: "a.docx", Data: []byte("x")},
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(m.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(m.sent))
	}
	msg := m.sent[0]
	if msg.To != "signer@example.com" || msg.Subject != "Signature Request: नागरिकता <सिफारिस>" {
		t.Fatalf("unexpected envelope %+v", msg)
	}
	if !strings.Contains(msg.HTML, "https://app.lekhapadi.test/upload-signed/"+id.String()) {
		t.Fatalf("missing upload link: %s", msg.HTML)
	}
	if !strings.Contains(msg.HTML, "Message from requester: please sign") {
		t.Fatal("missing requester message")
	}
	if strings.Contains(msg.HTML, "<सिफारिस>") {
		t.Fatal("title must be html escaped")
	}
	if len(msg.Attachments) != 1 {
		t.Fatal("expected attachment")
	}
}

func TestEmailNotifierOmitsEmptyParts(t *testing.T) {
	m := &fakeMailer{}
	err := NewEmailNotifier(m, "http://localhost:3000").SignatureRequested(context.Background(), SignatureRequest{
		DocumentID:  uuid.New(),
		Title:       "t",
		SignerEmail: "s@example.com",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if strings.Contains(m.sent[0].HTML, "Message from requester") {
		t.Fatal("message paragraph should be omitted")
	}
	if len(m.sent[0].Attachments) != 0 {
		t.Fatal("expected no attachments")
	}
}

func TestEmailNotifierPropagatesSendError(t *testing.T) {
	m := &fakeMailer{err: errors.New("smtp down")}
	err := NewEmailNotifier(m, "").SignatureRequested(context.Background(), SignatureRequest{DocumentID: uuid.New(), SignerEmail: "s@example.com"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestLogNotifierNeverFails(t *testing.T) {
	if err := NewLogNotifier(nil, "").SignatureRequested(context.Background(), SignatureRequest{}); err != nil {
		t.Fatalf("unexpected %v", err)
	}
}
