package validators

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	pkgerrors "github.com/lekhapadi/lekhapadi-backend/pkg/errors"
)

type signRequest struct {
	DocumentID  string `json:"documentId" validate:"required,uuid"`
	SignerEmail string `json:"signerEmail" validate:"required,email"`
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"documentId":"nope","signerEmail":""}`))
	var dest signRequest
	err := DecodeJSONBody(req, &dest)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", pkgerrors.As(err).Details())
	}
	if details["signerEmail"] != "is required" {
		t.Fatalf("unexpected signerEmail detail %q", details["signerEmail"])
	}
	if _, ok := details["documentId"]; !ok {
		t.Fatalf("expected documentId detail, got %v", details)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"documentId":"x","extra":1}`))
	var dest signRequest
	if err := DecodeJSONBody(req, &dest); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	if _, err := ParseQueryInt(req, "limit", 50, 1, 200); err == nil {
		t.Fatal("expected out of range error")
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	got, err := ParseQueryInt(req, "limit", 50, 1, 200)
	if err != nil || got != 50 {
		t.Fatalf("expected default 50, got %d (%v)", got, err)
	}
}

func multipartRequest(t *testing.T, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.WriteField("title", "Test"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestFormFileGuessesContentTypeFromExtension(t *testing.T) {
	req := multipartRequest(t, "file", "../letter.pdf", "application/octet-stream", []byte("%PDF-1.7"))
	if err := ParseMultipartForm(httptest.NewRecorder(), req, 1024); err != nil {
		t.Fatalf("parse: %v", err)
	}
	file, err := FormFile(req, "file")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if file.ContentType != "application/pdf" {
		t.Fatalf("expected guessed pdf type, got %q", file.ContentType)
	}
	if file.FileName != "letter.pdf" {
		t.Fatalf("expected base name, got %q", file.FileName)
	}
	if file.Size() != 8 {
		t.Fatalf("unexpected size %d", file.Size())
	}
	if req.FormValue("title") != "Test" {
		t.Fatalf("expected title field")
	}
}

func TestFormFileMissingPart(t *testing.T) {
	req := multipartRequest(t, "other", "a.txt", "text/plain", []byte("hi"))
	if err := ParseMultipartForm(httptest.NewRecorder(), req, 1024); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := FormFile(req, "file"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseMultipartFormRejectsHugeBodies(t *testing.T) {
	req := multipartRequest(t, "file", "big.pdf", "application/pdf", bytes.Repeat([]byte("a"), 4<<20))
	err := ParseMultipartForm(httptest.NewRecorder(), req, 1024)
	if !pkgerrors.IsCode(err, pkgerrors.CodePayloadTooLarge) {
		t.Fatalf("expected payload too large, got %v", err)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello world  ", 5); got != "hello" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestDecodeJSONBodyRejectsOversizedPayload(t *testing.T) {
	body := `{"documentId":"` + strings.Repeat("a", MaxJSONBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dest signRequest
	if err := DecodeJSONBody(req, &dest); !pkgerrors.IsCode(err, pkgerrors.CodePayloadTooLarge) {
		t.Fatalf("expected payload too large, got %v", err)
	}
}

func TestDecodeJSONBodyRejectsEmptyAndTrailingInput(t *testing.T) {
	for _, body := range []string{"", "   ", `{"documentId":"x"} {"documentId":"y"}`} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		var dest signRequest
		if err := DecodeJSONBody(req, &dest); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("body %q: expected validation error, got %v", body, err)
		}
	}
}

func TestDecodeJSONBodyNamesMistypedField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"documentId":42}`))
	var dest signRequest
	err := DecodeJSONBody(req, &dest)
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %v", err)
	}
	if details["documentId"] != "must be a string" {
		t.Fatalf("unexpected detail %v", details)
	}
}
