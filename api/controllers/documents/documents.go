package documents

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lekhapadi/lekhapadi-backend/api/middleware"
	"github.com/lekhapadi/lekhapadi-backend/api/responses"
	"github.com/lekhapadi/lekhapadi-backend/api/validators"
	internaldocuments "github.com/lekhapadi/lekhapadi-backend/internal/documents"
	pkgerrors "github.com/lekhapadi/lekhapadi-backend/pkg/errors"
	"github.com/lekhapadi/lekhapadi-backend/pkg/logger"
)

const maxTitleLength = 200

// Limits bounds list pages and uploaded files.
type Limits struct {
	DefaultList    int
	MaxList        int
	MaxUploadBytes int64
}

func (l Limits) withDefaults() Limits {
	if l.DefaultList <= 0 {
		l.DefaultList = 50
	}
	if l.MaxList <= 0 {
		l.MaxList = 200
	}
	if l.MaxUploadBytes <= 0 {
		l.MaxUploadBytes = internaldocuments.DefaultMaxUploadBytes
	}
	return l
}

// List returns the caller's documents, newest first.
func List(svc internaldocuments.Service, limits Limits, logg *logger.Logger) http.HandlerFunc {
	limits = limits.withDefaults()
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}
		owner, ok := callerEmail(w, r, logg)
		if !ok {
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", limits.DefaultList, 1, limits.MaxList)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		docs, err := svc.List(r.Context(), owner, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newDocumentViews(docs))
	}
}

// Detail returns one document to its owner or invited signer.
func Detail(svc internaldocuments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}
		caller, ok := callerEmail(w, r, logg)
		if !ok {
			return
		}
		id, err := parseDocumentID(chi.URLParam(r, "documentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithDocumentID(r.Context(), id.String())
		doc, err := svc.Get(ctx, caller, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newDocumentView(doc))
	}
}

// Create renders a sifaris letter from submitted form values.
func Create(svc internaldocuments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}
		owner, ok := callerEmail(w, r, logg)
		if !ok {
			return
		}

		var payload createRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		doc, err := svc.CreateFromTemplate(r.Context(), owner, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newDocumentView(doc))
	}
}

// Upload stores a raw file as a new document.
func Upload(svc internaldocuments.Service, limits Limits, logg *logger.Logger) http.HandlerFunc {
	limits = limits.withDefaults()
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}
		owner, ok := callerEmail(w, r, logg)
		if !ok {
			return
		}
		if err := validators.ParseMultipartForm(w, r, limits.MaxUploadBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		file, err := validators.FormFile(r, "file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		doc, err := svc.CreateFromUpload(r.Context(), owner, internaldocuments.UploadInput{
			FileInput: fileInput(file),
			Title:     validators.SanitizeString(r.FormValue("title"), maxTitleLength),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newDocumentView(doc))
	}
}

// RequestSignature invites a signer and emails them the document.
func RequestSignature(svc internaldocuments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}
		owner, ok := callerEmail(w, r, logg)
		if !ok {
			return
		}

		var payload signatureRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		doc, err := svc.RequestSignature(r.Context(), owner, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newDocumentView(doc))
	}
}

// UploadSigned attaches a signed PDF produced outside the service.
func UploadSigned(svc internaldocuments.Service, limits Limits, logg *logger.Logger) http.HandlerFunc {
	limits = limits.withDefaults()
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}
		caller, ok := callerEmail(w, r, logg)
		if !ok {
			return
		}
		if err := validators.ParseMultipartForm(w, r, limits.MaxUploadBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseDocumentID(r.FormValue("documentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		file, err := validators.FormFile(r, "file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		doc, err := svc.UploadSigned(r.Context(), caller, id, fileInput(file))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newDocumentView(doc))
	}
}

// DigitallySign stamps a drawn signature onto the document.
func DigitallySign(svc internaldocuments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}
		caller, ok := callerEmail(w, r, logg)
		if !ok {
			return
		}

		var payload digitalSignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		doc, err := svc.DigitallySign(r.Context(), caller, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newDocumentView(doc))
	}
}

// Delete removes an owned document and its artifacts.
func Delete(svc internaldocuments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}
		owner, ok := callerEmail(w, r, logg)
		if !ok {
			return
		}
		id, err := parseDocumentID(chi.URLParam(r, "documentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithDocumentID(r.Context(), id.String())
		if err := svc.Delete(ctx, owner, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}

func callerEmail(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, bool) {
	email := middleware.UserEmailFromContext(r.Context())
	if email == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return "", false
	}
	return email, true
}

func parseDocumentID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "documentId is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid documentId")
	}
	return id, nil
}

func fileInput(file validators.UploadedFile) internaldocuments.FileInput {
	return internaldocuments.FileInput{
		FileName:    file.FileName,
		ContentType: file.ContentType,
		Data:        file.Data,
	}
}
