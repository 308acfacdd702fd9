package documents

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/lekhapadi/lekhapadi-backend/internal/artifacts"
	"github.com/lekhapadi/lekhapadi-backend/internal/conversion"
	"github.com/lekhapadi/lekhapadi-backend/internal/notify"
	"github.com/lekhapadi/lekhapadi-backend/internal/render"
	"github.com/lekhapadi/lekhapadi-backend/internal/repo"
	"github.com/lekhapadi/lekhapadi-backend/pkg/db/models"
	"github.com/lekhapadi/lekhapadi-backend/pkg/enums"
	pkgerrors "github.com/lekhapadi/lekhapadi-backend/pkg/errors"
	"github.com/lekhapadi/lekhapadi-backend/pkg/logger"
	"github.com/lekhapadi/lekhapadi-backend/pkg/metrics"
	"github.com/lekhapadi/lekhapadi-backend/pkg/outbox"
	"github.com/lekhapadi/lekhapadi-backend/pkg/outbox/payloads"
	"github.com/lekhapadi/lekhapadi-backend/pkg/sendgrid"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = render.ContentType
	ContentTypeDOC  = "application/msword"
	ContentTypeText = "text/plain"

	DefaultMaxUploadBytes = 10 << 20
	defaultListLimit      = 50
	maxListLimit          = 200
)

var uploadTypes = map[string]string{
	ContentTypePDF:  "pdf",
	ContentTypeDOCX: "docx",
	ContentTypeDOC:  "doc",
	ContentTypeText: "txt",
}

// uploadExtension picks the stored extension from the validated content
// type. A file name extension is kept only within the same family, so a
// Word upload may stay .doc or .docx but a PDF is always .pdf.
func uploadExtension(contentType, fileName string) string {
	ext := uploadTypes[contentType]
	fromName := artifacts.ExtensionOf(fileName)
	switch contentType {
	case ContentTypeDOCX, ContentTypeDOC:
		if fromName == "doc" || fromName == "docx" {
			return fromName
		}
	}
	return ext
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// outboxPublisher queues lifecycle events. Events other than
// signature_requested happen at most once per document.
type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type letterRenderer interface {
	Render(ctx context.Context, documentType string, values map[string]any, title string) (*render.Result, error)
}

type documentSigner interface {
	ConvertAndSign(ctx context.Context, docx []byte, signatureDataURL string, width, height float64) ([]byte, error)
	SignPDF(ctx context.Context, pdf []byte, signatureDataURL string, width, height float64) ([]byte, error)
}

// Service orchestrates document creation and the signature lifecycle.
type Service interface {
	List(ctx context.Context, ownerEmail string, limit int) ([]models.Document, error)
	Get(ctx context.Context, callerEmail string, id uuid.UUID) (*models.Document, error)
	CreateFromTemplate(ctx context.Context, ownerEmail string, input TemplateInput) (*models.Document, error)
	CreateFromUpload(ctx context.Context, ownerEmail string, input UploadInput) (*models.Document, error)
	RequestSignature(ctx context.Context, ownerEmail string, input SignatureRequestInput) (*models.Document, error)
	UploadSigned(ctx context.Context, callerEmail string, id uuid.UUID, file FileInput) (*models.Document, error)
	DigitallySign(ctx context.Context, callerEmail string, input DigitalSignInput) (*models.Document, error)
	Delete(ctx context.Context, ownerEmail string, id uuid.UUID) error
}

// TemplateInput is a sifaris form submission.
type TemplateInput struct {
	DocumentType string
	FieldValues  map[string]any
	Title        string
}

// FileInput is an uploaded file.
type FileInput struct {
	FileName    string
	ContentType string
	Data        []byte
}

// UploadInput creates a document from a raw file.
type UploadInput struct {
	FileInput
	Title string
}

type SignatureRequestInput struct {
	DocumentID  uuid.UUID
	SignerEmail string
	Message     string
}

type DigitalSignInput struct {
	DocumentID       uuid.UUID
	SignatureDataURL string
	DocumentURL      string
	Width            float64
	Height           float64
}

// Deps bundles the collaborators of the service.
type Deps struct {
	Repo     *Repository
	Tx       txRunner
	Outbox   outboxPublisher
	Store    artifacts.Store
	Renderer letterRenderer
	Signer   documentSigner
	Notifier notify.Notifier
	Metrics  *metrics.PipelineMetrics
	Logger   *logger.Logger
}

// Options tunes limits; zero values use the defaults.
type Options struct {
	MaxUploadBytes   int64
	DefaultListLimit int
	MaxListLimit     int
}

type service struct {
	repo     *Repository
	tx       txRunner
	outbox   outboxPublisher
	store    artifacts.Store
	renderer letterRenderer
	signer   documentSigner
	notifier notify.Notifier
	metrics  *metrics.PipelineMetrics
	logg     *logger.Logger
	validate *validator.Validate
	opts     Options
	now      func() time.Time
}

func NewService(deps Deps, opts Options) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("documents repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("artifact store required")
	}
	if deps.Renderer == nil {
		return nil, fmt.Errorf("renderer required")
	}
	if deps.Signer == nil {
		return nil, fmt.Errorf("signer required")
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewLogNotifier(deps.Logger, "")
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.DefaultListLimit <= 0 {
		opts.DefaultListLimit = defaultListLimit
	}
	if opts.MaxListLimit <= 0 {
		opts.MaxListLimit = maxListLimit
	}
	return &service{
		repo:     deps.Repo,
		tx:       deps.Tx,
		outbox:   deps.Outbox,
		store:    deps.Store,
		renderer: deps.Renderer,
		signer:   deps.Signer,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		logg:     deps.Logger,
		validate: validator.New(),
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) List(ctx context.Context, ownerEmail string, limit int) ([]models.Document, error) {
	owner, err := requireIdentity(ownerEmail)
	if err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = s.opts.DefaultListLimit
	case limit > s.opts.MaxListLimit:
		limit = s.opts.MaxListLimit
	}
	docs, err := s.repo.ListByOwner(ctx, owner, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list documents")
	}
	return docs, nil
}

func (s *service) Get(ctx context.Context, callerEmail string, id uuid.UUID) (*models.Document, error) {
	caller, err := requireIdentity(callerEmail)
	if err != nil {
		return nil, err
	}
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanRead(doc, caller) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "document is not shared with you")
	}
	return doc, nil
}

func (s *service) CreateFromTemplate(ctx context.Context, ownerEmail string, input TemplateInput) (*models.Document, error) {
	owner, err := requireIdentity(ownerEmail)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.DocumentType) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "documentType is required")
	}

	letter, err := s.renderer.Render(ctx, input.DocumentType, input.FieldValues, input.Title)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render document")
	}

	url, err := s.store.Put(ctx, artifacts.UniqueName(letter.DocumentType, "docx"), letter.ContentType, letter.Bytes)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		Title:              letter.Title,
		DocumentType:       letter.DocumentType,
		Status:             enums.DocumentStatusCreated,
		OwnerEmail:         owner,
		PrimaryArtifactURL: url,
		PrimaryContentType: letter.ContentType,
	}
	if err := s.insert(ctx, doc); err != nil {
		s.discard(ctx, url)
		return nil, err
	}
	return doc, nil
}

func (s *service) CreateFromUpload(ctx context.Context, ownerEmail string, input UploadInput) (*models.Document, error) {
	owner, err := requireIdentity(ownerEmail)
	if err != nil {
		return nil, err
	}
	if err := s.checkSize(input.Data); err != nil {
		return nil, err
	}
	contentType := baseContentType(input.ContentType)
	if _, ok := uploadTypes[contentType]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported file type").
			WithDetails(map[string]any{"content_type": contentType, "allowed_types": allowedUploadTypes()})
	}

	url, err := s.store.Put(ctx, artifacts.UniqueName("uploaded", uploadExtension(contentType, input.FileName)), contentType, input.Data)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		Title:              uploadTitle(input.Title, input.FileName),
		DocumentType:       typeLabel(contentType),
		Status:             enums.DocumentStatusCreated,
		OwnerEmail:         owner,
		PrimaryArtifactURL: url,
		PrimaryContentType: contentType,
	}
	if err := s.insert(ctx, doc); err != nil {
		s.discard(ctx, url)
		return nil, err
	}
	return doc, nil
}

func (s *service) RequestSignature(ctx context.Context, ownerEmail string, input SignatureRequestInput) (*models.Document, error) {
	owner, err := requireIdentity(ownerEmail)
	if err != nil {
		return nil, err
	}
	signer := strings.ToLower(strings.TrimSpace(input.SignerEmail))
	if err := s.validate.Var(signer, "required,email"); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "a valid signerEmail is required").
			WithDetails(map[string]any{"field": "signerEmail"})
	}

	doc, err := s.load(ctx, input.DocumentID)
	if err != nil {
		return nil, err
	}
	if !IsOwner(doc, owner) {
		return nil, forbidden()
	}
	to, err := nextStatus(doc.Status, EventRequestSignature)
	if err != nil {
		return nil, err
	}

	rerequest := doc.HasSignatureRequest()
	requestedAt := s.now()
	doc.Status = to
	doc.SignatureRequestedAt = &requestedAt
	doc.SignatureRequestedTo = &signer
	doc.SignatureMessage = nil
	if msg := strings.TrimSpace(input.Message); msg != "" {
		doc.SignatureMessage = &msg
	}

	err = s.update(ctx, doc, outbox.DomainEvent{
		EventType: enums.EventSignatureRequested,
		Actor:     &outbox.ActorRef{Email: owner},
		Data: payloads.SignatureRequestedEvent{
			DocumentID:  doc.ID,
			OwnerEmail:  doc.OwnerEmail,
			SignerEmail: signer,
			RequestedAt: requestedAt,
			Rerequest:   rerequest,
		},
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition(string(enums.EventSignatureRequested))

	s.notifySigner(ctx, doc)
	return doc, nil
}

func (s *service) UploadSigned(ctx context.Context, callerEmail string, id uuid.UUID, file FileInput) (*models.Document, error) {
	caller, err := requireIdentity(callerEmail)
	if err != nil {
		return nil, err
	}
	if err := s.checkSize(file.Data); err != nil {
		return nil, err
	}
	if baseContentType(file.ContentType) != ContentTypePDF {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "signed document must be a PDF").
			WithDetails(map[string]any{"content_type": file.ContentType})
	}

	doc, err := s.signable(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	pdf, err := conversion.ComposeSignedUpload(file.Data)
	if err != nil {
		return nil, err
	}
	return s.attachSigned(ctx, doc, caller, "signed", pdf, payloads.SignMethodUpload)
}

func (s *service) DigitallySign(ctx context.Context, callerEmail string, input DigitalSignInput) (*models.Document, error) {
	caller, err := requireIdentity(callerEmail)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.SignatureDataURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "signatureDataUrl is required")
	}

	doc, err := s.signable(ctx, caller, input.DocumentID)
	if err != nil {
		return nil, err
	}
	if url := strings.TrimSpace(input.DocumentURL); url != "" && url != doc.PrimaryArtifactURL {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "documentUrl does not match the document").
			WithDetails(map[string]any{"field": "documentUrl"})
	}

	original, err := s.store.Get(ctx, doc.PrimaryArtifactURL)
	if err != nil {
		return nil, err
	}

	var signed []byte
	if baseContentType(doc.PrimaryContentType) == ContentTypePDF {
		signed, err = s.signer.SignPDF(ctx, original, input.SignatureDataURL, input.Width, input.Height)
	} else {
		signed, err = s.signer.ConvertAndSign(ctx, original, input.SignatureDataURL, input.Width, input.Height)
	}
	if err != nil {
		return nil, err
	}
	return s.attachSigned(ctx, doc, caller, "digitally_signed", signed, payloads.SignMethodDigital)
}

func (s *service) Delete(ctx context.Context, ownerEmail string, id uuid.UUID) error {
	owner, err := requireIdentity(ownerEmail)
	if err != nil {
		return err
	}
	doc, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !IsOwner(doc, owner) {
		return forbidden()
	}

	var cleanup error
	if doc.PrimaryArtifactURL != "" {
		cleanup = multierr.Append(cleanup, s.store.Delete(ctx, doc.PrimaryArtifactURL))
	}
	if doc.SignedArtifactURL != nil && *doc.SignedArtifactURL != "" {
		cleanup = multierr.Append(cleanup, s.store.Delete(ctx, *doc.SignedArtifactURL))
	}
	if cleanup != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"document_id": doc.ID.String(),
			"failures":    len(multierr.Errors(cleanup)),
		})
		s.logg.Error(logCtx, "document blob cleanup incomplete", cleanup)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, doc.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete document")
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDocumentDeleted,
			AggregateType: enums.AggregateDocument,
			AggregateID:   doc.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{Email: owner},
			Data: payloads.DocumentDeletedEvent{
				DocumentID: doc.ID,
				OwnerEmail: doc.OwnerEmail,
				DeletedAt:  s.now(),
			},
		})
	})
	if err != nil {
		return err
	}
	s.metrics.IncTransition(string(enums.EventDocumentDeleted))
	return nil
}

// signable loads a document the caller may sign and checks it awaits a signature.
func (s *service) signable(ctx context.Context, caller string, id uuid.UUID) (*models.Document, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanRead(doc, caller) {
		return nil, forbidden()
	}
	if !doc.HasSignatureRequest() {
		return nil, noSignatureRequest(doc.ID)
	}
	if _, err := nextStatus(doc.Status, EventSign); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *service) attachSigned(ctx context.Context, doc *models.Document, caller, prefix string, pdf []byte, method string) (*models.Document, error) {
	to, err := nextStatus(doc.Status, EventSign)
	if err != nil {
		return nil, err
	}
	url, err := s.store.Put(ctx, artifacts.UniqueName(prefix, "pdf"), ContentTypePDF, pdf)
	if err != nil {
		return nil, err
	}

	doc.Status = to
	doc.SignedArtifactURL = &url
	err = s.update(ctx, doc, outbox.DomainEvent{
		EventType: enums.EventDocumentSigned,
		Actor:     &outbox.ActorRef{Email: caller},
		Data: payloads.DocumentSignedEvent{
			DocumentID:        doc.ID,
			OwnerEmail:        doc.OwnerEmail,
			SignedBy:          caller,
			Method:            method,
			SignedArtifactURL: url,
			SignedAt:          s.now(),
		},
	})
	if err != nil {
		s.discard(ctx, url)
		return nil, err
	}
	s.metrics.IncTransition(string(enums.EventDocumentSigned))
	return doc, nil
}

func (s *service) insert(ctx context.Context, doc *models.Document) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, doc); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create document")
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDocumentCreated,
			AggregateType: enums.AggregateDocument,
			AggregateID:   doc.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{Email: doc.OwnerEmail},
			Data: payloads.DocumentCreatedEvent{
				DocumentID:   doc.ID,
				DocumentType: doc.DocumentType,
				Title:        doc.Title,
				OwnerEmail:   doc.OwnerEmail,
				Status:       doc.Status,
				ArtifactURL:  doc.PrimaryArtifactURL,
			},
		})
	})
	if err != nil {
		return err
	}
	s.metrics.IncTransition(string(enums.EventDocumentCreated))
	return nil
}

// update applies the version-checked write and queues event in one transaction.
func (s *service) update(ctx context.Context, doc *models.Document, event outbox.DomainEvent) error {
	event.AggregateType = enums.AggregateDocument
	event.AggregateID = doc.ID
	event.Version = 1
	snapshot := doc.Version
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateWithVersion(ctx, doc); err != nil {
			return err
		}
		if event.EventType.Repeatable() {
			return s.outbox.Emit(ctx, tx, event)
		}
		return s.outbox.EmitIfNotExists(ctx, tx, event)
	})
	if err == nil {
		return nil
	}
	doc.Version = snapshot
	if errors.Is(err, ErrVersionConflict) {
		return versionConflict(err)
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update document")
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "documentId is required")
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, notFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load document")
	}
	return doc, nil
}

// notifySigner emails the signer; failures are logged and never returned.
func (s *service) notifySigner(ctx context.Context, doc *models.Document) {
	req := notify.SignatureRequest{
		DocumentID:  doc.ID,
		Title:       doc.Title,
		SignerEmail: *doc.SignatureRequestedTo,
	}
	if doc.SignatureMessage != nil {
		req.Message = *doc.SignatureMessage
	}

	data, err := s.store.Get(ctx, doc.PrimaryArtifactURL)
	if err != nil {
		s.warn(ctx, doc, "signature request sent without attachment", err)
	} else {
		req.Attachment = &sendgrid.Attachment{
			FileName:    attachmentName(doc),
			ContentType: doc.PrimaryContentType,
			Data:        data,
		}
	}

	if err := s.notifier.SignatureRequested(ctx, req); err != nil {
		s.metrics.IncNotificationFailure("email")
		s.warn(ctx, doc, "signature request email failed", err)
	}
}

func (s *service) warn(ctx context.Context, doc *models.Document, msg string, err error) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"document_id": doc.ID.String(),
		"error":       err.Error(),
	})
	s.logg.Warn(logCtx, msg)
}

// discard removes an artifact whose record was never written.
func (s *service) discard(ctx context.Context, url string) {
	if err := s.store.Delete(ctx, url); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithField(ctx, "artifact_url", url), "orphaned artifact cleanup failed", err)
	}
}

func (s *service) checkSize(data []byte) error {
	if len(data) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if int64(len(data)) > s.opts.MaxUploadBytes {
		return pkgerrors.New(pkgerrors.CodeValidation, "file exceeds the upload size limit").
			WithDetails(map[string]any{"max_bytes": s.opts.MaxUploadBytes, "size_bytes": len(data)})
	}
	return nil
}

func requireIdentity(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity missing")
	}
	return email, nil
}

func baseContentType(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(value); err == nil {
		return strings.ToLower(parsed)
	}
	return strings.ToLower(value)
}

func allowedUploadTypes() []string {
	return []string{ContentTypePDF, ContentTypeDOCX, ContentTypeDOC, ContentTypeText}
}

func typeLabel(contentType string) string {
	switch contentType {
	case ContentTypePDF:
		return "PDF Document"
	case ContentTypeDOCX, ContentTypeDOC:
		return "Word Document"
	default:
		return "Document"
	}
}

func uploadTitle(title, fileName string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	name := strings.TrimSpace(fileName)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" {
		return "Untitled Document"
	}
	return name
}

func attachmentName(doc *models.Document) string {
	name := path.Base(doc.PrimaryArtifactURL)
	if name == "." || name == "/" {
		return "document"
	}
	return name
}
