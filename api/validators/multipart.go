package validators

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	pkgerrors "github.com/lekhapadi/lekhapadi-backend/pkg/errors"
)

// multipart framing allowance on top of the per-file limit
const multipartOverheadBytes = 1 << 20

// UploadedFile is a fully buffered multipart file part.
type UploadedFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Size returns the number of buffered bytes.
func (f UploadedFile) Size() int64 {
	return int64(len(f.Data))
}

// ParseMultipartForm parses the request body, rejecting bodies far beyond
// maxFileBytes with PAYLOAD_TOO_LARGE. Files slightly over the limit still
// parse so the caller can report a validation error.
func ParseMultipartForm(w http.ResponseWriter, r *http.Request, maxFileBytes int64) error {
	hardLimit := 2*maxFileBytes + multipartOverheadBytes
	r.Body = http.MaxBytesReader(w, r.Body, hardLimit)
	if err := r.ParseMultipartForm(maxFileBytes + multipartOverheadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return pkgerrors.Wrap(pkgerrors.CodePayloadTooLarge, err, "request body too large").
				WithDetails(map[string]any{"max_bytes": maxFileBytes})
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	return nil
}

// FormFile reads the named file part into memory. A missing part is a
// validation error.
func FormFile(r *http.Request, field string) (UploadedFile, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return UploadedFile{}, pkgerrors.New(pkgerrors.CodeValidation, "file is required").
			WithDetails(map[string]any{"field": field})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return UploadedFile{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read uploaded file")
	}

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		if guessed := mime.TypeByExtension(strings.ToLower(filepath.Ext(header.Filename))); guessed != "" {
			contentType = guessed
		}
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}

	return UploadedFile{
		FileName:    filepath.Base(header.Filename),
		ContentType: contentType,
		Data:        data,
	}, nil
}
