package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	apierrors "salespulse/internal/errors"
	"salespulse/internal/services"
)

// multipart field names accepted for uploaded files
var uploadFields = []string{"file", "files"}

const multipartMemory = 32 << 20

// readBatch loads every uploaded file of a multipart request into memory.
// The whole body is capped at maxBytes. A part that cannot be read stays in
// the batch with ReadErr set, so it gets its own outcome.
func readBatch(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]services.UploadedFile, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apierrors.PayloadTooLarge(tooLarge.Limit)
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, apierrors.ErrNoFiles
		}
		return nil, apierrors.InvalidRequestWithError(err)
	}
	defer r.MultipartForm.RemoveAll()

	var batch []services.UploadedFile
	for _, field := range uploadFields {
		for _, fh := range r.MultipartForm.File[field] {
			data, err := readPart(fh)
			batch = append(batch, services.UploadedFile{Name: fh.Filename, Data: data, ReadErr: err})
		}
	}
	return batch, nil
}

// openPart is swapped in tests to simulate unreadable parts.
var openPart = func(fh *multipart.FileHeader) (multipart.File, error) { return fh.Open() }

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := openPart(fh)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}
	return data, nil
}
