package render

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/realestate/internal/filestore"
)

const maxFormMemory = 32 << 20

// FieldError is a form field which value can't be parsed
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("Invalid value for field '%s'", e.Field)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Form reads typed values of url encoded or multipart form
// The first parse error is kept and returned by Err, later reads return zero values
type Form struct {
	r   *http.Request
	err error
}

// ParseForm parses request form and writes decoding error on failure
func ParseForm(w http.ResponseWriter, r *http.Request) (*Form, error) {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(maxFormMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		ServiceError(w, "Failed to parse form", http.StatusBadRequest)
		return nil, err
	}

	return &Form{r: r}, nil
}

func (f *Form) Err() error {
	return f.err
}

func (f *Form) fail(field string, err error) {
	if f.err == nil {
		f.err = &FieldError{Field: field, Err: err}
	}
}

func (f *Form) String(field string) string {
	return strings.TrimSpace(f.r.FormValue(field))
}

func (f *Form) Int(field string) int {
	v := f.OptionalInt(field)
	if v == nil {
		return 0
	}
	return *v
}

// Nil if field is empty
func (f *Form) OptionalInt(field string) *int {
	value := f.String(field)
	if value == "" || f.err != nil {
		return nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		f.fail(field, err)
		return nil
	}
	return &n
}

func (f *Form) Float(field string) float64 {
	value := f.String(field)
	if value == "" || f.err != nil {
		return 0
	}

	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		f.fail(field, err)
		return 0
	}
	return n
}

func (f *Form) Decimal(field string) decimal.Decimal {
	value := f.String(field)
	if value == "" || f.err != nil {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		f.fail(field, err)
		return decimal.Zero
	}
	return d
}

func (f *Form) UUID(field string) uuid.UUID {
	value := f.String(field)
	if value == "" || f.err != nil {
		return uuid.Nil
	}

	id, err := uuid.Parse(value)
	if err != nil {
		f.fail(field, err)
		return uuid.Nil
	}
	return id
}

// Files of the multipart field opened for reading
// Call cleanup when uploads are not needed anymore
func (f *Form) Files(field string) (uploads []filestore.Upload, cleanup func()) {
	cleanup = func() {
		for _, u := range uploads {
			if c, ok := u.Content.(multipart.File); ok {
				_ = c.Close()
			}
		}
	}

	if f.r.MultipartForm == nil || f.err != nil {
		return nil, cleanup
	}

	for _, fh := range f.r.MultipartForm.File[field] {
		if fh.Filename == "" {
			continue
		}
		file, err := fh.Open()
		if err != nil {
			f.fail(field, err)
			break
		}
		uploads = append(uploads, filestore.Upload{Name: fh.Filename, Content: file})
	}

	return uploads, cleanup
}

// Single file of the multipart field, nil if not uploaded
func (f *Form) File(field string) (*filestore.Upload, func()) {
	uploads, cleanup := f.Files(field)
	if len(uploads) == 0 {
		return nil, cleanup
	}
	return &uploads[0], cleanup
}

// Write form error, if any, and return it
func (f *Form) Check(w http.ResponseWriter) error {
	if f.err == nil {
		return nil
	}

	var fieldErr *FieldError
	if errors.As(f.err, &fieldErr) {
		DecodeError(w, fieldErr)
	} else {
		ServiceError(w, "Failed to parse form", http.StatusBadRequest)
	}
	return f.err
}
