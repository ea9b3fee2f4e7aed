package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// FormFile is one file part of a multipart upload.
type FormFile struct {
	FieldName   string
	FileName    string
	ContentType string
	Data        []byte
}

type formField struct {
	name  string
	value string
}

// Multipart collects form fields and files in insertion order.
type Multipart struct {
	fields []formField
	files  []FormFile
}

// NewMultipart creates an empty form.
func NewMultipart() *Multipart {
	return &Multipart{}
}

// AddField appends a text field.
func (m *Multipart) AddField(name, value string) *Multipart {
	m.fields = append(m.fields, formField{name: name, value: value})
	return m
}

// AddFile appends a file part.
func (m *Multipart) AddFile(f FormFile) *Multipart {
	m.files = append(m.files, f)
	return m
}

// Encode renders the form once. The returned content type carries the boundary.
func (m *Multipart) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range m.fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.name, err)
		}
	}
	for _, f := range m.files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(f.FieldName), escapeQuotes(f.FileName)))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", f.FieldName, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", f.FieldName, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// NewMultipartRequest encodes form into a request whose body is reused
// verbatim on every retry.
func NewMultipartRequest(path string, form *Multipart) (*Request, error) {
	body, contentType, err := form.Encode()
	if err != nil {
		return nil, NewValidationError(err.Error(), "body")
	}
	return &Request{Path: path, Body: body, ContentType: contentType}, nil
}

// NewJSONRequest marshals v as the request body.
func NewJSONRequest(path string, v any) (*Request, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("cannot encode body: %v", err), "body")
	}
	return &Request{Path: path, Body: body, ContentType: contentTypeJSON}, nil
}
