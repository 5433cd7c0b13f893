package imageman

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
)

// SignedURL is a one-time presigned direct-upload target: the URL plus
// whatever form fields the storage backend demands. Issued by the
// service, used once, never against the service's own domain.
type SignedURL struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

// Upload sends the attachable as a multipart form to the presigned
// target: the required fields first, then the content type and the raw
// bytes. Failures surface as ErrSignedURL through the interceptor chain.
func (s *SignedURL) Upload(ctx context.Context, conn *Connection, att *Attachable) error {
	if s.URL == "" {
		return fmt.Errorf("expect an url, got none: %w", ErrArgument)
	}
	if att == nil {
		return ErrNilAttachable
	}

	contentType, err := att.ContentType()
	if err != nil {
		return err
	}
	raw, err := att.Read()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	for key, value := range s.Fields {
		if err := form.WriteField(key, value); err != nil {
			return fmt.Errorf("building upload form: %w", err)
		}
	}
	if err := form.WriteField("Content-Type", contentType); err != nil {
		return fmt.Errorf("building upload form: %w", err)
	}
	file, err := form.CreateFormFile("file", att.Filename())
	if err != nil {
		return fmt.Errorf("building upload form: %w", err)
	}
	if _, err := file.Write(raw); err != nil {
		return fmt.Errorf("building upload form: %w", err)
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("building upload form: %w", err)
	}

	_, err = conn.PostRaw(ctx, s.URL, buf.Bytes(), form.FormDataContentType())
	return err
}
