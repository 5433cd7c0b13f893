// Package devserver is an in-process implementation of the imageman
// wire protocol, meant for local development and integration testing of
// clients. It keeps its index in memory and its bytes in an object
// store; it is a fixture, not a production service.
package devserver

import (
	"errors"
	"time"
)

// Wire error codes the real service uses on 400 responses.
const (
	CodeDuplicateImage   = 1002
	CodeFileNotSupported = 1003
)

var (
	ErrDuplicate       = errors.New("an image with this reference already exists") // 400 / 1002
	ErrUnsupportedType = errors.New("file type is not supported")                  // 400 / 1003
	ErrBadRequest      = errors.New("malformed image request")                     // 400
	ErrNotFound        = errors.New("image does not exist")                        // 404
	ErrInternal        = errors.New("something went wrong, try again later")       // 500
)

// Record is an image as the dev server knows it.
type Record struct {
	ID             int64
	UUID           string
	Reference      string
	FileName       string
	CreatorSubject string
	Cacheable      *bool
	CacheDuration  *int
	ContentType    string
	ObjectKey      string
	Versions       []VersionRecord
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// VersionRecord is one stored variant of a record.
type VersionRecord struct {
	ID             int64     `json:"id"`
	VersionID      int64     `json:"version_id"`
	S3Key          string    `json:"s3_key"`
	ImageID        int64     `json:"image_id"`
	CreatorSubject string    `json:"creator_subject"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

// CreateRequest mirrors the client's create/update body.
type CreateRequest struct {
	FileName      string `json:"fileName"`
	File          string `json:"file"`
	Reference     string `json:"reference"`
	CacheDuration *int   `json:"cache_duration"`
	Cacheable     *bool  `json:"cacheable"`
	SignURLEnable bool   `json:"sign_url_enable"`
	ContentType   string `json:"content_type"`
}

// SignedTarget is the presigned upload target handed back when the
// client asked for one.
type SignedTarget struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

// ResponseBody is the wire shape of a successful image response.
type ResponseBody struct {
	ID             int64             `json:"id"`
	UUID           string            `json:"UUID"`
	FileName       string            `json:"fileName"`
	Reference      string            `json:"reference"`
	CreatorSubject string            `json:"creator_subject"`
	Versions       []VersionPayload  `json:"versions,omitempty"`
	SignedURL      *SignedTarget     `json:"signed_url,omitempty"`
	CreatedAt      string            `json:"created_at,omitempty"`
	UpdatedAt      string            `json:"updated_at,omitempty"`
}

// VersionPayload is the wire shape of one version entry.
type VersionPayload struct {
	ID             int64  `json:"id"`
	VersionID      int64  `json:"version_id"`
	S3Key          string `json:"s3_key"`
	ImageID        int64  `json:"image_id"`
	CreatorSubject string `json:"creator_subject"`
	CreatedAt      string `json:"created_at,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

// ErrorBody is the wire shape of a failed response.
type ErrorBody struct {
	RequestID  string `json:"request_id,omitempty"`
	Message    string `json:"message,omitempty"`
	Reason     string `json:"reason,omitempty"`
	StatusCode int    `json:"httpStatusCode,omitempty"`
	ErrorCode  int    `json:"errorCode,omitempty"`
}

// Allowed inline upload types.
const (
	JPEG = "image/jpeg"
	PNG  = "image/png"
	GIF  = "image/gif"
)

var SupportedTypes = map[string]bool{
	JPEG: true,
	PNG:  true,
	GIF:  true,
}

func payloadOf(rec *Record) ResponseBody {
	body := ResponseBody{
		ID:             rec.ID,
		UUID:           rec.UUID,
		FileName:       rec.FileName,
		Reference:      rec.Reference,
		CreatorSubject: rec.CreatorSubject,
		CreatedAt:      rec.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      rec.UpdatedAt.UTC().Format(time.RFC3339),
	}
	for _, v := range rec.Versions {
		body.Versions = append(body.Versions, VersionPayload{
			ID:             v.ID,
			VersionID:      v.VersionID,
			S3Key:          v.S3Key,
			ImageID:        v.ImageID,
			CreatorSubject: v.CreatorSubject,
			CreatedAt:      v.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt:      v.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return body
}
