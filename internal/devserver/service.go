package devserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	objectPrefix    = "images/"
	thumbPrefix     = "thumbs/"
	thumbSide       = 128
	presignLifetime = 15 * time.Minute
)

// Notifier publishes lifecycle events; the dev server wires kafka in
// when a broker is configured and a noop otherwise.
type Notifier interface {
	Publish(ctx context.Context, event string, key string) error
}

// Service implements the image lifecycle over an index and an object
// store.
type Service struct {
	index   *Index
	objects ObjectStore
	events  Notifier
	subject string
}

func NewService(index *Index, objects ObjectStore, events Notifier, subject string) *Service {
	return &Service{index: index, objects: objects, events: events, subject: subject}
}

// Create registers a new image. Inline payloads are decoded, sniffed and
// stored immediately; signed-url requests get a presigned POST target
// instead and the bytes arrive out of band.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*ResponseBody, error) {
	if req.FileName == "" || req.Reference == "" {
		return nil, ErrBadRequest
	}

	now := time.Now().UTC()
	rec := &Record{
		ID:             s.index.NextID(),
		UUID:           uuid.NewString(),
		Reference:      req.Reference,
		FileName:       req.FileName,
		CreatorSubject: s.subject,
		Cacheable:      req.Cacheable,
		CacheDuration:  req.CacheDuration,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if req.SignURLEnable {
		rec.ContentType = req.ContentType
		rec.ObjectKey = objectPrefix + rec.UUID
		if err := s.index.Insert(rec); err != nil {
			return nil, err
		}
		target, err := s.objects.PresignPost(ctx, rec.ObjectKey, req.ContentType, presignLifetime)
		if err != nil {
			s.index.Remove(rec)
			return nil, fmt.Errorf("presigning upload for %q: %w", rec.UUID, err)
		}
		s.appendVersion(rec, now)
		body := payloadOf(rec)
		body.SignedURL = target
		s.notify(ctx, "image.created", rec.UUID)
		return &body, nil
	}

	raw, contentType, err := decodeInlineFile(req.File)
	if err != nil {
		return nil, err
	}
	rec.ContentType = contentType
	rec.ObjectKey = objectPrefix + rec.UUID

	if err := s.index.Insert(rec); err != nil {
		return nil, err
	}
	if err := s.objects.Put(ctx, rec.ObjectKey, int64(len(raw)), contentType, bytes.NewReader(raw)); err != nil {
		s.index.Remove(rec)
		return nil, fmt.Errorf("storing %q: %w", rec.UUID, err)
	}

	s.appendVersion(rec, now)
	s.storeThumbnail(ctx, rec, raw, now)
	s.notify(ctx, "image.created", rec.UUID)

	body := payloadOf(rec)
	return &body, nil
}

// Fetch resolves an image by uuid or reference.
func (s *Service) Fetch(_ context.Context, idOrRef string) (*ResponseBody, error) {
	rec, err := s.index.Lookup(idOrRef)
	if err != nil {
		return nil, err
	}
	body := payloadOf(rec)
	return &body, nil
}

// Update rewrites the mutable attributes and, when a file came along,
// stores it as a new version (or presigns a target for it).
func (s *Service) Update(ctx context.Context, idOrRef string, req *CreateRequest) (*ResponseBody, error) {
	rec, err := s.index.Lookup(idOrRef)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if req.FileName != "" {
		rec.FileName = req.FileName
	}
	if req.Cacheable != nil {
		rec.Cacheable = req.Cacheable
	}
	if req.CacheDuration != nil {
		rec.CacheDuration = req.CacheDuration
	}
	rec.UpdatedAt = now

	switch {
	case req.SignURLEnable:
		target, err := s.objects.PresignPost(ctx, rec.ObjectKey, req.ContentType, presignLifetime)
		if err != nil {
			return nil, fmt.Errorf("presigning upload for %q: %w", rec.UUID, err)
		}
		s.appendVersion(rec, now)
		body := payloadOf(rec)
		body.SignedURL = target
		s.notify(ctx, "image.updated", rec.UUID)
		return &body, nil

	case req.File != "":
		raw, contentType, err := decodeInlineFile(req.File)
		if err != nil {
			return nil, err
		}
		rec.ContentType = contentType
		if err := s.objects.Put(ctx, rec.ObjectKey, int64(len(raw)), contentType, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("storing %q: %w", rec.UUID, err)
		}
		s.appendVersion(rec, now)
		s.storeThumbnail(ctx, rec, raw, now)
	}

	s.notify(ctx, "image.updated", rec.UUID)
	body := payloadOf(rec)
	return &body, nil
}

// Delete removes the record and its stored objects.
func (s *Service) Delete(ctx context.Context, idOrRef string) error {
	rec, err := s.index.Lookup(idOrRef)
	if err != nil {
		return err
	}

	s.index.Remove(rec)
	if rec.ObjectKey != "" {
		if err := s.objects.Delete(ctx, rec.ObjectKey); err != nil {
			return fmt.Errorf("removing object of %q: %w", rec.UUID, err)
		}
		// thumbnail may or may not exist
		_ = s.objects.Delete(ctx, thumbPrefix+rec.UUID)
	}
	s.notify(ctx, "image.deleted", rec.UUID)
	return nil
}

func (s *Service) appendVersion(rec *Record, now time.Time) {
	rec.Versions = append(rec.Versions, VersionRecord{
		ID:             s.index.NextVersionID(),
		VersionID:      int64(len(rec.Versions) + 1),
		S3Key:          rec.ObjectKey,
		ImageID:        rec.ID,
		CreatorSubject: s.subject,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

// storeThumbnail keeps a small preview variant next to the original.
// Failures are logged upstream, never fatal - the fixture should accept
// whatever a real client throws at it.
func (s *Service) storeThumbnail(ctx context.Context, rec *Record, raw []byte, now time.Time) {
	src, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return
	}
	thumb := imaging.Thumbnail(src, thumbSide, thumbSide, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return
	}
	key := thumbPrefix + rec.UUID
	if err := s.objects.Put(ctx, key, int64(buf.Len()), PNG, &buf); err != nil {
		return
	}
	rec.Versions = append(rec.Versions, VersionRecord{
		ID:             s.index.NextVersionID(),
		VersionID:      int64(len(rec.Versions) + 1),
		S3Key:          key,
		ImageID:        rec.ID,
		CreatorSubject: s.subject,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

func (s *Service) notify(ctx context.Context, event, key string) {
	if s.events == nil {
		return
	}
	_ = s.events.Publish(ctx, event, key)
}

// decodeInlineFile decodes the base64 body and sniffs its real type;
// only the image types the service supports pass.
func decodeInlineFile(encoded string) ([]byte, string, error) {
	if encoded == "" {
		return nil, "", ErrBadRequest
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", ErrBadRequest
	}

	contentType := mimetype.Detect(raw).String()
	if !SupportedTypes[contentType] {
		return nil, "", ErrUnsupportedType
	}
	return raw, contentType, nil
}
