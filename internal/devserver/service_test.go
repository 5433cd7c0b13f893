package devserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func encodedPNG(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4)))
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// pngHeader sniffs as image/png but does not decode.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// CREATE - SUCCESS

func TestService_Create_Inline(t *testing.T) {
	var stored []string
	objects := &mockObjectStore{
		putFn: func(_ context.Context, key string, _ int64, _ string, _ io.Reader) error {
			stored = append(stored, key)
			return nil
		},
	}
	events := &mockNotifier{}
	svc := NewService(NewIndex(), objects, events, "user://tester")

	body, err := svc.Create(t.Context(), &CreateRequest{
		FileName:  "cat.png",
		Reference: "ref-1",
		File:      encodedPNG(t),
	})
	require.NoError(t, err)

	require.NotEmpty(t, body.UUID)
	require.Equal(t, "cat.png", body.FileName)
	require.Equal(t, "ref-1", body.Reference)
	require.Equal(t, "user://tester", body.CreatorSubject)
	require.Nil(t, body.SignedURL)

	// original plus thumbnail
	require.Equal(t, []string{objectPrefix + body.UUID, thumbPrefix + body.UUID}, stored)
	require.Len(t, body.Versions, 2)
	require.Equal(t, objectPrefix+body.UUID, body.Versions[0].S3Key)
	require.Equal(t, thumbPrefix+body.UUID, body.Versions[1].S3Key)

	require.Equal(t, []string{"image.created"}, events.events)
}

func TestService_Create_ThumbnailSkippedOnUndecodable(t *testing.T) {
	var stored []string
	objects := &mockObjectStore{
		putFn: func(_ context.Context, key string, _ int64, _ string, _ io.Reader) error {
			stored = append(stored, key)
			return nil
		},
	}
	svc := NewService(NewIndex(), objects, nil, "user://tester")

	body, err := svc.Create(t.Context(), &CreateRequest{
		FileName:  "broken.png",
		Reference: "ref-1",
		File:      base64.StdEncoding.EncodeToString(pngHeader),
	})
	require.NoError(t, err)
	require.Len(t, body.Versions, 1)
	require.Equal(t, []string{objectPrefix + body.UUID}, stored)
}

func TestService_Create_Signed(t *testing.T) {
	presigned := false
	objects := &mockObjectStore{
		putFn: func(context.Context, string, int64, string, io.Reader) error {
			t.Fatal("signed create must not store inline")
			return nil
		},
		presignFn: func(_ context.Context, key, ct string, expiry time.Duration) (*SignedTarget, error) {
			presigned = true
			require.Equal(t, "image/jpeg", ct)
			require.Equal(t, presignLifetime, expiry)
			return &SignedTarget{URL: "http://storage.local/up", Fields: map[string]string{"key": key}}, nil
		},
	}
	svc := NewService(NewIndex(), objects, nil, "user://tester")

	body, err := svc.Create(t.Context(), &CreateRequest{
		FileName:      "big.jpg",
		Reference:     "ref-1",
		SignURLEnable: true,
		ContentType:   "image/jpeg",
	})
	require.NoError(t, err)
	require.True(t, presigned)
	require.NotNil(t, body.SignedURL)
	require.Equal(t, "http://storage.local/up", body.SignedURL.URL)
	require.Len(t, body.Versions, 1)
}

// CREATE - FAIL

func TestService_Create_MissingFields(t *testing.T) {
	svc := NewService(NewIndex(), &mockObjectStore{}, nil, "user://tester")

	_, err := svc.Create(t.Context(), &CreateRequest{Reference: "ref-1", File: encodedPNG(t)})
	require.ErrorIs(t, err, ErrBadRequest)

	_, err = svc.Create(t.Context(), &CreateRequest{FileName: "cat.png", File: encodedPNG(t)})
	require.ErrorIs(t, err, ErrBadRequest)
}

func TestService_Create_DuplicateReference(t *testing.T) {
	svc := NewService(NewIndex(), &mockObjectStore{}, nil, "user://tester")

	req := &CreateRequest{FileName: "cat.png", Reference: "ref-1", File: encodedPNG(t)}
	_, err := svc.Create(t.Context(), req)
	require.NoError(t, err)

	_, err = svc.Create(t.Context(), req)
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestService_Create_UnsupportedType(t *testing.T) {
	svc := NewService(NewIndex(), &mockObjectStore{}, nil, "user://tester")

	_, err := svc.Create(t.Context(), &CreateRequest{
		FileName:  "notes.txt",
		Reference: "ref-1",
		File:      base64.StdEncoding.EncodeToString([]byte("plain text, not an image")),
	})
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestService_Create_InsertRolledBackOnStoreError(t *testing.T) {
	objects := &mockObjectStore{
		putFn: func(context.Context, string, int64, string, io.Reader) error {
			return io.ErrUnexpectedEOF
		},
	}
	svc := NewService(NewIndex(), objects, nil, "user://tester")

	_, err := svc.Create(t.Context(), &CreateRequest{
		FileName:  "cat.png",
		Reference: "ref-1",
		File:      encodedPNG(t),
	})
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// the reference must be free again
	objects.putFn = nil
	_, err = svc.Create(t.Context(), &CreateRequest{
		FileName:  "cat.png",
		Reference: "ref-1",
		File:      encodedPNG(t),
	})
	require.NoError(t, err)
}

// FETCH

func TestService_Fetch(t *testing.T) {
	svc := NewService(NewIndex(), &mockObjectStore{}, nil, "user://tester")
	created, err := svc.Create(t.Context(), &CreateRequest{
		FileName:  "cat.png",
		Reference: "ref-1",
		File:      encodedPNG(t),
	})
	require.NoError(t, err)

	byUUID, err := svc.Fetch(t.Context(), created.UUID)
	require.NoError(t, err)
	require.Equal(t, created.UUID, byUUID.UUID)

	byRef, err := svc.Fetch(t.Context(), "ref-1")
	require.NoError(t, err)
	require.Equal(t, created.UUID, byRef.UUID)

	_, err = svc.Fetch(t.Context(), "no-such-image")
	require.ErrorIs(t, err, ErrNotFound)
}

// UPDATE

func TestService_Update_Attributes(t *testing.T) {
	events := &mockNotifier{}
	svc := NewService(NewIndex(), &mockObjectStore{}, events, "user://tester")
	created, err := svc.Create(t.Context(), &CreateRequest{
		FileName:  "cat.png",
		Reference: "ref-1",
		File:      encodedPNG(t),
	})
	require.NoError(t, err)

	cacheable := false
	duration := 600
	updated, err := svc.Update(t.Context(), created.UUID, &CreateRequest{
		FileName:      "renamed.png",
		Cacheable:     &cacheable,
		CacheDuration: &duration,
	})
	require.NoError(t, err)
	require.Equal(t, "renamed.png", updated.FileName)
	require.Len(t, updated.Versions, len(created.Versions))
	require.Equal(t, []string{"image.created", "image.updated"}, events.events)
}

func TestService_Update_InlineFile(t *testing.T) {
	var stored []string
	objects := &mockObjectStore{
		putFn: func(_ context.Context, key string, _ int64, _ string, _ io.Reader) error {
			stored = append(stored, key)
			return nil
		},
	}
	svc := NewService(NewIndex(), objects, nil, "user://tester")
	created, err := svc.Create(t.Context(), &CreateRequest{
		FileName:  "cat.png",
		Reference: "ref-1",
		File:      encodedPNG(t),
	})
	require.NoError(t, err)

	updated, err := svc.Update(t.Context(), created.UUID, &CreateRequest{File: encodedPNG(t)})
	require.NoError(t, err)
	require.Greater(t, len(updated.Versions), len(created.Versions))
	require.Len(t, stored, 4) // two originals, two thumbnails
}

func TestService_Update_NotFound(t *testing.T) {
	svc := NewService(NewIndex(), &mockObjectStore{}, nil, "user://tester")
	_, err := svc.Update(t.Context(), "no-such-image", &CreateRequest{FileName: "x.png"})
	require.ErrorIs(t, err, ErrNotFound)
}

// DELETE

func TestService_Delete(t *testing.T) {
	var removed []string
	objects := &mockObjectStore{
		deleteFn: func(_ context.Context, key string) error {
			removed = append(removed, key)
			return nil
		},
	}
	events := &mockNotifier{}
	svc := NewService(NewIndex(), objects, events, "user://tester")
	created, err := svc.Create(t.Context(), &CreateRequest{
		FileName:  "cat.png",
		Reference: "ref-1",
		File:      encodedPNG(t),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(t.Context(), created.UUID))
	require.Equal(t, []string{objectPrefix + created.UUID, thumbPrefix + created.UUID}, removed)
	require.Contains(t, events.events, "image.deleted")

	_, err = svc.Fetch(t.Context(), created.UUID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_Delete_NotFound(t *testing.T) {
	svc := NewService(NewIndex(), &mockObjectStore{}, nil, "user://tester")
	err := svc.Delete(t.Context(), "no-such-image")
	require.ErrorIs(t, err, ErrNotFound)
}
