package imageman

import (
	"encoding/base64"
	"fmt"
	"io"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

type sourceKind int

const (
	streamSource sourceKind = iota // seekable reader, wrapped as-is
	bufferSource                   // raw bytes, materialized once
	preEncodedSource               // caller already base64-encoded the payload
)

// Attachable adapts a byte-producing input into a uniform readable with
// metadata. The input is resolved into exactly one of three variants at
// construction: a seekable stream is wrapped directly, a plain reader or
// byte slice is buffered, and an already base64-encoded string is kept
// as-is. The value is read-only after construction.
type Attachable struct {
	kind    sourceKind
	stream  io.ReadSeeker
	buf     []byte
	encoded string

	filename    string
	contentType string
	size        int64
}

// NewAttachable wraps a reader. A seekable reader (an *os.File, a
// *bytes.Reader) is used in place; anything else is drained into memory.
// filename and contentType are optional: the filename falls back to the
// reader's own name when it has one, the content type to magic-byte
// sniffing on first use.
func NewAttachable(r io.Reader, filename, contentType string) (*Attachable, error) {
	if r == nil {
		return nil, ErrNilAttachable
	}

	if filename == "" {
		if named, ok := r.(interface{ Name() string }); ok {
			filename = filepath.Base(named.Name())
		}
	}

	if rs, ok := r.(io.ReadSeeker); ok {
		size, err := rs.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, fmt.Errorf("sizing attachable: %w", err)
		}
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewinding attachable: %w", err)
		}
		return &Attachable{
			kind:        streamSource,
			stream:      rs,
			filename:    filename,
			contentType: contentType,
			size:        size,
		}, nil
	}

	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("buffering attachable: %w", err)
	}
	return &Attachable{
		kind:        bufferSource,
		buf:         buf,
		filename:    filename,
		contentType: contentType,
		size:        int64(len(buf)),
	}, nil
}

// NewAttachableBytes wraps an in-memory payload.
func NewAttachableBytes(b []byte, filename, contentType string) (*Attachable, error) {
	if b == nil {
		return nil, ErrNilAttachable
	}
	return &Attachable{
		kind:        bufferSource,
		buf:         b,
		filename:    filename,
		contentType: contentType,
		size:        int64(len(b)),
	}, nil
}

// NewAttachableBase64 wraps a payload the caller already encoded with
// standard base64.
func NewAttachableBase64(encoded, filename, contentType string) (*Attachable, error) {
	if encoded == "" {
		return nil, ErrNilAttachable
	}
	size := int64(base64.StdEncoding.DecodedLen(len(encoded)))
	if decoded, err := base64.StdEncoding.DecodeString(encoded); err == nil {
		size = int64(len(decoded))
	}
	return &Attachable{
		kind:        preEncodedSource,
		encoded:     encoded,
		filename:    filename,
		contentType: contentType,
		size:        size,
	}, nil
}

// Read returns the raw bytes of the payload. The underlying stream is
// rewound afterwards, so Read can be repeated.
func (a *Attachable) Read() ([]byte, error) {
	switch a.kind {
	case streamSource:
		if _, err := a.stream.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewinding attachable: %w", err)
		}
		b, err := io.ReadAll(a.stream)
		if err != nil {
			return nil, fmt.Errorf("reading attachable: %w", err)
		}
		if _, err := a.stream.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewinding attachable: %w", err)
		}
		return b, nil
	case preEncodedSource:
		b, err := base64.StdEncoding.DecodeString(a.encoded)
		if err != nil {
			return nil, fmt.Errorf("decoding pre-encoded attachable: %w", err)
		}
		return b, nil
	default:
		return a.buf, nil
	}
}

// ReadAsBase64 returns the payload encoded with standard base64, the
// form inline uploads travel in.
func (a *Attachable) ReadAsBase64() (string, error) {
	if a.kind == preEncodedSource {
		return a.encoded, nil
	}
	b, err := a.Read()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Size is the raw byte length of the payload.
func (a *Attachable) Size() int64 {
	return a.size
}

// SizeAtBase64 is the byte length after base64 expansion - the number
// that counts against the inline-upload threshold, since inline payloads
// go over the wire encoded.
func (a *Attachable) SizeAtBase64() int64 {
	if a.kind == preEncodedSource {
		return int64(len(a.encoded))
	}
	return int64(base64.StdEncoding.EncodedLen(int(a.size)))
}

// Filename returns the explicit or inferred filename, if any.
func (a *Attachable) Filename() string {
	return a.filename
}

// ContentType returns the declared content type, sniffing the payload's
// magic bytes when none was given. Sniffing does not disturb the stream
// position a later Read depends on. The result is cached.
func (a *Attachable) ContentType() (string, error) {
	if a.contentType != "" {
		return a.contentType, nil
	}
	b, err := a.Read()
	if err != nil {
		return "", err
	}
	a.contentType = mimetype.Detect(b).String()
	return a.contentType, nil
}
