package imageman

import (
	"context"
	"fmt"
)

const apiPath = "/api/v1/images"

// signedURLThreshold is the largest base64-encoded payload that still
// travels inline in the create/update body. Anything strictly larger is
// routed through a presigned direct upload to keep big binaries off the
// primary API path.
const signedURLThreshold = 3 << 20

// Image is the image resource as the service knows it. Name, Cacheable
// and CacheDuration are caller-mutable; everything else is assigned by
// the server and overwritten wholesale whenever a response comes back.
// An Image is not safe for concurrent mutation.
type Image struct {
	ID             int64
	UUID           string
	Reference      string
	Name           string
	CreatorSubject string
	Cacheable      *bool
	CacheDuration  *int
	Versions       []Version
	CreatedAt      string
	UpdatedAt      string

	client *Client
}

// CreateOptions names the image being created. Identity comes either
// from a content Reference (Name then defaults to the reference's name)
// or from an explicit ReferenceHash plus Name - in that branch both are
// required.
type CreateOptions struct {
	Reference     *Reference
	ReferenceHash string
	Name          string
	CacheDuration *int
	Cacheable     *bool // nil means true
	UseSignedURL  bool
	ContentType   string // declared type sent along with a signed-url request
}

// UpdateOptions tunes how a file update travels.
type UpdateOptions struct {
	UseSignedURL bool
	ContentType  string
}

// FetchOptions selects an existing image by content reference or UUID.
// At least one must be given.
type FetchOptions struct {
	Reference     *Reference
	ReferenceHash string
	UUID          string
}

// imageRequest is the create/update wire body. Absent fields are
// omitted, not sent as null.
type imageRequest struct {
	FileName      string `json:"fileName,omitempty"`
	File          string `json:"file,omitempty"`
	Reference     string `json:"reference,omitempty"`
	CacheDuration *int   `json:"cache_duration,omitempty"`
	Cacheable     *bool  `json:"cacheable,omitempty"`
	SignURLEnable bool   `json:"sign_url_enable,omitempty"`
	ContentType   string `json:"content_type,omitempty"`
}

// imagePayload is the response wire shape. The server keys some fields
// under different names than the local ones (UUID, fileName).
type imagePayload struct {
	ID             int64      `json:"id"`
	UUID           string     `json:"UUID"`
	FileName       string     `json:"fileName"`
	Reference      string     `json:"reference"`
	CreatorSubject string     `json:"creator_subject"`
	Cacheable      *bool      `json:"cacheable"`
	CacheDuration  *int       `json:"cache_duration"`
	Versions       []Version  `json:"versions"`
	SignedURL      *SignedURL `json:"signed_url"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at"`
}

// Create uploads a new image and returns the persisted resource. Small
// payloads go inline as base64; payloads whose encoded size exceeds
// signedURLThreshold (or an explicit UseSignedURL) first obtain a
// presigned target from the service and upload there. The returned
// resource reflects the metadata of the create response.
func (c *Client) Create(ctx context.Context, att *Attachable, opts CreateOptions) (*Image, error) {
	reference, name, err := resolveDetails(opts)
	if err != nil {
		return nil, err
	}
	if att == nil {
		return nil, ErrNilAttachable
	}

	cacheable := opts.Cacheable
	if cacheable == nil {
		enabled := true
		cacheable = &enabled
	}

	img := &Image{
		Name:          name,
		Reference:     reference,
		CacheDuration: opts.CacheDuration,
		Cacheable:     cacheable,
		client:        c,
	}
	if err := img.uploadAndCreate(ctx, att, opts.UseSignedURL, opts.ContentType); err != nil {
		return nil, err
	}
	return img, nil
}

// FetchBy loads an existing image by reference or UUID.
func (c *Client) FetchBy(ctx context.Context, opts FetchOptions) (*Image, error) {
	reference := opts.ReferenceHash
	if opts.Reference != nil {
		reference = opts.Reference.Hash()
	}
	if reference == "" && opts.UUID == "" {
		return nil, fmt.Errorf("expect either reference or uuid, both got none: %w", ErrArgument)
	}

	img := &Image{Reference: reference, UUID: opts.UUID, client: c}
	if _, err := img.Reload(ctx); err != nil {
		return nil, err
	}
	return img, nil
}

// Persisted reports whether the resource exists on the server side, i.e.
// carries a UUID or a reference.
func (img *Image) Persisted() bool {
	return img.UUID != "" || img.Reference != ""
}

// Reload fetches the current server state and overwrites every local
// field. Returns false without a network call when the resource is not
// persisted.
func (img *Image) Reload(ctx context.Context) (bool, error) {
	if !img.Persisted() {
		return false, nil
	}

	res, err := img.client.conn.Get(ctx, img.persistedPath())
	if err != nil {
		return false, err
	}
	var payload imagePayload
	if err := res.DecodeJSON(&payload); err != nil {
		return false, err
	}
	img.reconcile(payload)
	return true, nil
}

// Update re-issues the mutable attributes (name, cacheable, cache
// duration) and, when an attachable is given, replaces the file using
// the same inline/presigned decision as Create. Returns false without a
// network call when the resource is not persisted.
func (img *Image) Update(ctx context.Context, att *Attachable, opts UpdateOptions) (bool, error) {
	if !img.Persisted() {
		return false, nil
	}

	body := imageRequest{
		FileName:      img.Name,
		CacheDuration: img.CacheDuration,
		Cacheable:     img.Cacheable,
	}
	if err := img.send(ctx, img.persistedPath(), body, att, opts.UseSignedURL, opts.ContentType); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the server record. The local fields are deliberately
// left in place - deletion is an operation, not a state the object
// tracks. Returns false without a network call when not persisted.
func (img *Image) Delete(ctx context.Context) (bool, error) {
	if !img.Persisted() {
		return false, nil
	}
	if _, err := img.client.conn.Delete(ctx, img.persistedPath()); err != nil {
		return false, err
	}
	return true, nil
}

func (img *Image) uploadAndCreate(ctx context.Context, att *Attachable, useSignedURL bool, declaredType string) error {
	body := imageRequest{
		FileName:      img.Name,
		Reference:     img.Reference,
		CacheDuration: img.CacheDuration,
		Cacheable:     img.Cacheable,
	}
	return img.send(ctx, apiPath, body, att, useSignedURL, declaredType)
}

// send carries both create and update: fill in the file part of the
// body according to the upload strategy, issue the request, run the
// direct upload when one was arranged, then reconcile from the first
// response. A failed exchange leaves local state untouched.
func (img *Image) send(ctx context.Context, path string, body imageRequest, att *Attachable, useSignedURL bool, declaredType string) error {
	signed := false
	if att != nil {
		signed = useSignedURL || att.SizeAtBase64() > signedURLThreshold
		if signed {
			contentType := declaredType
			if contentType == "" {
				ct, err := att.ContentType()
				if err != nil {
					return err
				}
				contentType = ct
			}
			body.SignURLEnable = true
			body.ContentType = contentType
		} else {
			encoded, err := att.ReadAsBase64()
			if err != nil {
				return err
			}
			body.File = encoded
		}
	}

	res, err := img.client.conn.Post(ctx, path, body)
	if err != nil {
		return err
	}
	var payload imagePayload
	if err := res.DecodeJSON(&payload); err != nil {
		return err
	}

	if signed {
		if payload.SignedURL == nil {
			return fmt.Errorf("service returned no signed upload target: %w", ErrSignedURL)
		}
		if err := payload.SignedURL.Upload(ctx, img.client.conn, att); err != nil {
			return err
		}
	}

	img.reconcile(payload)
	return nil
}

// reconcile overwrites the full attribute set from a server response.
// Never a partial merge: fields the response omits go back to zero.
func (img *Image) reconcile(payload imagePayload) {
	img.ID = payload.ID
	img.UUID = payload.UUID
	img.Name = payload.FileName
	img.Reference = payload.Reference
	img.CreatorSubject = payload.CreatorSubject
	img.Cacheable = payload.Cacheable
	img.CacheDuration = payload.CacheDuration
	img.Versions = payload.Versions
	img.CreatedAt = payload.CreatedAt
	img.UpdatedAt = payload.UpdatedAt
}

func (img *Image) persistedPath() string {
	id := img.UUID
	if id == "" {
		id = img.Reference
	}
	return apiPath + "/" + id
}

func resolveDetails(opts CreateOptions) (reference, name string, err error) {
	if opts.Reference != nil {
		name = opts.Name
		if name == "" {
			name = opts.Reference.Name
		}
		return opts.Reference.Hash(), name, nil
	}
	if opts.Name == "" {
		return "", "", fmt.Errorf("expected a value of name: %w", ErrArgument)
	}
	if opts.ReferenceHash == "" {
		return "", "", fmt.Errorf("expected a value of reference: %w", ErrArgument)
	}
	return opts.ReferenceHash, opts.Name, nil
}
