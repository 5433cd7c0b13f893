package devserver

import (
	"context"
	"io"
	"sync"
	"time"
)

// ObjectStore keeps the actual bytes and hands out presigned upload
// targets. The dev server backs it with minio; tests back it with a
// mock.
type ObjectStore interface {
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
	Delete(ctx context.Context, key string) error
	PresignPost(ctx context.Context, key, contentType string, expiry time.Duration) (*SignedTarget, error)
}

// Index is the metadata side of the store. The dev server keeps it in
// memory on purpose: it is an integration fixture, not a database.
type Index struct {
	mu      sync.RWMutex
	byUUID  map[string]*Record
	byRef   map[string]*Record
	lastID  int64
	lastVer int64
}

func NewIndex() *Index {
	return &Index{
		byUUID: make(map[string]*Record),
		byRef:  make(map[string]*Record),
	}
}

// NextID hands out record ids.
func (ix *Index) NextID() int64 {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.lastID++
	return ix.lastID
}

// NextVersionID hands out version ids.
func (ix *Index) NextVersionID() int64 {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.lastVer++
	return ix.lastVer
}

// Insert stores a fresh record; ErrDuplicate when the reference is taken.
func (ix *Index) Insert(rec *Record) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if rec.Reference != "" {
		if _, exists := ix.byRef[rec.Reference]; exists {
			return ErrDuplicate
		}
		ix.byRef[rec.Reference] = rec
	}
	ix.byUUID[rec.UUID] = rec
	return nil
}

// Lookup finds a record by uuid or reference, matching the combined
// identity path segment of the wire protocol.
func (ix *Index) Lookup(idOrRef string) (*Record, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if rec, ok := ix.byUUID[idOrRef]; ok {
		return rec, nil
	}
	if rec, ok := ix.byRef[idOrRef]; ok {
		return rec, nil
	}
	return nil, ErrNotFound
}

// Remove drops a record from both lookup paths.
func (ix *Index) Remove(rec *Record) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	delete(ix.byUUID, rec.UUID)
	if rec.Reference != "" {
		delete(ix.byRef, rec.Reference)
	}
}
