package devserver

import (
	"context"
	"io"
	"time"
)

// MOCK OBJECT STORE

type mockObjectStore struct {
	putFn     func(ctx context.Context, key string, size int64, ct string, r io.Reader) error
	deleteFn  func(ctx context.Context, key string) error
	presignFn func(ctx context.Context, key, ct string, expiry time.Duration) (*SignedTarget, error)
}

func (m *mockObjectStore) Put(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
	if m.putFn == nil {
		return nil
	}
	return m.putFn(ctx, key, size, ct, r)
}

func (m *mockObjectStore) Delete(ctx context.Context, key string) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(ctx, key)
}

func (m *mockObjectStore) PresignPost(ctx context.Context, key, ct string, expiry time.Duration) (*SignedTarget, error) {
	if m.presignFn == nil {
		return &SignedTarget{URL: "http://storage.local/upload", Fields: map[string]string{"key": key}}, nil
	}
	return m.presignFn(ctx, key, ct, expiry)
}

// MOCK NOTIFIER

type mockNotifier struct {
	events []string
}

func (m *mockNotifier) Publish(_ context.Context, event, _ string) error {
	m.events = append(m.events, event)
	return nil
}
