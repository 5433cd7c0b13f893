package devserver

import "context"

// MOCK IMAGE SERVICE

type mockImageService struct {
	createFn func(ctx context.Context, req *CreateRequest) (*ResponseBody, error)
	fetchFn  func(ctx context.Context, idOrRef string) (*ResponseBody, error)
	updateFn func(ctx context.Context, idOrRef string, req *CreateRequest) (*ResponseBody, error)
	deleteFn func(ctx context.Context, idOrRef string) error
}

func (m *mockImageService) Create(ctx context.Context, req *CreateRequest) (*ResponseBody, error) {
	return m.createFn(ctx, req)
}

func (m *mockImageService) Fetch(ctx context.Context, idOrRef string) (*ResponseBody, error) {
	return m.fetchFn(ctx, idOrRef)
}

func (m *mockImageService) Update(ctx context.Context, idOrRef string, req *CreateRequest) (*ResponseBody, error) {
	return m.updateFn(ctx, idOrRef, req)
}

func (m *mockImageService) Delete(ctx context.Context, idOrRef string) error {
	return m.deleteFn(ctx, idOrRef)
}
