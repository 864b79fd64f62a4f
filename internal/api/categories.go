package api

import (
	"context"
	"net/http"
)

// CategoryInput describes a category to create or change. Nil fields are
// not sent.
type CategoryInput struct {
	Name        *string
	Description *string
	Image       *ImageRef
}

func (in CategoryInput) body() map[string]any {
	body := map[string]any{}
	setString(body, "name", in.Name)
	setString(body, "description", in.Description)
	return body
}

// List retrieves all categories of the restaurant.
func (s CategoriesService) List(ctx context.Context, token string) (*Envelope[[]Category], error) {
	return call[[]Category](ctx, s, http.MethodGet, s.endpoints().Categories(), token, nil)
}

// Get retrieves a category by ID.
func (s CategoriesService) Get(ctx context.Context, id, token string) (*Envelope[Category], error) {
	return call[Category](ctx, s, http.MethodGet, s.endpoints().Category(id), token, nil)
}

// Create adds a category, uploading the image when it is a local file.
func (s CategoriesService) Create(ctx context.Context, in CategoryInput, token string) (*Envelope[Category], error) {
	return createCategory(ctx, s, in, token)
}

func createCategory(ctx context.Context, r Requester, in CategoryInput, token string) (*Envelope[Category], error) {
	return callWithImage[Category](ctx, r, http.MethodPost, r.endpoints().Categories(), token, in.body(), "image", in.Image)
}

// Update changes a category. A remote image is left as is; a local one is
// uploaded in a multipart request.
func (s CategoriesService) Update(ctx context.Context, id string, in CategoryInput, token string) (*Envelope[Category], error) {
	return updateCategory(ctx, s, id, in, token)
}

func updateCategory(ctx context.Context, r Requester, id string, in CategoryInput, token string) (*Envelope[Category], error) {
	return callWithImage[Category](ctx, r, http.MethodPut, r.endpoints().Category(id), token, in.body(), "image", in.Image)
}

// Delete removes a category.
func (s CategoriesService) Delete(ctx context.Context, id, token string) (*Envelope[Empty], error) {
	return call[Empty](ctx, s, http.MethodDelete, s.endpoints().Category(id), token, nil)
}
