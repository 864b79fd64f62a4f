package api

import (
	"context"
	"net/http"
)

// List retrieves one page of customer reviews.
func (s ReviewsService) List(ctx context.Context, page, limit int, token string) (*Envelope[ReviewPage], error) {
	return call[ReviewPage](ctx, s, http.MethodGet, s.endpoints().Reviews(page, limit), token, nil)
}

// Stats returns the rating summary.
func (s ReviewsService) Stats(ctx context.Context, token string) (*Envelope[Stats], error) {
	return call[Stats](ctx, s, http.MethodGet, s.endpoints().ReviewStats(), token, nil)
}

// Completed lists orders the kitchen has finished.
func (s OrdersService) Completed(ctx context.Context, token string) (*Envelope[[]CompletedOrder], error) {
	return call[[]CompletedOrder](ctx, s, http.MethodGet, s.endpoints().CompletedOrders(), token, nil)
}
