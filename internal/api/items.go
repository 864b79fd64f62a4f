package api

import (
	"context"
	"fmt"
	"net/http"
)

// Order count actions.
const (
	OrderCountSet       = "set"
	OrderCountIncrement = "increment"
	OrderCountDecrement = "decrement"
)

// ItemInput describes an item to create or change. Nil fields are not sent.
type ItemInput struct {
	Name         *string
	Description  *string
	Category     *string
	ItemCategory *string
	Price        *float64
	Availability *string
	IsDietMeal   *bool
	IsVegetarian *bool
	Calories     *int
	Image        *ImageRef
}

func (in ItemInput) body() map[string]any {
	body := map[string]any{}
	setString(body, "name", in.Name)
	setString(body, "description", in.Description)
	setString(body, "category", in.Category)
	setString(body, "itemCategory", in.ItemCategory)
	setString(body, "availability", in.Availability)
	if in.Price != nil {
		body["price"] = *in.Price
	}
	if in.IsDietMeal != nil {
		body["isDietMeal"] = *in.IsDietMeal
	}
	if in.IsVegetarian != nil {
		body["isVegetarian"] = *in.IsVegetarian
	}
	if in.Calories != nil {
		body["calories"] = *in.Calories
	}
	return body
}

// List retrieves every menu item.
func (s ItemsService) List(ctx context.Context, token string) (*Envelope[[]Item], error) {
	return call[[]Item](ctx, s, http.MethodGet, s.endpoints().Items(), token, nil)
}

// Get retrieves an item by ID.
func (s ItemsService) Get(ctx context.Context, id, token string) (*Envelope[Item], error) {
	return call[Item](ctx, s, http.MethodGet, s.endpoints().Item(id), token, nil)
}

// Create adds an item, uploading its image when local.
func (s ItemsService) Create(ctx context.Context, in ItemInput, token string) (*Envelope[Item], error) {
	return callWithImage[Item](ctx, s, http.MethodPost, s.endpoints().Items(), token, in.body(), "image", in.Image)
}

// Update changes an item. Only a local image triggers a multipart upload.
func (s ItemsService) Update(ctx context.Context, id string, in ItemInput, token string) (*Envelope[Item], error) {
	return updateItem(ctx, s, id, in, token)
}

func updateItem(ctx context.Context, r Requester, id string, in ItemInput, token string) (*Envelope[Item], error) {
	return callWithImage[Item](ctx, r, http.MethodPut, r.endpoints().Item(id), token, in.body(), "image", in.Image)
}

// Delete removes an item.
func (s ItemsService) Delete(ctx context.Context, id, token string) (*Envelope[Empty], error) {
	return call[Empty](ctx, s, http.MethodDelete, s.endpoints().Item(id), token, nil)
}

// ToggleAvailability flips the item between available and unavailable.
func (s ItemsService) ToggleAvailability(ctx context.Context, id, token string) (*Envelope[Item], error) {
	return toggleItem(ctx, s, id, token)
}

func toggleItem(ctx context.Context, r Requester, id, token string) (*Envelope[Item], error) {
	return call[Item](ctx, r, http.MethodPut, r.endpoints().ItemToggle(id), token, map[string]any{})
}

// UpdateOrderCount sets or adjusts the item's total order counter.
func (s ItemsService) UpdateOrderCount(ctx context.Context, id string, totalOrder int, action, token string) (*Envelope[Item], error) {
	switch action {
	case OrderCountSet, OrderCountIncrement, OrderCountDecrement:
	default:
		return nil, NewValidationError("action", action, []string{OrderCountSet, OrderCountIncrement, OrderCountDecrement})
	}
	body := map[string]any{"action": action}
	if action == OrderCountSet || totalOrder != 0 {
		body["totalOrder"] = totalOrder
	}
	return call[Item](ctx, s, http.MethodPut, s.endpoints().ItemOrderCount(id), token, body)
}

// BestSellers lists the most ordered items. limit <= 0 uses the server default.
func (s ItemsService) BestSellers(ctx context.Context, limit int, token string) (*Envelope[[]Item], error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	return call[[]Item](ctx, s, http.MethodGet, s.endpoints().ItemBestSellers(limit), token, nil)
}

// Stats returns item statistics.
func (s ItemsService) Stats(ctx context.Context, token string) (*Envelope[Stats], error) {
	return call[Stats](ctx, s, http.MethodGet, s.endpoints().ItemStats(), token, nil)
}
