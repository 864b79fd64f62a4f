package api

import (
	"context"
	"net/http"
)

// PlanInput describes a subscription plan to create or change.
type PlanInput struct {
	Name           *string
	PricePerWeek   *float64
	Features       []string
	WeeklyMeals    any
	MaxSubscribers *int
	IsRecommended  *bool
	IsPopular      *bool
}

func (in PlanInput) body() map[string]any {
	body := map[string]any{}
	setString(body, "name", in.Name)
	if in.PricePerWeek != nil {
		body["pricePerWeek"] = *in.PricePerWeek
	}
	if in.Features != nil {
		body["features"] = in.Features
	}
	if in.WeeklyMeals != nil {
		body["weeklyMeals"] = in.WeeklyMeals
	}
	if in.MaxSubscribers != nil {
		body["maxSubscribers"] = *in.MaxSubscribers
	}
	if in.IsRecommended != nil {
		body["isRecommended"] = *in.IsRecommended
	}
	if in.IsPopular != nil {
		body["isPopular"] = *in.IsPopular
	}
	return body
}

// MealUpdate replaces the dishes for one day and meal slot.
type MealUpdate struct {
	Day      string `json:"day"`
	MealType string `json:"mealType"`
	Meals    []Meal `json:"meals"`
}

// List retrieves plans with pagination info.
func (s PlansService) List(ctx context.Context, token string) (*Envelope[PlanList], error) {
	return call[PlanList](ctx, s, http.MethodGet, s.endpoints().Plans(), token, nil)
}

// Get retrieves a plan by ID.
func (s PlansService) Get(ctx context.Context, id, token string) (*Envelope[Plan], error) {
	return call[Plan](ctx, s, http.MethodGet, s.endpoints().Plan(id), token, nil)
}

// Create adds a plan.
func (s PlansService) Create(ctx context.Context, in PlanInput, token string) (*Envelope[Plan], error) {
	return call[Plan](ctx, s, http.MethodPost, s.endpoints().Plans(), token, in.body())
}

// Update changes a plan.
func (s PlansService) Update(ctx context.Context, id string, in PlanInput, token string) (*Envelope[Plan], error) {
	return call[Plan](ctx, s, http.MethodPut, s.endpoints().Plan(id), token, in.body())
}

// Delete removes a plan.
func (s PlansService) Delete(ctx context.Context, id, token string) (*Envelope[Empty], error) {
	return call[Empty](ctx, s, http.MethodDelete, s.endpoints().Plan(id), token, nil)
}

// ToggleAvailability opens or closes a plan for new subscribers.
func (s PlansService) ToggleAvailability(ctx context.Context, id, token string) (*Envelope[Plan], error) {
	return call[Plan](ctx, s, http.MethodPut, s.endpoints().PlanToggle(id), token, map[string]any{})
}

// Stats returns subscription statistics for one plan.
func (s PlansService) Stats(ctx context.Context, id, token string) (*Envelope[Stats], error) {
	return call[Stats](ctx, s, http.MethodGet, s.endpoints().PlanStats(id), token, nil)
}

// AllStats returns statistics across every plan.
func (s PlansService) AllStats(ctx context.Context, token string) (*Envelope[Stats], error) {
	return call[Stats](ctx, s, http.MethodGet, s.endpoints().PlansStats(), token, nil)
}

// UpdateMeal replaces the meals of one day and slot.
func (s PlansService) UpdateMeal(ctx context.Context, id string, meal MealUpdate, token string) (*Envelope[Plan], error) {
	return call[Plan](ctx, s, http.MethodPut, s.endpoints().PlanMeals(id), token, meal)
}

// AddFeature appends a feature line to a plan.
func (s PlansService) AddFeature(ctx context.Context, id, feature, token string) (*Envelope[Plan], error) {
	return call[Plan](ctx, s, http.MethodPost, s.endpoints().PlanFeatures(id), token, map[string]any{"feature": feature})
}

// RemoveFeature deletes a feature line. The feature travels in the body.
func (s PlansService) RemoveFeature(ctx context.Context, id, feature, token string) (*Envelope[Plan], error) {
	return call[Plan](ctx, s, http.MethodDelete, s.endpoints().PlanFeatures(id), token, map[string]any{"feature": feature})
}
