package api

import (
	"context"
	"net/http"
)

// OfferInput describes an offer to create or change. Nil fields are not sent.
type OfferInput struct {
	Title                *string
	Description          *string
	DiscountType         *string
	DiscountValue        *float64
	MinOrderValue        *float64
	MaxDiscountAmount    *float64
	UsageLimit           *int
	UsagePerUser         *int
	ValidFrom            *string
	ValidTo              *string
	IsActive             *bool
	ApplicableCategories []string
	ApplicableItems      []string
	TermsAndConditions   *string
	Image                *ImageRef
}

func (in OfferInput) body() map[string]any {
	body := map[string]any{}
	setString(body, "offerTitle", in.Title)
	setString(body, "offerDescription", in.Description)
	setString(body, "discountType", in.DiscountType)
	setString(body, "validFrom", in.ValidFrom)
	setString(body, "validTo", in.ValidTo)
	setString(body, "termsAndConditions", in.TermsAndConditions)
	for key, v := range map[string]*float64{
		"discountValue":     in.DiscountValue,
		"minOrderValue":     in.MinOrderValue,
		"maxDiscountAmount": in.MaxDiscountAmount,
	} {
		if v != nil {
			body[key] = *v
		}
	}
	if in.UsageLimit != nil {
		body["usageLimit"] = *in.UsageLimit
	}
	if in.UsagePerUser != nil {
		body["usagePerUser"] = *in.UsagePerUser
	}
	if in.IsActive != nil {
		body["isActive"] = *in.IsActive
	}
	if in.ApplicableCategories != nil {
		body["applicableCategories"] = in.ApplicableCategories
	}
	if in.ApplicableItems != nil {
		body["applicableItems"] = in.ApplicableItems
	}
	return body
}

// List retrieves all offers, active or not.
func (s OffersService) List(ctx context.Context, token string) (*Envelope[[]Offer], error) {
	return call[[]Offer](ctx, s, http.MethodGet, s.endpoints().OffersAll(), token, nil)
}

// Active retrieves offers currently running.
func (s OffersService) Active(ctx context.Context, token string) (*Envelope[[]Offer], error) {
	return call[[]Offer](ctx, s, http.MethodGet, s.endpoints().OffersActive(), token, nil)
}

// Get retrieves an offer by ID.
func (s OffersService) Get(ctx context.Context, id, token string) (*Envelope[Offer], error) {
	return call[Offer](ctx, s, http.MethodGet, s.endpoints().Offer(id), token, nil)
}

// Create adds an offer; a local image goes up as offerImage.
func (s OffersService) Create(ctx context.Context, in OfferInput, token string) (*Envelope[Offer], error) {
	return callWithImage[Offer](ctx, s, http.MethodPost, s.endpoints().OfferCreate(), token, in.body(), "offerImage", in.Image)
}

// Update changes an offer. Only a local image triggers a multipart upload.
func (s OffersService) Update(ctx context.Context, id string, in OfferInput, token string) (*Envelope[Offer], error) {
	return updateOffer(ctx, s, id, in, token)
}

func updateOffer(ctx context.Context, r Requester, id string, in OfferInput, token string) (*Envelope[Offer], error) {
	return callWithImage[Offer](ctx, r, http.MethodPut, r.endpoints().Offer(id), token, in.body(), "offerImage", in.Image)
}

// Delete removes an offer.
func (s OffersService) Delete(ctx context.Context, id, token string) (*Envelope[Empty], error) {
	return call[Empty](ctx, s, http.MethodDelete, s.endpoints().Offer(id), token, nil)
}
