package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultPincodeURL is the India Post lookup service.
	DefaultPincodeURL = "https://api.postalpincode.in/pincode/"
	// DefaultPincodeFallbackURL is consulted when the primary lookup fails.
	DefaultPincodeFallbackURL = "https://indianpincodes.co.in/api/pincode/"
)

// ErrPincodeNotFound is returned when neither service knows the pincode.
var ErrPincodeNotFound = errors.New("could not find city and state for this pincode")

// Location is the city and state a pincode resolves to.
type Location struct {
	Pincode string `json:"pincode"`
	City    string `json:"city"`
	State   string `json:"state"`
	Source  string `json:"source"`
}

// PincodeClient resolves Indian postal codes. It talks to public services,
// not the restaurant API, so it carries no token.
type PincodeClient struct {
	PrimaryURL  string
	FallbackURL string
	HTTP        *http.Client
}

// NewPincodeClient returns a client for the public lookup services.
func NewPincodeClient() *PincodeClient {
	return &PincodeClient{
		PrimaryURL:  DefaultPincodeURL,
		FallbackURL: DefaultPincodeFallbackURL,
		HTTP:        &http.Client{Timeout: DefaultTimeout},
	}
}

// Lookup tries the primary service and falls back to the secondary one on
// any failure or empty answer.
func (c *PincodeClient) Lookup(ctx context.Context, pincode string) (*Location, error) {
	pincode = strings.TrimSpace(pincode)
	loc, err := c.lookupPrimary(ctx, pincode)
	if err == nil {
		return loc, nil
	}
	slog.Debug("primary pincode lookup failed", "pincode", pincode, "error", err)

	loc, err = c.lookupFallback(ctx, pincode)
	if err != nil {
		slog.Debug("fallback pincode lookup failed", "pincode", pincode, "error", err)
		return nil, ErrPincodeNotFound
	}
	return loc, nil
}

type postOfficeResponse struct {
	Status     string `json:"Status"`
	Message    string `json:"Message"`
	PostOffice []struct {
		District string `json:"District"`
		Circle   string `json:"Circle"`
		State    string `json:"State"`
	} `json:"PostOffice"`
}

func (c *PincodeClient) lookupPrimary(ctx context.Context, pincode string) (*Location, error) {
	raw, err := c.fetch(ctx, c.PrimaryURL+url.PathEscape(pincode))
	if err != nil {
		return nil, err
	}

	// The service answers with a one-element array, sometimes a bare object.
	var resp postOfficeResponse
	var list []postOfficeResponse
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return nil, fmt.Errorf("empty response")
		}
		resp = list[0]
	} else if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.Status != "Success" || len(resp.PostOffice) == 0 {
		return nil, fmt.Errorf("no post office data: %s", resp.Message)
	}
	po := resp.PostOffice[0]
	city := po.District
	if city == "" {
		city = po.Circle
	}
	return &Location{Pincode: pincode, City: city, State: po.State, Source: "postalpincode.in"}, nil
}

func (c *PincodeClient) lookupFallback(ctx context.Context, pincode string) (*Location, error) {
	raw, err := c.fetch(ctx, c.FallbackURL+url.PathEscape(pincode))
	if err != nil {
		return nil, err
	}
	var resp struct {
		City  string `json:"city"`
		State string `json:"state"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.City == "" || resp.State == "" {
		return nil, fmt.Errorf("missing city or state")
	}
	return &Location{Pincode: pincode, City: resp.City, State: resp.State, Source: "indianpincodes.co.in"}, nil
}

func (c *PincodeClient) fetch(ctx context.Context, u string) ([]byte, error) {
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	start := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	slog.Debug("pincode lookup", "url", u, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
}
