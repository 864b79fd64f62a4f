package api

import (
	"context"
	"net/http"
	"sort"
)

// EndpointResolver exposes the URL registry to resource helpers.
type EndpointResolver interface {
	endpoints() Endpoints
}

// HTTPExecutor performs a single request and decodes the response envelope
// into result.
type HTTPExecutor interface {
	// do sends an optional JSON body.
	do(ctx context.Context, method, url, token string, body any, result any) error

	// doForm sends a streamed multipart body.
	doForm(ctx context.Context, method, url, token string, form *Form, result any) error
}

// Requester combines EndpointResolver and HTTPExecutor. Resource helpers
// depend on it rather than on *Client so tests can substitute either half.
type Requester interface {
	EndpointResolver
	HTTPExecutor
}

func call[T any](ctx context.Context, r HTTPExecutor, method, url, token string, body any) (*Envelope[T], error) {
	var env Envelope[T]
	if err := r.do(ctx, method, url, token, body, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func callForm[T any](ctx context.Context, r HTTPExecutor, method, url, token string, form *Form) (*Envelope[T], error) {
	var env Envelope[T]
	if err := r.doForm(ctx, method, url, token, form, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// callWithImage sends body as JSON with jsonMethod unless image refers to a
// new local file, in which case the same fields go out as a multipart POST
// with the file under imageField. A remote image is already on the server:
// its URL travels as a plain JSON field and is never uploaded as a file.
func callWithImage[T any](ctx context.Context, r HTTPExecutor, jsonMethod, url, token string, body map[string]any, imageField string, image *ImageRef) (*Envelope[T], error) {
	if !image.IsLocal() {
		if u := image.URL(); u != "" {
			body[imageField] = u
		}
		return call[T](ctx, r, jsonMethod, url, token, body)
	}
	form := NewForm()
	for _, k := range sortedKeys(body) {
		form.SetValue(k, body[k])
	}
	form.AddFile(imageField, image.Asset())
	return callForm[T](ctx, r, ImageMethod(jsonMethod, image), url, token, form)
}

// ImageMethod is the method callWithImage sends with: uploads always POST.
func ImageMethod(jsonMethod string, image *ImageRef) string {
	if image.IsLocal() {
		return http.MethodPost
	}
	return jsonMethod
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// setString copies a non-nil optional value into body.
func setString(body map[string]any, key string, v *string) {
	if v != nil {
		body[key] = *v
	}
}
