package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultFileType is assumed when an asset carries no MIME type.
const DefaultFileType = "image/jpeg"

// FileAsset is a reference to a local file picked by the user. The bytes are
// streamed from URI when the request is sent, never loaded up front.
type FileAsset struct {
	URI  string `json:"uri"`
	Type string `json:"type,omitempty"`
	Name string `json:"name,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// NewFileAsset builds an asset for a local path, inferring the name and size.
func NewFileAsset(path string) (FileAsset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileAsset{}, err
	}
	if info.IsDir() {
		return FileAsset{}, fmt.Errorf("%s is a directory", path)
	}
	return FileAsset{
		URI:  path,
		Type: mimeTypeForPath(path),
		Name: filepath.Base(path),
		Size: info.Size(),
	}, nil
}

func mimeTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".heic":
		return "image/heic"
	case ".pdf":
		return "application/pdf"
	default:
		return DefaultFileType
	}
}

// LocalPath resolves the asset URI to a filesystem path.
func (a FileAsset) LocalPath() (string, error) {
	if strings.HasPrefix(a.URI, "file://") {
		u, err := url.Parse(a.URI)
		if err != nil {
			return "", fmt.Errorf("invalid file uri %q: %w", a.URI, err)
		}
		return u.Path, nil
	}
	return a.URI, nil
}

// openAsset is swapped in tests.
var openAsset = func(a FileAsset) (io.ReadCloser, error) {
	path, err := a.LocalPath()
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

type formField struct {
	key   string
	value string
}

type formFile struct {
	field string
	asset FileAsset
}

// Form is an ordered multipart body description. Only string fields and file
// references are held; encoding happens while the request is in flight.
type Form struct {
	fields []formField
	files  []formFile
}

// NewForm returns an empty form.
func NewForm() *Form {
	return &Form{}
}

// Set appends a string field unconditionally.
func (f *Form) Set(key, value string) {
	f.fields = append(f.fields, formField{key: key, value: value})
}

// SetValue appends v encoded as a string. Nil values and nil pointers are
// skipped so an absent field never reaches the wire.
func (f *Form) SetValue(key string, v any) {
	s, ok := formString(v)
	if !ok {
		return
	}
	f.Set(key, s)
}

func formString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case *string:
		if t == nil {
			return "", false
		}
		return *t, true
	case bool:
		return strconv.FormatBool(t), true
	case *bool:
		if t == nil {
			return "", false
		}
		return strconv.FormatBool(*t), true
	case int:
		return strconv.Itoa(t), true
	case *int:
		if t == nil {
			return "", false
		}
		return strconv.Itoa(*t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case *float64:
		if t == nil {
			return "", false
		}
		return strconv.FormatFloat(*t, 'f', -1, 64), true
	case decimal.Decimal:
		return t.String(), true
	case *decimal.Decimal:
		if t == nil {
			return "", false
		}
		return t.String(), true
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), true
	case *time.Time:
		if t == nil {
			return "", false
		}
		return t.UTC().Format(time.RFC3339Nano), true
	default:
		// Slices and nested objects travel as JSON text.
		b, err := json.Marshal(t)
		if err != nil || string(b) == "null" {
			return "", false
		}
		return string(b), true
	}
}

// AddFile appends a file part. Nil assets and assets without a URI are skipped.
func (f *Form) AddFile(field string, asset *FileAsset) {
	if asset == nil || asset.URI == "" {
		return
	}
	f.files = append(f.files, formFile{field: field, asset: *asset})
}

// Has reports whether a text field with the given key is present.
func (f *Form) Has(key string) bool {
	_, ok := f.Value(key)
	return ok
}

// Value returns the first text value for key.
func (f *Form) Value(key string) (string, bool) {
	for _, fld := range f.fields {
		if fld.key == key {
			return fld.value, true
		}
	}
	return "", false
}

// Keys lists text field keys in insertion order.
func (f *Form) Keys() []string {
	keys := make([]string, 0, len(f.fields))
	for _, fld := range f.fields {
		keys = append(keys, fld.key)
	}
	return keys
}

// FileFields lists file part names in insertion order, repeats included.
func (f *Form) FileFields() []string {
	names := make([]string, 0, len(f.files))
	for _, ff := range f.files {
		names = append(names, ff.field)
	}
	return names
}

// Encode starts streaming the form and returns the body reader together with
// the boundary-bearing content type. The caller must consume or close the
// reader; any file error surfaces as a read error.
func (f *Form) Encode() (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(f.writeTo(mw))
	}()
	return pr, mw.FormDataContentType()
}

func (f *Form) writeTo(mw *multipart.Writer) error {
	for _, fld := range f.fields {
		if err := mw.WriteField(fld.key, fld.value); err != nil {
			return fmt.Errorf("failed to write field %s: %w", fld.key, err)
		}
	}
	for _, ff := range f.files {
		if err := writeFilePart(mw, ff); err != nil {
			return err
		}
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(mw *multipart.Writer, ff formFile) error {
	name := ff.asset.Name
	if name == "" {
		name = ff.field
	}
	ctype := ff.asset.Type
	if ctype == "" {
		ctype = DefaultFileType
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(ff.field), quoteEscaper.Replace(name)))
	h.Set("Content-Type", ctype)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create form file %s: %w", ff.field, err)
	}

	src, err := openAsset(ff.asset)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", ff.field, err)
	}
	defer func() { _ = src.Close() }()

	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("failed to stream %s: %w", ff.field, err)
	}
	return nil
}

// ImageRef is either an image already hosted by the backend or a local file
// that still has to be uploaded.
type ImageRef struct {
	remote string
	local  *FileAsset
}

// RemoteImage references an image that already lives on the server.
func RemoteImage(u string) *ImageRef {
	return &ImageRef{remote: u}
}

// LocalImage references a local file to upload.
func LocalImage(asset FileAsset) *ImageRef {
	return &ImageRef{local: &asset}
}

// ParseImageRef classifies user input: http(s) URLs are remote, anything else
// is treated as a local path and must exist.
func ParseImageRef(s string) (*ImageRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return RemoteImage(s), nil
	}
	path := s
	if strings.HasPrefix(lower, "file://") {
		path = (FileAsset{URI: s}).mustPath()
	}
	asset, err := NewFileAsset(path)
	if err != nil {
		return nil, err
	}
	return LocalImage(asset), nil
}

func (a FileAsset) mustPath() string {
	p, err := a.LocalPath()
	if err != nil {
		return a.URI
	}
	return p
}

// IsLocal reports whether the image must be uploaded.
func (r *ImageRef) IsLocal() bool {
	return r != nil && r.local != nil
}

// Asset returns the local file, or nil for remote images.
func (r *ImageRef) Asset() *FileAsset {
	if r == nil {
		return nil
	}
	return r.local
}

// URL returns the remote URL, or "" for local images.
func (r *ImageRef) URL() string {
	if r == nil {
		return ""
	}
	return r.remote
}
