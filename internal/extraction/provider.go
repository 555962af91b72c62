// Package extraction turns uploaded documents into extraction-shaped field
// sets ({value, confidence}) that the interview stores per document
// category. Providers are pluggable; the registry picks the first one that
// supports a category and falls through to the next on retryable failures.
package extraction

import (
	"context"
	"fmt"
	"time"

	"visaflow/internal/requirements"
)

// Upload is one document submitted by the applicant. Declared carries
// values the applicant typed in, used by providers that do not read files.
type Upload struct {
	Category requirements.Code `json:"category"`
	FileName string            `json:"file_name"`
	Format   string            `json:"format"`
	Content  []byte            `json:"content,omitempty"`
	Declared map[string]any    `json:"declared,omitempty"`
}

// Result is what a provider read from one upload.
type Result struct {
	ProviderID  string            `json:"provider_id"`
	Category    requirements.Code `json:"category"`
	Fields      map[string]any    `json:"fields"`
	Confidence  float64           `json:"confidence"`
	ExtractedAt time.Time         `json:"extracted_at"`
}

type Provider interface {
	ID() string
	Supports(category requirements.Category) bool
	Extract(ctx context.Context, upload Upload) (*Result, error)
}

// Registry keeps providers in registration order.
type Registry struct {
	catalog   *requirements.Catalog
	providers []Provider
	byID      map[string]Provider
	maxBytes  int
}

type RegistryOption func(*Registry)

// WithMaxBytes caps accepted upload sizes.
func WithMaxBytes(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxBytes = n
		}
	}
}

func NewRegistry(catalog *requirements.Catalog, opts ...RegistryOption) *Registry {
	if catalog == nil {
		catalog = requirements.DefaultCatalog()
	}
	r := &Registry{catalog: catalog, byID: make(map[string]Provider), maxBytes: 10 << 20}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Registry) Register(p Provider) error {
	id := p.ID()
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("provider %s already registered", id)
	}
	r.byID[id] = p
	r.providers = append(r.providers, p)
	return nil
}

func (r *Registry) Get(id string) (Provider, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// For lists the providers able to read a category, in preference order.
func (r *Registry) For(category requirements.Category) []Provider {
	var out []Provider
	for _, p := range r.providers {
		if p.Supports(category) {
			out = append(out, p)
		}
	}
	return out
}

// Extract validates the upload and runs it through the supporting
// providers until one succeeds or a non-retryable error occurs.
func (r *Registry) Extract(ctx context.Context, upload Upload) (*Result, error) {
	category, err := r.Validate(upload)
	if err != nil {
		return nil, err
	}
	candidates := r.For(category)
	if len(candidates) == 0 {
		return nil, NewProviderError(ErrorUnsupportedCategory, "registry",
			fmt.Sprintf("no extraction provider for %s", upload.Category), ErrNoProvidersAvailable)
	}

	var lastErr error
	for _, p := range candidates {
		res, err := p.Extract(ctx, upload)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !IsRetryable(err) || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// Validate checks the category is known and the file format is one the
// category accepts.
func (r *Registry) Validate(upload Upload) (requirements.Category, error) {
	category, ok := r.catalog.Category(upload.Category)
	if !ok {
		return requirements.Category{}, NewProviderError(ErrorUnsupportedCategory, "registry",
			fmt.Sprintf("unknown document category %q", upload.Category), nil)
	}
	if upload.Format == "" && len(upload.Content) == 0 {
		// declared-only submission
		return category, nil
	}
	if !category.AcceptsFormat(upload.Format) {
		return requirements.Category{}, NewProviderError(ErrorUnsupportedFormat, "registry",
			fmt.Sprintf("format %q is not accepted for %s", upload.Format, upload.Category), nil)
	}
	if len(upload.Content) > r.maxBytes {
		return requirements.Category{}, NewProviderError(ErrorBadData, "registry",
			fmt.Sprintf("file exceeds %d bytes", r.maxBytes), nil)
	}
	return category, nil
}
