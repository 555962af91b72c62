package extraction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"visaflow/internal/requirements"
	"visaflow/pkg/fieldset"
	"visaflow/pkg/platform/circuit"
)

// HTTPProvider posts uploads to an external OCR service:
//
//	POST {endpoint}
//	{"category": "passport", "file_name": "p.jpg", "format": "jpg", "content": "<base64>"}
//
// and expects {"fields": {"fullName": {"value": "...", "confidence": 0.97}}}.
type HTTPProvider struct {
	id       string
	endpoint string
	client   *http.Client
	breaker  *circuit.Breaker
	clock    func() time.Time
}

type HTTPOption func(*HTTPProvider)

func WithHTTPClient(client *http.Client) HTTPOption {
	return func(p *HTTPProvider) {
		if client != nil {
			p.client = client
		}
	}
}

func WithBreaker(b *circuit.Breaker) HTTPOption {
	return func(p *HTTPProvider) {
		if b != nil {
			p.breaker = b
		}
	}
}

func WithClock(clock func() time.Time) HTTPOption {
	return func(p *HTTPProvider) {
		if clock != nil {
			p.clock = clock
		}
	}
}

func NewHTTPProvider(id, endpoint string, timeout time.Duration, opts ...HTTPOption) *HTTPProvider {
	p := &HTTPProvider{
		id:       id,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		breaker:  circuit.New("extraction-" + id),
		clock:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func (p *HTTPProvider) ID() string { return p.id }

// Supports only categories whose documents carry machine-readable data.
func (p *HTTPProvider) Supports(category requirements.Category) bool {
	return category.Extractable
}

type extractRequest struct {
	Category string `json:"category"`
	FileName string `json:"file_name"`
	Format   string `json:"format"`
	Content  []byte `json:"content"`
}

type extractResponse struct {
	Fields map[string]fieldset.Field `json:"fields"`
}

func (p *HTTPProvider) Extract(ctx context.Context, upload Upload) (*Result, error) {
	if len(upload.Content) == 0 {
		return nil, NewProviderError(ErrorBadData, p.id, "no file content", nil)
	}
	if !p.breaker.Allow() {
		return nil, NewProviderError(ErrorProviderOutage, p.id, "circuit open", nil)
	}

	body, err := json.Marshal(extractRequest{
		Category: string(upload.Category),
		FileName: upload.FileName,
		Format:   upload.Format,
		Content:  upload.Content,
	})
	if err != nil {
		return nil, NewProviderError(ErrorInternal, p.id, "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, NewProviderError(ErrorInternal, p.id, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.breaker.RecordFailure()
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, NewProviderError(ErrorTimeout, p.id, "request timed out", err)
		}
		return nil, NewProviderError(ErrorProviderOutage, p.id, "request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		p.breaker.RecordFailure()
		return nil, NewProviderError(ErrorProviderOutage, p.id, "read response", err)
	}

	res, err := p.parseResponse(resp.StatusCode, payload)
	if err != nil {
		if IsRetryable(err) {
			p.breaker.RecordFailure()
		} else {
			p.breaker.RecordSuccess()
		}
		return nil, err
	}
	p.breaker.RecordSuccess()
	res.Category = upload.Category
	return res, nil
}

func (p *HTTPProvider) parseResponse(status int, body []byte) (*Result, error) {
	switch {
	case status == http.StatusOK:
	case status == http.StatusTooManyRequests:
		return nil, NewProviderError(ErrorRateLimited, p.id, "rate limited", nil)
	case status == http.StatusUnsupportedMediaType:
		return nil, NewProviderError(ErrorUnsupportedFormat, p.id, "format rejected by provider", nil)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return nil, NewProviderError(ErrorBadData, p.id, "document unreadable", nil)
	case status >= 500:
		return nil, NewProviderError(ErrorProviderOutage, p.id, fmt.Sprintf("status %d", status), nil)
	default:
		return nil, NewProviderError(ErrorInternal, p.id, fmt.Sprintf("unexpected status %d", status), nil)
	}

	var decoded extractResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, NewProviderError(ErrorBadData, p.id, "malformed response", err)
	}

	fields := make(map[string]any, len(decoded.Fields))
	var sum float64
	for k, f := range decoded.Fields {
		conf := f.Confidence
		if conf < 0 {
			conf = 0
		}
		if conf > 1 {
			conf = 1
		}
		fields[k] = map[string]any{"value": f.Value, "confidence": conf}
		sum += conf
	}
	overall := 0.0
	if len(fields) > 0 {
		overall = sum / float64(len(fields))
	}
	return &Result{
		ProviderID:  p.id,
		Fields:      fields,
		Confidence:  overall,
		ExtractedAt: p.clock().UTC(),
	}, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
