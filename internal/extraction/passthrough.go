package extraction

import (
	"context"
	"time"

	"visaflow/internal/requirements"
	"visaflow/pkg/fieldset"
)

// Passthrough trusts the values the applicant declared and reports them
// with full confidence. It supports every category and is registered last
// as the fallback.
type Passthrough struct {
	clock func() time.Time
}

func NewPassthrough(clock func() time.Time) *Passthrough {
	if clock == nil {
		clock = time.Now
	}
	return &Passthrough{clock: clock}
}

func (p *Passthrough) ID() string { return "passthrough" }

func (p *Passthrough) Supports(requirements.Category) bool { return true }

func (p *Passthrough) Extract(_ context.Context, upload Upload) (*Result, error) {
	fields := make(map[string]any, len(upload.Declared))
	for k, v := range upload.Declared {
		if fieldset.IsEmpty(v) {
			continue
		}
		fields[k] = map[string]any{"value": fieldset.Unwrap(v), "confidence": 1.0}
	}
	return &Result{
		ProviderID:  p.ID(),
		Category:    upload.Category,
		Fields:      fields,
		Confidence:  1.0,
		ExtractedAt: p.clock().UTC(),
	}, nil
}
