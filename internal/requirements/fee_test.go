package requirements

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"visaflow/internal/applicant"
)

func TestCalculateFee(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name string
		ctx  applicant.Context
		want Fee
	}{
		{
			name: "ordinary tourist",
			ctx:  applicant.Context{applicant.KeyPassportType: "ORDINARY", applicant.KeyVisaType: "TOURIST"},
			want: Fee{VisaType: "TOURIST", Workflow: WorkflowStandard, Base: 82, Total: 82, Currency: "USD"},
		},
		{
			name: "ordinary business express",
			ctx: applicant.Context{
				applicant.KeyPassportType: "ORDINARY",
				applicant.KeyVisaType:     "business",
				applicant.KeyIsExpress:    true,
			},
			want: Fee{VisaType: "BUSINESS", Workflow: WorkflowStandard, Base: 152, ExpressSurcharge: 50, Total: 202, Currency: "USD"},
		},
		{
			name: "unknown visa type uses default",
			ctx:  applicant.Context{applicant.KeyVisaType: "SPACE"},
			want: Fee{VisaType: "TOURIST", Workflow: WorkflowStandard, Base: 82, Total: 82, Currency: "USD"},
		},
		{
			name: "diplomatic is free even with express",
			ctx: applicant.Context{
				applicant.KeyPassportType: "DIPLOMATIC",
				applicant.KeyVisaType:     "BUSINESS",
				applicant.KeyIsExpress:    true,
			},
			want: Fee{VisaType: "BUSINESS", Workflow: WorkflowPriority, Currency: "USD", Free: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.CalculateFee(tt.ctx))
		})
	}
}

func TestProcessingTime(t *testing.T) {
	t.Run("standard uses matrix range", func(t *testing.T) {
		engine := NewEngine()
		engine.SetContext(map[string]any{applicant.KeyPassportType: "ORDINARY"})
		assert.Equal(t, DayRange{Min: 3, Max: 5}, engine.ProcessingTime())
	})

	t.Run("express shortens standard range", func(t *testing.T) {
		engine := NewEngine()
		engine.SetContext(map[string]any{applicant.KeyPassportType: "ORDINARY", applicant.KeyIsExpress: "yes"})
		assert.Equal(t, DayRange{Min: 2, Max: 3}, engine.ProcessingTime())
	})

	t.Run("priority collapses to fixed range", func(t *testing.T) {
		engine := NewEngine()
		engine.SetContext(map[string]any{applicant.KeyPassportType: "SERVICE", applicant.KeyIsExpress: true})
		assert.Equal(t, DayRange{Min: 1, Max: 2}, engine.ProcessingTime())
	})
}
