package requirements

import (
	"strings"

	"visaflow/internal/applicant"
)

// Fee is the amount due for an application, in whole currency units.
type Fee struct {
	VisaType         string   `json:"visa_type"`
	Workflow         Workflow `json:"workflow"`
	Base             int      `json:"base"`
	ExpressSurcharge int      `json:"express_surcharge"`
	Total            int      `json:"total"`
	Currency         string   `json:"currency"`
	Free             bool     `json:"free"`
}

// CalculateFee prices an application from its passport category, visa type and
// express flag. Priority-workflow passports are always free.
func (e *Engine) CalculateFee(ctx applicant.Context) Fee {
	return e.catalog.CalculateFee(ctx)
}

// CalculateFee is the catalog-level computation behind Engine.CalculateFee.
func (c *Catalog) CalculateFee(ctx applicant.Context) Fee {
	schedule := c.Fees
	visaType := strings.ToUpper(ctx.String(applicant.KeyVisaType))
	base, ok := schedule.VisaTypes[visaType]
	if !ok {
		visaType = schedule.DefaultVisaType
		base = schedule.VisaTypes[visaType]
	}

	fee := Fee{
		VisaType: visaType,
		Workflow: c.WorkflowFor(ctx.String(applicant.KeyPassportType)),
		Currency: schedule.Currency,
	}
	if fee.Workflow == WorkflowPriority {
		fee.Free = true
		return fee
	}

	fee.Base = base
	if ctx.Bool(applicant.KeyIsExpress) {
		fee.ExpressSurcharge = schedule.ExpressSurcharge
	}
	fee.Total = fee.Base + fee.ExpressSurcharge
	return fee
}

// ProcessingTime returns the expected processing window for the current
// context. Priority categories get a fixed short range; standard ones use their
// matrix range, shortened when express processing was requested.
func (e *Engine) ProcessingTime() DayRange {
	if e.Workflow() == WorkflowPriority {
		return e.catalog.PriorityProcessingDays
	}
	matrix, _ := e.catalog.Matrix(e.ctx.String(applicant.KeyPassportType))
	if e.ctx.Bool(applicant.KeyIsExpress) && matrix.ExpressDays.Max > 0 {
		return matrix.ExpressDays
	}
	return matrix.ProcessingDays
}
