// Package coherence cross-checks the documents of one application against each
// other and against the passport. Pure domain logic - no I/O; the clock is
// injected so identical inputs give identical reports.
package coherence

import (
	"time"

	"visaflow/internal/requirements"
)

// Outcome is the tri-state result of one check.
type Outcome string

const (
	OutcomePass    Outcome = "PASS"
	OutcomeWarning Outcome = "WARNING"
	OutcomeFail    Outcome = "FAIL"
)

// Check codes.
const (
	CodePassportExpired              = "passport_expired"
	CodePassportValidityInsufficient = "passport_validity_insufficient"
	CodePassportValidity             = "passport_validity"
	CodeNameConsistency              = "name_consistency"
	CodeArrivalInPast                = "arrival_in_past"
	CodeDepartureBeforeArrival       = "departure_before_arrival"
	CodeTravelDates                  = "travel_dates"
	CodeHotelDatesMisaligned         = "hotel_dates_misaligned"
	CodeHotelDatesAligned            = "hotel_dates_aligned"
	CodeVaccinationTooRecent         = "vaccination_too_recent"
	CodeVaccinationTiming            = "vaccination_timing"
	CodeStayExceedsLimit             = "stay_exceeds_limit"
	CodeStayDuration                 = "stay_duration"
	CodeMinorDocumentsMissing        = "minor_documents_missing"
	CodeMinorDocumentsComplete       = "minor_documents_complete"
)

// Result is one evaluated check.
type Result struct {
	Code    string             `json:"code"`
	Outcome Outcome            `json:"outcome"`
	Message requirements.Label `json:"message"`
	Details map[string]any     `json:"details,omitempty"`
}

// Report aggregates one validation pass.
type Report struct {
	ID          string    `json:"id,omitempty"`
	Results     []Result  `json:"results"`
	PassCount   int       `json:"pass_count"`
	WarnCount   int       `json:"warn_count"`
	FailCount   int       `json:"fail_count"`
	TotalChecks int       `json:"total_checks"`
	Score       float64   `json:"score"`
	Valid       bool      `json:"valid"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// newReport counts outcomes and computes the score
// (pass + 0.5*warn) / total. A report without checks scores 1.
func newReport(results []Result, at time.Time) Report {
	r := Report{Results: results, EvaluatedAt: at, TotalChecks: len(results)}
	if r.Results == nil {
		r.Results = []Result{}
	}
	for _, res := range results {
		switch res.Outcome {
		case OutcomePass:
			r.PassCount++
		case OutcomeWarning:
			r.WarnCount++
		case OutcomeFail:
			r.FailCount++
		}
	}
	r.Valid = r.FailCount == 0
	r.Score = 1
	if r.TotalChecks > 0 {
		r.Score = (float64(r.PassCount) + 0.5*float64(r.WarnCount)) / float64(r.TotalChecks)
	}
	return r
}

// Failures returns the failing results.
func (r Report) Failures() []Result {
	return r.filter(OutcomeFail)
}

func (r Report) Warnings() []Result {
	return r.filter(OutcomeWarning)
}

func (r Report) filter(o Outcome) []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Outcome == o {
			out = append(out, res)
		}
	}
	return out
}

// Has reports whether a result with code is present.
func (r Report) Has(code string) bool {
	for _, res := range r.Results {
		if res.Code == code {
			return true
		}
	}
	return false
}
