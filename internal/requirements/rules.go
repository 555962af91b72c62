package requirements

import (
	"strings"

	"visaflow/internal/applicant"
)

// Rule upgrades document statuses when its condition holds.
//
// Condition must be pure and total: no I/O, no mutation of the context it is
// handed. A condition that panics is treated as malformed; the engine recovers,
// logs it and skips the rule for that recalculation.
//
// Effects can only raise a status. A proposed status lower than the current one
// is ignored, which makes the outcome independent of rule order.
type Rule struct {
	ID          string
	Description string
	Condition   func(applicant.Context) bool
	Effects     map[Code]Status
}

// DefaultRules returns the built-in conditional rule set for a catalog.
func DefaultRules(catalog *Catalog) []Rule {
	return []Rule{
		{
			ID:          "residence_differs_from_nationality",
			Description: "Applicants living outside their country of nationality prove legal residence",
			Condition: func(c applicant.Context) bool {
				nationality := country(c, applicant.KeyNationality)
				residence := country(c, applicant.KeyResidenceCountry)
				return nationality != "" && residence != "" && nationality != residence
			},
			Effects: map[Code]Status{DocResidenceCard: StatusRequired},
		},
		{
			ID:          "vaccination_not_exempt",
			Description: "Nationals of countries outside the exemption list carry a yellow fever certificate",
			Condition: func(c applicant.Context) bool {
				nationality := country(c, applicant.KeyNationality)
				return nationality != "" && !catalog.IsVaccinationExempt(nationality)
			},
			Effects: map[Code]Status{DocVaccination: StatusRequired},
		},
		{
			ID:          "minor_guardian_documents",
			Description: "Minors travel with proof of parental consent and filiation",
			Condition: func(c applicant.Context) bool {
				return c.Bool(applicant.KeyIsMinor)
			},
			Effects: map[Code]Status{
				DocParentalAuth:     StatusRequired,
				DocBirthCertificate: StatusRequired,
				DocParentID:         StatusRequired,
			},
		},
		{
			ID:          "business_trip",
			Description: "Business visitors show an invitation and an employer letter",
			Condition:   valueIs(applicant.KeyTripPurpose, applicant.PurposeBusiness),
			Effects: map[Code]Status{
				DocInvitation:     StatusRequired,
				DocBusinessLetter: StatusRequired,
			},
		},
		{
			ID:          "conference_trip",
			Description: "Conference attendees show the organizer's invitation",
			Condition:   valueIs(applicant.KeyTripPurpose, applicant.PurposeConference),
			Effects:     map[Code]Status{DocInvitation: StatusRequired},
		},
		{
			ID:          "private_accommodation",
			Description: "Guests of a private host show the host's letter and identity",
			Condition: func(c applicant.Context) bool {
				return valueIs(applicant.KeyAccommodationType, applicant.AccommodationPrivate)(c) ||
					valueIs(applicant.KeyTripPurpose, applicant.PurposeFamily)(c)
			},
			Effects: map[Code]Status{
				DocAccommodationLetter: StatusRequired,
				DocHostID:              StatusRequired,
			},
		},
		{
			ID:          "hotel_accommodation",
			Description: "Hotel guests show their booking",
			Condition:   valueIs(applicant.KeyAccommodationType, applicant.AccommodationHotel),
			Effects:     map[Code]Status{DocHotel: StatusRequired},
		},
		{
			ID:          "transit_onward_ticket",
			Description: "Transit visas need the onward ticket",
			Condition:   valueIs(applicant.KeyVisaType, applicant.VisaTransit),
			Effects:     map[Code]Status{DocTicket: StatusRequired},
		},
		{
			ID:          "priority_verbal_note",
			Description: "Priority workflow applications are introduced by a verbal note",
			Condition: func(c applicant.Context) bool {
				m, _ := catalog.Matrix(c.String(applicant.KeyPassportType))
				return c.Has(applicant.KeyPassportType) && m.Workflow == WorkflowPriority
			},
			Effects: map[Code]Status{DocVerbalNote: StatusRequired},
		},
	}
}

func country(c applicant.Context, key string) string {
	return strings.ToUpper(c.String(key))
}

func valueIs(key, want string) func(applicant.Context) bool {
	return func(c applicant.Context) bool {
		return strings.EqualFold(c.String(key), want)
	}
}
