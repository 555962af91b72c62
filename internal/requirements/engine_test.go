package requirements

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"visaflow/internal/applicant"
)

type EngineSuite struct {
	suite.Suite
	engine *Engine
	logs   *bytes.Buffer
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.logs = &bytes.Buffer{}
	s.engine = NewEngine(WithLogger(slog.New(slog.NewTextHandler(s.logs, nil))))
}

func (s *EngineSuite) TestStandardApplicant() {
	s.engine.SetContext(map[string]any{
		applicant.KeyPassportType:     "ORDINARY",
		applicant.KeyNationality:      "KEN",
		applicant.KeyResidenceCountry: "KEN",
	})

	s.Equal(StatusNotApplicable, s.engine.DocumentRequirement(DocResidenceCard))
	s.Equal(StatusRequired, s.engine.DocumentRequirement(DocVaccination))
	s.True(s.engine.IsRequired(DocPassport))
	s.False(s.engine.IsApplicable(DocVerbalNote))
	s.Equal(WorkflowStandard, s.engine.Workflow())
}

func (s *EngineSuite) TestCrossNationalityRequiresResidenceCard() {
	s.engine.SetContext(map[string]any{
		applicant.KeyNationality:      "FRA",
		applicant.KeyResidenceCountry: "ETH",
	})

	s.Equal(StatusRequired, s.engine.DocumentRequirement(DocResidenceCard))
	// FRA is on the exemption list; the base RECOMMENDED stays
	s.Equal(StatusRecommended, s.engine.DocumentRequirement(DocVaccination))
}

func (s *EngineSuite) TestUnknownPassportTypeFallsBackToDefault() {
	s.engine.SetContext(map[string]any{applicant.KeyPassportType: "MARTIAN"})

	s.Equal(StatusRequired, s.engine.DocumentRequirement(DocTicket))
	s.Equal(WorkflowStandard, s.engine.Workflow())
	s.Contains(s.logs.String(), "unknown passport type")
}

func (s *EngineSuite) TestPassportTypeIsCaseInsensitive() {
	s.engine.SetContext(map[string]any{applicant.KeyPassportType: "diplomatic"})

	s.Equal(WorkflowPriority, s.engine.Workflow())
	s.Equal(StatusRequired, s.engine.DocumentRequirement(DocVerbalNote))
	s.Equal(StatusOptional, s.engine.DocumentRequirement(DocTicket))
}

func (s *EngineSuite) TestMinorRequiresGuardianDocuments() {
	s.engine.SetContext(map[string]any{applicant.KeyIsMinor: true})

	for _, code := range []Code{DocParentalAuth, DocBirthCertificate, DocParentID} {
		s.Equal(StatusRequired, s.engine.DocumentRequirement(code), code)
	}
}

func (s *EngineSuite) TestAccessorsRecomputeLazily() {
	fresh := NewEngine()
	s.Equal(StatusRequired, fresh.DocumentRequirement(DocPassport))
	s.Contains(fresh.RequiredDocuments(), DocPassport)
	s.Contains(fresh.ConditionalDocuments(), DocHotel)
	s.Contains(fresh.OptionalDocuments(), DocInsurance)
}

func (s *EngineSuite) TestListsFollowDisplayPriority() {
	s.engine.SetContext(map[string]any{
		applicant.KeyNationality: "KEN",
		applicant.KeyIsMinor:     true,
	})

	required := s.engine.RequiredDocuments()
	s.Equal([]Code{
		DocPassport, DocPhoto, DocTicket, DocVaccination,
		DocParentalAuth, DocBirthCertificate, DocParentID,
	}, required)
}

func (s *EngineSuite) TestRecalculateIsIdempotent() {
	s.engine.SetContext(map[string]any{
		applicant.KeyNationality:       "NGA",
		applicant.KeyResidenceCountry:  "GHA",
		applicant.KeyTripPurpose:       applicant.PurposeBusiness,
		applicant.KeyAccommodationType: applicant.AccommodationPrivate,
	})

	first := s.engine.Recalculate()
	second := s.engine.Recalculate()
	s.Equal(first, second)
}

func (s *EngineSuite) TestMalformedRuleIsSkipped() {
	rules := []Rule{
		{
			ID:        "explodes",
			Condition: func(applicant.Context) bool { panic("bad rule") },
			Effects:   map[Code]Status{DocInsurance: StatusRequired},
		},
		{ID: "no_condition", Effects: map[Code]Status{DocInsurance: StatusRequired}},
		{
			ID:        "still_runs",
			Condition: func(applicant.Context) bool { return true },
			Effects:   map[Code]Status{DocHotel: StatusRequired},
		},
	}
	engine := NewEngine(WithRules(rules), WithLogger(slog.New(slog.NewTextHandler(s.logs, nil))))

	statuses := engine.Recalculate()
	s.Equal(StatusRecommended, statuses[DocInsurance])
	s.Equal(StatusRequired, statuses[DocHotel])
	s.Contains(s.logs.String(), "skipping malformed rule")
	s.Contains(s.logs.String(), "explodes")
}

func (s *EngineSuite) TestRulesNeverDowngrade() {
	rules := []Rule{{
		ID:        "exemption",
		Condition: func(applicant.Context) bool { return true },
		Effects:   map[Code]Status{DocPassport: StatusOptional, DocTicket: StatusNotApplicable},
	}}
	engine := NewEngine(WithRules(rules))

	s.Equal(StatusRequired, engine.DocumentRequirement(DocPassport))
	s.Equal(StatusRequired, engine.DocumentRequirement(DocTicket))
}

func (s *EngineSuite) TestContextListenersRunInOrder() {
	var calls []string
	s.engine.OnContextChanged(func(c applicant.Context) {
		calls = append(calls, "first:"+c.String(applicant.KeyNationality))
	})
	s.engine.OnContextChanged(func(applicant.Context) {
		// requirement set is already recomputed when listeners run
		calls = append(calls, "second:"+string(s.engine.DocumentRequirement(DocVaccination)))
	})

	s.engine.SetContext(map[string]any{applicant.KeyNationality: "KEN"})

	s.Equal([]string{"first:KEN", "second:REQUIRED"}, calls)
}

func (s *EngineSuite) TestResetClearsContext() {
	s.engine.SetContext(map[string]any{applicant.KeyNationality: "FRA", applicant.KeyResidenceCountry: "ETH"})
	s.engine.Reset()

	s.Empty(s.engine.Context())
	s.Equal(StatusNotApplicable, s.engine.DocumentRequirement(DocResidenceCard))
}

func (s *EngineSuite) TestContextReturnsCopy() {
	s.engine.SetContext(map[string]any{applicant.KeyNationality: "KEN"})
	c := s.engine.Context()
	c[applicant.KeyNationality] = "FRA"

	s.Equal("KEN", s.engine.Context().String(applicant.KeyNationality))
}

// Reordering rules must not change the outcome: every permutation of the
// built-in rule set yields the same map, equal to max(base, triggered effects).
func TestRuleOrderDoesNotMatter(t *testing.T) {
	catalog := DefaultCatalog()
	rules := DefaultRules(catalog)
	// overlapping effects on invitation and ticket make order observable if the
	// merge were not upgrade-only
	rules = append(rules,
		Rule{ID: "weak_invitation", Condition: func(applicant.Context) bool { return true },
			Effects: map[Code]Status{DocInvitation: StatusRecommended, DocTicket: StatusOptional}},
		Rule{ID: "conditional_invitation", Condition: func(applicant.Context) bool { return true },
			Effects: map[Code]Status{DocInvitation: StatusConditional}},
	)

	contexts := []map[string]any{
		{applicant.KeyNationality: "KEN", applicant.KeyResidenceCountry: "KEN"},
		{applicant.KeyNationality: "FRA", applicant.KeyResidenceCountry: "ETH", applicant.KeyTripPurpose: applicant.PurposeBusiness},
		{applicant.KeyPassportType: "LAISSEZ_PASSER", applicant.KeyIsMinor: true, applicant.KeyVisaType: applicant.VisaTransit},
		{applicant.KeyTripPurpose: applicant.PurposeConference, applicant.KeyAccommodationType: applicant.AccommodationHotel},
	}

	for _, ctx := range contexts {
		expected := expectedStatuses(catalog, rules, applicant.Context(ctx))
		permute(rules, func(order []Rule) {
			engine := NewEngine(WithRules(order))
			engine.SetContext(ctx)
			got := engine.Statuses()
			for code, want := range expected {
				if got[code] != want {
					t.Fatalf("context %v: %s = %s, want %s", ctx, code, got[code], want)
				}
			}
		}, 200)
	}
}

func expectedStatuses(catalog *Catalog, rules []Rule, ctx applicant.Context) map[Code]Status {
	matrix, _ := catalog.Matrix(ctx.String(applicant.KeyPassportType))
	out := map[Code]Status{}
	for _, cat := range catalog.Categories {
		out[cat.Code] = StatusNotApplicable
	}
	for code, st := range matrix.Documents {
		out[code] = st
	}
	for _, r := range rules {
		if r.Condition(ctx) {
			for code, st := range r.Effects {
				out[code] = Max(out[code], st)
			}
		}
	}
	return out
}

// permute calls fn with up to limit permutations of rules (Heap's algorithm).
func permute(rules []Rule, fn func([]Rule), limit int) {
	a := append([]Rule(nil), rules...)
	c := make([]int, len(a))
	fn(append([]Rule(nil), a...))
	count := 1
	i := 0
	for i < len(a) && count < limit {
		if c[i] < i {
			if i%2 == 0 {
				a[0], a[i] = a[i], a[0]
			} else {
				a[c[i]], a[i] = a[i], a[c[i]]
			}
			fn(append([]Rule(nil), a...))
			count++
			c[i]++
			i = 0
		} else {
			c[i] = 0
			i++
		}
	}
	// always include the fully reversed order
	reversed := make([]Rule, len(rules))
	for j := range rules {
		reversed[len(rules)-1-j] = rules[j]
	}
	fn(reversed)
}
