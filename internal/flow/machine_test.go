package flow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"visaflow/internal/applicant"
	"visaflow/internal/requirements"
	dErrors "visaflow/pkg/domain-errors"
)

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type MachineSuite struct {
	suite.Suite
	machine *Machine
}

func TestMachineSuite(t *testing.T) {
	suite.Run(t, new(MachineSuite))
}

func (s *MachineSuite) SetupTest() {
	s.machine = NewMachine(requirements.NewEngine(), WithClock(fixedClock))
}

// linear builds a machine over a small catalog where every step is visible.
func linear(steps ...Step) *Machine {
	return NewMachine(requirements.NewEngine(), WithCatalog(MustCatalog(steps...)), WithClock(fixedClock))
}

func (s *MachineSuite) identityData() map[string]any {
	return map[string]any{
		applicant.KeyFullName:       "Amina Wanjiru",
		applicant.KeyDateOfBirth:    "1990-04-12",
		applicant.KeyNationality:    "KEN",
		applicant.KeyPassportNumber: "AK1234567",
		applicant.KeyPassportExpiry: "2031-01-01",
	}
}

func (s *MachineSuite) TestStartsOnFirstVisibleStep() {
	step, ok := s.machine.CurrentStep()
	s.Require().True(ok)
	s.Equal(StepPassportType, step.ID)
	s.Equal(StatusActive, s.machine.Status(StepPassportType))
	s.Equal(StatusPending, s.machine.Status(StepIdentity))
	s.False(s.machine.IsComplete())
}

func (s *MachineSuite) TestCompleteCurrentStep() {
	s.Run("folds declared contributions into the context", func() {
		next, err := s.machine.CompleteCurrentStep(map[string]any{
			applicant.KeyPassportType: applicant.PassportOrdinary,
			"comment":                 "first trip",
		})
		s.Require().NoError(err)
		s.Require().NotNil(next)
		s.Equal(StepIdentity, next.ID)

		ctx := s.machine.Context()
		s.Equal(applicant.PassportOrdinary, ctx.String(applicant.KeyPassportType))
		s.False(ctx.Has("comment"))

		data, ok := s.machine.StepData(StepPassportType)
		s.Require().True(ok)
		s.Equal("first trip", data.String("comment"))
		s.Equal(StatusCompleted, s.machine.Status(StepPassportType))
		s.Equal(StatusActive, s.machine.Status(StepIdentity))
		s.Equal([]HistoryEntry{{StepID: StepPassportType, Action: ActionCompleted, At: fixedNow}}, s.machine.History())
	})

	s.Run("missing contributions of a required step are rejected", func() {
		_, err := s.machine.CompleteCurrentStep(map[string]any{applicant.KeyFullName: "Amina Wanjiru"})
		s.Require().Error(err)

		var verr *ValidationError
		s.Require().True(errors.As(err, &verr))
		s.Equal(StepIdentity, verr.StepID)
		s.Len(verr.Fields, 4)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		step, _ := s.machine.CurrentStep()
		s.Equal(StepIdentity, step.ID, "a rejected submission leaves the cursor in place")
		s.False(s.machine.Context().Has(applicant.KeyFullName))
	})

	s.Run("contributions recompute requirements", func() {
		_, err := s.machine.CompleteCurrentStep(s.identityData())
		s.Require().NoError(err)
		s.Equal(requirements.StatusRequired, s.machine.Engine().DocumentRequirement(requirements.DocVaccination))
		s.True(s.machine.IsRequired(StepVaccination))
	})
}

func (s *MachineSuite) TestSkipCurrentStep() {
	s.Run("required step cannot be skipped", func() {
		_, err := s.machine.SkipCurrentStep("later")
		s.Require().ErrorIs(err, ErrRequiredStep)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		s.Equal(StatusActive, s.machine.Status(StepPassportType))
	})

	s.Run("optional step records the reason and advances", func() {
		m := linear(
			Step{ID: "a", Order: 1, Required: Never()},
			Step{ID: "b", Order: 2},
		)
		next, err := m.SkipCurrentStep("not travelling with one")
		s.Require().NoError(err)
		s.Equal("b", next.ID)
		s.Equal(StatusSkipped, m.Status("a"))

		data, _ := m.StepData("a")
		s.Equal(applicant.Context{"skipped": true, "reason": "not travelling with one"}, data)
	})

	s.Run("skip is allowed once the context makes the step optional", func() {
		m := linear(
			Step{ID: "a", Order: 1, Required: Not(Truthy("exempt"))},
			Step{ID: "b", Order: 2},
		)
		_, err := m.SkipCurrentStep("later")
		s.Require().ErrorIs(err, ErrRequiredStep)
		s.Equal(StatusActive, m.Status("a"))

		m.SetContext(map[string]any{"exempt": true})
		next, err := m.SkipCurrentStep("exempt")
		s.Require().NoError(err)
		s.Equal("b", next.ID)
		s.Equal(StatusSkipped, m.Status("a"))
	})
}

func (s *MachineSuite) TestFlowCompletion() {
	m := linear(
		Step{ID: "a", Order: 1},
		Step{ID: "b", Order: 2, Required: Never()},
		Step{ID: "c", Order: 3},
	)

	_, err := m.CompleteCurrentStep(nil)
	s.Require().NoError(err)
	_, err = m.SkipCurrentStep("")
	s.Require().NoError(err)
	next, err := m.CompleteCurrentStep(map[string]any{})
	s.Require().NoError(err)
	s.Nil(next)
	s.True(m.IsComplete())
	s.Equal(Progress{Percent: 100, Done: 2, Total: 2, Complete: true}, m.Progress())

	_, err = m.CompleteCurrentStep(nil)
	s.ErrorIs(err, ErrNoActiveStep)
	_, err = m.SkipCurrentStep("")
	s.ErrorIs(err, ErrNoActiveStep)
}

func (s *MachineSuite) TestGoBack() {
	m := linear(Step{ID: "a", Order: 1}, Step{ID: "b", Order: 2}, Step{ID: "c", Order: 3})

	_, err := m.GoBack()
	s.Require().ErrorIs(err, ErrNoPreviousStep)

	_, _ = m.CompleteCurrentStep(nil)
	_, _ = m.CompleteCurrentStep(nil)
	prev, err := m.GoBack()
	s.Require().NoError(err)
	s.Equal("b", prev.ID)
	s.Equal(StatusActive, m.Status("b"))
	s.Equal(StatusPending, m.Status("c"))

	s.Run("from a completed flow returns to the last visible step", func() {
		_, _ = m.CompleteCurrentStep(nil)
		_, _ = m.CompleteCurrentStep(nil)
		s.Require().True(m.IsComplete())

		prev, err := m.GoBack()
		s.Require().NoError(err)
		s.Equal("c", prev.ID)
	})
}

func (s *MachineSuite) TestNavigateTo() {
	m := linear(Step{ID: "a", Order: 1}, Step{ID: "b", Order: 2}, Step{ID: "c", Order: 3})
	_, _ = m.CompleteCurrentStep(map[string]any{"x": 1})
	_, _ = m.CompleteCurrentStep(map[string]any{"y": 2})

	s.Run("current step is a no-op", func() {
		step, err := m.NavigateTo("c")
		s.Require().NoError(err)
		s.Equal("c", step.ID)
		s.Empty(m.History()[2:])
	})

	s.Run("completed step is reachable", func() {
		step, err := m.NavigateTo("a")
		s.Require().NoError(err)
		s.Equal("a", step.ID)
		s.Equal(StatusPending, m.Status("c"))
		s.Equal(StatusCompleted, m.Status("b"))
	})

	s.Run("the abandoned completed step stays completed", func() {
		_, err := m.NavigateTo("b")
		s.Require().NoError(err)
		s.Equal(StatusCompleted, m.Status("a"))
	})

	s.Run("pending step ahead is unreachable", func() {
		_, err := m.NavigateTo("c")
		s.Require().ErrorIs(err, ErrStepUnreachable)
		s.Equal(StatusActive, m.Status("b"))
	})

	s.Run("unknown step", func() {
		_, err := m.NavigateTo("nope")
		s.Require().ErrorIs(err, ErrUnknownStep)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *MachineSuite) TestAlternativeSteps() {
	steps := func() []Step {
		return []Step{
			{ID: "hotel", Order: 1, Required: Never()},
			{ID: "letter", Order: 2, AlternativeTo: "hotel", Required: Always()},
			{ID: "review", Order: 3},
		}
	}

	s.Run("completing the primary blocks the alternative", func() {
		m := linear(steps()...)
		next, err := m.CompleteCurrentStep(nil)
		s.Require().NoError(err)
		s.Equal("review", next.ID)
		s.Equal(StatusBlocked, m.Status("letter"))
		s.Equal(Progress{Percent: 0, Done: 0, Total: 1}, m.Progress())

		prev, err := m.GoBack()
		s.Require().NoError(err)
		s.Equal("hotel", prev.ID, "blocked steps are passed over going back")
	})

	s.Run("skipping the primary keeps the alternative", func() {
		m := linear(steps()...)
		next, err := m.SkipCurrentStep("staying with family")
		s.Require().NoError(err)
		s.Equal("letter", next.ID)
	})

	s.Run("alternative revealed after the primary completed stays blocked", func() {
		m := linear(
			Step{ID: "hotel", Order: 1},
			Step{ID: "letter", Order: 2, AlternativeTo: "hotel", Visible: Truthy("private")},
			Step{ID: "review", Order: 3},
		)
		next, err := m.CompleteCurrentStep(nil)
		s.Require().NoError(err)
		s.Equal("review", next.ID)

		m.SetContext(map[string]any{"private": true})
		s.Require().True(m.IsVisible("letter"))
		s.Equal(StatusBlocked, m.Status("letter"))
		for _, v := range m.Snapshot().Steps {
			if v.ID == "letter" {
				s.Equal(StatusBlocked, v.Status)
				s.False(v.Accessible)
			}
		}
		s.Equal(Progress{Percent: 50, Done: 1, Total: 2}, m.Progress())

		_, err = m.NavigateTo("letter")
		s.Require().ErrorIs(err, ErrStepUnreachable)

		prev, err := m.GoBack()
		s.Require().NoError(err)
		s.Equal("hotel", prev.ID)
		s.NotEqual(StatusActive, m.Status("letter"))
	})

	s.Run("default catalog passes over the accommodation letter", func() {
		m := NewMachine(requirements.NewEngine(), WithClock(fixedClock))
		s.Require().NoError(m.Import(State{
			Context:       applicant.Context{applicant.KeyPassportType: applicant.PassportOfficial},
			StepStatuses:  map[string]Status{StepHotel: StatusCompleted, StepReview: StatusActive},
			CollectedData: map[string]applicant.Context{StepHotel: {}},
			CurrentStepID: StepReview,
		}))
		s.False(m.IsVisible(StepAccommodationLetter))

		m.SetContext(map[string]any{applicant.KeyPassportType: applicant.PassportDiplomatic})
		s.Require().True(m.IsVisible(StepAccommodationLetter))
		s.Equal(StatusBlocked, m.Status(StepAccommodationLetter))

		for {
			prev, err := m.GoBack()
			if err != nil {
				s.Require().ErrorIs(err, ErrNoPreviousStep)
				break
			}
			s.NotEqual(StepAccommodationLetter, prev.ID)
			if prev.ID == StepHotel {
				break
			}
		}
	})

	s.Run("import moves off a bypassed current step", func() {
		m := linear(steps()...)
		s.Require().NoError(m.Import(State{
			StepStatuses:  map[string]Status{"hotel": StatusCompleted, "letter": StatusActive},
			CollectedData: map[string]applicant.Context{"hotel": {}},
			CurrentStepID: "letter",
		}))

		step, ok := m.CurrentStep()
		s.Require().True(ok)
		s.Equal("review", step.ID)
		s.Equal(StatusBlocked, m.Status("letter"))
		s.Equal(StatusActive, m.Status("review"))
	})
}

func (s *MachineSuite) TestFlowIsDeterministic() {
	run := func() *Machine {
		m := linear(
			Step{ID: "a", Order: 1, Collects: []string{"c"}},
			Step{ID: "b", Order: 2, Required: Never()},
			Step{ID: "c", Order: 3, Visible: Truthy("c")},
			Step{ID: "d", Order: 4},
		)
		_, err := m.CompleteCurrentStep(map[string]any{"c": true})
		s.Require().NoError(err)
		_, err = m.SkipCurrentStep("no")
		s.Require().NoError(err)
		_, err = m.CompleteCurrentStep(nil)
		s.Require().NoError(err)
		return m
	}

	first, second := run(), run()
	s.Equal(first.Export(), second.Export())
	s.Equal(first.History(), second.History())
	s.Equal(first.Snapshot(), second.Snapshot())
	step, _ := first.CurrentStep()
	s.Equal("d", step.ID)
}

func (s *MachineSuite) TestVisibilityFollowsContext() {
	s.False(s.machine.IsVisible(StepResidenceCard))
	s.False(s.machine.IsVisible(StepVerbalNote))
	s.True(s.machine.IsVisible(StepExpress))

	s.machine.SetContext(map[string]any{
		applicant.KeyNationality:      "FRA",
		applicant.KeyResidenceCountry: "ETH",
		applicant.KeyPassportType:     "diplomatic",
	})

	s.True(s.machine.IsVisible(StepResidenceCard))
	s.True(s.machine.IsRequired(StepResidenceCard))
	s.True(s.machine.IsRequired(StepVerbalNote))
	s.False(s.machine.IsVisible(StepExpress))
	s.False(s.machine.IsRequired(StepAccommodation))
}

func (s *MachineSuite) TestPrivateAccommodationSwapsHotelForLetter() {
	s.machine.SetContext(map[string]any{applicant.KeyAccommodationType: applicant.AccommodationPrivate})

	s.False(s.machine.IsVisible(StepHotel))
	s.True(s.machine.IsRequired(StepAccommodationLetter))
	s.True(s.machine.IsRequired(StepHostID))
}

func (s *MachineSuite) TestProgressCountsRequiredVisibleSteps() {
	// passport_type, identity, residence, trip, photo, ticket, accommodation, review
	s.Equal(Progress{Percent: 0, Done: 0, Total: 8}, s.machine.Progress())

	_, err := s.machine.CompleteCurrentStep(map[string]any{applicant.KeyPassportType: applicant.PassportOrdinary})
	s.Require().NoError(err)
	s.Equal(Progress{Percent: 12.5, Done: 1, Total: 8}, s.machine.Progress())

	s.Run("empty catalog is complete", func() {
		m := NewMachine(nil, WithCatalog(MustCatalog()))
		s.Equal(Progress{Percent: 100, Complete: true}, m.Progress())
	})
}

func (s *MachineSuite) TestObserversRunInOrderAfterStateChange() {
	var events []string
	s.machine.Subscribe(ObserverFuncs{
		OnDataCollected: func(stepID string, data applicant.Context) {
			events = append(events, "first:data:"+stepID+":"+data.String(applicant.KeyPassportType))
		},
		OnStepChanged: func(c StepChange) {
			cur, _ := s.machine.CurrentStep()
			events = append(events, "first:step:"+c.From+">"+c.To+":"+cur.ID)
			s.Equal(fixedNow, c.At)
		},
	})
	s.machine.Subscribe(ObserverFuncs{
		OnStepChanged: func(c StepChange) { events = append(events, "second:step:"+string(c.Action)) },
	})

	_, err := s.machine.CompleteCurrentStep(map[string]any{applicant.KeyPassportType: "ORDINARY"})
	s.Require().NoError(err)

	s.Equal([]string{
		"first:data:passport_type:ORDINARY",
		"first:step:passport_type>identity:identity",
		"second:step:completed",
	}, events)
}

func (s *MachineSuite) TestResetReturnsToStart() {
	var changes []StepChange
	s.machine.Subscribe(ObserverFuncs{OnStepChanged: func(c StepChange) { changes = append(changes, c) }})
	_, _ = s.machine.CompleteCurrentStep(map[string]any{applicant.KeyPassportType: "OFFICIAL"})

	s.machine.Reset()

	step, _ := s.machine.CurrentStep()
	s.Equal(StepPassportType, step.ID)
	s.Empty(s.machine.Context())
	s.Empty(s.machine.History())
	_, ok := s.machine.StepData(StepPassportType)
	s.False(ok)
	s.Require().Len(changes, 2)
	s.Equal(StepChange{From: StepIdentity, To: StepPassportType, Action: ActionReset, At: fixedNow}, changes[1])
}

func (s *MachineSuite) TestExportImportRoundTrip() {
	_, err := s.machine.CompleteCurrentStep(map[string]any{applicant.KeyPassportType: "ORDINARY"})
	s.Require().NoError(err)
	_, err = s.machine.CompleteCurrentStep(s.identityData())
	s.Require().NoError(err)

	exported := s.machine.Export()

	restored := NewMachine(requirements.NewEngine(), WithClock(fixedClock))
	s.Require().NoError(restored.Import(exported))

	s.Equal(exported, restored.Export())
	s.Equal(s.machine.Snapshot(), restored.Snapshot())
	s.Equal(requirements.StatusRequired, restored.Engine().DocumentRequirement(requirements.DocVaccination))
}

func (s *MachineSuite) TestImportRejectsInconsistentState() {
	cases := map[string]State{
		"unknown current step": {CurrentStepID: "nope"},
		"unknown step status":  {StepStatuses: map[string]Status{"nope": StatusCompleted}},
		"invalid status":       {StepStatuses: map[string]Status{StepIdentity: "DONE"}},
		"second active step": {
			CurrentStepID: StepIdentity,
			StepStatuses:  map[string]Status{StepIdentity: StatusActive, StepTrip: StatusActive},
		},
		"data for unknown step": {CollectedData: map[string]applicant.Context{"nope": {}}},
	}

	for name, st := range cases {
		s.Run(name, func() {
			err := s.machine.Import(st)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

			step, _ := s.machine.CurrentStep()
			s.Equal(StepPassportType, step.ID)
		})
	}
}

func (s *MachineSuite) TestImportFreshStateStartsAtBeginning() {
	_, _ = s.machine.CompleteCurrentStep(map[string]any{applicant.KeyPassportType: "ORDINARY"})

	s.Require().NoError(s.machine.Import(State{}))

	step, ok := s.machine.CurrentStep()
	s.Require().True(ok)
	s.Equal(StepPassportType, step.ID)
	s.Empty(s.machine.Context())
}

func (s *MachineSuite) TestSnapshot() {
	snap := s.machine.Snapshot()

	s.Equal(StepPassportType, snap.CurrentStepID)
	s.False(snap.Complete)
	s.Equal(requirements.WorkflowStandard, snap.Workflow)
	s.Require().NotEmpty(snap.Steps)
	s.True(snap.Steps[0].Current)
	s.True(snap.Steps[0].Accessible)
	s.False(snap.Steps[1].Accessible)
	for _, v := range snap.Steps {
		s.NotEqual(StepResidenceCard, v.ID, "hidden steps are not listed")
	}
}
