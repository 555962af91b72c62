package interview

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Do(method, path string, body any, authenticated bool) error
	GetResponseField(path string) (any, error)
	GetLastResponseStatus() int
	GetInterviewID() string
	SetInterviewID(id string)
	GetResumeToken() string
	SetResumeToken(token string)
	SavedState() map[string]any
	SaveState(state map[string]any)
}

// RegisterSteps registers interview lifecycle step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &interviewSteps{tc: tc}

	ctx.Step(`^I start an interview$`, steps.startInterview)
	ctx.Step(`^I start an interview with passport type "([^"]*)"$`, steps.startWithPassportType)
	ctx.Step(`^I complete the current step with:$`, steps.completeStep)
	ctx.Step(`^I skip the current step because "([^"]*)"$`, steps.skipStep)
	ctx.Step(`^I go back one step$`, steps.goBack)
	ctx.Step(`^I navigate to step "([^"]*)"$`, steps.navigateTo)
	ctx.Step(`^I update the context with:$`, steps.updateContext)
	ctx.Step(`^I request the requirements$`, steps.requestRequirements)
	ctx.Step(`^I attach a declared "([^"]*)" document with:$`, steps.attachDeclared)
	ctx.Step(`^I evaluate coherence$`, steps.evaluate)
	ctx.Step(`^I fetch the interview$`, steps.fetchInterview)
	ctx.Step(`^I fetch the interview without a resume token$`, steps.fetchWithoutToken)
	ctx.Step(`^I export the interview$`, steps.exportInterview)
	ctx.Step(`^I import the exported interview$`, steps.importInterview)
	ctx.Step(`^I reset the interview$`, steps.resetInterview)
	ctx.Step(`^I delete the interview$`, steps.deleteInterview)

	ctx.Step(`^the current step should be "([^"]*)"$`, steps.currentStepShouldBe)
	ctx.Step(`^document "([^"]*)" should be "([^"]*)"$`, steps.documentStatusShouldBe)
}

type interviewSteps struct {
	tc TestContext
}

func (s *interviewSteps) path(suffix string) string {
	return "/interviews/" + s.tc.GetInterviewID() + suffix
}

func (s *interviewSteps) startInterview(ctx context.Context) error {
	return s.start(nil)
}

func (s *interviewSteps) startWithPassportType(ctx context.Context, passportType string) error {
	return s.start(map[string]any{"context": map[string]any{"passportType": passportType}})
}

func (s *interviewSteps) start(body any) error {
	if err := s.tc.Do("POST", "/interviews", body, false); err != nil {
		return err
	}
	return s.captureSession()
}

// captureSession stores the interview id and resume token from a start or
// import response.
func (s *interviewSteps) captureSession() error {
	if status := s.tc.GetLastResponseStatus(); status != 201 {
		return fmt.Errorf("expected 201 creating interview, got %d", status)
	}
	id, err := s.tc.GetResponseField("interview_id")
	if err != nil {
		return err
	}
	token, err := s.tc.GetResponseField("resume_token")
	if err != nil {
		return err
	}
	s.tc.SetInterviewID(fmt.Sprint(id))
	s.tc.SetResumeToken(fmt.Sprint(token))
	return nil
}

func tableToMap(table *godog.Table) (map[string]any, error) {
	out := make(map[string]any, len(table.Rows))
	for _, row := range table.Rows {
		if len(row.Cells) != 2 {
			return nil, fmt.Errorf("expected key | value rows, got %d cells", len(row.Cells))
		}
		out[row.Cells[0].Value] = row.Cells[1].Value
	}
	return out, nil
}

func (s *interviewSteps) completeStep(ctx context.Context, table *godog.Table) error {
	data, err := tableToMap(table)
	if err != nil {
		return err
	}
	return s.tc.Do("POST", s.path("/steps/complete"), map[string]any{"data": data}, true)
}

func (s *interviewSteps) skipStep(ctx context.Context, reason string) error {
	return s.tc.Do("POST", s.path("/steps/skip"), map[string]any{"reason": reason}, true)
}

func (s *interviewSteps) goBack(ctx context.Context) error {
	return s.tc.Do("POST", s.path("/steps/back"), nil, true)
}

func (s *interviewSteps) navigateTo(ctx context.Context, stepID string) error {
	return s.tc.Do("POST", s.path("/steps/"+stepID+"/navigate"), nil, true)
}

func (s *interviewSteps) updateContext(ctx context.Context, table *godog.Table) error {
	data, err := tableToMap(table)
	if err != nil {
		return err
	}
	return s.tc.Do("PATCH", s.path("/context"), map[string]any{"context": data}, true)
}

func (s *interviewSteps) requestRequirements(ctx context.Context) error {
	return s.tc.Do("GET", s.path("/requirements"), nil, true)
}

func (s *interviewSteps) attachDeclared(ctx context.Context, category string, table *godog.Table) error {
	declared, err := tableToMap(table)
	if err != nil {
		return err
	}
	body := map[string]any{
		"documents": []map[string]any{{
			"category":  category,
			"file_name": category + ".pdf",
			"format":    "pdf",
			"declared":  declared,
		}},
	}
	return s.tc.Do("POST", s.path("/documents"), body, true)
}

func (s *interviewSteps) evaluate(ctx context.Context) error {
	return s.tc.Do("POST", s.path("/coherence"), nil, true)
}

func (s *interviewSteps) fetchInterview(ctx context.Context) error {
	return s.tc.Do("GET", s.path(""), nil, true)
}

func (s *interviewSteps) fetchWithoutToken(ctx context.Context) error {
	return s.tc.Do("GET", s.path(""), nil, false)
}

func (s *interviewSteps) exportInterview(ctx context.Context) error {
	if err := s.tc.Do("GET", s.path("/export"), nil, true); err != nil {
		return err
	}
	state, err := s.tc.GetResponseField("state")
	if err != nil {
		return err
	}
	obj, ok := state.(map[string]any)
	if !ok {
		return fmt.Errorf("export state is not an object")
	}
	s.tc.SaveState(obj)
	return nil
}

func (s *interviewSteps) importInterview(ctx context.Context) error {
	state := s.tc.SavedState()
	if state == nil {
		return fmt.Errorf("no exported state to import")
	}
	if err := s.tc.Do("POST", "/interviews/import", map[string]any{"state": state}, false); err != nil {
		return err
	}
	return s.captureSession()
}

func (s *interviewSteps) resetInterview(ctx context.Context) error {
	return s.tc.Do("POST", s.path("/reset"), nil, true)
}

func (s *interviewSteps) deleteInterview(ctx context.Context) error {
	return s.tc.Do("DELETE", s.path(""), nil, true)
}

func (s *interviewSteps) currentStepShouldBe(ctx context.Context, want string) error {
	v, err := s.tc.GetResponseField("current_step_id")
	if err != nil {
		v, err = s.tc.GetResponseField("interview.current_step_id")
	}
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("expected current step %q, got %q", want, got)
	}
	return nil
}

func (s *interviewSteps) documentStatusShouldBe(ctx context.Context, code, want string) error {
	docs, err := s.tc.GetResponseField("documents")
	if err != nil {
		return err
	}
	list, ok := docs.([]any)
	if !ok {
		return fmt.Errorf("documents is not a list")
	}
	for _, item := range list {
		entry, _ := item.(map[string]any)
		category, _ := entry["category"].(map[string]any)
		if category["code"] == code {
			if got := fmt.Sprint(entry["status"]); got != want {
				return fmt.Errorf("expected %s to be %s, got %s", code, want, got)
			}
			return nil
		}
	}
	return fmt.Errorf("document %q not listed", code)
}
