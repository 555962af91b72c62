package e2e

import (
	"github.com/cucumber/godog"

	"visaflow/e2e/steps/common"
	"visaflow/e2e/steps/interview"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	interview.RegisterSteps(ctx, tc)
}
