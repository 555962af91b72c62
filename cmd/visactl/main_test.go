package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visaflow/internal/coherence"
	"visaflow/internal/requirements"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	err := run([]string{"frobnicate"}, &out, &errOut)
	require.Error(t, err)
	assert.Contains(t, errOut.String(), "usage: visactl")
}

func TestRequirementsOrdinaryPassport(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"requirements", "--passport-type", "ordinary", "--purpose", "tourism"}, &out, &bytes.Buffer{})
	require.NoError(t, err)

	var got requirementsOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Contains(t, got.Required, requirements.DocPassport)
	assert.NotEmpty(t, got.Fee.Currency)
	assert.LessOrEqual(t, got.ProcessingTime.Min, got.ProcessingTime.Max)
}

func TestRequirementsYAMLOutput(t *testing.T) {
	ctx := writeFile(t, "context.yaml", "passportType: ORDINARY\ntripPurpose: TOURISM\n")
	var out bytes.Buffer
	err := run([]string{"requirements", "--context", ctx, "-o", "yaml"}, &out, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "processing_time:")
	assert.Contains(t, out.String(), "required:")
}

func TestValidateExpiredPassportFails(t *testing.T) {
	docs := writeFile(t, "docs.yaml", `
passport:
  fullName: Awa Diallo
  expiryDate: "2026-01-15"
trip:
  arrivalDate: "2026-04-01"
  departureDate: "2026-04-10"
`)
	var out bytes.Buffer
	err := run([]string{"validate", "--file", docs, "--now", "2026-03-01"}, &out, &bytes.Buffer{})
	require.Error(t, err)

	var report coherence.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.False(t, report.Valid)
	assert.True(t, report.Has(coherence.CodePassportExpired))
}

func TestValidateRequiresFile(t *testing.T) {
	err := run([]string{"validate"}, &bytes.Buffer{}, &bytes.Buffer{})
	require.EqualError(t, err, "--file is required")
}

func TestValidateRejectsBadDate(t *testing.T) {
	docs := writeFile(t, "docs.json", `{"passport": {"expiryDate": "2030-01-01"}}`)
	err := run([]string{"validate", "-f", docs, "--now", "yesterday"}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --now")
}

func TestStepsListsVisibleSteps(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"steps"}, &out, &bytes.Buffer{}))

	var steps []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &steps))
	require.NotEmpty(t, steps)
	assert.Contains(t, steps[0], "id")
}
