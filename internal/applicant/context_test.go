package applicant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeDoesNotMutateReceiver(t *testing.T) {
	base := Context{KeyNationality: "KEN"}
	merged := base.Merge(map[string]any{KeyResidenceCountry: "ETH", KeyNationality: "FRA"})

	assert.Equal(t, "KEN", base.String(KeyNationality))
	assert.False(t, base.Has(KeyResidenceCountry))
	assert.Equal(t, "FRA", merged.String(KeyNationality))
	assert.Equal(t, "ETH", merged.String(KeyResidenceCountry))
}

func TestAccessorsUnwrapExtractionValues(t *testing.T) {
	c := Context{
		KeyNationality: map[string]any{"value": "KEN", "confidence": 0.91},
		KeyIsMinor:     map[string]any{"value": true, "confidence": 0.8},
		KeyDateOfBirth: map[string]any{"value": "2011-05-20", "confidence": 0.77},
		"customKey":    "kept",
	}

	assert.Equal(t, "KEN", c.String(KeyNationality))
	assert.True(t, c.Bool(KeyIsMinor))
	dob, ok := c.Date(KeyDateOfBirth)
	assert.True(t, ok)
	assert.Equal(t, 2011, dob.Year())
	assert.True(t, c.Has("customKey"))
	assert.Equal(t, []string{"customKey", KeyDateOfBirth, KeyIsMinor, KeyNationality}, c.Keys())
}

func TestNilContextIsUsable(t *testing.T) {
	var c Context
	assert.False(t, c.Has(KeyNationality))
	assert.Equal(t, "", c.String(KeyNationality))
	assert.Equal(t, Context{"a": 1}, c.Merge(map[string]any{"a": 1}))
}
