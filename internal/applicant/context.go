// Package applicant holds the facts discovered about one visa applicant during
// an interview. It is pure data: the requirements engine and the document flow
// read it, nothing in here decides anything.
package applicant

import (
	"sort"
	"time"

	"visaflow/pkg/fieldset"
)

// Stable context keys. Collaborators may add their own keys; unknown keys are
// preserved and ignored by the built-in rules.
const (
	KeyNationality       = "nationality"
	KeyResidenceCountry  = "residenceCountry"
	KeyPassportType      = "passportType"
	KeyPassportNumber    = "passportNumber"
	KeyPassportExpiry    = "passportExpiry"
	KeyFullName          = "fullName"
	KeyDateOfBirth       = "dateOfBirth"
	KeyIsMinor           = "isMinor"
	KeyTripPurpose       = "tripPurpose"
	KeyAccommodationType = "accommodationType"
	KeyVisaType          = "visaType"
	KeyIsExpress         = "isExpress"
	KeyArrivalDate       = "arrivalDate"
	KeyDepartureDate     = "departureDate"
)

// Context is a sparse record of applicant facts. A missing key means "not yet
// known". Values may be bare scalars or extraction-shaped {value, confidence}.
type Context map[string]any

// Merge returns a copy of c with every key of partial written over it.
// c itself is not modified.
func (c Context) Merge(partial map[string]any) Context {
	out := make(Context, len(c)+len(partial))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range partial {
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy.
func (c Context) Clone() Context {
	return Context(fieldset.Clone(c))
}

// Has reports whether key holds a non-empty value.
func (c Context) Has(key string) bool {
	_, ok := fieldset.Value(c, key)
	return ok
}

// Get returns the unwrapped value at key.
func (c Context) Get(key string) (any, bool) {
	return fieldset.Value(c, key)
}

func (c Context) String(key string) string {
	return fieldset.String(c, key)
}

func (c Context) Bool(key string) bool {
	return fieldset.Bool(c, key)
}

func (c Context) Date(key string) (time.Time, bool) {
	return fieldset.Date(c, key)
}

// Keys returns the keys present in c, sorted.
func (c Context) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
