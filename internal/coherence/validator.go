package coherence

import (
	"time"

	"visaflow/internal/requirements"
	"visaflow/pkg/fieldset"
)

// Field names read from extracted documents. Each document kind is searched
// for the first name field present.
const (
	FieldFullName        = "fullName"
	FieldExpiryDate      = "expiryDate"
	FieldDateOfBirth     = "dateOfBirth"
	FieldArrivalDate     = "arrivalDate"
	FieldDepartureDate   = "departureDate"
	FieldCheckInDate     = "checkInDate"
	FieldCheckOutDate    = "checkOutDate"
	FieldVaccinationDate = "vaccinationDate"
)

var nameFields = []string{"fullName", "name", "holderName", "passengerName", "guestName", "inviteeName"}

// Documents is the input of one validation pass. Field values may be bare
// scalars or extraction-shaped {value, confidence}.
type Documents struct {
	// Passport is the reference document.
	Passport map[string]any `json:"passport,omitempty"`
	// Others holds the remaining documents by category.
	Others map[requirements.Code]map[string]any `json:"others,omitempty"`
	// Trip carries declared travel facts used when no ticket was supplied.
	Trip map[string]any `json:"trip,omitempty"`
}

func (d Documents) doc(code requirements.Code) (map[string]any, bool) {
	m, ok := d.Others[code]
	return m, ok && m != nil
}

// arrival prefers the ticket over the declared trip.
func (d Documents) arrival() (time.Time, bool) {
	return d.tripDate(FieldArrivalDate)
}

func (d Documents) departure() (time.Time, bool) {
	return d.tripDate(FieldDepartureDate)
}

func (d Documents) tripDate(field string) (time.Time, bool) {
	if ticket, ok := d.doc(requirements.DocTicket); ok {
		if t, ok := fieldset.Date(ticket, field); ok {
			return t, true
		}
	}
	return fieldset.Date(d.Trip, field)
}

func (d Documents) passportExpiry() (time.Time, bool) {
	if t, ok := fieldset.Date(d.Passport, FieldExpiryDate); ok {
		return t, true
	}
	return fieldset.Date(d.Passport, "passportExpiry")
}

// Limits holds the thresholds the checks apply.
type Limits struct {
	PassportValidityDays int     `yaml:"passportValidityDays"`
	NameMaxDistance      int     `yaml:"nameMaxDistance"`
	NameWarnConfidence   float64 `yaml:"nameWarnConfidence"`
	HotelToleranceDays   int     `yaml:"hotelToleranceDays"`
	VaccinationLeadDays  int     `yaml:"vaccinationLeadDays"`
	MaxStayDays          int     `yaml:"maxStayDays"`
	AdultAge             int     `yaml:"adultAge"`
}

// DefaultLimits returns the thresholds used by the consular service.
func DefaultLimits() Limits {
	return Limits{
		PassportValidityDays: 180,
		NameMaxDistance:      2,
		NameWarnConfidence:   0.7,
		HotelToleranceDays:   1,
		VaccinationLeadDays:  10,
		MaxStayDays:          90,
		AdultAge:             18,
	}
}

// Validator runs every check over a Documents set. It keeps no state between
// calls and is safe for concurrent use.
type Validator struct {
	clock   func() time.Time
	catalog *requirements.Catalog
	limits  Limits
}

type Option func(*Validator)

// WithClock sets the source of "today".
func WithClock(clock func() time.Time) Option {
	return func(v *Validator) {
		if clock != nil {
			v.clock = clock
		}
	}
}

// WithCatalog sets the catalog used for document labels.
func WithCatalog(c *requirements.Catalog) Option {
	return func(v *Validator) {
		if c != nil {
			v.catalog = c
		}
	}
}

func WithLimits(l Limits) Option {
	return func(v *Validator) {
		v.limits = l
	}
}

func NewValidator(opts ...Option) *Validator {
	v := &Validator{clock: time.Now, limits: DefaultLimits()}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	if v.catalog == nil {
		v.catalog = requirements.DefaultCatalog()
	}
	return v
}

// Validate evaluates all checks. Checks whose inputs are missing are omitted.
func (v *Validator) Validate(docs Documents) Report {
	now := v.clock().UTC()
	today := fieldset.TruncateDay(now)

	var results []Result
	for _, check := range []func(Documents, time.Time) []Result{
		v.checkPassportExpiry,
		v.checkNames,
		v.checkTravelDates,
		v.checkHotelAlignment,
		v.checkVaccination,
		v.checkStay,
		v.checkMinorDocuments,
	} {
		results = append(results, check(docs, today)...)
	}
	return newReport(results, now)
}

// AgeOn returns the number of whole years elapsed between dob and on.
func AgeOn(dob, on time.Time) int {
	dob, on = fieldset.TruncateDay(dob), fieldset.TruncateDay(on)
	age := on.Year() - dob.Year()
	if on.Month() < dob.Month() || (on.Month() == dob.Month() && on.Day() < dob.Day()) {
		age--
	}
	return age
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
