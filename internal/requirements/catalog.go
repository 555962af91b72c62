package requirements

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	pstrings "visaflow/pkg/platform/strings"
)

// Code identifies a document category.
type Code string

const (
	DocPassport            Code = "passport"
	DocPhoto               Code = "photo"
	DocVerbalNote          Code = "verbal_note"
	DocResidenceCard       Code = "residence_card"
	DocTicket              Code = "ticket"
	DocHotel               Code = "hotel"
	DocAccommodationLetter Code = "accommodation_letter"
	DocHostID              Code = "host_id"
	DocInvitation          Code = "invitation"
	DocBusinessLetter      Code = "business_letter"
	DocVaccination         Code = "vaccination"
	DocInsurance           Code = "insurance"
	DocParentalAuth        Code = "parental_auth"
	DocBirthCertificate    Code = "birth_certificate"
	DocParentID            Code = "parent_id"
)

// Workflow separates paid, queued processing from free, expedited processing.
type Workflow string

const (
	WorkflowStandard Workflow = "STANDARD"
	WorkflowPriority Workflow = "PRIORITY"
)

// Label is a user-facing string in both supported languages.
type Label struct {
	EN string `yaml:"en" json:"en"`
	FR string `yaml:"fr" json:"fr"`
}

// Category is an immutable catalog entry for one kind of document.
type Category struct {
	Code        Code     `yaml:"code" json:"code"`
	Priority    int      `yaml:"priority" json:"priority"`
	Formats     []string `yaml:"formats" json:"formats"`
	Extractable bool     `yaml:"extractable" json:"extractable"`
	Label       Label    `yaml:"label" json:"label"`
}

// AcceptsFormat reports whether a file extension (with or without dot) is allowed.
func (c Category) AcceptsFormat(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	for _, f := range c.Formats {
		if f == ext {
			return true
		}
	}
	return false
}

// DayRange is an inclusive range of working days.
type DayRange struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Matrix is the base requirement set for one passport category.
type Matrix struct {
	Workflow       Workflow        `yaml:"workflow"`
	ProcessingDays DayRange        `yaml:"processingDays"`
	ExpressDays    DayRange        `yaml:"expressDays"`
	Documents      map[Code]Status `yaml:"documents"`
}

// FeeSchedule prices visa types in whole currency units.
type FeeSchedule struct {
	Currency         string         `yaml:"currency"`
	ExpressSurcharge int            `yaml:"expressSurcharge"`
	DefaultVisaType  string         `yaml:"defaultVisaType"`
	VisaTypes        map[string]int `yaml:"visaTypes"`
}

// Catalog bundles every piece of static reference data the engine reads.
// It is never mutated after LoadCatalog returns and is safe to share.
type Catalog struct {
	DefaultPassportType    string            `yaml:"defaultPassportType"`
	Categories             []Category        `yaml:"categories"`
	PassportTypes          map[string]Matrix `yaml:"passportTypes"`
	PriorityProcessingDays DayRange          `yaml:"priorityProcessingDays"`
	Fees                   FeeSchedule       `yaml:"fees"`
	VaccinationExemptions  []string          `yaml:"vaccinationExemptions"`

	byCode   map[Code]Category
	exempted map[string]struct{}
}

//go:embed catalog.yaml
var embeddedCatalog []byte

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return LoadCatalog(embeddedCatalog)
})

// DefaultCatalog returns the built-in catalog. It panics if the embedded file
// is malformed, which only a broken build can cause.
func DefaultCatalog() *Catalog {
	c, err := defaultCatalog()
	if err != nil {
		panic(fmt.Sprintf("requirements: embedded catalog: %v", err))
	}
	return c
}

// LoadCatalog parses and validates a YAML catalog.
func LoadCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("catalog: no document categories")
	}
	c.byCode = make(map[Code]Category, len(c.Categories))
	for i := range c.Categories {
		c.Categories[i].Formats = pstrings.DedupeLower(c.Categories[i].Formats)
		cat := c.Categories[i]
		if cat.Code == "" {
			return fmt.Errorf("catalog: category without code")
		}
		if _, dup := c.byCode[cat.Code]; dup {
			return fmt.Errorf("catalog: duplicate category %q", cat.Code)
		}
		c.byCode[cat.Code] = cat
	}
	sort.SliceStable(c.Categories, func(i, j int) bool {
		return c.Categories[i].Priority < c.Categories[j].Priority
	})

	c.DefaultPassportType = strings.ToUpper(c.DefaultPassportType)
	normalized := make(map[string]Matrix, len(c.PassportTypes))
	for name, m := range c.PassportTypes {
		for code, status := range m.Documents {
			if _, ok := c.byCode[code]; !ok {
				return fmt.Errorf("catalog: passport type %s references unknown category %q", name, code)
			}
			if !status.IsValid() {
				return fmt.Errorf("catalog: passport type %s: invalid status %q for %s", name, status, code)
			}
		}
		if m.Workflow == "" {
			m.Workflow = WorkflowStandard
		}
		normalized[strings.ToUpper(name)] = m
	}
	c.PassportTypes = normalized
	if _, ok := c.PassportTypes[c.DefaultPassportType]; !ok {
		return fmt.Errorf("catalog: default passport type %q has no matrix", c.DefaultPassportType)
	}

	c.VaccinationExemptions = pstrings.DedupeUpper(c.VaccinationExemptions)
	c.exempted = make(map[string]struct{}, len(c.VaccinationExemptions))
	for _, country := range c.VaccinationExemptions {
		c.exempted[country] = struct{}{}
	}
	return nil
}

// Category looks up a category by code.
func (c *Catalog) Category(code Code) (Category, bool) {
	cat, ok := c.byCode[code]
	return cat, ok
}

// Matrix returns the base matrix for a passport category and whether the
// category was known. Unknown categories get the default matrix.
func (c *Catalog) Matrix(passportType string) (Matrix, bool) {
	if m, ok := c.PassportTypes[strings.ToUpper(strings.TrimSpace(passportType))]; ok {
		return m, true
	}
	return c.PassportTypes[c.DefaultPassportType], false
}

// IsVaccinationExempt reports whether nationals of country skip the
// yellow fever certificate.
func (c *Catalog) IsVaccinationExempt(country string) bool {
	_, ok := c.exempted[strings.ToUpper(strings.TrimSpace(country))]
	return ok
}
