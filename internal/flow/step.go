package flow

import (
	"fmt"
	"sort"

	"visaflow/internal/applicant"
	"visaflow/internal/requirements"
	dErrors "visaflow/pkg/domain-errors"
)

// Status is the lifecycle state of one step.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusSkipped   Status = "SKIPPED"
	// StatusBlocked marks a step passed over because the step it is an
	// alternative to was completed.
	StatusBlocked Status = "BLOCKED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusCompleted, StatusSkipped, StatusBlocked:
		return true
	}
	return false
}

// Done reports whether the step counts towards progress.
func (s Status) Done() bool {
	return s == StatusCompleted || s == StatusSkipped
}

// Step is an immutable definition of one interview stage.
//
// A nil Visible predicate means the step is always visible; a nil Required
// predicate means it is always required.
type Step struct {
	ID       string
	Order    int
	Weight   int
	Document requirements.Code
	Visible  Predicate
	Required Predicate
	// Collects names the context keys this step contributes.
	Collects []string
	// AlternativeTo names a step whose completion makes this one unnecessary.
	AlternativeTo string
	Help          requirements.Label
	Checkpoint    bool
}

func (s Step) visibleIn(env Env) bool {
	return s.Visible == nil || s.Visible.Eval(env)
}

func (s Step) requiredIn(env Env) bool {
	return s.Required == nil || s.Required.Eval(env)
}

// Catalog is an ordered, validated set of steps.
type Catalog struct {
	steps []Step
	byID  map[string]int
}

// NewCatalog sorts steps by Order and rejects duplicate ids or orders and
// alternatives that point at unknown steps.
func NewCatalog(steps ...Step) (*Catalog, error) {
	sorted := append([]Step(nil), steps...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	c := &Catalog{steps: sorted, byID: make(map[string]int, len(sorted))}
	orders := make(map[int]string, len(sorted))
	for i, s := range sorted {
		if s.ID == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("step at order %d has no id", s.Order))
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "duplicate step id "+s.ID)
		}
		if other, dup := orders[s.Order]; dup {
			return nil, dErrors.New(dErrors.CodeInvalidInput,
				fmt.Sprintf("steps %s and %s share order %d", other, s.ID, s.Order))
		}
		c.byID[s.ID] = i
		orders[s.Order] = s.ID
	}
	for _, s := range sorted {
		if s.AlternativeTo == "" {
			continue
		}
		if _, ok := c.byID[s.AlternativeTo]; !ok || s.AlternativeTo == s.ID {
			return nil, dErrors.New(dErrors.CodeInvalidInput,
				fmt.Sprintf("step %s is an alternative to unknown step %s", s.ID, s.AlternativeTo))
		}
	}
	return c, nil
}

// MustCatalog is NewCatalog for static definitions.
func MustCatalog(steps ...Step) *Catalog {
	c, err := NewCatalog(steps...)
	if err != nil {
		panic(err)
	}
	return c
}

// Steps returns the steps in order.
func (c *Catalog) Steps() []Step {
	return append([]Step(nil), c.steps...)
}

func (c *Catalog) Step(id string) (Step, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Step{}, false
	}
	return c.steps[i], true
}

func (c *Catalog) Len() int { return len(c.steps) }

// Step ids of the default visa interview.
const (
	StepPassportType        = "passport_type"
	StepIdentity            = "identity"
	StepResidence           = "residence"
	StepResidenceCard       = "residence_card"
	StepVerbalNote          = "verbal_note"
	StepTrip                = "trip"
	StepExpress             = "express"
	StepPhoto               = "photo"
	StepTicket              = "ticket"
	StepAccommodation       = "accommodation"
	StepHotel               = "hotel"
	StepAccommodationLetter = "accommodation_letter"
	StepHostID              = "host_id"
	StepInvitation          = "invitation"
	StepBusinessLetter      = "business_letter"
	StepVaccination         = "vaccination"
	StepInsurance           = "insurance"
	StepParentalAuth        = "parental_auth"
	StepBirthCertificate    = "birth_certificate"
	StepParentID            = "parent_id"
	StepReview              = "review"
)

var priorityPassports = []string{
	applicant.PassportOfficial,
	applicant.PassportService,
	applicant.PassportDiplomatic,
	applicant.PassportLaissezPasser,
}

// documentStep is a step whose visibility and obligation follow the evaluated
// status of its document category.
func documentStep(id string, order, weight int, code requirements.Code, visibleFrom requirements.Status, help requirements.Label) Step {
	return Step{
		ID:       id,
		Order:    order,
		Weight:   weight,
		Document: code,
		Visible:  RequirementAtLeast(code, visibleFrom),
		Required: RequirementAtLeast(code, requirements.StatusRequired),
		Help:     help,
	}
}

// DefaultSteps is the visa application interview.
func DefaultSteps() []Step {
	return []Step{
		{
			ID: StepPassportType, Order: 10, Weight: 5,
			Required:   Always(),
			Collects:   []string{applicant.KeyPassportType},
			Checkpoint: true,
			Help: requirements.Label{
				EN: "Which kind of passport will you travel with?",
				FR: "Avec quel type de passeport voyagez-vous ?",
			},
		},
		{
			ID: StepIdentity, Order: 20, Weight: 15,
			Document: requirements.DocPassport,
			Required: Always(),
			Collects: []string{
				applicant.KeyFullName,
				applicant.KeyDateOfBirth,
				applicant.KeyNationality,
				applicant.KeyPassportNumber,
				applicant.KeyPassportExpiry,
			},
			Help: requirements.Label{
				EN: "Upload the identity page of your passport.",
				FR: "Téléversez la page d'identité de votre passeport.",
			},
		},
		{
			ID: StepResidence, Order: 30, Weight: 5,
			Required: Always(),
			Collects: []string{applicant.KeyResidenceCountry},
			Help: requirements.Label{
				EN: "In which country do you currently live?",
				FR: "Dans quel pays résidez-vous actuellement ?",
			},
		},
		{
			ID: StepResidenceCard, Order: 40, Weight: 5,
			Document: requirements.DocResidenceCard,
			Visible:  Differs(applicant.KeyNationality, applicant.KeyResidenceCountry),
			Required: RequirementAtLeast(requirements.DocResidenceCard, requirements.StatusRequired),
			Help: requirements.Label{
				EN: "Upload your residence permit for your country of residence.",
				FR: "Téléversez votre titre de séjour.",
			},
		},
		documentStep(StepVerbalNote, 50, 10, requirements.DocVerbalNote, requirements.StatusOptional, requirements.Label{
			EN: "Upload the verbal note issued by your ministry.",
			FR: "Téléversez la note verbale de votre ministère.",
		}),
		{
			ID: StepTrip, Order: 60, Weight: 10,
			Required: Always(),
			Collects: []string{
				applicant.KeyTripPurpose,
				applicant.KeyVisaType,
				applicant.KeyArrivalDate,
				applicant.KeyDepartureDate,
			},
			Help: requirements.Label{
				EN: "Tell us about your trip.",
				FR: "Parlez-nous de votre voyage.",
			},
		},
		{
			ID: StepExpress, Order: 70, Weight: 2,
			Visible:  Not(In(applicant.KeyPassportType, priorityPassports...)),
			Required: Never(),
			Collects: []string{applicant.KeyIsExpress},
			Help: requirements.Label{
				EN: "Do you want express processing?",
				FR: "Souhaitez-vous un traitement express ?",
			},
		},
		documentStep(StepPhoto, 80, 5, requirements.DocPhoto, requirements.StatusOptional, requirements.Label{
			EN: "Upload a recent passport photo.",
			FR: "Téléversez une photo d'identité récente.",
		}),
		documentStep(StepTicket, 90, 8, requirements.DocTicket, requirements.StatusOptional, requirements.Label{
			EN: "Upload your flight booking.",
			FR: "Téléversez votre réservation de vol.",
		}),
		{
			ID: StepAccommodation, Order: 100, Weight: 3,
			Required: RequirementAtLeast(requirements.DocHotel, requirements.StatusConditional),
			Collects: []string{applicant.KeyAccommodationType},
			Help: requirements.Label{
				EN: "Where will you stay?",
				FR: "Où logerez-vous ?",
			},
		},
		{
			ID: StepHotel, Order: 110, Weight: 8,
			Document: requirements.DocHotel,
			Visible: And(
				Not(Equals(applicant.KeyAccommodationType, applicant.AccommodationPrivate)),
				RequirementAtLeast(requirements.DocHotel, requirements.StatusOptional),
			),
			Required: RequirementAtLeast(requirements.DocHotel, requirements.StatusRequired),
			Help: requirements.Label{
				EN: "Upload your hotel reservation.",
				FR: "Téléversez votre réservation d'hôtel.",
			},
		},
		{
			ID: StepAccommodationLetter, Order: 120, Weight: 8,
			Document:      requirements.DocAccommodationLetter,
			AlternativeTo: StepHotel,
			Visible:       RequirementAtLeast(requirements.DocAccommodationLetter, requirements.StatusOptional),
			Required:      RequirementAtLeast(requirements.DocAccommodationLetter, requirements.StatusRequired),
			Help: requirements.Label{
				EN: "Upload the letter from your host.",
				FR: "Téléversez l'attestation d'hébergement.",
			},
		},
		documentStep(StepHostID, 130, 5, requirements.DocHostID, requirements.StatusOptional, requirements.Label{
			EN: "Upload your host's identity document.",
			FR: "Téléversez la pièce d'identité de votre hôte.",
		}),
		documentStep(StepInvitation, 140, 8, requirements.DocInvitation, requirements.StatusConditional, requirements.Label{
			EN: "Upload your invitation letter.",
			FR: "Téléversez votre lettre d'invitation.",
		}),
		documentStep(StepBusinessLetter, 150, 5, requirements.DocBusinessLetter, requirements.StatusOptional, requirements.Label{
			EN: "Upload a letter from your employer.",
			FR: "Téléversez une lettre de votre employeur.",
		}),
		documentStep(StepVaccination, 160, 5, requirements.DocVaccination, requirements.StatusOptional, requirements.Label{
			EN: "Upload your yellow fever vaccination certificate.",
			FR: "Téléversez votre certificat de vaccination contre la fièvre jaune.",
		}),
		documentStep(StepInsurance, 170, 3, requirements.DocInsurance, requirements.StatusOptional, requirements.Label{
			EN: "Upload your travel insurance.",
			FR: "Téléversez votre assurance voyage.",
		}),
		documentStep(StepParentalAuth, 180, 5, requirements.DocParentalAuth, requirements.StatusOptional, requirements.Label{
			EN: "Upload the parental authorization.",
			FR: "Téléversez l'autorisation parentale.",
		}),
		documentStep(StepBirthCertificate, 190, 5, requirements.DocBirthCertificate, requirements.StatusOptional, requirements.Label{
			EN: "Upload the birth certificate.",
			FR: "Téléversez l'acte de naissance.",
		}),
		documentStep(StepParentID, 200, 5, requirements.DocParentID, requirements.StatusOptional, requirements.Label{
			EN: "Upload a parent's identity document.",
			FR: "Téléversez la pièce d'identité d'un parent.",
		}),
		{
			ID: StepReview, Order: 1000, Weight: 5,
			Required:   Always(),
			Checkpoint: true,
			Help: requirements.Label{
				EN: "Review your application.",
				FR: "Vérifiez votre demande.",
			},
		},
	}
}

// DefaultCatalog is the catalog built from DefaultSteps.
func DefaultCatalog() *Catalog {
	return MustCatalog(DefaultSteps()...)
}
