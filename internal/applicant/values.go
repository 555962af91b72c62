package applicant

// Passport categories.
const (
	PassportOrdinary      = "ORDINARY"
	PassportOfficial      = "OFFICIAL"
	PassportService       = "SERVICE"
	PassportDiplomatic    = "DIPLOMATIC"
	PassportLaissezPasser = "LAISSEZ_PASSER"
)

// Trip purposes.
const (
	PurposeTourism    = "TOURISM"
	PurposeBusiness   = "BUSINESS"
	PurposeConference = "CONFERENCE"
	PurposeFamily     = "FAMILY"
	PurposeTransit    = "TRANSIT"
)

// Accommodation types.
const (
	AccommodationHotel   = "HOTEL"
	AccommodationPrivate = "PRIVATE"
)

// Visa types.
const (
	VisaTourist    = "TOURIST"
	VisaBusiness   = "BUSINESS"
	VisaConference = "CONFERENCE"
	VisaFamily     = "FAMILY"
	VisaTransit    = "TRANSIT"
)
