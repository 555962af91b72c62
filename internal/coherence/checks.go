package coherence

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"visaflow/internal/requirements"
	"visaflow/pkg/fieldset"
)

const dateLayout = "2006-01-02"

func pass(code string, en, fr string, details map[string]any) Result {
	return Result{Code: code, Outcome: OutcomePass, Message: requirements.Label{EN: en, FR: fr}, Details: details}
}

func warn(code string, en, fr string, details map[string]any) Result {
	return Result{Code: code, Outcome: OutcomeWarning, Message: requirements.Label{EN: en, FR: fr}, Details: details}
}

func fail(code string, en, fr string, details map[string]any) Result {
	return Result{Code: code, Outcome: OutcomeFail, Message: requirements.Label{EN: en, FR: fr}, Details: details}
}

// checkPassportExpiry emits exactly one result: expired, too short, or valid.
// Validity is measured from the later of today and the departure date.
func (v *Validator) checkPassportExpiry(docs Documents, today time.Time) []Result {
	expiry, ok := docs.passportExpiry()
	if !ok {
		return nil
	}
	if expiry.Before(today) {
		return []Result{fail(CodePassportExpired,
			fmt.Sprintf("The passport expired on %s.", expiry.Format(dateLayout)),
			fmt.Sprintf("Le passeport a expiré le %s.", expiry.Format(dateLayout)),
			map[string]any{"expiry_date": expiry.Format(dateLayout)},
		)}
	}

	from := today
	if dep, ok := docs.departure(); ok && dep.After(from) {
		from = dep
	}
	required := from.AddDate(0, 0, v.limits.PassportValidityDays)
	details := map[string]any{
		"expiry_date":    expiry.Format(dateLayout),
		"required_until": required.Format(dateLayout),
		"days_remaining": daysBetween(from, expiry),
	}
	if expiry.Before(required) {
		return []Result{fail(CodePassportValidityInsufficient,
			fmt.Sprintf("The passport must remain valid until at least %s.", required.Format(dateLayout)),
			fmt.Sprintf("Le passeport doit être valide au moins jusqu'au %s.", required.Format(dateLayout)),
			details,
		)}
	}
	return []Result{pass(CodePassportValidity,
		"The passport is valid long enough.",
		"Le passeport est valide suffisamment longtemps.",
		details,
	)}
}

// checkNames compares the passport holder's name with the name declared on
// every other document that carries one, in catalog order.
func (v *Validator) checkNames(docs Documents, _ time.Time) []Result {
	reference := fieldset.String(docs.Passport, FieldFullName)
	if reference == "" {
		return nil
	}

	var results []Result
	for _, code := range v.orderedDocuments(docs) {
		declared := declaredName(docs.Others[code])
		if declared == "" {
			continue
		}
		m := CompareNames(reference, declared, v.limits.NameMaxDistance)
		details := map[string]any{
			"document":      string(code),
			"passport_name": m.Left,
			"document_name": m.Right,
			"distance":      m.Distance,
			"confidence":    m.Confidence,
		}
		label := v.label(code)
		switch {
		case m.Match:
			results = append(results, pass(CodeNameConsistency,
				fmt.Sprintf("The name on the %s matches the passport.", label.EN),
				fmt.Sprintf("Le nom sur le document « %s » correspond au passeport.", label.FR),
				details))
		case m.Confidence > v.limits.NameWarnConfidence:
			results = append(results, warn(CodeNameConsistency,
				fmt.Sprintf("The name on the %s differs slightly from the passport.", label.EN),
				fmt.Sprintf("Le nom sur le document « %s » diffère légèrement du passeport.", label.FR),
				details))
		default:
			results = append(results, fail(CodeNameConsistency,
				fmt.Sprintf("The name on the %s does not match the passport.", label.EN),
				fmt.Sprintf("Le nom sur le document « %s » ne correspond pas au passeport.", label.FR),
				details))
		}
	}
	return results
}

func declaredName(doc map[string]any) string {
	for _, f := range nameFields {
		if s := fieldset.String(doc, f); s != "" {
			return s
		}
	}
	return ""
}

// orderedDocuments lists supplied documents in catalog display order, with
// unknown kinds last by code.
func (v *Validator) orderedDocuments(docs Documents) []requirements.Code {
	var out []requirements.Code
	seen := map[requirements.Code]bool{}
	for _, cat := range v.catalog.Categories {
		if _, ok := docs.doc(cat.Code); ok {
			out = append(out, cat.Code)
			seen[cat.Code] = true
		}
	}
	var extra []string
	for code, doc := range docs.Others {
		if !seen[code] && doc != nil {
			extra = append(extra, string(code))
		}
	}
	sort.Strings(extra)
	for _, c := range extra {
		out = append(out, requirements.Code(c))
	}
	return out
}

func (v *Validator) label(code requirements.Code) requirements.Label {
	if cat, ok := v.catalog.Category(code); ok {
		return cat.Label
	}
	return requirements.Label{EN: string(code), FR: string(code)}
}

// checkTravelDates fails for each broken ordering; it passes only when the
// arrival is known and nothing failed.
func (v *Validator) checkTravelDates(docs Documents, today time.Time) []Result {
	arrival, ok := docs.arrival()
	if !ok {
		return nil
	}
	departure, hasDeparture := docs.departure()

	details := map[string]any{"arrival_date": arrival.Format(dateLayout)}
	if hasDeparture {
		details["departure_date"] = departure.Format(dateLayout)
	}

	var results []Result
	if arrival.Before(today) {
		results = append(results, fail(CodeArrivalInPast,
			"The arrival date is in the past.",
			"La date d'arrivée est dans le passé.",
			details))
	}
	if hasDeparture && departure.Before(arrival) {
		results = append(results, fail(CodeDepartureBeforeArrival,
			"The departure date is before the arrival date.",
			"La date de départ précède la date d'arrivée.",
			details))
	}
	if len(results) == 0 {
		results = append(results, pass(CodeTravelDates,
			"The travel dates are consistent.",
			"Les dates de voyage sont cohérentes.",
			details))
	}
	return results
}

func (v *Validator) checkHotelAlignment(docs Documents, _ time.Time) []Result {
	hotel, ok := docs.doc(requirements.DocHotel)
	if !ok {
		return nil
	}
	checkIn, ok := fieldset.Date(hotel, FieldCheckInDate)
	if !ok {
		return nil
	}
	arrival, ok := docs.arrival()
	if !ok {
		return nil
	}

	delta := daysBetween(arrival, checkIn)
	if delta < 0 {
		delta = -delta
	}
	details := map[string]any{
		"check_in_date": checkIn.Format(dateLayout),
		"arrival_date":  arrival.Format(dateLayout),
		"delta_days":    delta,
	}
	if delta > v.limits.HotelToleranceDays {
		return []Result{warn(CodeHotelDatesMisaligned,
			fmt.Sprintf("The hotel check-in is %d days away from the flight arrival.", delta),
			fmt.Sprintf("L'arrivée à l'hôtel est décalée de %d jours par rapport au vol.", delta),
			details)}
	}
	return []Result{pass(CodeHotelDatesAligned,
		"The hotel booking matches the flight arrival.",
		"La réservation d'hôtel correspond à l'arrivée du vol.",
		details)}
}

func (v *Validator) checkVaccination(docs Documents, _ time.Time) []Result {
	cert, ok := docs.doc(requirements.DocVaccination)
	if !ok {
		return nil
	}
	vaccinated, ok := fieldset.Date(cert, FieldVaccinationDate)
	if !ok {
		return nil
	}
	arrival, ok := docs.arrival()
	if !ok {
		return nil
	}

	lead := daysBetween(vaccinated, arrival)
	details := map[string]any{
		"vaccination_date": vaccinated.Format(dateLayout),
		"arrival_date":     arrival.Format(dateLayout),
		"lead_days":        lead,
	}
	if lead < v.limits.VaccinationLeadDays {
		return []Result{fail(CodeVaccinationTooRecent,
			fmt.Sprintf("The vaccination must be at least %d days before travel.", v.limits.VaccinationLeadDays),
			fmt.Sprintf("La vaccination doit dater d'au moins %d jours avant le voyage.", v.limits.VaccinationLeadDays),
			details)}
	}
	return []Result{pass(CodeVaccinationTiming,
		"The vaccination was given early enough.",
		"La vaccination a été faite suffisamment tôt.",
		details)}
}

// checkStay is omitted when departure precedes arrival; that ordering is
// reported by checkTravelDates.
func (v *Validator) checkStay(docs Documents, _ time.Time) []Result {
	arrival, ok := docs.arrival()
	if !ok {
		return nil
	}
	departure, ok := docs.departure()
	if !ok || departure.Before(arrival) {
		return nil
	}

	days := daysBetween(arrival, departure)
	details := map[string]any{"stay_days": days, "max_days": v.limits.MaxStayDays}
	if days > v.limits.MaxStayDays {
		return []Result{fail(CodeStayExceedsLimit,
			fmt.Sprintf("The stay of %d days exceeds the %d-day limit.", days, v.limits.MaxStayDays),
			fmt.Sprintf("Le séjour de %d jours dépasse la limite de %d jours.", days, v.limits.MaxStayDays),
			details)}
	}
	return []Result{pass(CodeStayDuration,
		"The length of stay is within the limit.",
		"La durée du séjour respecte la limite.",
		details)}
}

var minorDocuments = []requirements.Code{
	requirements.DocParentalAuth,
	requirements.DocBirthCertificate,
	requirements.DocParentID,
}

// checkMinorDocuments applies only to applicants under the adult age.
func (v *Validator) checkMinorDocuments(docs Documents, today time.Time) []Result {
	dob, ok := fieldset.Date(docs.Passport, FieldDateOfBirth)
	if !ok {
		return nil
	}
	age := AgeOn(dob, today)
	if age >= v.limits.AdultAge {
		return nil
	}

	var missing []string
	var missingEN, missingFR []string
	for _, code := range minorDocuments {
		if _, ok := docs.doc(code); ok {
			continue
		}
		label := v.label(code)
		missing = append(missing, string(code))
		missingEN = append(missingEN, label.EN)
		missingFR = append(missingFR, label.FR)
	}

	if len(missing) > 0 {
		return []Result{fail(CodeMinorDocumentsMissing,
			"Missing documents for a minor: "+strings.Join(missingEN, ", ")+".",
			"Documents manquants pour un mineur : "+strings.Join(missingFR, ", ")+".",
			map[string]any{"age": age, "missing": missing, "missing_labels": missingEN},
		)}
	}
	return []Result{pass(CodeMinorDocumentsComplete,
		"All documents required for a minor are present.",
		"Tous les documents requis pour un mineur sont présents.",
		map[string]any{"age": age},
	)}
}
