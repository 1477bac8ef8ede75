// Package disclaimer turns a triage level and symptom names into the
// disclaimers and advice-to-doctor notices shown alongside a response.
// Selection is a pure function: no I/O, no state, deep-equal output for
// equal input.
package disclaimer

import "github.com/carelayer/triage/clinical"

const (
	baseDisclaimer = "This information is for general education only and is not a medical diagnosis. " +
		"Always consult a qualified healthcare provider about your symptoms."
	emergencyDisclaimer = "Your description may indicate a medical emergency. " +
		"Do not wait for an online answer - contact emergency services or go to the nearest emergency department now."
	crisisDisclaimer = "If you are thinking about harming yourself or someone else, please reach out right now: " +
		"in the US call or text 988, or contact your local emergency number. You deserve support, and help is available."
	mentalHealthNudge = "It can also help to talk with a mental health professional about how you have been feeling."
)

const (
	atdEmergency = "ATD: patient description meets emergency criteria; advise immediate emergency services contact."
	atdCrisis    = "ATD: possible suicidal or homicidal ideation; immediate crisis intervention pathway required."
	atdUrgent    = "ATD: urgent presentation; recommend clinical review within 24 hours."
)

// symptomNotices maps symptom names to targeted advice-to-doctor
// notices attached on the urgent path.
var symptomNotices = map[string]string{
	"chest pain":          "ATD: chest pain reported; consider cardiopulmonary workup.",
	"shortness of breath": "ATD: dyspnea reported; assess respiratory status.",
	"palpitations":        "ATD: palpitations reported; consider ECG.",
	"numbness":            "ATD: numbness reported; assess for neurological deficit.",
	"confusion":           "ATD: altered mentation reported; assess for acute neurological cause.",
	"bleeding":            "ATD: bleeding reported; assess source and hemodynamic stability.",
	"abdominal pain":      "ATD: abdominal pain reported; assess for acute abdomen.",
	"headache":            "ATD: headache reported; screen for red-flag features.",
	"fever":               "ATD: fever reported; assess for infectious source.",
}

// Select builds the disclaimer pack for a triage level and the named
// symptoms. Priority, highest first: mental-health crisis override (the
// level is ignored entirely), emergency, urgent with symptom-targeted
// notices, then non-urgent with an optional soft mental-health nudge.
// Output is deduplicated before return.
func Select(level clinical.TriageLevel, symptomNames []string) clinical.DisclaimerPack {
	if hasCrisisName(symptomNames) {
		return dedupe(clinical.DisclaimerPack{
			Disclaimers: []string{crisisDisclaimer, baseDisclaimer},
			ATDNotices:  []string{atdCrisis},
		})
	}

	switch level {
	case clinical.Emergency:
		return dedupe(clinical.DisclaimerPack{
			Disclaimers: []string{emergencyDisclaimer, baseDisclaimer},
			ATDNotices:  []string{atdEmergency},
		})
	case clinical.Urgent:
		pack := clinical.DisclaimerPack{
			Disclaimers: []string{baseDisclaimer},
			ATDNotices:  []string{atdUrgent},
		}
		for _, name := range symptomNames {
			if notice, ok := symptomNotices[name]; ok {
				pack.ATDNotices = append(pack.ATDNotices, notice)
			}
		}
		return dedupe(pack)
	default:
		pack := clinical.DisclaimerPack{
			Disclaimers: []string{baseDisclaimer},
			ATDNotices:  []string{},
		}
		if hasMentalHealthName(symptomNames) {
			pack.Disclaimers = append(pack.Disclaimers, mentalHealthNudge)
		}
		return dedupe(pack)
	}
}

func hasCrisisName(names []string) bool {
	for _, n := range names {
		if clinical.IsCrisisSymptom(n) {
			return true
		}
	}
	return false
}

func hasMentalHealthName(names []string) bool {
	for _, n := range names {
		if clinical.IsMentalHealthSymptom(n) {
			return true
		}
	}
	return false
}

func dedupe(pack clinical.DisclaimerPack) clinical.DisclaimerPack {
	return clinical.DisclaimerPack{
		Disclaimers: dedupeStrings(pack.Disclaimers),
		ATDNotices:  dedupeStrings(pack.ATDNotices),
	}
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
