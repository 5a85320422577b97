package corpus

import (
	"fmt"
	"strings"
)

// Combine joins all eight record categories by patient identifier into one
// text document per patient, in patient table order. Sections with no
// records for a patient are omitted.
func Combine(t *Tables) []PatientDocument {
	docs := make([]PatientDocument, 0, len(t.Patients))

	for _, p := range t.Patients {
		var parts []string

		parts = append(parts,
			fmt.Sprintf("PatientID: %s", p.PatientID),
			fmt.Sprintf("Name: %s", p.Name),
			fmt.Sprintf("Sex: %s", p.Sex),
			fmt.Sprintf("DOB: %s", p.DOB),
			fmt.Sprintf("Phone: %s", p.Phone),
			fmt.Sprintf("Address: %s", p.Address),
			fmt.Sprintf("NextOfKin: %s (%s), Address: %s", p.NextOfKin, p.NextOfKinPhone, p.NextOfKinAddress),
		)

		var diag []string
		for _, d := range t.Diagnoses {
			if d.PatientID == p.PatientID {
				diag = append(diag, fmt.Sprintf(" - %s (State: %s, Status: %s)", d.Diagnosis, d.State, d.Status))
			}
		}
		if len(diag) > 0 {
			parts = append(parts, "Diagnoses:")
			parts = append(parts, diag...)
		}

		var meds []string
		for _, m := range t.Medications {
			if m.PatientID == p.PatientID {
				meds = append(meds, fmt.Sprintf(" - %s on %s", m.Medication, m.Date))
			}
		}
		if len(meds) > 0 {
			parts = append(parts, "Medications:")
			parts = append(parts, meds...)
		}

		var presc []string
		for _, pr := range t.Prescriptions {
			if pr.PatientID == p.PatientID {
				presc = append(presc, fmt.Sprintf(" - %s: %s (%s)", pr.Prescription, pr.Instructions, pr.Date))
			}
		}
		if len(presc) > 0 {
			parts = append(parts, "Prescriptions:")
			parts = append(parts, presc...)
		}

		var alerts []string
		for _, a := range t.Alerts {
			if a.PatientID == p.PatientID {
				alerts = append(alerts, fmt.Sprintf(" - %s", a.Alert))
			}
		}
		if len(alerts) > 0 {
			parts = append(parts, "Alerts:")
			parts = append(parts, alerts...)
		}

		var indices []string
		for _, ix := range t.Indices {
			if ix.PatientID == p.PatientID {
				indices = append(indices, fmt.Sprintf(" - %s: %s (Most Recent: %s)", ix.Index, ix.Value, ix.MostRecent))
			}
		}
		if len(indices) > 0 {
			parts = append(parts, "Diabetic Indices:")
			parts = append(parts, indices...)
		}

		var encs []string
		for _, e := range t.Encounters {
			if e.PatientID == p.PatientID {
				encs = append(encs, fmt.Sprintf(" - %s, %s, %s, %s, %s (%s)",
					e.Date, e.Facility, e.Specialty, e.Clinician, e.Reason, e.Type))
			}
		}
		if len(encs) > 0 {
			parts = append(parts, "Encounter History:")
			parts = append(parts, encs...)
		}

		var imms []string
		for _, im := range t.Immunizations {
			if im.PatientID == p.PatientID {
				imms = append(imms, fmt.Sprintf(" - %s: %s doses (Most Recent: %s)", im.Immunization, im.NumberReceived, im.MostRecent))
			}
		}
		if len(imms) > 0 {
			parts = append(parts, "Immunizations:")
			parts = append(parts, imms...)
		}

		docs = append(docs, PatientDocument{
			PatientID: p.PatientID,
			Content:   strings.Join(parts, "\n"),
		})
	}
	return docs
}
