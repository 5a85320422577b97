// Package corpus loads the hospital's per-category CSV record tables and
// flattens them into one retrievable text document per patient.
package corpus

// Patient holds one row of the patient details table.
type Patient struct {
	PatientID        string
	Name             string
	Sex              string
	DOB              string
	Phone            string
	Address          string
	NextOfKin        string
	NextOfKinPhone   string
	NextOfKinAddress string
}

// Diagnosis holds one diagnosis record.
type Diagnosis struct {
	PatientID string
	Diagnosis string
	State     string
	Status    string
}

// Medication holds one medication administration record.
type Medication struct {
	PatientID  string
	Date       string
	Medication string
}

// Prescription holds one prescription record.
type Prescription struct {
	PatientID    string
	Prescription string
	Instructions string
	Date         string
}

// Alert holds one clinical alert.
type Alert struct {
	PatientID string
	Alert     string
}

// DiabeticIndex holds one lab index measurement.
type DiabeticIndex struct {
	PatientID  string
	Index      string
	Value      string
	MostRecent string
}

// Encounter holds one encounter history record.
type Encounter struct {
	PatientID string
	Date      string
	Facility  string
	Specialty string
	Clinician string
	Reason    string
	Type      string
}

// Immunization holds one immunization record.
type Immunization struct {
	PatientID      string
	Immunization   string
	NumberReceived string
	MostRecent     string
}

// Tables bundles every loaded record category.
type Tables struct {
	Patients       []Patient
	Diagnoses      []Diagnosis
	Medications    []Medication
	Prescriptions  []Prescription
	Alerts         []Alert
	Indices        []DiabeticIndex
	Encounters     []Encounter
	Immunizations  []Immunization
}

// PatientDocument is one flattened patient record: the retrievable text unit
// keyed by patient identifier. Immutable once built.
type PatientDocument struct {
	PatientID string
	Content   string
}
