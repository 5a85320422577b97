package corpus

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File names of the eight record tables inside the data directory.
const (
	patientsFile      = "patient_details.csv"
	diagnosisFile     = "diagnosis.csv"
	medicationsFile   = "medications.csv"
	prescriptionsFile = "prescriptions.csv"
	alertsFile        = "alerts.csv"
	indicesFile       = "diabetic_indices.csv"
	encountersFile    = "encounter_history.csv"
	immunizationsFile = "immunizations.csv"
)

// LoadTables reads all eight record tables from dataDir.
func LoadTables(dataDir string) (*Tables, error) {
	t := &Tables{}

	if err := loadCSV(filepath.Join(dataDir, patientsFile), func(row map[string]string) {
		t.Patients = append(t.Patients, Patient{
			PatientID:        row["PatientID"],
			Name:             row["Name"],
			Sex:              row["Sex"],
			DOB:              row["DOB"],
			Phone:            row["Phone"],
			Address:          row["Address"],
			NextOfKin:        row["NextOfKin"],
			NextOfKinPhone:   row["NextOfKinPhone"],
			NextOfKinAddress: row["NextOfKinAddress"],
		})
	}); err != nil {
		return nil, err
	}

	if err := loadCSV(filepath.Join(dataDir, diagnosisFile), func(row map[string]string) {
		t.Diagnoses = append(t.Diagnoses, Diagnosis{
			PatientID: row["PatientID"],
			Diagnosis: row["Diagnosis"],
			State:     row["State"],
			Status:    row["Status"],
		})
	}); err != nil {
		return nil, err
	}

	if err := loadCSV(filepath.Join(dataDir, medicationsFile), func(row map[string]string) {
		t.Medications = append(t.Medications, Medication{
			PatientID:  row["PatientID"],
			Date:       row["Date"],
			Medication: row["Medication"],
		})
	}); err != nil {
		return nil, err
	}

	if err := loadCSV(filepath.Join(dataDir, prescriptionsFile), func(row map[string]string) {
		t.Prescriptions = append(t.Prescriptions, Prescription{
			PatientID:    row["PatientID"],
			Prescription: row["Prescription"],
			Instructions: row["Instructions"],
			Date:         row["Date"],
		})
	}); err != nil {
		return nil, err
	}

	if err := loadCSV(filepath.Join(dataDir, alertsFile), func(row map[string]string) {
		t.Alerts = append(t.Alerts, Alert{
			PatientID: row["PatientID"],
			Alert:     row["Alert"],
		})
	}); err != nil {
		return nil, err
	}

	if err := loadCSV(filepath.Join(dataDir, indicesFile), func(row map[string]string) {
		t.Indices = append(t.Indices, DiabeticIndex{
			PatientID:  row["PatientID"],
			Index:      row["Index"],
			Value:      row["Value"],
			MostRecent: row["MostRecent"],
		})
	}); err != nil {
		return nil, err
	}

	if err := loadCSV(filepath.Join(dataDir, encountersFile), func(row map[string]string) {
		t.Encounters = append(t.Encounters, Encounter{
			PatientID: row["PatientID"],
			Date:      row["Date"],
			Facility:  row["Facility"],
			Specialty: row["Specialty"],
			Clinician: row["Clinician"],
			Reason:    row["Reason"],
			Type:      row["Type"],
		})
	}); err != nil {
		return nil, err
	}

	if err := loadCSV(filepath.Join(dataDir, immunizationsFile), func(row map[string]string) {
		t.Immunizations = append(t.Immunizations, Immunization{
			PatientID:      row["PatientID"],
			Immunization:   row["Immunization"],
			NumberReceived: row["NumberReceived"],
			MostRecent:     row["MostRecent"],
		})
	}); err != nil {
		return nil, err
	}

	return t, nil
}

// loadCSV reads a header-keyed CSV file and calls visit for every row.
func loadCSV(path string, visit func(row map[string]string)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%s: missing header row", filepath.Base(path))
	}

	header := records[0]
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[strings.TrimSpace(col)] = rec[i]
			}
		}
		visit(row)
	}
	return nil
}
