package policy

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// ParseRole
// ---------------------------------------------------------------------------

func TestParseRole(t *testing.T) {
	cases := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"Nurse", RoleNurse, false},
		{"nurse", RoleNurse, false},
		{"  PHARMACIST ", RolePharmacist, false},
		{"doctor", RoleDoctor, false},
		{"Supervisor", RoleSupervisor, false},
		{"janitor", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := ParseRole(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseRole(%q): expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRole(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// CheckPermission
// ---------------------------------------------------------------------------

func TestCheckPermission_SupervisorAllowsEverything(t *testing.T) {
	// Supervisor has ALL access and an empty deny set, so any query passes.
	queries := []string{
		"What medications is the patient on?",
		"Show me the audit log entries for today",
		"Personal address of patient P001",
		"completely unrelated text",
		"",
	}
	for _, q := range queries {
		ok, err := CheckPermission(RoleSupervisor, q)
		if err != nil {
			t.Fatalf("CheckPermission(Supervisor, %q): %v", q, err)
		}
		if !ok {
			t.Errorf("CheckPermission(Supervisor, %q) = false, want true", q)
		}
	}
}

func TestCheckPermission_DoctorDenyFirst(t *testing.T) {
	// Doctor has ALL access but "Audit Log" is explicitly denied, and the
	// deny set is evaluated even for ALL-access roles.
	ok, err := CheckPermission(RoleDoctor, "show me the audit log for ward 3")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("Doctor audit log query allowed, want denied")
	}

	ok, err = CheckPermission(RoleDoctor, "what is the diagnosis for patient P002?")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("Doctor diagnosis query denied, want allowed")
	}
}

func TestCheckPermission_DefaultDeny(t *testing.T) {
	// A query matching neither an allowed nor a denied keyword is denied:
	// the policy is allow-listed, not deny-listed.
	for _, role := range []Role{RoleNurse, RolePharmacist} {
		ok, err := CheckPermission(role, "what is the weather today?")
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Errorf("CheckPermission(%s, unrelated query) = true, want false", role)
		}
	}
}

func TestCheckPermission_DenyTakesPrecedence(t *testing.T) {
	// Query contains both an allowed keyword (Name) and a denied keyword
	// (Prescriptions) for Nurse: deny wins.
	ok, err := CheckPermission(RoleNurse, "name and prescriptions for patient P001")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("query with allowed and denied keywords allowed, want denied")
	}
}

func TestCheckPermission_CaseInsensitive(t *testing.T) {
	ok, err := CheckPermission(RoleNurse, "PATIENT DIAGNOSIS PLEASE")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("uppercase allowed keyword not matched")
	}

	ok, err = CheckPermission(RolePharmacist, "What is the PRESCRIPTION for patient X?")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("pharmacist prescription query denied, want allowed")
	}
}

func TestCheckPermission_NurseDeniedMedications(t *testing.T) {
	ok, err := CheckPermission(RoleNurse, "What medication details is the patient on?")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("Nurse medication details query allowed, want denied")
	}
}

func TestCheckPermission_UnknownRole(t *testing.T) {
	if _, err := CheckPermission(Role("Janitor"), "diagnosis"); err == nil {
		t.Error("expected error for unknown role")
	}
}

// ---------------------------------------------------------------------------
// ClassifyCriticality
// ---------------------------------------------------------------------------

func TestClassifyCriticality(t *testing.T) {
	cases := []struct {
		query string
		want  Criticality
	}{
		{"patient had chest pain and collapsed", CriticalityCritical},
		{"CODE BLUE in room 12", CriticalityCritical},
		{"possible Allergic Reaction to penicillin", CriticalityCritical},
		{"what is the diagnosis for patient P001?", CriticalityNormal},
		{"", CriticalityNormal},
		{"routine immunization schedule", CriticalityNormal},
	}
	for _, tc := range cases {
		if got := ClassifyCriticality(tc.query); got != tc.want {
			t.Errorf("ClassifyCriticality(%q) = %s, want %s", tc.query, got, tc.want)
		}
	}
}

func TestClassifyCriticality_EveryKeyword(t *testing.T) {
	for _, kw := range criticalKeywords {
		q := "patient reports " + strings.ToUpper(kw) + " since this morning"
		if got := ClassifyCriticality(q); got != CriticalityCritical {
			t.Errorf("keyword %q not classified as Critical", kw)
		}
	}
}

// ---------------------------------------------------------------------------
// AllowedFields / DeniedFields
// ---------------------------------------------------------------------------

func TestAllowedFields(t *testing.T) {
	fields, all := AllowedFields(RoleNurse)
	if all {
		t.Error("Nurse reported as ALL-access")
	}
	if len(fields) == 0 {
		t.Fatal("Nurse allow list empty")
	}

	// Returned slice is a copy: mutation must not leak into the table.
	fields[0] = "mutated"
	again, _ := AllowedFields(RoleNurse)
	if again[0] == "mutated" {
		t.Error("AllowedFields exposes internal table")
	}

	if _, all := AllowedFields(RoleDoctor); !all {
		t.Error("Doctor not reported as ALL-access")
	}
	if _, all := AllowedFields(RoleSupervisor); !all {
		t.Error("Supervisor not reported as ALL-access")
	}
}

func TestDeniedFields(t *testing.T) {
	if len(DeniedFields(RoleSupervisor)) != 0 {
		t.Error("Supervisor deny set should be empty")
	}
	found := false
	for _, d := range DeniedFields(RoleDoctor) {
		if d == "Audit Log" {
			found = true
		}
	}
	if !found {
		t.Error("Doctor deny set missing Audit Log")
	}
}
