// Package policy implements the role-based access rules for patient record
// queries. A query is allowed or denied by case-insensitive keyword
// containment against a static per-role allow/deny table, and independently
// classified as Normal or Critical by a fixed keyword list. Both decisions
// are pure functions; neither ever fails for a known role.
//
// The keyword-containment policy is deliberately simple and is a known-weak
// mechanism: substring matching is easy to evade or trigger falsely. It is
// reproduced here for compatibility with the upstream rules, not as a
// semantic or cryptographic guarantee.
package policy

import (
	"fmt"
	"strings"
)

// Role is a staff category determining query access scope. It is fixed for
// the lifetime of an authenticated session.
type Role string

const (
	RoleNurse      Role = "Nurse"
	RolePharmacist Role = "Pharmacist"
	RoleDoctor     Role = "Doctor"
	RoleSupervisor Role = "Supervisor"
)

// ParseRole maps a case-insensitive role name onto a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nurse":
		return RoleNurse, nil
	case "pharmacist":
		return RolePharmacist, nil
	case "doctor":
		return RoleDoctor, nil
	case "supervisor":
		return RoleSupervisor, nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// Criticality is the urgency classification of a query, independent of the
// allow/deny outcome.
type Criticality string

const (
	CriticalityNormal   Criticality = "Normal"
	CriticalityCritical Criticality = "Critical"
)

// rolePolicy holds the allow/deny keyword sets for one role. A nil Fields
// slice with AllFields set means the role may ask about any field, subject
// to the deny set.
type rolePolicy struct {
	AllFields bool
	Fields    []string
	Deny      []string
}

// rolePolicies is the single canonical permission table. Deny keywords take
// precedence over allow keywords for every role, including ALL-access roles.
var rolePolicies = map[Role]rolePolicy{
	RoleNurse: {
		Fields: []string{"Name", "Sex", "DOB", "Diagnosis", "Alerts", "Encounter History"},
		Deny:   []string{"Prescriptions", "Medication Details", "Personal Address", "NextOfKin", "Audit Log"},
	},
	RolePharmacist: {
		Fields: []string{"Name", "Medication Details", "Prescriptions"},
		Deny:   []string{"Diagnosis", "Alerts", "Personal Address", "Encounter History", "NextOfKin", "Audit Log"},
	},
	RoleDoctor: {
		AllFields: true,
		Deny:      []string{"Audit Log"},
	},
	RoleSupervisor: {
		AllFields: true,
	},
}

// criticalKeywords flags queries that describe an urgent clinical situation.
// Matching is case-insensitive substring containment.
var criticalKeywords = []string{
	"chest pain", "heart attack", "code blue", "seizure", "unconscious", "emergency",
	"suicide", "allergic reaction", "anaphylaxis", "stroke", "bleeding", "collapse",
}

// CheckPermission reports whether role may ask query. Evaluation is
// deny-first: any denied keyword contained in the query refuses it outright.
// Roles without ALL access are then allow-listed — a query matching no
// allowed keyword is denied by default (fail closed).
//
// An unknown role is a configuration bug upstream of this package; it cannot
// occur for a session authenticated against the Role enumeration.
func CheckPermission(role Role, query string) (bool, error) {
	p, ok := rolePolicies[role]
	if !ok {
		return false, fmt.Errorf("no permission policy for role %q", role)
	}

	q := strings.ToLower(query)
	for _, d := range p.Deny {
		if strings.Contains(q, strings.ToLower(d)) {
			return false, nil
		}
	}
	if p.AllFields {
		return true, nil
	}
	for _, f := range p.Fields {
		if strings.Contains(q, strings.ToLower(f)) {
			return true, nil
		}
	}
	return false, nil
}

// ClassifyCriticality returns Critical iff query contains at least one
// critical keyword, case-insensitively. First match wins; no match is Normal.
func ClassifyCriticality(query string) Criticality {
	q := strings.ToLower(query)
	for _, kw := range criticalKeywords {
		if strings.Contains(q, kw) {
			return CriticalityCritical
		}
	}
	return CriticalityNormal
}

// AllowedFields returns the allow-listed field keywords for role, or
// (nil, true) for ALL-access roles. The same set backs both the outer
// permission check and the retrieval tool's re-validation, so the two can
// never drift apart.
func AllowedFields(role Role) (fields []string, all bool) {
	p, ok := rolePolicies[role]
	if !ok {
		return nil, false
	}
	if p.AllFields {
		return nil, true
	}
	out := make([]string, len(p.Fields))
	copy(out, p.Fields)
	return out, false
}

// DeniedFields returns the deny-listed field keywords for role.
func DeniedFields(role Role) []string {
	p := rolePolicies[role]
	out := make([]string, len(p.Deny))
	copy(out, p.Deny)
	return out
}
