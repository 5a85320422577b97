package agent

import "github.com/sasilab/medbot/internal/domain/policy"

// rolePrompts holds the per-role system instruction prefixed to every
// generator call. Each role gets a different scope reminder.
var rolePrompts = map[policy.Role]string{
	policy.RoleNurse: "You are a hospital nurse AI assistant. Only provide diagnosis, alerts, " +
		"basic patient info, and encounter history. Never show personal addresses, " +
		"next-of-kin, or full prescriptions.",
	policy.RolePharmacist: "You are a hospital pharmacist AI assistant. Only provide medication and " +
		"prescription details, and patient names. Never provide diagnosis or personal/medical history.",
	policy.RoleDoctor: "You are a hospital doctor AI assistant. You may access and discuss all " +
		"medical information except audit logs.",
	policy.RoleSupervisor: "You are a hospital supervisor. You can access all patient data and audit logs. " +
		"Monitor for critical or illegal activities.",
}

// SystemPrompt returns the system instruction for role.
func SystemPrompt(role policy.Role) string {
	if p, ok := rolePrompts[role]; ok {
		return p
	}
	return "You are a hospital AI assistant."
}
