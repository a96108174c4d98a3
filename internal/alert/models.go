package alert

import (
	"time"

	"vigil/pkg/domain"
)

// Severity orders alert urgency. The numeric ordering matters: routing and
// the non-empty-recipients invariant key off "at least Warning".
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
	SeveritySecuritySensitive
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	case SeveritySecuritySensitive:
		return "security_sensitive"
	default:
		return "unknown"
	}
}

// Rule names the decision that produced an alert.
type Rule string

const (
	RuleTruancy           Rule = "truancy"
	RuleTruancyEscalation Rule = "truancy_escalation"
	RuleAudioLevel        Rule = "audio_level"
	RuleSafetySignal      Rule = "safety_signal"
)

// Alert is the engine's immutable output. Terminal states are "dispatched"
// or "suppressed"; nothing mutates an alert after creation.
//
// Invariant: Recipients is non-empty whenever Severity >= Warning.
type Alert struct {
	ID        domain.AlertID
	Timestamp time.Time
	Severity  Severity
	Rule      Rule
	Message   string
	Location  domain.Location
	// Identity is set for truancy alerts, nil-uuid for zone-level signals.
	Identity domain.PersonID
	// SustainedFor is how long the triggering condition had held when the
	// alert fired.
	SustainedFor time.Duration
	Recipients   []Recipient
}

// Role is a rung in the routing hierarchy. The hierarchy is a strict
// partial order: SuperAdmin > DepartmentHead > Supervisor > FrontlineStaff,
// with Security and SafetyResponder off to the side for incident response.
type Role string

const (
	RoleSuperAdmin      Role = "super_admin"
	RoleDepartmentHead  Role = "department_head"
	RoleSupervisor      Role = "supervisor"
	RoleFrontlineStaff  Role = "frontline_staff"
	RoleSecurity        Role = "security"
	RoleSafetyResponder Role = "safety_responder"
)

// Recipient is a role scoped to a department. Empty Department means the
// campus-wide group for that role.
type Recipient struct {
	Role       Role
	Department string
}
