package alert

import (
	"log/slog"
	"strings"

	"vigil/internal/alert/metrics"
	"vigil/pkg/domain"
)

// defaultHierarchy is the routing order used when configuration does not
// supply one, highest authority first.
var defaultHierarchy = []Role{
	RoleSuperAdmin,
	RoleDepartmentHead,
	RoleSupervisor,
	RoleFrontlineStaff,
}

// RoleRegistry resolves alert recipients from severity and location. The
// routing table is pure: severity and the location's department are the only
// inputs, so it is unit-testable without any I/O.
type RoleRegistry struct {
	hierarchy []Role
	// departments maps normalized location names to the department
	// answerable for them.
	departments map[string]string
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// RegistryOption configures the RoleRegistry.
type RegistryOption func(*RoleRegistry)

// WithHierarchy overrides the routing order, highest authority first.
func WithHierarchy(roles []Role) RegistryOption {
	return func(r *RoleRegistry) {
		if len(roles) > 0 {
			r.hierarchy = roles
		}
	}
}

// WithRegistryLogger sets the logger for configuration warnings.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *RoleRegistry) { r.logger = logger }
}

// WithRegistryMetrics counts fail-open resolutions.
func WithRegistryMetrics(m *metrics.Metrics) RegistryOption {
	return func(r *RoleRegistry) { r.metrics = m }
}

// NewRoleRegistry builds a registry over a location -> department mapping.
func NewRoleRegistry(departments map[string]string, opts ...RegistryOption) *RoleRegistry {
	norm := make(map[string]string, len(departments))
	for loc, dept := range departments {
		norm[domain.Location(loc).Norm()] = dept
	}
	r := &RoleRegistry{
		hierarchy:   defaultHierarchy,
		departments: norm,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Department returns the department for a location, or "" when unmapped.
func (r *RoleRegistry) Department(loc domain.Location) string {
	return r.departments[loc.Norm()]
}

// Lookup computes the recipient set for a severity at a location.
//
// Resolution never fails closed: an unmapped location is a configuration
// error, logged and answered with the highest-authority role so oversight
// always hears about it. Silent drop is not an option here.
func (r *RoleRegistry) Lookup(sev Severity, loc domain.Location) []Recipient {
	if sev == SeverityInfo {
		return nil
	}

	dept, mapped := r.departments[loc.Norm()]
	if !mapped {
		r.logger.Warn("no department mapped for location, routing to highest authority",
			"location", loc.String(),
			"severity", sev.String(),
		)
		r.metrics.IncRouteError()
		out := []Recipient{{Role: r.highestAuthority()}}
		return appendIncidentRoles(out, sev)
	}

	var out []Recipient
	switch sev {
	case SeverityWarning:
		out = []Recipient{
			{Role: RoleSupervisor, Department: dept},
			{Role: RoleDepartmentHead, Department: dept},
		}
	case SeverityCritical:
		out = []Recipient{
			{Role: RoleDepartmentHead, Department: dept},
			{Role: r.highestAuthority()},
		}
	case SeveritySecuritySensitive:
		out = []Recipient{
			{Role: r.highestAuthority()},
		}
	}
	return appendIncidentRoles(out, sev)
}

// appendIncidentRoles adds Security for Critical and above, and
// SafetyResponder for SecuritySensitive.
func appendIncidentRoles(out []Recipient, sev Severity) []Recipient {
	if sev >= SeverityCritical {
		out = append(out, Recipient{Role: RoleSecurity})
	}
	if sev == SeveritySecuritySensitive {
		out = append(out, Recipient{Role: RoleSafetyResponder})
	}
	return dedupeRecipients(out)
}

func (r *RoleRegistry) highestAuthority() Role {
	if len(r.hierarchy) == 0 {
		return RoleSuperAdmin
	}
	return r.hierarchy[0]
}

func dedupeRecipients(in []Recipient) []Recipient {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, rec := range in {
		key := string(rec.Role) + "\x00" + strings.ToLower(rec.Department)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rec)
	}
	return out
}

// ParseHierarchy converts configured role names into a hierarchy, skipping
// unknown names with a warning so a typo cannot silence routing.
func ParseHierarchy(names []string, logger *slog.Logger) []Role {
	known := map[Role]bool{
		RoleSuperAdmin: true, RoleDepartmentHead: true, RoleSupervisor: true,
		RoleFrontlineStaff: true, RoleSecurity: true, RoleSafetyResponder: true,
	}
	var out []Role
	for _, name := range names {
		role := Role(strings.TrimSpace(name))
		if !known[role] {
			if logger != nil {
				logger.Warn("unknown role in configured hierarchy", "role", name)
			}
			continue
		}
		out = append(out, role)
	}
	return out
}
