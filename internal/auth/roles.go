package auth

import "github.com/ovaphlow/pitchfork/service-raas/internal/apperr"

// Role is the closed set of account roles stored on the user row.
type Role string

const (
	RoleUser     Role = "user"
	RolePaidUser Role = "paid_user"
	RoleAdmin    Role = "admin"
)

// Capability names one permission checked by a route gate.
type Capability string

const (
	CapOwnOutcomes    Capability = "outcomes:own"
	CapRunPipeline    Capability = "pipeline:run"
	CapCheckout       Capability = "payments:checkout"
	CapLaunchCampaign Capability = "campaigns:launch"
	CapOwnAnalytics   Capability = "analytics:own"
	CapAdminRead      Capability = "admin:read"
	CapAdminWrite     Capability = "admin:write"
	CapAllAnalytics   Capability = "analytics:all"
	CapExportAll      Capability = "export:all"
	CapRunAnyPipeline Capability = "pipeline:run_any"
)

var ownerCapabilities = []Capability{
	CapOwnOutcomes,
	CapRunPipeline,
	CapCheckout,
	CapLaunchCampaign,
	CapOwnAnalytics,
}

var capabilities = map[Role]map[Capability]bool{
	RoleUser:     set(ownerCapabilities...),
	RolePaidUser: set(ownerCapabilities...),
	RoleAdmin: set(append(ownerCapabilities,
		CapAdminRead,
		CapAdminWrite,
		CapAllAnalytics,
		CapExportAll,
		CapRunAnyPipeline,
	)...),
}

func set(caps ...Capability) map[Capability]bool {
	m := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		m[c] = true
	}
	return m
}

// Roles lists every valid role.
func Roles() []Role {
	return []Role{RoleUser, RolePaidUser, RoleAdmin}
}

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := capabilities[r]; !ok {
		return "", apperr.Validation("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := capabilities[r]
	return ok
}

// Can reports whether the role carries capability c. Unknown roles carry nothing.
func (r Role) Can(c Capability) bool {
	return capabilities[r][c]
}

func (r Role) String() string { return string(r) }
