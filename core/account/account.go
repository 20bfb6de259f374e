// Package account normalizes the raw account shapes found at the data boundary
// into a single effective role and admin flag.
package account

import (
	"strconv"
	"strings"
)

// Role is a viewer's effective role. A viewer holds exactly one.
type Role string

const (
	RoleFree   Role = "free"
	RoleMember Role = "member"
	RoleMaster Role = "master"
	RoleBoth   Role = "both" // member + master
)

// roleAdmin is a legacy raw role value granting admin rights only.
const roleAdmin = "admin"

var AllRoles = []Role{RoleFree, RoleMember, RoleMaster, RoleBoth}

// ParseRole maps a raw role value to a Role. Unknown values resolve to RoleFree.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleMember:
		return RoleMember
	case RoleMaster:
		return RoleMaster
	case RoleBoth:
		return RoleBoth
	default:
		return RoleFree
	}
}

// IsValid reports whether `r` is one of AllRoles.
func (r Role) IsValid() bool {
	switch r {
	case RoleFree, RoleMember, RoleMaster, RoleBoth:
		return true
	}
	return false
}

func (r Role) HasMemberAccess() bool { return r == RoleMember || r == RoleBoth }
func (r Role) HasMasterAccess() bool { return r == RoleMaster || r == RoleBoth }

// Raw is any account shape received from a backend or an auth token.
// The role either sits on the account itself or on its first linked account.
type Raw struct {
	ID           interface{} `json:"id,omitempty" mapstructure:"Id"`
	Name         string      `json:"name,omitempty" mapstructure:"name"`
	Email        string      `json:"email,omitempty" mapstructure:"email"`
	Role         string      `json:"role,omitempty" mapstructure:"role"`
	UserRole     string      `json:"userRole,omitempty" mapstructure:"userRole"`
	IsAdmin      bool        `json:"isAdmin,omitempty" mapstructure:"isAdmin"`
	IsAdminSnake bool        `json:"is_admin,omitempty" mapstructure:"is_admin"`
	Cohort       string      `json:"cohort,omitempty" mapstructure:"cohort"`
	MasterCohort string      `json:"master_cohort,omitempty" mapstructure:"master_cohort"`
	Accounts     []Raw       `json:"accounts,omitempty" mapstructure:"accounts"`
}

// effective returns the account that carries the role: accounts[0] if present.
func (r *Raw) effective() *Raw {
	if len(r.Accounts) > 0 {
		return &r.Accounts[0]
	}
	return r
}

func (r *Raw) roleValue() string {
	if r.Role != "" {
		return r.Role
	}
	return r.UserRole
}

// ResolveRole returns the effective role of `raw`. A nil account is RoleFree.
func ResolveRole(raw *Raw) Role {
	if raw == nil {
		return RoleFree
	}
	return ParseRole(raw.effective().roleValue())
}

// IsAdmin reports whether `raw` has admin rights. A nil account is never admin.
func IsAdmin(raw *Raw) bool {
	if raw == nil {
		return false
	}
	eff := raw.effective()
	return eff.IsAdmin || eff.IsAdminSnake || strings.EqualFold(eff.roleValue(), roleAdmin) ||
		raw.IsAdmin || raw.IsAdminSnake
}

// Viewer is the normalized identity every access decision is made for.
type Viewer struct {
	ID      int    `json:"id"`
	Role    Role   `json:"role"`
	IsAdmin bool   `json:"is_admin"`
	Cohort  string `json:"cohort,omitempty"`
}

// Anonymous returns the viewer of unauthenticated requests.
func Anonymous() Viewer {
	return Viewer{Role: RoleFree}
}

func (v Viewer) IsAuthenticated() bool { return v.ID != 0 }

// Resolve normalizes `raw` into a Viewer.
func Resolve(raw *Raw) Viewer {
	if raw == nil {
		return Anonymous()
	}
	eff := raw.effective()
	v := Viewer{
		ID:      parseID(raw.ID),
		Role:    ResolveRole(raw),
		IsAdmin: IsAdmin(raw),
		Cohort:  firstNonEmpty(eff.Cohort, eff.MasterCohort, raw.Cohort, raw.MasterCohort),
	}
	if v.ID == 0 {
		v.ID = parseID(eff.ID)
	}
	return v
}

func parseID(id interface{}) int {
	switch v := id.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	}
	return 0
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
