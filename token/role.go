package token

// Role names the two privilege tiers. The numeric level threshold
// lives only in this file; every gate goes through these helpers.
type Role string

const (
	RoleFrontend Role = "frontenduser"
	RoleBackend  Role = "backenduser"
)

const frontendLevel = 50

func RoleForLevel(level int) Role {
	if level == frontendLevel {
		return RoleFrontend
	}
	return RoleBackend
}

// AllowsStandard gates the standard (frontend user) area.
func AllowsStandard(level int) bool {
	return level >= frontendLevel
}

// AllowsElevated gates the elevated (backend user) area.
func AllowsElevated(level int) bool {
	return level > frontendLevel
}

// HomePath is where a freshly logged-in user of this role lands.
func (r Role) HomePath() string {
	if r == RoleFrontend {
		return "/frontenduser"
	}
	return "/backenduser"
}
