package service

// RolePolicy decides which roles may use privileged operations
type RolePolicy struct {
	privileged map[string]bool
}

// NewRolePolicy creates a RolePolicy granting privilege to the given roles
func NewRolePolicy(privilegedRoles []string) RolePolicy {
	p := RolePolicy{privileged: make(map[string]bool, len(privilegedRoles))}
	for _, r := range privilegedRoles {
		p.privileged[r] = true
	}
	return p
}

// IsPrivileged reports whether role may act on other accounts
func (p RolePolicy) IsPrivileged(role string) bool {
	return p.privileged[role]
}
