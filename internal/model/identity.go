package model

// AuthenticatedIdentity is the verified caller of a request. It is built once by the
// authentication step and passed explicitly to handlers.
type AuthenticatedIdentity struct {
	UserID      int    `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	PartnerCode string `json:"partnerCode"`
}

// NewAuthenticatedIdentity summarises a user record
func NewAuthenticatedIdentity(u *User) AuthenticatedIdentity {
	return AuthenticatedIdentity{
		UserID:      u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Role:        u.Role,
		PartnerCode: u.PartnerCode,
	}
}

// OpenRoute is an allowlisted (path prefix, method) pair that skips credential checks
type OpenRoute struct {
	Path   string
	Method string
}
