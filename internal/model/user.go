package model

import "time"

const (
	RoleUser        = "user"
	RoleRestaurant  = "restaurant"
	RoleDeliveryman = "deliveryman"
	RoleDeveloper   = "developer"
	RoleMarketing   = "marketing"
	RoleTechnical   = "technical"
)

// Roles lists every role a user can register with
var Roles = []string{RoleUser, RoleRestaurant, RoleDeliveryman, RoleDeveloper, RoleMarketing, RoleTechnical}

// IsValidRole reports whether role belongs to the fixed role set
func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// User represents an account in the system
type User struct {
	ID            int        `json:"id"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"` // Never exposed in responses
	Role          string     `json:"role"`
	PartnerCode   string     `json:"partnerCode"`
	PartnerID     *int       `json:"partnerId"`
	RestaurantRef *string    `json:"restaurantId"`
	RefreshToken  *string    `json:"-"` // Never exposed in responses
	IsBlocked     bool       `json:"isBlocked"`
	LastLogin     *time.Time `json:"lastLogin"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	DeletedAt     *time.Time `json:"-"`
}

// UserFieldsUpdate carries the profile fields an update may change.
// Nil fields are left untouched.
type UserFieldsUpdate struct {
	FirstName    *string
	LastName     *string
	Email        *string
	PasswordHash *string
}

// IsEmpty reports whether the update changes nothing
func (u UserFieldsUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Email == nil && u.PasswordHash == nil
}
