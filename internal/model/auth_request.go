package model

// RegisterRequest is used for creating a new account
type RegisterRequest struct {
	FirstName   string `json:"firstName" binding:"required"`
	LastName    string `json:"lastName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	Role        string `json:"role"`
	PartnerCode string `json:"partnerCode"`
}

// LoginRequest carries login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries the refresh token presented for rotation
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// SuspendRequest toggles the blocked state of a user
type SuspendRequest struct {
	UserID int `json:"userId" binding:"required,gt=0"`
}

// UpdateUserRequest changes profile fields. UserID targets another account and
// requires a privileged caller; when omitted the caller's own account is updated.
type UpdateUserRequest struct {
	UserID          *int    `json:"userId"`
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
	Email           *string `json:"email" binding:"omitempty,email"`
	CurrentPassword *string `json:"currentPassword"`
	NewPassword     *string `json:"newPassword"`
}

// LoginResult is what a successful login hands back to the caller
type LoginResult struct {
	User         *User
	AccessToken  string
	RefreshToken string
}

// LoginUserView is the user summary embedded in the login response
type LoginUserView struct {
	ID           int     `json:"id"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	PartnerCode  string  `json:"partnerCode"`
	RestaurantID *string `json:"restaurantId"`
}

// NewLoginUserView builds the login summary for u
func NewLoginUserView(u *User) LoginUserView {
	return LoginUserView{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Role:         u.Role,
		PartnerCode:  u.PartnerCode,
		RestaurantID: u.RestaurantRef,
	}
}
