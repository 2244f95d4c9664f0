package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"time"

	"auth_gateway/internal/model"
	"auth_gateway/internal/repository"
	"auth_gateway/internal/utils"
)

var (
	ErrEmailAlreadyUsed   = errors.New("email already used")
	ErrInvalidPartnerCode = errors.New("invalid partner code")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidCredentials = errors.New("email or password is incorrect")
	ErrAccountBlocked     = errors.New("account blocked")
	ErrTokenInvalid       = errors.New("invalid token")
)

// RestaurantLookup resolves the restaurant a user created. An empty id means none.
type RestaurantLookup interface {
	GetRestaurantByCreatorID(ctx context.Context, creatorID int) (string, error)
}

// AuthService provides authentication related services
type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (utils.TokenPair, error)
	// Authenticate verifies an access token and re-checks the account's live state
	Authenticate(ctx context.Context, accessToken string) (*model.User, *utils.JWTClaims, error)
}

type authService struct {
	userRepo    repository.UserRepository
	referral    *ReferralLinker
	tokens      *utils.TokenIssuer
	restaurants RestaurantLookup
	bcryptCost  int
	dummyHash   string
}

// NewAuthService creates a new AuthService. restaurants may be nil, which disables lookups.
func NewAuthService(userRepo repository.UserRepository, referral *ReferralLinker, tokens *utils.TokenIssuer,
	restaurants RestaurantLookup, bcryptCost int) AuthService {
	// Compared against when the email is unknown, so both failure paths pay for a hash check
	dummyHash, err := utils.HashPasswordWithCost("unknown-account", bcryptCost)
	if err != nil {
		log.Printf("WARN: failed to prepare dummy password hash: %v", err)
	}
	return &authService{
		userRepo:    userRepo,
		referral:    referral,
		tokens:      tokens,
		restaurants: restaurants,
		bcryptCost:  bcryptCost,
		dummyHash:   dummyHash,
	}
}

// Register creates a new user account
func (s *authService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	role := req.Role
	if role == "" {
		role = model.RoleUser
	}
	if !model.IsValidRole(role) {
		return nil, ErrInvalidRole
	}

	existingUser, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, ErrEmailAlreadyUsed
	}

	partnerID, err := s.referral.ResolvePartner(ctx, req.PartnerCode, role)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := utils.HashPasswordWithCost(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Role:         role,
		PartnerID:    partnerID,
	}

	// The email check above is advisory; the unique constraint decides
	for attempt := 1; ; attempt++ {
		user.PartnerCode, err = s.referral.NewPartnerCode(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to generate partner code: %w", err)
		}
		err = s.userRepo.Create(ctx, user)
		if err == nil {
			break
		}
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrEmailAlreadyUsed
		case errors.Is(err, repository.ErrDuplicatePartnerCode) && attempt < maxPartnerCodeAttempts:
			log.Printf("WARN: partner code collision on create, retrying (attempt %d)", attempt)
			continue
		default:
			return nil, fmt.Errorf("failed to create user in repository: %w", err)
		}
	}

	log.Printf("INFO: registered user %d with role %s", user.ID, user.Role)
	return user, nil
}

// Login authenticates a user and returns an access and refresh token
func (s *authService) Login(ctx context.Context, email, password string) (*model.LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil {
		utils.CheckPasswordHash(password, s.dummyHash)
		return nil, ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		log.Printf("INFO: failed login for user %d", user.ID)
		return nil, ErrInvalidCredentials
	}

	if user.IsBlocked {
		log.Printf("INFO: blocked user %d attempted to log in", user.ID)
		return nil, ErrAccountBlocked
	}

	restaurantRef := s.lookupRestaurant(ctx, user)
	if err := s.userRepo.RecordLogin(ctx, user.ID, restaurantRef); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	now := time.Now()
	user.LastLogin = &now
	if restaurantRef != nil {
		user.RestaurantRef = restaurantRef
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	if err := s.userRepo.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	user.RefreshToken = &pair.RefreshToken

	log.Printf("INFO: user %d logged in", user.ID)
	return &model.LoginResult{User: user, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

// lookupRestaurant never fails the login; an unavailable collaborator means no restaurant
func (s *authService) lookupRestaurant(ctx context.Context, user *model.User) *string {
	if user.Role != model.RoleRestaurant || s.restaurants == nil {
		return nil
	}
	id, err := s.restaurants.GetRestaurantByCreatorID(ctx, user.ID)
	if err != nil {
		log.Printf("WARN: restaurant lookup for user %d failed: %v", user.ID, err)
		return nil
	}
	if id == "" {
		return nil
	}
	return &id
}

// Refresh rotates the refresh token. Only the value currently stored for the user is
// accepted; it is replaced by a new one. Two concurrent calls presenting the same
// token can both pass the comparison, the last write wins.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (utils.TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return utils.TokenPair{}, ErrTokenInvalid
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return utils.TokenPair{}, fmt.Errorf("error finding user by ID: %w", err)
	}
	if user == nil || user.RefreshToken == nil ||
		subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(refreshToken)) != 1 {
		return utils.TokenPair{}, ErrTokenInvalid
	}
	if user.IsBlocked {
		return utils.TokenPair{}, ErrAccountBlocked
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Role)
	if err != nil {
		return utils.TokenPair{}, fmt.Errorf("failed to generate tokens: %w", err)
	}
	if err := s.userRepo.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return utils.TokenPair{}, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return pair, nil
}

// Authenticate verifies an access token and loads its user. A missing or blocked
// user yields ErrAccountBlocked even when the token itself is still valid.
func (s *authService) Authenticate(ctx context.Context, accessToken string) (*model.User, *utils.JWTClaims, error) {
	claims, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, nil, ErrTokenInvalid
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("error finding user by ID: %w", err)
	}
	if user == nil || user.IsBlocked {
		return nil, nil, ErrAccountBlocked
	}
	return user, claims, nil
}
