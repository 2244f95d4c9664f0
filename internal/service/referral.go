package service

import (
	"context"
	"fmt"

	"auth_gateway/internal/repository"
	"auth_gateway/internal/utils"
)

// maxPartnerCodeAttempts bounds collision retries; at 40 bits of entropy
// running out means the generator or the store is broken.
const maxPartnerCodeAttempts = 10

// ReferralLinker hands out partner codes and resolves referral codes at registration
type ReferralLinker struct {
	userRepo repository.UserRepository
	generate func() (string, error)
}

// NewReferralLinker creates a new ReferralLinker
func NewReferralLinker(userRepo repository.UserRepository) *ReferralLinker {
	return &ReferralLinker{userRepo: userRepo, generate: utils.GeneratePartnerCode}
}

// NewPartnerCode returns a code no live user currently holds. The store's unique
// constraint remains the final authority; callers retry on ErrDuplicatePartnerCode.
func (l *ReferralLinker) NewPartnerCode(ctx context.Context) (string, error) {
	for i := 0; i < maxPartnerCodeAttempts; i++ {
		code, err := l.generate()
		if err != nil {
			return "", err
		}
		existing, err := l.userRepo.FindByPartnerCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check partner code: %w", err)
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free partner code after %d attempts", maxPartnerCodeAttempts)
}

// ResolvePartner maps a referral code to the referring user's id. An empty code
// means no referral. The partner must exist and hold the role being registered.
func (l *ReferralLinker) ResolvePartner(ctx context.Context, code, role string) (*int, error) {
	if code == "" {
		return nil, nil
	}
	partner, err := l.userRepo.FindByPartnerCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve partner code: %w", err)
	}
	if partner == nil || partner.Role != role {
		return nil, ErrInvalidPartnerCode
	}
	id := partner.ID
	return &id, nil
}
