package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatehouse/gatehouse/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	hasher Hasher
}

// NewService constructs a new Service.
func NewService(repo Repository, hasher Hasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// Authenticate validates email/password credentials and expands the account
// into its authority set. Unknown accounts and wrong passwords are
// indistinguishable to the caller; the unknown path still runs a bcrypt
// compare so the two failures take comparable time.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*shared.Identity, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.hasher.Verify(password, dummyDigest)
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: lookup account: %w", err)
	}
	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, shared.ErrInvalidCredentials
	}
	return &shared.Identity{
		PrincipalID: account.ID,
		Email:       account.Email,
		Authorities: account.AuthorityNames(),
	}, nil
}

// Register creates an account under one of the seeded roles. The password
// is hashed before the repository ever sees it.
func (s *Service) Register(ctx context.Context, email, password string, role RoleName) error {
	if !role.Valid() {
		return shared.ErrRoleNotFound
	}
	seeded, err := s.repo.FindRoleByName(ctx, role)
	if err != nil {
		return err
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	if _, err := s.repo.CreateAccount(ctx, email, digest, seeded.ID); err != nil {
		return err
	}
	return nil
}
