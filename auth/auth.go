// Package auth handles accounts: signup, login with bcrypt hashed
// passwords and the HS256 session tokens handed out as cookies.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/puoklam/connectly-backend/directory"
)

// ErrInvalidCredentials is returned for an unknown email and for a wrong
// password alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Hobbies  []string
}

type Service struct {
	store      directory.Store
	tokens     *Tokens
	bcryptCost int
	logger     zerolog.Logger
}

func NewService(store directory.Store, tokens *Tokens, bcryptCost int, logger zerolog.Logger) *Service {
	return &Service{
		store:      store,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger.With().Str("component", "auth").Logger(),
	}
}

func (s *Service) Tokens() *Tokens {
	return s.tokens
}

// Signup creates the account. Duplicate emails and names surface as
// directory.ErrDuplicateEmail and directory.ErrDuplicateName, a blank name
// or email as directory.ErrMissingIdentity.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*directory.User, error) {
	u := &directory.User{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Hobbies: in.Hobbies,
	}
	if err := u.CheckIdentity(); err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", u.ID).Msg("user signed up")
	return u, nil
}

// Login checks the password and returns the user with a fresh session token.
func (s *Service) Login(ctx context.Context, email, password string) (*directory.User, string, error) {
	u, err := s.store.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, directory.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return u, token, nil
}
