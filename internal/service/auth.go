// Package service contains the business logic layer of the backend.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the database
//
// Services accept primitives and small input structs, never *http.Request,
// so the Slack commands and the JSON handlers share the same rules.
// They return apperror values; the handler decides the status code.
//
// DEPENDENCY INJECTION:
// Every service takes repository interfaces, not *sqlite.DB. Tests pass the
// in-memory fakes from fakes_test.go.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/apexkudos/kudos/internal/apperror"
	"github.com/apexkudos/kudos/internal/auth"
	"github.com/apexkudos/kudos/internal/model"
	"github.com/apexkudos/kudos/internal/repository"
)

const (
	MaxNameLength     = 100
	MaxPasswordLength = 72 // bcrypt input limit
)

// AuthService handles registration, login, and the current-user lookup.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository → read/write user records
//   - tokens     *auth.TokenService        → issue JWTs
//   - passwords  *auth.PasswordService     → bcrypt hashing
//   - logger     *slog.Logger              → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger

	// admins holds lowercased emails that are granted is_admin, both at
	// startup and when they register later.
	admins map[string]bool
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
		admins:    make(map[string]bool),
	}
}

// RegisterInput is the payload of POST /register.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	// SlackID optionally links the account to a Slack member ID for the
	// slash commands and praise DMs.
	SlackID string `json:"slack_id,omitempty"`
}

// LoginResult is what the token endpoint returns.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Register validates the input and creates a user with a zero balance.
// A duplicate email comes back from the repository as
// ValidationFailed("email", "Email already registered").
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := strings.TrimSpace(in.Email)
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)

	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, apperror.ValidationFailed("email", "A valid email is required")
	}
	if in.Password == "" {
		return nil, apperror.ValidationFailed("password", "Password is required")
	}
	if len(in.Password) > MaxPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("Password must be %d bytes or fewer", MaxPasswordLength))
	}
	if first == "" || last == "" {
		return nil, apperror.ValidationFailed("name", "First and last name are required")
	}
	if len(first) > MaxNameLength || len(last) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("Names must be %d characters or less", MaxNameLength))
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		Email:        email,
		FirstName:    first,
		LastName:     last,
		SlackID:      strings.TrimSpace(in.SlackID),
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: registering %s: %w", email, err)
	}

	if s.admins[strings.ToLower(email)] {
		if _, err := s.users.SetAdmin(ctx, email, true); err != nil {
			return nil, fmt.Errorf("service/auth: promoting %s: %w", email, err)
		}
		user.IsAdmin = true
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("email", user.Email),
	)
	return user, nil
}

// Login checks the email/password pair and issues an access token.
// Unknown email and wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	badCredentials := apperror.Unauthorized("Incorrect email or password")

	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, badCredentials
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Info("login rejected", slog.Int64("userID", user.ID))
			return nil, badCredentials
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))

	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
	}, nil
}

// GetUserByID returns the user behind an authenticated request. It also
// satisfies auth.UserLookup for the admin gate.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	if id <= 0 {
		return nil, apperror.Unauthorized("Could not validate credentials")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %d: %w", id, err)
	}
	return user, nil
}

// PromoteAdmins grants is_admin to every listed email that belongs to a
// registered user and remembers the list, so an admin configured before
// signing up is promoted by Register. Must be called before serving.
func (s *AuthService) PromoteAdmins(ctx context.Context, emails []string) error {
	for _, email := range emails {
		email = strings.TrimSpace(email)
		if email == "" {
			continue
		}
		s.admins[strings.ToLower(email)] = true
		found, err := s.users.SetAdmin(ctx, email, true)
		if err != nil {
			return fmt.Errorf("service/auth: promoting %s: %w", email, err)
		}
		if !found {
			s.logger.Info("admin email has no account yet", slog.String("email", email))
			continue
		}
		s.logger.Info("admin promoted", slog.String("email", email))
	}
	return nil
}
