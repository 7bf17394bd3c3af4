// Package service provides the business logic for identity and inventory,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/cerevyn/internal/apperr"
	"github.com/atinyakov/cerevyn/internal/models"
)

// UserRepository defines the persistence operations
// required by the authentication service.
type UserRepository interface {
	// CreateUser stores a new user. Returns apperr.ErrEmailTaken on a duplicate email.
	CreateUser(ctx context.Context, u *models.User) error
	// GetUserByEmail returns apperr.ErrNotFound when no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID returns apperr.ErrNotFound when the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Tokens issues and verifies identity tokens.
type Tokens interface {
	Issue(subjectID string) (string, error)
	Verify(token string) (string, error)
}

// StructValidator validates tagged request structs.
type StructValidator interface {
	Struct(s any) error
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	FullName string `json:"fullName" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FarmName string `json:"farmName" validate:"max=120"`
}

// LoginInput is the login payload.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is the outcome of a successful registration or login.
type AuthResult struct {
	User  models.User
	Token string
}

// AuthService implements registration, login and token-based identity
// resolution on top of a UserRepository.
type AuthService struct {
	repo     UserRepository
	tokens   Tokens
	validate StructValidator
	now      func() time.Time
	hashCost int
}

// NewAuthService constructs an AuthService.
func NewAuthService(repo UserRepository, tokens Tokens, validate StructValidator) *AuthService {
	return &AuthService{
		repo:     repo,
		tokens:   tokens,
		validate: validate,
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
}

// Register creates a user with a bcrypt-hashed password and logs them in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = normalizeEmail(in.Email)
	in.FarmName = strings.TrimSpace(in.FarmName)

	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, apperr.NewValidationError("validation failed", apperr.FieldError{
			Field:   "password",
			Message: "password must be at most 72 bytes",
		})
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := models.User{
		ID:           uuid.NewString(),
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: hash,
		FarmName:     in.FarmName,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, apperr.ErrEmailTaken) {
			return nil, apperr.NewValidationError("validation failed", apperr.FieldError{
				Field:   "email",
				Message: "email is already registered",
			})
		}
		return nil, err
	}

	return s.issue(u)
}

// Login checks the credentials and issues a token. Unknown email and wrong
// password both yield apperr.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperr.NewValidationError("please provide email and password")
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(in.Password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}

	return s.issue(*u)
}

// Authenticate verifies token and resolves its subject to a live user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.User, error) {
	sub, err := s.tokens.Verify(token)
	if err != nil {
		return models.User{}, apperr.Unauthenticated("invalid token", err)
	}

	u, err := s.repo.GetUserByID(ctx, sub)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.User{}, apperr.Unauthenticated("user no longer exists", err)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("resolve identity: %w", err)
	}
	return *u, nil
}

func (s *AuthService) issue(u models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
