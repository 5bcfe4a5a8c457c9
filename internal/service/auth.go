// Package service provides authentication business logic,
// delegating persistence to a UserRepository.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/atinyakov/DocPortal/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines the persistence operations
// required by the authentication service.
type UserRepository interface {
	// UserExists returns true if a user with the given username exists.
	UserExists(ctx context.Context, username string) (bool, error)
	// CreateUser stores a new user; duplicates yield models.ErrUsernameTaken.
	CreateUser(ctx context.Context, u *models.User) error
	// GetUser fetches a user; a miss yields models.ErrUserNotFound.
	GetUser(ctx context.Context, username string) (*models.User, error)
	// UpdatePassword replaces the password hash; a miss yields models.ErrUserNotFound.
	UpdatePassword(ctx context.Context, username string, hash []byte) error
}

// Registration is the input to Register.
type Registration struct {
	Username string
	Name     string
	Email    string
	Password string
}

// AuthService implements registration, login and password reset.
type AuthService struct {
	repo UserRepository
	log  *zap.Logger
	cost int

	// dummy is compared against when the user does not exist, so unknown
	// usernames cost as much as wrong passwords.
	dummy   []byte
	compare func(hash, password []byte) error
}

// NewAuthService constructs a new AuthService using the provided repository.
func NewAuthService(repo UserRepository, log *zap.Logger) *AuthService {
	s := &AuthService{repo: repo, log: log, compare: bcrypt.CompareHashAndPassword}
	return s.WithHashCost(bcrypt.DefaultCost)
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.cost = cost
	// An out-of-range cost fails every later hash too, so Register reports it.
	s.dummy, _ = bcrypt.GenerateFromPassword(passwordKey("dummy password"), cost)
	return s
}

// passwordKey condenses a password of any length into the 44 bytes bcrypt
// hashes. bcrypt alone rejects input over 72 bytes.
func passwordKey(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	key := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(key, sum[:])
	return key
}

func validUsername(username string) bool {
	n := utf8.RuneCountInString(username)
	return n > 0 && n <= models.MaxUsernameLen
}

func (s *AuthService) hash(password string) ([]byte, error) {
	h, err := bcrypt.GenerateFromPassword(passwordKey(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return h, nil
}

// Register creates a new user. A second registration of the same username
// returns models.ErrUsernameTaken and leaves the first one untouched.
func (s *AuthService) Register(ctx context.Context, in Registration) (*models.User, error) {
	if !validUsername(in.Username) {
		return nil, fmt.Errorf("register %q: %w", in.Username, models.ErrInvalidUsername)
	}

	exists, err := s.repo.UserExists(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("register %q: %w", in.Username, models.ErrUsernameTaken)
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{Username: in.Username, Name: in.Name, Email: in.Email, PasswordHash: hash}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("username", u.Username))
	return u, nil
}

// Login verifies the password and returns the user. Unknown users and wrong
// passwords are both reported as models.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.repo.GetUser(ctx, username)
	if errors.Is(err, models.ErrUserNotFound) {
		_ = s.compare(s.dummy, passwordKey(password))
		return nil, fmt.Errorf("login %q: %w", username, models.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}

	if err := s.compare(u.PasswordHash, passwordKey(password)); err != nil {
		return nil, fmt.Errorf("login %q: %w", username, models.ErrInvalidCredentials)
	}
	return u, nil
}

// ResetPassword sets a new password after checking it against confirm.
// On mismatch nothing is stored.
func (s *AuthService) ResetPassword(ctx context.Context, username, password, confirm string) error {
	if password != confirm {
		return models.ErrPasswordMismatch
	}

	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, username, hash); err != nil {
		return err
	}
	s.log.Info("password reset", zap.String("username", username))
	return nil
}
