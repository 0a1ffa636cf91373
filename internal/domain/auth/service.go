package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

type userFinder interface {
	FindByUsername(ctx context.Context, username string) (AuthUser, error)
}

// unknownUserHash is compared against when the username does not exist so both
// failure paths cost one bcrypt comparison.
var unknownUserHash = sync.OnceValue(func() string {
	hash, err := HashPassword("appraisal-unknown-user")
	if err != nil {
		panic(err)
	}
	return hash
})

type Service struct {
	Store    userFinder
	Secret   string
	TokenTTL time.Duration

	checkPassword func(hash, password string) error
}

func NewService(store userFinder, secret string, ttl time.Duration) *Service {
	return &Service{Store: store, Secret: secret, TokenTTL: ttl, checkPassword: CheckPassword}
}

func (s *Service) compare(hash, password string) error {
	if s.checkPassword == nil {
		return CheckPassword(hash, password)
	}
	return s.checkPassword(hash, password)
}

type LoginResult struct {
	Token string
	User  AuthUser
}

// Login verifies the password and issues a signed token carrying the user's roles.
// Unknown users and wrong passwords yield the same ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	user, err := s.Store.FindByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		_ = s.compare(unknownUserHash(), password)
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("find user: %w", err)
	}
	if err := s.compare(user.Password, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.Secret, Claims{UserID: user.ID, Username: user.Username, Roles: user.Roles.Strings()}, s.TokenTTL)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}
	return LoginResult{Token: token, User: user}, nil
}
