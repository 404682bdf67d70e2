/*
Package auth provides user accounts and session tokens for the asset API.

PURPOSE:
  Operators register with a role (admin, commander, logistics) and, for
  commanders, a home base. Login verifies a bcrypt hash and mints an
  HS256 JWT carrying the (userID, role, homeBase) triple; the API's
  session middleware turns a verified token back into a ledger.Actor.
  The movement engine itself never sees credentials.
*/
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/asset-ledger/ledger"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already registered")

	// ErrInvalidCredentials covers both unknown users and bad passwords,
	// deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidRole is returned for roles outside admin/commander/logistics
	// or a commander registration without a home base.
	ErrInvalidRole = errors.New("invalid role for registration")
)

// User is an operator account. PasswordHash is a bcrypt hash, never the
// plain password.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         ledger.Role
	Base         string
	CreatedAt    time.Time
}

// Actor converts the account into the opaque triple the engine consumes.
func (u User) Actor() ledger.Actor {
	return ledger.Actor{UserID: u.ID, Role: u.Role, HomeBase: u.Base}
}

// UserStore persists accounts. GetUserByUsername returns (nil, nil) when
// the user does not exist; CreateUser fails on duplicate usernames.
type UserStore interface {
	CreateUser(ctx context.Context, u User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
}

// Service implements registration and login over a UserStore.
type Service struct {
	users  UserStore
	tokens *TokenIssuer
}

func NewService(users UserStore, tokens *TokenIssuer) *Service {
	return &Service{users: users, tokens: tokens}
}

// RegisterInput is the payload for account creation.
type RegisterInput struct {
	Username string
	Password string
	Role     ledger.Role
	Base     string
}

// Register creates an account. Commanders must name a home base; admins
// and logistics must not carry one, since their base handling is decided
// per request by the authorization policy.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return User{}, ErrInvalidCredentials
	}
	if !in.Role.Valid() {
		return User{}, ErrInvalidRole
	}
	if in.Role == ledger.RoleCommander && in.Base == "" {
		return User{}, ErrInvalidRole
	}
	if in.Role != ledger.RoleCommander {
		in.Base = ""
	}

	existing, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return User{}, err
	}
	if existing != nil {
		return User{}, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         in.Role,
		Base:         in.Base,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Login verifies the password and returns the account with a signed
// session token.
func (s *Service) Login(ctx context.Context, username, password string) (User, string, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return User{}, "", err
	}
	if user == nil {
		return User{}, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Actor())
	if err != nil {
		return User{}, "", err
	}
	return *user, token, nil
}

// Verify parses a session token back into an actor.
func (s *Service) Verify(token string) (ledger.Actor, error) {
	return s.tokens.Parse(token)
}
