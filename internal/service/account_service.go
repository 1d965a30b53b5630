package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"accounthub/api/internal/ids"
	"accounthub/api/internal/models"
	"accounthub/api/internal/repository"
	"accounthub/api/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
)

// UserStore is the persistence contract the handlers are wired against.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	UpdateProfile(ctx context.Context, user models.User) error
	Delete(ctx context.Context, id string) error
	SetAvatar(ctx context.Context, id string, avatar []byte) error
	ClearAvatar(ctx context.Context, id string) error
	GetAvatar(ctx context.Context, id string) ([]byte, error)
}

// TokenStore owns the issued-token list. Append must be atomic so
// concurrent logins cannot drop each other's tokens.
type TokenStore interface {
	Append(ctx context.Context, token models.SessionToken) error
	Exists(ctx context.Context, userID string, tokenHash []byte) (bool, error)
	Remove(ctx context.Context, userID string, tokenHash []byte) error
	Clear(ctx context.Context, userID string) error
}

// TokenIssuer mints and verifies session tokens.
type TokenIssuer interface {
	Issue(userID string) (string, models.SessionToken, error)
	Verify(token string) (string, error)
}

type AccountService struct {
	users  UserStore
	tokens TokenStore
	issuer TokenIssuer
	log    zerolog.Logger
}

func NewAccountService(users UserStore, tokens TokenStore, issuer TokenIssuer, log zerolog.Logger) *AccountService {
	return &AccountService{
		users:  users,
		tokens: tokens,
		issuer: issuer,
		log:    log,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Age      *int
	Address  *string
}

func (s *AccountService) Register(ctx context.Context, input RegisterInput) (models.User, string, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return models.User{}, "", errors.New("email and password required")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return models.User{}, "", ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, "", err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, "", err
	}

	user := models.User{
		ID:           ids.New(),
		Name:         input.Name,
		Email:        email,
		PasswordHash: passwordHash,
		Age:          input.Age,
		Address:      input.Address,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return models.User{}, "", ErrEmailTaken
		}
		return models.User{}, "", err
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return models.User{}, "", err
	}

	return user, token, nil
}

func (s *AccountService) Login(ctx context.Context, email string, password string) (models.User, string, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, "", ErrInvalidCredentials
		}
		return models.User{}, "", err
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return models.User{}, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return models.User{}, "", err
	}

	return user, token, nil
}

// Logout revokes the single token presented with the request.
func (s *AccountService) Logout(ctx context.Context, userID string, token string) error {
	return s.tokens.Remove(ctx, userID, security.HashSessionToken(token))
}

// LogoutAll clears every live session for the user.
func (s *AccountService) LogoutAll(ctx context.Context, userID string) error {
	return s.tokens.Clear(ctx, userID)
}

func (s *AccountService) UpdateProfile(ctx context.Context, user models.User, update ProfileUpdate) (models.User, error) {
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Email != nil {
		user.Email = normalizeEmail(*update.Email)
	}
	if update.Password != nil {
		passwordHash, err := security.HashPassword(*update.Password)
		if err != nil {
			return models.User{}, err
		}
		user.PasswordHash = passwordHash
	}
	if update.Age != nil {
		user.Age = update.Age
	}
	if update.Address != nil {
		user.Address = update.Address
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return user, nil
}

// DeleteAccount removes the user record and all of its sessions. The user
// row goes first: if that delete fails the account must stay fully usable,
// sessions included. Leftover token rows for a removed user are inert (auth
// re-resolves the user on every request) so a failed cleanup is only logged.
func (s *AccountService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.tokens.Clear(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("session cleanup after delete failed")
	}
	return nil
}

func (s *AccountService) issueToken(ctx context.Context, userID string) (string, error) {
	token, record, err := s.issuer.Issue(userID)
	if err != nil {
		return "", err
	}
	if err := s.tokens.Append(ctx, record); err != nil {
		return "", err
	}
	return token, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
