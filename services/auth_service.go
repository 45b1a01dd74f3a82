package services

import (
	"errors"
	"time"

	"github.com/perchapp/perch/models"
	"github.com/perchapp/perch/store"
	"github.com/perchapp/perch/utils"
)

const (
	// SessionTTL is the sliding expiration window: a session stays
	// valid while the time since its last use is under this.
	SessionTTL = 7 * 24 * time.Hour
	// TokenLength is the number of hex characters in a session token.
	TokenLength = 32
)

// SessionStore is the persistence contract AuthService needs.
type SessionStore interface {
	Create(session *models.Session) error
	FindByToken(token string) (*models.Session, error)
	Touch(token string, now time.Time) error
	DeleteByToken(token string) error
	DeleteAllForUser(userID uint) error
}

// UserStore is the account lookup contract shared by the services.
type UserStore interface {
	Create(user *models.User) error
	FindByID(id uint) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	FindByActivationToken(token string) (*models.User, error)
	FindByPasswordResetToken(token string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	ListActive(page, size int, excludeID uint) ([]models.User, int64, error)
}

// AuthResult is the outcome of validating a bearer token. A request
// without a token is anonymous, not an error; route guards decide
// whether anonymous access is allowed.
type AuthResult struct {
	Anonymous bool
	UserID    uint
}

// AuthService owns session issuance, validation and revocation plus
// the password-based login path used at session creation.
type AuthService struct {
	sessions SessionStore
	users    UserStore
	now      Clock
}

func NewAuthService(sessions SessionStore, users UserStore, now Clock) *AuthService {
	return &AuthService{sessions: sessions, users: users, now: now}
}

// Authenticate validates a bearer token. A valid token has its
// LastUsedAt bumped, sliding the expiration window forward. The expiry
// check runs before the touch: an expired session is reported without
// a write and left for the sweeper.
func (s *AuthService) Authenticate(token string) (AuthResult, error) {
	if token == "" {
		return AuthResult{Anonymous: true}, nil
	}

	session, err := s.sessions.FindByToken(token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthResult{}, ErrInvalidSession
		}
		return AuthResult{}, err
	}

	now := s.now()
	if now.Sub(session.LastUsedAt) >= SessionTTL {
		return AuthResult{}, ErrExpiredSession
	}

	if err := s.sessions.Touch(token, now); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{UserID: session.UserID}, nil
}

// Login verifies email and password and mints a fresh session. Unknown
// email and wrong password are indistinguishable; the inactive check
// runs only after the password verified, so this branch leaks nothing
// either.
func (s *AuthService) Login(email, password string) (*models.Session, *models.User, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrAuthenticationFailed
		}
		return nil, nil, err
	}

	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, nil, ErrAuthenticationFailed
	}
	if user.Inactive {
		return nil, nil, ErrAccountInactive
	}

	session := &models.Session{
		Token:      utils.GenerateToken(TokenLength),
		UserID:     user.ID,
		LastUsedAt: s.now(),
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// VerifyBasicCredentials runs the same email/password/inactive checks
// as Login but neither mints nor touches a session. It backs the
// legacy endpoints that re-prove identity on every request.
func (s *AuthService) VerifyBasicCredentials(email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAuthenticationFailed
		}
		return nil, err
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrAuthenticationFailed
	}
	if user.Inactive {
		return nil, ErrAccountInactive
	}
	return user, nil
}

// Logout revokes a session. Revoking an absent token is a no-op.
func (s *AuthService) Logout(token string) error {
	return s.sessions.DeleteByToken(token)
}

// DeleteAllSessionsFor revokes every session of a user. Must be called
// whenever an account is deleted or its password is reset.
func (s *AuthService) DeleteAllSessionsFor(userID uint) error {
	return s.sessions.DeleteAllForUser(userID)
}
