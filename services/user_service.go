package services

import (
	"errors"

	"github.com/perchapp/perch/models"
	"github.com/perchapp/perch/store"
	"github.com/perchapp/perch/utils"
)

// Mailer delivers account lifecycle mail. Injected so tests run
// without SMTP.
type Mailer interface {
	SendAccountActivation(email, token string) error
	SendPasswordReset(email, token string) error
}

// PostStore is the slice of post persistence UserService needs for the
// account deletion cascade.
type PostStore interface {
	DeleteAllForUser(userID uint) error
}

// UserService owns account lifecycle: registration, activation,
// password reset and deletion.
type UserService struct {
	users  UserStore
	posts  PostStore
	auth   *AuthService
	files  *FileService
	mailer Mailer
}

func NewUserService(users UserStore, posts PostStore, auth *AuthService, files *FileService, mailer Mailer) *UserService {
	return &UserService{users: users, posts: posts, auth: auth, files: files, mailer: mailer}
}

// Register creates an inactive account and mails the activation token.
// When the mail cannot be delivered the account is rolled back so the
// email address is not burned.
func (s *UserService) Register(username, email, password string) error {
	if _, err := s.users.FindByEmail(email); err == nil {
		return ErrEmailInUse
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	user := &models.User{
		Username:        username,
		Email:           email,
		PasswordHash:    hash,
		Inactive:        true,
		ActivationToken: utils.GenerateToken(16),
	}
	if err := s.users.Create(user); err != nil {
		return err
	}

	if err := s.mailer.SendAccountActivation(email, user.ActivationToken); err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Errorf("activation mail to %s: %v", email, err)
		}
		if delErr := s.users.Delete(user.ID); delErr != nil {
			return delErr
		}
		return ErrEmailDelivery
	}
	return nil
}

// Activate redeems an activation token, switching the account active
// and clearing the token so it cannot be replayed.
func (s *UserService) Activate(token string) error {
	user, err := s.users.FindByActivationToken(token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	user.Inactive = false
	user.ActivationToken = ""
	return s.users.Update(user)
}

// RequestPasswordReset issues a reset token and mails it. Unknown
// email surfaces as ErrUserNotFound.
func (s *UserService) RequestPasswordReset(email string) error {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	user.PasswordResetToken = utils.GenerateToken(16)
	if err := s.users.Update(user); err != nil {
		return err
	}
	if err := s.mailer.SendPasswordReset(email, user.PasswordResetToken); err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Errorf("password reset mail to %s: %v", email, err)
		}
		return ErrEmailDelivery
	}
	return nil
}

// CompletePasswordReset redeems a reset token: stores the new hash,
// activates the account, clears both tokens and revokes every live
// session of the user.
func (s *UserService) CompletePasswordReset(token, newPassword string) error {
	user, err := s.users.FindByPasswordResetToken(token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.Inactive = false
	user.ActivationToken = ""
	user.PasswordResetToken = ""
	if err := s.users.Update(user); err != nil {
		return err
	}
	return s.auth.DeleteAllSessionsFor(user.ID)
}

// GetUser returns an activated account by id.
func (s *UserService) GetUser(id uint) (*models.User, error) {
	user, err := s.users.FindByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Inactive {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ListUsers returns a page of activated accounts excluding the caller.
func (s *UserService) ListUsers(page, size int, callerID uint) ([]models.User, int64, error) {
	return s.users.ListActive(page, size, callerID)
}

// UpdateUser changes the username and optionally replaces the profile
// image.
func (s *UserService) UpdateUser(id uint, username string, image []byte) (*models.User, error) {
	user, err := s.users.FindByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.Username = username
	if len(image) > 0 {
		if user.Image != "" {
			s.files.DeleteProfileImage(user.Image)
		}
		filename, err := s.files.SaveProfileImage(image)
		if err != nil {
			return nil, err
		}
		user.Image = filename
	}
	if err := s.users.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes an account. Sessions go first so no request can
// authenticate mid-teardown, then files, posts and finally the row.
// The cascade is explicit; nothing relies on database-level FK magic.
func (s *UserService) DeleteUser(id uint) error {
	user, err := s.users.FindByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.auth.DeleteAllSessionsFor(user.ID); err != nil {
		return err
	}
	if err := s.files.DeleteUserFiles(user); err != nil {
		return err
	}
	if err := s.posts.DeleteAllForUser(user.ID); err != nil {
		return err
	}
	return s.users.Delete(user.ID)
}
