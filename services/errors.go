package services

import "errors"

var (
	// ErrInvalidSession covers tokens that were never issued as well as
	// revoked ones; callers cannot tell the two apart.
	ErrInvalidSession = errors.New("invalid session token")
	// ErrExpiredSession means the token exists but has been idle past
	// the session TTL. The row is left for the sweeper.
	ErrExpiredSession = errors.New("session expired")
	// ErrAuthenticationFailed is returned for unknown email and wrong
	// password alike, so responses do not reveal which accounts exist.
	ErrAuthenticationFailed = errors.New("incorrect credentials")
	// ErrAccountInactive means the credentials were correct but the
	// account has not been activated yet.
	ErrAccountInactive = errors.New("account is inactive")

	ErrUserNotFound  = errors.New("user not found")
	ErrEmailInUse    = errors.New("email already in use")
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrEmailDelivery = errors.New("failed to send email")
	ErrForbidden     = errors.New("not allowed")

	// ErrImageTooLarge and ErrUnsupportedImageType reject profile
	// images before anything touches the disk.
	ErrImageTooLarge        = errors.New("profile image too large")
	ErrUnsupportedImageType = errors.New("unsupported profile image type")
)
