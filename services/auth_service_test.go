package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perchapp/perch/models"
	"github.com/perchapp/perch/utils"
)

func newTestUser(t *testing.T, users *fakeUserStore, email, password string, inactive bool) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	return users.add(models.User{
		Username:     "user-" + email,
		Email:        email,
		PasswordHash: hash,
		Inactive:     inactive,
	})
}

func TestAuthenticateFreshSession(t *testing.T) {
	sessions := newFakeSessionStore()
	users := newFakeUserStore()
	user := newTestUser(t, users, "anna@example.com", "P4ssword", false)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	auth := NewAuthService(sessions, users, fixedClock(now))

	session, _, err := auth.Login("anna@example.com", "P4ssword")
	require.NoError(t, err)

	result, err := auth.Authenticate(session.Token)
	require.NoError(t, err)
	assert.False(t, result.Anonymous)
	assert.Equal(t, user.ID, result.UserID)
}

func TestAuthenticateNoTokenIsAnonymous(t *testing.T) {
	auth := NewAuthService(newFakeSessionStore(), newFakeUserStore(), time.Now)

	result, err := auth.Authenticate("")
	require.NoError(t, err)
	assert.True(t, result.Anonymous)
}

func TestAuthenticateUnknownToken(t *testing.T) {
	auth := NewAuthService(newFakeSessionStore(), newFakeUserStore(), time.Now)

	_, err := auth.Authenticate("deadbeefdeadbeefdeadbeefdeadbeef")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestAuthenticateExpiredSession(t *testing.T) {
	sessions := newFakeSessionStore()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	lastUsed := now.Add(-SessionTTL - time.Millisecond)
	require.NoError(t, sessions.Create(&models.Session{Token: "tok", UserID: 1, LastUsedAt: lastUsed}))
	auth := NewAuthService(sessions, newFakeUserStore(), fixedClock(now))

	_, err := auth.Authenticate("tok")
	assert.ErrorIs(t, err, ErrExpiredSession)

	// the failure path neither refreshes nor deletes; cleanup is the
	// sweeper's job
	session, ok := sessions.get("tok")
	require.True(t, ok)
	assert.Equal(t, lastUsed, session.LastUsedAt)
}

func TestAuthenticateJustInsideWindow(t *testing.T) {
	sessions := newFakeSessionStore()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, sessions.Create(&models.Session{
		Token: "tok", UserID: 7, LastUsedAt: now.Add(-SessionTTL + time.Millisecond),
	}))
	auth := NewAuthService(sessions, newFakeUserStore(), fixedClock(now))

	result, err := auth.Authenticate("tok")
	require.NoError(t, err)
	assert.Equal(t, uint(7), result.UserID)
}

func TestAuthenticateTouchesLastUsedAt(t *testing.T) {
	sessions := newFakeSessionStore()
	clock := newMovableClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, sessions.Create(&models.Session{
		Token: "tok", UserID: 7, LastUsedAt: clock.Now(),
	}))
	auth := NewAuthService(sessions, newFakeUserStore(), clock.Now)

	clock.Advance(time.Hour)
	before := clock.Now()
	_, err := auth.Authenticate("tok")
	require.NoError(t, err)
	after := clock.Now()

	session, ok := sessions.get("tok")
	require.True(t, ok)
	assert.False(t, session.LastUsedAt.Before(before))
	assert.False(t, session.LastUsedAt.After(after))
}

func TestAuthenticateSlidesExpirationWindow(t *testing.T) {
	sessions := newFakeSessionStore()
	users := newFakeUserStore()
	newTestUser(t, users, "anna@example.com", "P4ssword", false)
	clock := newMovableClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	auth := NewAuthService(sessions, users, clock.Now)

	session, _, err := auth.Login("anna@example.com", "P4ssword")
	require.NoError(t, err)

	// four days in: still valid, and the use refreshes the window
	clock.Advance(4 * 24 * time.Hour)
	_, err = auth.Authenticate(session.Token)
	require.NoError(t, err)

	// six more days: past seven days from creation, but only six since
	// the refresh, so the session must still be valid
	clock.Advance(6 * 24 * time.Hour)
	result, err := auth.Authenticate(session.Token)
	require.NoError(t, err)
	assert.False(t, result.Anonymous)

	// seven more days without any use finally expires it
	clock.Advance(7 * 24 * time.Hour)
	_, err = auth.Authenticate(session.Token)
	assert.ErrorIs(t, err, ErrExpiredSession)
}

func TestConcurrentAuthenticateSameToken(t *testing.T) {
	sessions := newFakeSessionStore()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, sessions.Create(&models.Session{Token: "tok", UserID: 3, LastUsedAt: now}))
	auth := NewAuthService(sessions, newFakeUserStore(), fixedClock(now))

	const workers = 32
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	ids := make(chan uint, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := auth.Authenticate("tok")
			errs <- err
			ids <- result.UserID
		}()
	}
	wg.Wait()
	close(errs)
	close(ids)

	for err := range errs {
		assert.NoError(t, err)
	}
	for id := range ids {
		assert.Equal(t, uint(3), id)
	}
	_, ok := sessions.get("tok")
	assert.True(t, ok, "session row must survive concurrent authentication")
}

func TestLoginDoesNotRevealAccountExistence(t *testing.T) {
	sessions := newFakeSessionStore()
	users := newFakeUserStore()
	newTestUser(t, users, "anna@example.com", "P4ssword", false)
	auth := NewAuthService(sessions, users, time.Now)

	_, _, wrongPassword := auth.Login("anna@example.com", "not-the-password")
	_, _, unknownEmail := auth.Login("nobody@example.com", "P4ssword")

	assert.ErrorIs(t, wrongPassword, ErrAuthenticationFailed)
	assert.ErrorIs(t, unknownEmail, ErrAuthenticationFailed)
	assert.Zero(t, sessions.count())
}

func TestLoginInactiveAccount(t *testing.T) {
	sessions := newFakeSessionStore()
	users := newFakeUserStore()
	newTestUser(t, users, "anna@example.com", "P4ssword", true)
	auth := NewAuthService(sessions, users, time.Now)

	_, _, err := auth.Login("anna@example.com", "P4ssword")
	assert.ErrorIs(t, err, ErrAccountInactive)

	// wrong password on an inactive account must stay indistinguishable
	// from an unknown account
	_, _, err = auth.Login("anna@example.com", "wrong")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestLoginMintsOpaqueToken(t *testing.T) {
	sessions := newFakeSessionStore()
	users := newFakeUserStore()
	user := newTestUser(t, users, "anna@example.com", "P4ssword", false)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	auth := NewAuthService(sessions, users, fixedClock(now))

	session, loggedIn, err := auth.Login("anna@example.com", "P4ssword")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.Len(t, session.Token, TokenLength)
	assert.Regexp(t, "^[0-9a-f]+$", session.Token)
	assert.Equal(t, now, session.LastUsedAt)

	stored, ok := sessions.get(session.Token)
	require.True(t, ok)
	assert.Equal(t, user.ID, stored.UserID)
}

func TestLogoutIsIdempotent(t *testing.T) {
	sessions := newFakeSessionStore()
	require.NoError(t, sessions.Create(&models.Session{Token: "tok", UserID: 1, LastUsedAt: time.Now()}))
	auth := NewAuthService(sessions, newFakeUserStore(), time.Now)

	require.NoError(t, auth.Logout("tok"))
	require.NoError(t, auth.Logout("tok"))
	require.NoError(t, auth.Logout("never-existed"))
}

func TestDeleteAllSessionsFor(t *testing.T) {
	sessions := newFakeSessionStore()
	now := time.Now()
	require.NoError(t, sessions.Create(&models.Session{Token: "a", UserID: 1, LastUsedAt: now}))
	require.NoError(t, sessions.Create(&models.Session{Token: "b", UserID: 1, LastUsedAt: now}))
	require.NoError(t, sessions.Create(&models.Session{Token: "c", UserID: 2, LastUsedAt: now}))
	auth := NewAuthService(sessions, newFakeUserStore(), time.Now)

	require.NoError(t, auth.DeleteAllSessionsFor(1))

	_, aExists := sessions.get("a")
	_, bExists := sessions.get("b")
	_, cExists := sessions.get("c")
	assert.False(t, aExists)
	assert.False(t, bExists)
	assert.True(t, cExists)
}

func TestVerifyBasicCredentials(t *testing.T) {
	sessions := newFakeSessionStore()
	users := newFakeUserStore()
	user := newTestUser(t, users, "anna@example.com", "P4ssword", false)
	auth := NewAuthService(sessions, users, time.Now)

	verified, err := auth.VerifyBasicCredentials("anna@example.com", "P4ssword")
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)
	// basic auth neither mints nor touches sessions
	assert.Zero(t, sessions.count())

	_, err = auth.VerifyBasicCredentials("anna@example.com", "wrong")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}
