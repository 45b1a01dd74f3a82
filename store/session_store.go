package store

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/perchapp/perch/models"
)

// SessionStore persists bearer-token sessions.
type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Create(session *models.Session) error {
	if err := s.db.Create(session).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *SessionStore) FindByToken(token string) (*models.Session, error) {
	var sessions []models.Session
	if err := s.db.Where("token = ?", token).Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if len(sessions) == 0 {
		return nil, ErrNotFound
	}
	return &sessions[0], nil
}

// Touch slides the expiration window forward. Concurrent touches on
// the same token are last-writer-wins, which is fine since the only
// consumer of the timestamp is the TTL comparison.
func (s *SessionStore) Touch(token string, now time.Time) error {
	if err := s.db.Model(&models.Session{}).Where("token = ?", token).Update("last_used_at", now).Error; err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// DeleteByToken removes a session. Deleting an absent token is not an
// error.
func (s *SessionStore) DeleteByToken(token string) error {
	if err := s.db.Where("token = ?", token).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteAllForUser(userID uint) error {
	if err := s.db.Where("user_id = ?", userID).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

// DeleteLastUsedBefore evicts every session idle since before cutoff
// and reports how many rows went away.
func (s *SessionStore) DeleteLastUsedBefore(cutoff time.Time) (int64, error) {
	res := s.db.Where("last_used_at < ?", cutoff).Delete(&models.Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete stale sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
