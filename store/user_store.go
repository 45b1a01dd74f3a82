package store

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/perchapp/perch/models"
)

// UserStore persists accounts.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(user *models.User) error {
	if err := s.db.Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *UserStore) FindByID(id uint) (*models.User, error) {
	return s.findOne("id = ?", id)
}

func (s *UserStore) FindByEmail(email string) (*models.User, error) {
	return s.findOne("email = ?", email)
}

func (s *UserStore) FindByActivationToken(token string) (*models.User, error) {
	// An empty token column means "already activated"; never match it.
	if token == "" {
		return nil, ErrNotFound
	}
	return s.findOne("activation_token = ?", token)
}

func (s *UserStore) FindByPasswordResetToken(token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return s.findOne("password_reset_token = ?", token)
}

func (s *UserStore) findOne(query string, arg interface{}) (*models.User, error) {
	var users []models.User
	if err := s.db.Where(query, arg).Limit(1).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	return &users[0], nil
}

func (s *UserStore) Update(user *models.User) error {
	if err := s.db.Save(user).Error; err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (s *UserStore) Delete(id uint) error {
	if err := s.db.Delete(&models.User{}, id).Error; err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// ListActive returns a page of activated accounts, excluding the
// caller, newest first.
func (s *UserStore) ListActive(page, size int, excludeID uint) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	q := s.db.Model(&models.User{}).Where("inactive = ? AND id <> ?", false, excludeID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	if err := q.Order("id DESC").Offset(page * size).Limit(size).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}
