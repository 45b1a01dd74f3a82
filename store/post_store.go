package store

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/perchapp/perch/models"
)

// PostStore persists posts.
type PostStore struct {
	db *gorm.DB
}

func NewPostStore(db *gorm.DB) *PostStore {
	return &PostStore{db: db}
}

func (s *PostStore) Create(post *models.Post) error {
	if err := s.db.Create(post).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (s *PostStore) FindByID(id uint) (*models.Post, error) {
	var posts []models.Post
	if err := s.db.Where("id = ?", id).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	if len(posts) == 0 {
		return nil, ErrNotFound
	}
	return &posts[0], nil
}

// List returns a page of posts, newest first, with owner and
// attachment loaded. userID of zero means all users.
func (s *PostStore) List(page, size int, userID uint) ([]models.Post, int64, error) {
	var posts []models.Post
	var total int64

	q := s.db.Model(&models.Post{})
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}
	err := q.Preload("User").Preload("Attachment").
		Order("id DESC").Offset(page * size).Limit(size).
		Find(&posts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	return posts, total, nil
}

func (s *PostStore) Delete(id uint) error {
	if err := s.db.Delete(&models.Post{}, id).Error; err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

func (s *PostStore) DeleteAllForUser(userID uint) error {
	if err := s.db.Where("user_id = ?", userID).Delete(&models.Post{}).Error; err != nil {
		return fmt.Errorf("delete user posts: %w", err)
	}
	return nil
}
