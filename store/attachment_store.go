package store

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/perchapp/perch/models"
)

// AttachmentStore persists uploaded file metadata.
type AttachmentStore struct {
	db *gorm.DB
}

func NewAttachmentStore(db *gorm.DB) *AttachmentStore {
	return &AttachmentStore{db: db}
}

func (s *AttachmentStore) Create(attachment *models.FileAttachment) error {
	if err := s.db.Create(attachment).Error; err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	return nil
}

func (s *AttachmentStore) FindByID(id uint) (*models.FileAttachment, error) {
	var items []models.FileAttachment
	if err := s.db.Where("id = ?", id).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("find attachment: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

func (s *AttachmentStore) FindByPost(postID uint) (*models.FileAttachment, error) {
	var items []models.FileAttachment
	if err := s.db.Where("post_id = ?", postID).Limit(1).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("find post attachment: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

// Associate links an attachment to a post. The guard on post_id makes
// the first association win: an already-linked attachment is left
// untouched and the call is a no-op.
func (s *AttachmentStore) Associate(attachmentID, postID uint) error {
	err := s.db.Model(&models.FileAttachment{}).
		Where("id = ? AND post_id IS NULL", attachmentID).
		Update("post_id", postID).Error
	if err != nil {
		return fmt.Errorf("associate attachment: %w", err)
	}
	return nil
}

// FindOrphansBefore returns attachments that were never linked to a
// post and were uploaded before cutoff.
func (s *AttachmentStore) FindOrphansBefore(cutoff time.Time, limit int) ([]models.FileAttachment, error) {
	var items []models.FileAttachment
	err := s.db.Where("post_id IS NULL AND upload_date < ?", cutoff).Limit(limit).Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("find orphan attachments: %w", err)
	}
	return items, nil
}

// FindForUserPosts returns every attachment linked to any post of the
// given user. Used when an account is deleted.
func (s *AttachmentStore) FindForUserPosts(userID uint) ([]models.FileAttachment, error) {
	var items []models.FileAttachment
	err := s.db.
		Joins("JOIN posts ON posts.id = file_attachments.post_id").
		Where("posts.user_id = ?", userID).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("find user attachments: %w", err)
	}
	return items, nil
}

func (s *AttachmentStore) Delete(id uint) error {
	if err := s.db.Delete(&models.FileAttachment{}, id).Error; err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}
