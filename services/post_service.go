package services

import (
	"errors"

	"github.com/perchapp/perch/models"
	"github.com/perchapp/perch/store"
	"github.com/perchapp/perch/utils"
)

// FullPostStore is the persistence contract PostService needs.
type FullPostStore interface {
	Create(post *models.Post) error
	FindByID(id uint) (*models.Post, error)
	List(page, size int, userID uint) ([]models.Post, int64, error)
	Delete(id uint) error
}

// PostService owns post publishing and removal.
type PostService struct {
	posts FullPostStore
	files *FileService
	now   Clock
}

func NewPostService(posts FullPostStore, files *FileService, now Clock) *PostService {
	return &PostService{posts: posts, files: files, now: now}
}

// Create publishes a post and, when an attachment id is supplied,
// links the attachment to it. Association errors propagate; a vanished
// or already-linked attachment is silently skipped by the store.
func (s *PostService) Create(userID uint, content string, attachmentID *uint) (*models.Post, error) {
	post := &models.Post{
		Content:   utils.Sanitize(content),
		UserID:    userID,
		CreatedAt: s.now(),
	}
	if err := s.posts.Create(post); err != nil {
		return nil, err
	}
	if attachmentID != nil {
		if err := s.files.AssociateWithPost(*attachmentID, post.ID); err != nil {
			return nil, err
		}
	}
	return post, nil
}

// List returns a page of posts; userID of zero means all users.
func (s *PostService) List(page, size int, userID uint) ([]models.Post, int64, error) {
	return s.posts.List(page, size, userID)
}

// Delete removes a post owned by userID, together with its attachment
// file and row. A missing post and someone else's post both come back
// as ErrForbidden.
func (s *PostService) Delete(postID, userID uint) error {
	post, err := s.posts.FindByID(postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrForbidden
		}
		return err
	}
	if post.UserID != userID {
		return ErrForbidden
	}

	if err := s.files.DeleteForPost(post.ID); err != nil {
		return err
	}
	return s.posts.Delete(post.ID)
}
