package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/perchapp/perch/models"
	"github.com/perchapp/perch/store"
	"github.com/perchapp/perch/utils"
)

// AttachmentStore is the persistence contract FileService needs.
type AttachmentStore interface {
	Create(attachment *models.FileAttachment) error
	FindByID(id uint) (*models.FileAttachment, error)
	FindByPost(postID uint) (*models.FileAttachment, error)
	Associate(attachmentID, postID uint) error
	FindOrphansBefore(cutoff time.Time, limit int) ([]models.FileAttachment, error)
	FindForUserPosts(userID uint) ([]models.FileAttachment, error)
	Delete(id uint) error
}

// reclaimBatchSize bounds how many orphans one reclaim pass handles.
const reclaimBatchSize = 100

// profileImageMaxBytes caps profile picture uploads at 2 MB. Served
// inline on every profile view, so they stay small.
const profileImageMaxBytes = 2 * 1024 * 1024

// FileService owns uploaded binaries: profile images, post attachments
// and the reclamation of attachments that never got linked to a post.
type FileService struct {
	attachments      AttachmentStore
	profileFolder    string
	attachmentFolder string
	retention        time.Duration
	now              Clock
}

func NewFileService(attachments AttachmentStore, uploadDir string, retention time.Duration, now Clock) *FileService {
	return &FileService{
		attachments:      attachments,
		profileFolder:    filepath.Join(uploadDir, "profile"),
		attachmentFolder: filepath.Join(uploadDir, "attachment"),
		retention:        retention,
		now:              now,
	}
}

// EnsureFolders creates the upload directories. Called once at boot.
func (s *FileService) EnsureFolders() error {
	for _, dir := range []string{s.profileFolder, s.attachmentFolder} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create upload folder: %w", err)
		}
	}
	return nil
}

// SaveAttachment writes the binary under a random name and records its
// metadata. The row starts unowned; it must be associated with a post
// before the retention window runs out or it will be reclaimed.
func (s *FileService) SaveAttachment(data []byte) (*models.FileAttachment, error) {
	detected := mimetype.Detect(data)
	filename := utils.GenerateToken(32) + detected.Extension()

	if err := os.WriteFile(filepath.Join(s.attachmentFolder, filename), data, 0o644); err != nil {
		return nil, fmt.Errorf("write attachment: %w", err)
	}

	attachment := &models.FileAttachment{
		Filename:   filename,
		FileType:   detected.String(),
		UploadDate: s.now(),
	}
	if err := s.attachments.Create(attachment); err != nil {
		// Without a row the reclaimer can never find this file; take
		// it back out now.
		s.removeFile(filepath.Join(s.attachmentFolder, filename))
		return nil, err
	}
	return attachment, nil
}

// AssociateWithPost links an attachment to a post. First association
// wins; linking an already-linked or unknown attachment is a no-op.
// Persistence failures propagate.
func (s *FileService) AssociateWithPost(attachmentID, postID uint) error {
	return s.attachments.Associate(attachmentID, postID)
}

// SaveProfileImage stores a profile picture and returns its generated
// filename. Only png and jpeg up to 2 MB are accepted; anything else is
// rejected before the file is written.
func (s *FileService) SaveProfileImage(data []byte) (string, error) {
	if len(data) > profileImageMaxBytes {
		return "", ErrImageTooLarge
	}
	detected := mimetype.Detect(data)
	if !detected.Is("image/png") && !detected.Is("image/jpeg") {
		return "", ErrUnsupportedImageType
	}

	filename := uuid.NewString() + detected.Extension()
	if err := os.WriteFile(filepath.Join(s.profileFolder, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("write profile image: %w", err)
	}
	return filename, nil
}

// DeleteProfileImage removes a stored profile picture. A missing file
// is fine.
func (s *FileService) DeleteProfileImage(filename string) {
	s.removeFile(filepath.Join(s.profileFolder, filename))
}

// DeleteForPost removes the attachment linked to a post, file first,
// then the metadata row. Called when a post is deleted.
func (s *FileService) DeleteForPost(postID uint) error {
	attachment, err := s.attachments.FindByPost(postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	s.removeFile(filepath.Join(s.attachmentFolder, attachment.Filename))
	return s.attachments.Delete(attachment.ID)
}

// DeleteUserFiles removes the user's profile image and every
// attachment linked to the user's posts. Called from the account
// deletion workflow while the posts still exist.
func (s *FileService) DeleteUserFiles(user *models.User) error {
	if user.Image != "" {
		s.DeleteProfileImage(user.Image)
	}
	attachments, err := s.attachments.FindForUserPosts(user.ID)
	if err != nil {
		return err
	}
	for _, attachment := range attachments {
		s.removeFile(filepath.Join(s.attachmentFolder, attachment.Filename))
		if err := s.attachments.Delete(attachment.ID); err != nil {
			return err
		}
	}
	return nil
}

// ReclaimOrphans deletes attachments that were uploaded before the
// retention window and never linked to a post. Each item is handled
// independently: a missing file is logged and does not stop the row
// from being removed, and one failed item does not abort the batch.
func (s *FileService) ReclaimOrphans() (int, error) {
	cutoff := s.now().Add(-s.retention)
	orphans, err := s.attachments.FindOrphansBefore(cutoff, reclaimBatchSize)
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, orphan := range orphans {
		s.removeFile(filepath.Join(s.attachmentFolder, orphan.Filename))
		if err := s.attachments.Delete(orphan.ID); err != nil {
			if utils.Sugar != nil {
				utils.Sugar.Errorf("reclaim attachment %d: %v", orphan.ID, err)
			}
			continue
		}
		reclaimed++
	}
	return reclaimed, nil
}

func (s *FileService) removeFile(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("remove %s: %v", path, err)
		}
	}
}
