package models

import "time"

// FileAttachment records an uploaded binary. PostID stays NULL until
// the attachment is linked to a post; the association is set at most
// once and never cleared. Rows still unlinked past the retention
// window are reclaimed by a background task together with the file on
// disk.
type FileAttachment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Filename   string    `gorm:"size:128;not null" json:"filename"`
	FileType   string    `gorm:"size:128" json:"file_type,omitempty"`
	UploadDate time.Time `gorm:"index;not null" json:"upload_date"`
	PostID     *uint     `gorm:"index" json:"post_id,omitempty"`
}
