package models

import "time"

// Post is a user publication. Content is sanitized before storage.
type Post struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Content    string          `gorm:"size:5000;not null" json:"content"`
	UserID     uint            `gorm:"index;not null" json:"user_id"`
	CreatedAt  time.Time       `json:"created_at"`
	User       User            `json:"user"`
	Attachment *FileAttachment `gorm:"foreignKey:PostID" json:"attachment,omitempty"`
}
