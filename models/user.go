package models

import "time"

// User is a registered account. Accounts start inactive and stay that
// way until the emailed activation token is redeemed; inactive accounts
// cannot log in even with correct credentials.
type User struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Username           string    `gorm:"size:64;not null" json:"username"`
	Email              string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash       string    `gorm:"size:255;not null" json:"-"`
	Inactive           bool      `gorm:"default:true" json:"-"`
	ActivationToken    string    `gorm:"size:64" json:"-"`
	PasswordResetToken string    `gorm:"size:64" json:"-"`
	Image              string    `gorm:"size:255" json:"image,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
