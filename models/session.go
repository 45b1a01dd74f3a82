package models

import "time"

// Session is one issued bearer token. The opaque token itself is the
// primary key. Expiration is sliding: every successful authentication
// bumps LastUsedAt, and a session is valid only while the time since
// LastUsedAt stays under the TTL.
type Session struct {
	Token      string    `gorm:"primaryKey;size:64" json:"token"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	LastUsedAt time.Time `gorm:"index;not null" json:"last_used_at"`
}
