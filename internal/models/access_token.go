package models

import "time"

// PurposeSigning is the only token purpose this system issues.
const PurposeSigning = "signing"

// AccessToken grants one external party time-limited access to sign one
// document. Tokens are never deleted; used_at is an audit marker.
type AccessToken struct {
	ID             string     `gorm:"primaryKey" json:"id"`
	Token          string     `gorm:"size:64;uniqueIndex;not null" json:"token"`
	DocumentID     string     `gorm:"not null;index" json:"document_id"`
	RecipientEmail string     `json:"recipient_email,omitempty"`
	Purpose        string     `gorm:"size:32;default:'signing'" json:"purpose"`
	CreatedBy      string     `json:"created_by,omitempty"`
	ExpiresAt      time.Time  `gorm:"index;not null" json:"expires_at"`
	UsedAt         *time.Time `json:"used_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	Document Document `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
}

func (AccessToken) TableName() string {
	return "document_access_tokens"
}

func (t *AccessToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
