package models

import "time"

const (
	EmailTypeSignRequest = "esign_request"

	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

// EmailLog is an append-only record of every dispatch attempt. There is no
// retry state machine; each send is logged once with its outcome.
type EmailLog struct {
	ID                string    `gorm:"primaryKey" json:"id"`
	DocumentID        string    `gorm:"index" json:"document_id"`
	RecipientEmail    string    `gorm:"not null" json:"recipient_email"`
	EmailType         string    `gorm:"size:32;not null" json:"email_type"`
	Status            string    `gorm:"size:16;not null" json:"status"`
	ProviderMessageID string    `json:"provider_message_id,omitempty"`
	SentAt            time.Time `json:"sent_at"`
}

func (EmailLog) TableName() string {
	return "email_logs"
}
