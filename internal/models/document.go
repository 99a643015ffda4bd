package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type Document struct {
	ID                string         `gorm:"primaryKey" json:"id"`
	UserID            string         `gorm:"not null;index" json:"user_id"`
	TemplateName      string         `gorm:"not null" json:"template_name"`
	DocumentType      string         `json:"document_type"`
	FormData          string         `gorm:"type:json" json:"form_data"` // JSON object of form field values
	Status            Status         `gorm:"type:varchar(32);default:'draft'" json:"status"`
	CompanySignature  string         `json:"company_signature,omitempty"`
	ClientSignature   string         `json:"client_signature,omitempty"`
	SignedDocumentURL string         `json:"signed_document_url,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	AccessTokens []AccessToken `gorm:"foreignKey:DocumentID" json:"access_tokens,omitempty"`
}

func (Document) TableName() string {
	return "documents"
}

// FormValues decodes the stored form data blob. Missing or malformed data
// yields an empty map rather than an error; form data carries no schema.
func (d *Document) FormValues() map[string]string {
	values := make(map[string]string)
	if d.FormData == "" {
		return values
	}
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(d.FormData), &raw); err != nil {
		return values
	}
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			values[key] = v
		case float64:
			values[key] = trimFloat(v)
		case bool:
			if v {
				values[key] = "true"
			} else {
				values[key] = "false"
			}
		}
	}
	return values
}

func (d *Document) FormValue(key string) string {
	return d.FormValues()[key]
}

func trimFloat(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}
