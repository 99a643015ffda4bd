package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"legalflow/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenService is the single place access tokens are minted and resolved.
// A token is a capability: it maps to exactly one document and a can_sign
// decision made once at the boundary.
type TokenService struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewTokenService(db *gorm.DB, ttl time.Duration) *TokenService {
	return &TokenService{
		db:  db,
		ttl: ttl,
		now: time.Now,
	}
}

// TokenDocument is the view handed to the public signing page.
type TokenDocument struct {
	Document models.Document `json:"document"`
	CanSign  bool            `json:"can_sign"`
}

// Mint creates a signing token for a document. Tokens are kept forever as an
// audit trail; expiry is enforced on resolution, not by deletion.
func (s *TokenService) Mint(ctx context.Context, documentID, recipientEmail, createdBy string) (*models.AccessToken, error) {
	value, err := generateTokenValue()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	token := &models.AccessToken{
		ID:             uuid.New().String(),
		Token:          value,
		DocumentID:     documentID,
		RecipientEmail: recipientEmail,
		Purpose:        models.PurposeSigning,
		CreatedBy:      createdBy,
		ExpiresAt:      s.now().Add(s.ttl),
	}

	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return nil, fmt.Errorf("failed to save access token: %w", err)
	}

	return token, nil
}

// Resolve maps a token string to its document and a can_sign decision.
// Resolution never mutates anything; unknown and expired tokens produce the
// same ErrTokenInvalid, so a token that resolves at all is unexpired and
// can_sign reduces to the status check.
func (s *TokenService) Resolve(ctx context.Context, tokenValue string) (*TokenDocument, error) {
	token, err := s.findToken(ctx, tokenValue)
	if err != nil {
		return nil, err
	}

	var document models.Document
	if err := s.db.WithContext(ctx).First(&document, "id = ?", token.DocumentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	return &TokenDocument{
		Document: document,
		CanSign:  document.Status.Signable(),
	}, nil
}

// Sign applies the client signature through a token in one transaction:
// client_signature and status move together or not at all. A replayed token
// fails on the status guard without touching the stored signature.
func (s *TokenService) Sign(ctx context.Context, tokenValue, signature string) (*models.Document, error) {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return nil, ErrSignatureRequired
	}

	var signed models.Document
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		token, err := s.findTokenTx(tx, tokenValue)
		if err != nil {
			return err
		}

		var document models.Document
		if err := tx.First(&document, "id = ?", token.DocumentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTokenInvalid
			}
			return fmt.Errorf("failed to load document: %w", err)
		}

		if document.Status.Terminal() {
			return ErrDocumentFinalized
		}
		if !document.Status.CanTransitionTo(models.StatusFullySigned) {
			return ErrInvalidTransition
		}

		// Guarded update: the WHERE clause re-checks the status so a racing
		// signer cannot overwrite an already applied client signature.
		result := tx.Model(&models.Document{}).
			Where("id = ? AND status IN ?", document.ID,
				[]models.Status{models.StatusCompanySigned, models.StatusSentForSignature}).
			Updates(map[string]interface{}{
				"client_signature": signature,
				"status":           models.StatusFullySigned,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to apply signature: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrDocumentFinalized
		}

		usedAt := s.now()
		if err := tx.Model(token).Update("used_at", &usedAt).Error; err != nil {
			return fmt.Errorf("failed to mark token used: %w", err)
		}

		if err := tx.First(&signed, "id = ?", document.ID).Error; err != nil {
			return fmt.Errorf("failed to reload document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &signed, nil
}

func (s *TokenService) findToken(ctx context.Context, tokenValue string) (*models.AccessToken, error) {
	return s.findTokenTx(s.db.WithContext(ctx), tokenValue)
}

func (s *TokenService) findTokenTx(tx *gorm.DB, tokenValue string) (*models.AccessToken, error) {
	tokenValue = strings.TrimSpace(tokenValue)
	if tokenValue == "" {
		return nil, ErrTokenInvalid
	}

	var token models.AccessToken
	err := tx.First(&token, "token = ? AND purpose = ?", tokenValue, models.PurposeSigning).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	if token.Expired(s.now()) {
		return nil, ErrTokenInvalid
	}

	return &token, nil
}

func generateTokenValue() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
