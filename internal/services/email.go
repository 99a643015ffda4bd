package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"legalflow/internal/mailer"
	"legalflow/internal/models"
	"legalflow/internal/render"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmailService sends the signing-request email. One dispatch per call, no
// retries; the status only advances after the provider confirms the send.
type EmailService struct {
	db        *gorm.DB
	documents *DocumentService
	tokens    *TokenService
	mail      mailer.Mailer
	allowlist mailer.Allowlist
	sender    mailer.Message
	baseURL   string
	logger    *slog.Logger
	now       func() time.Time
}

func NewEmailService(db *gorm.DB, documents *DocumentService, tokens *TokenService, mail mailer.Mailer, allowlist mailer.Allowlist, senderName, senderEmail, baseURL string, logger *slog.Logger) *EmailService {
	return &EmailService{
		db:        db,
		documents: documents,
		tokens:    tokens,
		mail:      mail,
		allowlist: allowlist,
		sender:    mailer.Message{FromName: senderName, FromEmail: senderEmail},
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
		now:       time.Now,
	}
}

type SendRequest struct {
	DocumentID     string `json:"document_id"`
	RecipientEmail string `json:"recipient_email"`
	RecipientName  string `json:"recipient_name"`
	CompanyName    string `json:"company_name"`
	DocumentType   string `json:"document_type"`
}

type SendResult struct {
	EmailID       string `json:"email_id"`
	SignatureLink string `json:"signature_link"`
}

// SendForSignature authorizes the caller as the document owner, mints one
// access token, sends one email with the signing link, and advances the
// status only on provider-confirmed success. On failure the status stays at
// company_signed and the attempt is logged as failed.
func (s *EmailService) SendForSignature(ctx context.Context, userID string, req SendRequest) (*SendResult, error) {
	if req.DocumentID == "" || req.RecipientEmail == "" || req.RecipientName == "" || req.CompanyName == "" || req.DocumentType == "" {
		return nil, fmt.Errorf("missing required fields")
	}

	if !s.allowlist.Permits(req.RecipientEmail) {
		return nil, fmt.Errorf("%w: %s", ErrRecipientNotAllowed, s.allowlist.RestrictionMessage())
	}

	document, err := s.documents.Get(ctx, userID, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if document.Status.Terminal() {
		return nil, ErrDocumentFinalized
	}
	if !document.Status.CanTransitionTo(models.StatusSentForSignature) {
		return nil, ErrInvalidTransition
	}

	token, err := s.tokens.Mint(ctx, document.ID, req.RecipientEmail, userID)
	if err != nil {
		return nil, err
	}

	// The only wire-format contract external parties depend on.
	signatureLink := fmt.Sprintf("%s/sign-document/%s?token=%s", s.baseURL, document.ID, token.Token)

	msg := s.sender
	msg.To = req.RecipientEmail
	msg.Subject = fmt.Sprintf("Document Ready for Signature - %s", render.Sanitize(req.DocumentType))
	msg.HTML = signingRequestHTML(req.RecipientName, req.CompanyName, req.DocumentType, signatureLink)

	emailID, sendErr := s.mail.Send(ctx, msg)
	if sendErr != nil {
		s.appendLog(ctx, document.ID, req.RecipientEmail, models.EmailStatusFailed, "")
		return nil, fmt.Errorf("failed to send signing email: %w", sendErr)
	}

	if _, err := s.documents.MarkSent(ctx, userID, document.ID); err != nil {
		// The email left the building; surface the status problem but keep
		// the log entry accurate.
		s.appendLog(ctx, document.ID, req.RecipientEmail, models.EmailStatusSent, emailID)
		return nil, err
	}

	s.appendLog(ctx, document.ID, req.RecipientEmail, models.EmailStatusSent, emailID)

	return &SendResult{EmailID: emailID, SignatureLink: signatureLink}, nil
}

func (s *EmailService) appendLog(ctx context.Context, documentID, recipient, status, messageID string) {
	entry := &models.EmailLog{
		ID:                uuid.New().String(),
		DocumentID:        documentID,
		RecipientEmail:    recipient,
		EmailType:         models.EmailTypeSignRequest,
		Status:            status,
		ProviderMessageID: messageID,
		SentAt:            s.now(),
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		s.logger.ErrorContext(ctx, "failed to append email log",
			"document_id", documentID,
			"error", err,
		)
	}
}

func signingRequestHTML(recipientName, companyName, documentType, signatureLink string) string {
	recipientName = render.Sanitize(recipientName)
	companyName = render.Sanitize(companyName)
	documentType = render.Sanitize(documentType)

	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">`)
	b.WriteString(`<div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 30px; border-radius: 10px; color: white; text-align: center; margin-bottom: 30px;">`)
	b.WriteString(`<h1 style="margin: 0; font-size: 28px;">Document Ready for Your Signature</h1></div>`)
	fmt.Fprintf(&b, `<div style="background: #f8f9fa; padding: 25px; border-radius: 8px; margin-bottom: 25px;"><h2 style="color: #333; margin-top: 0;">Hello %s,</h2>`, recipientName)
	fmt.Fprintf(&b, `<p style="color: #666; line-height: 1.6; font-size: 16px;">%s has prepared a <strong>%s</strong> document that requires your electronic signature.</p></div>`, companyName, documentType)
	fmt.Fprintf(&b, `<div style="text-align: center; margin: 30px 0;"><a href="%s" style="background: #4CAF50; color: white; padding: 15px 30px; text-decoration: none; border-radius: 5px; font-weight: bold; display: inline-block; font-size: 16px;">Sign Document Now</a></div>`, signatureLink)
	b.WriteString(`<div style="background: #e3f2fd; padding: 20px; border-radius: 8px; margin: 25px 0;"><h3 style="color: #1976d2; margin-top: 0;">Next Steps:</h3><ul style="color: #666; line-height: 1.6;">`)
	b.WriteString(`<li>Click the "Sign Document Now" button above</li><li>Review the document carefully</li><li>Add your electronic signature</li><li>Download your copy once completed</li></ul></div>`)
	fmt.Fprintf(&b, `<div style="border-top: 1px solid #eee; padding-top: 20px; margin-top: 30px;"><p style="color: #999; font-size: 14px; text-align: center;">This document was sent by %s. If you have any questions, please contact them directly.</p></div>`, companyName)
	b.WriteString(`</div>`)
	return b.String()
}
