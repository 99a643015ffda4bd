package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"legalflow/internal/mailer"
	"legalflow/internal/models"

	"gorm.io/gorm"
)

func newEmailServiceForTest(t *testing.T, db *gorm.DB, mail mailer.Mailer, allowlist mailer.Allowlist) (*EmailService, *DocumentService) {
	t.Helper()
	documents := NewDocumentService(db)
	tokens := NewTokenService(db, 7*24*time.Hour)
	svc := NewEmailService(db, documents, tokens, mail, allowlist,
		"Legal Documents", "onboarding@resend.dev", "https://app.example.com/", testLogger())
	return svc, documents
}

func sendRequestFor(doc *models.Document) SendRequest {
	return SendRequest{
		DocumentID:     doc.ID,
		RecipientEmail: "jane@example.com",
		RecipientName:  "Jane Doe",
		CompanyName:    "Acme Corp",
		DocumentType:   "Employment Agreement",
	}
}

func TestSendForSignatureSuccess(t *testing.T) {
	db := newServiceDBForTest(t)
	mail := &fakeMailer{}
	svc, documents := newEmailServiceForTest(t, db, mail, mailer.Allowlist{})
	ctx := context.Background()

	doc := createTestDocument(t, documents, "user-1", models.StatusCompanySigned)

	result, err := svc.SendForSignature(ctx, "user-1", sendRequestFor(doc))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if result.EmailID == "" {
		t.Error("result should carry the provider message id")
	}
	wantPrefix := fmt.Sprintf("https://app.example.com/sign-document/%s?token=", doc.ID)
	if !strings.HasPrefix(result.SignatureLink, wantPrefix) {
		t.Errorf("signature link = %q, want prefix %q", result.SignatureLink, wantPrefix)
	}

	if len(mail.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(mail.sent))
	}
	msg := mail.sent[0]
	if msg.To != "jane@example.com" {
		t.Errorf("recipient = %q", msg.To)
	}
	if !strings.Contains(msg.HTML, result.SignatureLink) {
		t.Error("email body should embed the signature link")
	}
	if !strings.Contains(msg.Subject, "Employment Agreement") {
		t.Errorf("subject = %q", msg.Subject)
	}

	refreshed, err := documents.Get(ctx, "user-1", doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if refreshed.Status != models.StatusSentForSignature {
		t.Errorf("status = %s, want sent_for_signature", refreshed.Status)
	}

	var logs []models.EmailLog
	if err := db.Find(&logs, "document_id = ?", doc.ID).Error; err != nil {
		t.Fatalf("load logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d log rows, want 1", len(logs))
	}
	if logs[0].Status != models.EmailStatusSent {
		t.Errorf("log status = %q, want sent", logs[0].Status)
	}
	if logs[0].EmailType != models.EmailTypeSignRequest {
		t.Errorf("log type = %q", logs[0].EmailType)
	}
}

func TestSendForSignatureProviderFailure(t *testing.T) {
	db := newServiceDBForTest(t)
	mail := &fakeMailer{err: errors.New("provider down")}
	svc, documents := newEmailServiceForTest(t, db, mail, mailer.Allowlist{})
	ctx := context.Background()

	doc := createTestDocument(t, documents, "user-1", models.StatusCompanySigned)

	if _, err := svc.SendForSignature(ctx, "user-1", sendRequestFor(doc)); err == nil {
		t.Fatal("expected send failure")
	}

	// Status must not advance on a failed dispatch.
	refreshed, err := documents.Get(ctx, "user-1", doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if refreshed.Status != models.StatusCompanySigned {
		t.Errorf("status = %s, want company_signed", refreshed.Status)
	}

	var logs []models.EmailLog
	if err := db.Find(&logs, "document_id = ?", doc.ID).Error; err != nil {
		t.Fatalf("load logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d log rows, want 1", len(logs))
	}
	if logs[0].Status != models.EmailStatusFailed {
		t.Errorf("log status = %q, want failed", logs[0].Status)
	}
}

func TestSendForSignatureAllowlistRejection(t *testing.T) {
	db := newServiceDBForTest(t)
	mail := &fakeMailer{}
	allowlist := mailer.Allowlist{Testing: true, AllowedRecipient: "verified@example.com"}
	svc, documents := newEmailServiceForTest(t, db, mail, allowlist)
	ctx := context.Background()

	doc := createTestDocument(t, documents, "user-1", models.StatusCompanySigned)

	_, err := svc.SendForSignature(ctx, "user-1", sendRequestFor(doc))
	if !errors.Is(err, ErrRecipientNotAllowed) {
		t.Fatalf("got %v, want ErrRecipientNotAllowed", err)
	}
	if !strings.Contains(err.Error(), "verified@example.com") {
		t.Error("rejection should name the allowed recipient")
	}
	if len(mail.sent) != 0 {
		t.Error("no email should be dispatched")
	}

	// Rejection happens before any token mint or status change.
	var tokenCount int64
	db.Model(&models.AccessToken{}).Count(&tokenCount)
	if tokenCount != 0 {
		t.Error("no token should be minted")
	}
	refreshed, _ := documents.Get(ctx, "user-1", doc.ID)
	if refreshed.Status != models.StatusCompanySigned {
		t.Errorf("status = %s, want company_signed", refreshed.Status)
	}
}

func TestSendForSignatureAllowedRecipientInTestingMode(t *testing.T) {
	db := newServiceDBForTest(t)
	mail := &fakeMailer{}
	allowlist := mailer.Allowlist{Testing: true, AllowedRecipient: "jane@example.com"}
	svc, documents := newEmailServiceForTest(t, db, mail, allowlist)
	ctx := context.Background()

	doc := createTestDocument(t, documents, "user-1", models.StatusCompanySigned)
	if _, err := svc.SendForSignature(ctx, "user-1", sendRequestFor(doc)); err != nil {
		t.Fatalf("send to the verified address should succeed: %v", err)
	}
}

func TestSendForSignatureOwnershipAndStatusChecks(t *testing.T) {
	db := newServiceDBForTest(t)
	mail := &fakeMailer{}
	svc, documents := newEmailServiceForTest(t, db, mail, mailer.Allowlist{})
	ctx := context.Background()

	doc := createTestDocument(t, documents, "user-1", models.StatusCompanySigned)

	if _, err := svc.SendForSignature(ctx, "user-2", sendRequestFor(doc)); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("foreign user: got %v, want ErrDocumentNotFound", err)
	}

	draft := createTestDocument(t, documents, "user-1", models.StatusDraft)
	if _, err := svc.SendForSignature(ctx, "user-1", sendRequestFor(draft)); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("draft: got %v, want ErrInvalidTransition", err)
	}

	final := createTestDocument(t, documents, "user-1", models.StatusFullySigned)
	if _, err := svc.SendForSignature(ctx, "user-1", sendRequestFor(final)); !errors.Is(err, ErrDocumentFinalized) {
		t.Errorf("finalized: got %v, want ErrDocumentFinalized", err)
	}
}

func TestSendForSignatureRequiresFields(t *testing.T) {
	db := newServiceDBForTest(t)
	svc, documents := newEmailServiceForTest(t, db, &fakeMailer{}, mailer.Allowlist{})
	ctx := context.Background()

	doc := createTestDocument(t, documents, "user-1", models.StatusCompanySigned)

	req := sendRequestFor(doc)
	req.RecipientEmail = ""
	if _, err := svc.SendForSignature(ctx, "user-1", req); err == nil {
		t.Error("expected error for missing recipient email")
	}
}

func TestSigningEmailBodyIsSanitized(t *testing.T) {
	db := newServiceDBForTest(t)
	mail := &fakeMailer{}
	svc, documents := newEmailServiceForTest(t, db, mail, mailer.Allowlist{})
	ctx := context.Background()

	doc := createTestDocument(t, documents, "user-1", models.StatusCompanySigned)

	req := sendRequestFor(doc)
	req.RecipientName = "<script>alert(1)</script>Jane"
	if _, err := svc.SendForSignature(ctx, "user-1", req); err != nil {
		t.Fatalf("send: %v", err)
	}
	if strings.Contains(mail.sent[0].HTML, "<script>") {
		t.Error("recipient name must be sanitized in the email body")
	}
}
