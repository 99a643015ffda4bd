package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"legalflow/internal/mailer"
	"legalflow/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newServiceDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Document{},
		&models.AccessToken{},
		&models.EmailLog{},
		&models.ActivityLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createTestDocument(t *testing.T, svc *DocumentService, userID string, status models.Status) *models.Document {
	t.Helper()
	doc, err := svc.Create(context.Background(), userID, DocumentInput{
		TemplateName: "Employment Agreement",
		DocumentType: "employment",
		FormData: map[string]interface{}{
			"employeeName":  "Jane Doe",
			"employeeEmail": "jane@example.com",
			"companyName":   "Acme Corp",
		},
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	if status != models.StatusDraft {
		if err := svc.db.Model(doc).Update("status", status).Error; err != nil {
			t.Fatalf("set status: %v", err)
		}
		doc.Status = status
	}
	return doc
}

// fakeMailer records sends and optionally fails every dispatch.
type fakeMailer struct {
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, msg)
	return fmt.Sprintf("msg-%d", len(m.sent)), nil
}
