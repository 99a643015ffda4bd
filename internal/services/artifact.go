package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"legalflow/internal/models"
	"legalflow/internal/render"
	"legalflow/internal/storage"

	"gorm.io/gorm"
)

// ArtifactService archives the rendered HTML of a fully executed document to
// object storage and records its public URL. Archiving is best-effort: a
// storage failure never unwinds the signing itself.
type ArtifactService struct {
	db        *gorm.DB
	gcsClient *storage.GCSClient
	logger    *slog.Logger
}

func NewArtifactService(db *gorm.DB, gcsClient *storage.GCSClient, logger *slog.Logger) *ArtifactService {
	return &ArtifactService{
		db:        db,
		gcsClient: gcsClient,
		logger:    logger,
	}
}

// Enabled reports whether object storage is configured.
func (s *ArtifactService) Enabled() bool {
	return s != nil && s.gcsClient != nil
}

// ArchiveSigned uploads the rendered artifact for a fully signed document and
// stores the resulting URL on the record.
func (s *ArtifactService) ArchiveSigned(ctx context.Context, document *models.Document) error {
	if !s.Enabled() {
		return nil
	}
	if !document.Status.Terminal() {
		return fmt.Errorf("document %s is not fully signed", document.ID)
	}

	html := render.Document(document, document.Status, document.CompanySignature, time.Now())
	objectName := storage.SignedArtifactObjectName(document.ID, render.Filename(document, document.Status))

	result, err := s.gcsClient.UploadFile(ctx, strings.NewReader(html), objectName, "text/html; charset=utf-8")
	if err != nil {
		return fmt.Errorf("failed to upload signed artifact: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ?", document.ID).
		Update("signed_document_url", result.PublicURL).Error; err != nil {
		return fmt.Errorf("failed to record signed artifact URL: %w", err)
	}

	document.SignedDocumentURL = result.PublicURL
	return nil
}

// SignedArtifactURL returns a short-lived download link for the archived
// artifact of a document.
func (s *ArtifactService) SignedArtifactURL(document *models.Document) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("object storage is not configured")
	}
	objectName, ok := s.gcsClient.ObjectName(document.SignedDocumentURL)
	if !ok {
		return "", fmt.Errorf("document %s has no archived artifact", document.ID)
	}
	return s.gcsClient.GetSignedURL(objectName, 15*time.Minute)
}

// DeleteArchived removes the stored object of a document being purged. A
// document without an archive is a no-op.
func (s *ArtifactService) DeleteArchived(ctx context.Context, document *models.Document) error {
	if !s.Enabled() {
		return nil
	}
	objectName, ok := s.gcsClient.ObjectName(document.SignedDocumentURL)
	if !ok {
		return nil
	}
	if err := s.gcsClient.DeleteFile(ctx, objectName); err != nil {
		return fmt.Errorf("failed to delete archived artifact: %w", err)
	}
	return nil
}

// ArchiveSignedAsync runs ArchiveSigned off the request path, logging failures.
func (s *ArtifactService) ArchiveSignedAsync(document *models.Document) {
	if !s.Enabled() {
		return
	}
	doc := *document
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.ArchiveSigned(ctx, &doc); err != nil {
			s.logger.Error("failed to archive signed document",
				"document_id", doc.ID,
				"error", err,
			)
		}
	}()
}
