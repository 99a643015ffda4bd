package services

import (
	"context"
	"log/slog"
	"time"

	"legalflow/internal/models"

	"gorm.io/gorm"
)

// RetentionService periodically purges soft-deleted documents once they have
// been in the trash longer than maxAge, along with their access tokens and
// any archived artifact. Email logs are kept as a permanent audit trail.
type RetentionService struct {
	db        *gorm.DB
	artifacts *ArtifactService
	maxAge    time.Duration
	logger    *slog.Logger
	ticker    *time.Ticker
	done      chan bool
}

func NewRetentionService(db *gorm.DB, artifacts *ArtifactService, maxAge time.Duration, logger *slog.Logger) *RetentionService {
	return &RetentionService{
		db:        db,
		artifacts: artifacts,
		maxAge:    maxAge,
		logger:    logger,
		done:      make(chan bool),
	}
}

func (s *RetentionService) Start() {
	s.ticker = time.NewTicker(1 * time.Hour)
	go func() {
		for {
			select {
			case <-s.done:
				return
			case <-s.ticker.C:
				s.purgeExpired()
			}
		}
	}()
	s.logger.Info("retention service started", "max_age", s.maxAge.String())
}

func (s *RetentionService) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	s.done <- true
	s.logger.Info("retention service stopped")
}

func (s *RetentionService) purgeExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.maxAge)

	var expired []models.Document
	if err := s.db.Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Find(&expired).Error; err != nil {
		s.logger.Error("failed to list expired documents", "error", err)
		return
	}

	for _, document := range expired {
		// The archived object goes first; if that fails the row stays and the
		// next sweep retries, so no object is orphaned by a purged row.
		if document.SignedDocumentURL != "" {
			if err := s.artifacts.DeleteArchived(ctx, &document); err != nil {
				s.logger.Error("failed to purge archived artifact", "document_id", document.ID, "error", err)
				continue
			}
		}
		if err := s.db.Where("document_id = ?", document.ID).
			Delete(&models.AccessToken{}).Error; err != nil {
			s.logger.Error("failed to purge access tokens", "document_id", document.ID, "error", err)
			continue
		}
		if err := s.db.Unscoped().Delete(&document).Error; err != nil {
			s.logger.Error("failed to purge document", "document_id", document.ID, "error", err)
			continue
		}
		s.logger.Info("purged deleted document", "document_id", document.ID)
	}
}
