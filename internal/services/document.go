package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"legalflow/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentService owns document CRUD and the internal signing actions. Every
// query is scoped to the owning user id passed in by the caller; there is no
// ambient current-user state.
type DocumentService struct {
	db *gorm.DB
}

func NewDocumentService(db *gorm.DB) *DocumentService {
	return &DocumentService{db: db}
}

type DocumentInput struct {
	TemplateName string                 `json:"template_name"`
	DocumentType string                 `json:"document_type"`
	FormData     map[string]interface{} `json:"form_data"`
}

func (s *DocumentService) Create(ctx context.Context, userID string, input DocumentInput) (*models.Document, error) {
	if strings.TrimSpace(input.TemplateName) == "" {
		return nil, fmt.Errorf("template name is required")
	}

	formJSON, err := json.Marshal(input.FormData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal form data: %w", err)
	}

	document := &models.Document{
		ID:           uuid.New().String(),
		UserID:       userID,
		TemplateName: input.TemplateName,
		DocumentType: input.DocumentType,
		FormData:     string(formJSON),
		Status:       models.StatusDraft,
	}

	if err := s.db.WithContext(ctx).Create(document).Error; err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	return document, nil
}

func (s *DocumentService) Get(ctx context.Context, userID, documentID string) (*models.Document, error) {
	var document models.Document
	err := s.db.WithContext(ctx).First(&document, "id = ? AND user_id = ?", documentID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return &document, nil
}

func (s *DocumentService) List(ctx context.Context, userID string, status models.Status) ([]models.Document, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		if !status.Valid() {
			return nil, fmt.Errorf("unknown status %q", status)
		}
		query = query.Where("status = ?", status)
	}

	var documents []models.Document
	if err := query.Order("updated_at DESC").Find(&documents).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return documents, nil
}

// Update replaces the editable fields of a non-terminal document. A fully
// signed document is immutable.
func (s *DocumentService) Update(ctx context.Context, userID, documentID string, input DocumentInput) (*models.Document, error) {
	document, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}
	if document.Status.Terminal() {
		return nil, ErrDocumentFinalized
	}

	updates := map[string]interface{}{}
	if strings.TrimSpace(input.TemplateName) != "" {
		updates["template_name"] = input.TemplateName
	}
	if input.DocumentType != "" {
		updates["document_type"] = input.DocumentType
	}
	if input.FormData != nil {
		formJSON, err := json.Marshal(input.FormData)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal form data: %w", err)
		}
		updates["form_data"] = string(formJSON)
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(document).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update document: %w", err)
		}
	}

	return s.Get(ctx, userID, documentID)
}

// Delete soft-deletes a non-terminal document.
func (s *DocumentService) Delete(ctx context.Context, userID, documentID string) error {
	document, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if document.Status.Terminal() {
		return ErrDocumentFinalized
	}

	if err := s.db.WithContext(ctx).Delete(document).Error; err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// CompanySign records the company signature and moves a draft to
// company_signed. Sending to the client is a separate step; callers chain it
// when recipient details are present.
func (s *DocumentService) CompanySign(ctx context.Context, userID, documentID, signature string) (*models.Document, error) {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return nil, ErrSignatureRequired
	}

	document, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}
	if document.Status.Terminal() {
		return nil, ErrDocumentFinalized
	}
	if !document.Status.CanTransitionTo(models.StatusCompanySigned) {
		return nil, ErrInvalidTransition
	}

	updates := map[string]interface{}{
		"company_signature": signature,
		"status":            models.StatusCompanySigned,
	}
	if err := s.db.WithContext(ctx).Model(document).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to sign document: %w", err)
	}

	return s.Get(ctx, userID, documentID)
}

// ClientSign lets the owner record a client signature collected out of band,
// without a signing token.
func (s *DocumentService) ClientSign(ctx context.Context, userID, documentID, signature string) (*models.Document, error) {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return nil, ErrSignatureRequired
	}

	document, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}
	if document.Status.Terminal() {
		return nil, ErrDocumentFinalized
	}
	if !document.Status.CanTransitionTo(models.StatusFullySigned) {
		return nil, ErrInvalidTransition
	}

	updates := map[string]interface{}{
		"client_signature": signature,
		"status":           models.StatusFullySigned,
	}
	if err := s.db.WithContext(ctx).Model(document).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to sign document: %w", err)
	}

	return s.Get(ctx, userID, documentID)
}

// MarkSent advances company_signed -> sent_for_signature after a confirmed
// email dispatch. The guarded WHERE keeps a failed or repeated send from
// moving the status twice.
func (s *DocumentService) MarkSent(ctx context.Context, userID, documentID string) (*models.Document, error) {
	result := s.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ? AND user_id = ? AND status = ?", documentID, userID, models.StatusCompanySigned).
		Update("status", models.StatusSentForSignature)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update document status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}
	return s.Get(ctx, userID, documentID)
}

type DashboardStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Sent      int64 `json:"sent"`
	Completed int64 `json:"completed"`
}

// Stats aggregates the dashboard counters: pending drafts, documents out for
// signature (company_signed or sent_for_signature) and completed documents.
func (s *DocumentService) Stats(ctx context.Context, userID string) (*DashboardStats, error) {
	stats := &DashboardStats{}
	count := func(dest *int64, conditions ...interface{}) error {
		query := s.db.WithContext(ctx).Model(&models.Document{}).Where("user_id = ?", userID)
		if len(conditions) > 0 {
			query = query.Where(conditions[0], conditions[1:]...)
		}
		return query.Count(dest).Error
	}

	if err := count(&stats.Total); err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	if err := count(&stats.Pending, "status = ?", models.StatusDraft); err != nil {
		return nil, fmt.Errorf("failed to count drafts: %w", err)
	}
	if err := count(&stats.Sent, "status IN ?",
		[]models.Status{models.StatusCompanySigned, models.StatusSentForSignature}); err != nil {
		return nil, fmt.Errorf("failed to count sent documents: %w", err)
	}
	if err := count(&stats.Completed, "status = ?", models.StatusFullySigned); err != nil {
		return nil, fmt.Errorf("failed to count completed documents: %w", err)
	}

	return stats, nil
}
