package handlers

import (
	"net/http"
	"time"

	"legalflow/internal/models"
	"legalflow/internal/render"
	"legalflow/internal/services"

	"github.com/gin-gonic/gin"
)

// SignHandler serves the unauthenticated signing endpoints. Access is gated
// entirely by the token; the handler never trusts the path's document id and
// never exposes owner identity.
type SignHandler struct {
	tokens    *services.TokenService
	artifacts *services.ArtifactService
}

func NewSignHandler(tokens *services.TokenService, artifacts *services.ArtifactService) *SignHandler {
	return &SignHandler{
		tokens:    tokens,
		artifacts: artifacts,
	}
}

// PublicDocument is the document view exposed to token holders. It omits the
// owner's user id and any soft-delete bookkeeping.
type PublicDocument struct {
	ID                string        `json:"id"`
	TemplateName      string        `json:"template_name"`
	DocumentType      string        `json:"document_type"`
	FormData          string        `json:"form_data"`
	Status            models.Status `json:"status"`
	CompanySignature  string        `json:"company_signature,omitempty"`
	ClientSignature   string        `json:"client_signature,omitempty"`
	SignedDocumentURL string        `json:"signed_document_url,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

func publicView(document *models.Document) PublicDocument {
	return PublicDocument{
		ID:                document.ID,
		TemplateName:      document.TemplateName,
		DocumentType:      document.DocumentType,
		FormData:          document.FormData,
		Status:            document.Status,
		CompanySignature:  document.CompanySignature,
		ClientSignature:   document.ClientSignature,
		SignedDocumentURL: document.SignedDocumentURL,
		CreatedAt:         document.CreatedAt,
		UpdatedAt:         document.UpdatedAt,
	}
}

// Resolve returns the document behind a signing token together with the
// can_sign decision. A token pointing at a different document than the path
// names is treated as invalid rather than redirected.
func (h *SignHandler) Resolve(c *gin.Context) {
	resolved, err := h.tokens.Resolve(c.Request.Context(), c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	if resolved.Document.ID != c.Param("documentId") {
		respondError(c, services.ErrTokenInvalid)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"document": publicView(&resolved.Document),
		"can_sign": resolved.CanSign,
	})
}

// Sign applies the client signature through the token.
func (h *SignHandler) Sign(c *gin.Context) {
	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	// Check the token against the path before mutating anything.
	resolved, err := h.tokens.Resolve(c.Request.Context(), c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	if resolved.Document.ID != c.Param("documentId") {
		respondError(c, services.ErrTokenInvalid)
		return
	}

	document, err := h.tokens.Sign(c.Request.Context(), c.Query("token"), req.Signature)
	if err != nil {
		respondError(c, err)
		return
	}

	h.artifacts.ArchiveSignedAsync(document)

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"document": publicView(document),
		"message":  "Document signed successfully",
	})
}

// Download lets the token holder fetch the rendered document.
func (h *SignHandler) Download(c *gin.Context) {
	resolved, err := h.tokens.Resolve(c.Request.Context(), c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	if resolved.Document.ID != c.Param("documentId") {
		respondError(c, services.ErrTokenInvalid)
		return
	}

	document := resolved.Document
	html := render.Document(&document, document.Status, document.CompanySignature, time.Now())

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename="+render.Filename(&document, document.Status))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
