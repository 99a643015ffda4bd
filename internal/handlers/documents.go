package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"legalflow/internal/models"
	"legalflow/internal/render"
	"legalflow/internal/services"

	"github.com/gin-gonic/gin"
)

type DocumentsHandler struct {
	documents *services.DocumentService
	emails    *services.EmailService
	pdf       *services.PDFService
	artifacts *services.ArtifactService
}

func NewDocumentsHandler(documents *services.DocumentService, emails *services.EmailService, pdf *services.PDFService, artifacts *services.ArtifactService) *DocumentsHandler {
	return &DocumentsHandler{
		documents: documents,
		emails:    emails,
		pdf:       pdf,
		artifacts: artifacts,
	}
}

type SignRequest struct {
	Signature string `json:"signature"`
}

type CompanySignResponse struct {
	Document      *models.Document `json:"document"`
	EmailSent     bool             `json:"email_sent"`
	EmailError    string           `json:"email_error,omitempty"`
	SignatureLink string           `json:"signature_link,omitempty"`
}

func (h *DocumentsHandler) Create(c *gin.Context) {
	var input services.DocumentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	document, err := h.documents.Create(c.Request.Context(), currentUserID(c), input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to save document"})
		return
	}

	c.JSON(http.StatusCreated, document)
}

func (h *DocumentsHandler) List(c *gin.Context) {
	status := models.Status(c.Query("status"))
	documents, err := h.documents.List(c.Request.Context(), currentUserID(c), status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to list documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": documents, "total": len(documents)})
}

func (h *DocumentsHandler) Get(c *gin.Context) {
	document, err := h.documents.Get(c.Request.Context(), currentUserID(c), c.Param("documentId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, document)
}

func (h *DocumentsHandler) Update(c *gin.Context) {
	var input services.DocumentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	document, err := h.documents.Update(c.Request.Context(), currentUserID(c), c.Param("documentId"), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, document)
}

func (h *DocumentsHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), currentUserID(c), c.Param("documentId")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
}

// CompanySign records the company signature and, when the form data carries
// the recipient details, immediately attempts the send-for-signature email.
// A failed send leaves the document at company_signed and is reported in the
// response rather than rolling back the signature.
func (h *DocumentsHandler) CompanySign(c *gin.Context) {
	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	userID := currentUserID(c)
	document, err := h.documents.CompanySign(c.Request.Context(), userID, c.Param("documentId"), req.Signature)
	if err != nil {
		respondError(c, err)
		return
	}

	response := CompanySignResponse{Document: document}

	values := document.FormValues()
	recipientEmail := values["employeeEmail"]
	recipientName := values["employeeName"]
	companyName := values["companyName"]
	if recipientEmail != "" && recipientName != "" && companyName != "" {
		documentType := document.DocumentType
		if documentType == "" {
			documentType = document.TemplateName
		}
		result, sendErr := h.emails.SendForSignature(c.Request.Context(), userID, services.SendRequest{
			DocumentID:     document.ID,
			RecipientEmail: recipientEmail,
			RecipientName:  recipientName,
			CompanyName:    companyName,
			DocumentType:   documentType,
		})
		if sendErr != nil {
			response.EmailError = sendErr.Error()
		} else {
			response.EmailSent = true
			response.SignatureLink = result.SignatureLink
			if refreshed, err := h.documents.Get(c.Request.Context(), userID, document.ID); err == nil {
				response.Document = refreshed
			}
		}
	}

	c.JSON(http.StatusOK, response)
}

// ClientSign records a client signature the owner collected out of band,
// skipping the token flow.
func (h *DocumentsHandler) ClientSign(c *gin.Context) {
	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	document, err := h.documents.ClientSign(c.Request.Context(), currentUserID(c), c.Param("documentId"), req.Signature)
	if err != nil {
		respondError(c, err)
		return
	}

	h.artifacts.ArchiveSignedAsync(document)

	c.JSON(http.StatusOK, document)
}

// Send dispatches the signing-request email. Recipient fields default to the
// document's form data when the body omits them.
func (h *DocumentsHandler) Send(c *gin.Context) {
	var req services.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	req.DocumentID = c.Param("documentId")

	userID := currentUserID(c)
	document, err := h.documents.Get(c.Request.Context(), userID, req.DocumentID)
	if err != nil {
		respondError(c, err)
		return
	}

	values := document.FormValues()
	if req.RecipientEmail == "" {
		req.RecipientEmail = values["employeeEmail"]
	}
	if req.RecipientName == "" {
		req.RecipientName = values["employeeName"]
	}
	if req.CompanyName == "" {
		req.CompanyName = values["companyName"]
	}
	if req.DocumentType == "" {
		req.DocumentType = document.DocumentType
		if req.DocumentType == "" {
			req.DocumentType = document.TemplateName
		}
	}

	result, err := h.emails.SendForSignature(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"email_id":       result.EmailID,
		"signature_link": result.SignatureLink,
		"message":        "Email sent successfully",
	})
}

func (h *DocumentsHandler) Download(c *gin.Context) {
	document, err := h.documents.Get(c.Request.Context(), currentUserID(c), c.Param("documentId"))
	if err != nil {
		respondError(c, err)
		return
	}

	html := render.Document(document, document.Status, document.CompanySignature, time.Now())
	filename := render.Filename(document, document.Status)

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (h *DocumentsHandler) DownloadPDF(c *gin.Context) {
	if h.pdf == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "PDF conversion is not configured"})
		return
	}

	document, err := h.documents.Get(c.Request.Context(), currentUserID(c), c.Param("documentId"))
	if err != nil {
		respondError(c, err)
		return
	}

	html := render.Document(document, document.Status, document.CompanySignature, time.Now())
	pdfReader, err := h.pdf.ConvertHTMLToPDF(c.Request.Context(), html)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to convert document"})
		return
	}
	defer pdfReader.Close()

	data, err := io.ReadAll(pdfReader)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read converted document"})
		return
	}

	filename := render.Filename(document, document.Status)
	filename = filename[:len(filename)-len(".html")] + ".pdf"

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// Archive returns a short-lived download link for the stored copy of a fully
// signed document.
func (h *DocumentsHandler) Archive(c *gin.Context) {
	document, err := h.documents.Get(c.Request.Context(), currentUserID(c), c.Param("documentId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if document.SignedDocumentURL == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No archived copy exists for this document"})
		return
	}
	if !h.artifacts.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Archive storage is not configured"})
		return
	}

	url, err := h.artifacts.SignedArtifactURL(document)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create archive link"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url, "expires_in": "15m"})
}

func (h *DocumentsHandler) Stats(c *gin.Context) {
	stats, err := h.documents.Stats(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
