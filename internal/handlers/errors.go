package handlers

import (
	"errors"
	"net/http"
	"strings"

	"legalflow/internal/services"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors to user-facing JSON. Authorization and
// token failures deliberately collapse into generic messages.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrDocumentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
	case errors.Is(err, services.ErrTokenInvalid):
		c.JSON(http.StatusNotFound, gin.H{"error": "The document link has expired or is invalid"})
	case errors.Is(err, services.ErrDocumentFinalized):
		c.JSON(http.StatusConflict, gin.H{"error": "Document is fully signed and can no longer be modified"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Document is not in a state that allows this action"})
	case errors.Is(err, services.ErrSignatureRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature text is required"})
	case errors.Is(err, services.ErrRecipientNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": restrictionDetail(err)})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to process request"})
	}
}

func restrictionDetail(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
