package services

import "errors"

var (
	// ErrDocumentNotFound covers both missing documents and documents owned
	// by another account; callers cannot tell the two apart.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDocumentFinalized rejects any mutation of a fully signed document.
	ErrDocumentFinalized = errors.New("document is fully signed and can no longer be modified")

	// ErrInvalidTransition rejects status changes outside the linear lifecycle.
	ErrInvalidTransition = errors.New("invalid document status transition")

	// ErrSignatureRequired rejects empty signature text.
	ErrSignatureRequired = errors.New("signature text is required")

	// ErrTokenInvalid is returned for unknown and expired tokens alike, so a
	// caller probing tokens learns nothing about which case applies.
	ErrTokenInvalid = errors.New("signing link is invalid or has expired")

	// ErrRecipientNotAllowed rejects recipients outside the testing allowlist.
	ErrRecipientNotAllowed = errors.New("recipient not allowed in testing mode")
)
