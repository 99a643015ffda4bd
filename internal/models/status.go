package models

// Status is the document's position in its signing lifecycle. All transition
// decisions live here; other packages only ask CanTransitionTo.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusCompanySigned    Status = "company_signed"
	StatusSentForSignature Status = "sent_for_signature"
	StatusFullySigned      Status = "fully_signed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusCompanySigned, StatusSentForSignature, StatusFullySigned:
		return true
	}
	return false
}

// Terminal reports whether the document is fully executed. Terminal documents
// reject edits and deletes.
func (s Status) Terminal() bool {
	return s == StatusFullySigned
}

// CanTransitionTo enforces the linear lifecycle
// draft -> company_signed -> sent_for_signature -> fully_signed.
// The only permitted skip is company_signed -> fully_signed, which covers a
// client signing through a token link before the send step completed.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusDraft:
		return next == StatusCompanySigned
	case StatusCompanySigned:
		return next == StatusSentForSignature || next == StatusFullySigned
	case StatusSentForSignature:
		return next == StatusFullySigned
	default:
		return false
	}
}

// Signable reports whether a client signature may be applied at this status.
func (s Status) Signable() bool {
	return s == StatusCompanySigned || s == StatusSentForSignature
}

// Label returns the human-readable form used in rendered documents and emails.
func (s Status) Label() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusCompanySigned:
		return "Company Signed"
	case StatusSentForSignature:
		return "Sent for Client Signature"
	case StatusFullySigned:
		return "Fully Signed"
	default:
		return string(s)
	}
}
