package mailer

import (
	"fmt"
	"strings"
)

// Allowlist restricts outbound recipients when the email provider runs in a
// testing sandbox. With testing disabled every recipient is permitted.
type Allowlist struct {
	Testing          bool
	AllowedRecipient string
}

func (a Allowlist) Permits(email string) bool {
	if !a.Testing {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(email), strings.TrimSpace(a.AllowedRecipient))
}

// RestrictionMessage is the deterministic rejection shown for a disallowed
// recipient in testing mode.
func (a Allowlist) RestrictionMessage() string {
	return fmt.Sprintf("This is a testing environment. You can only send emails to your verified address: %s. To send to others, verify a domain at Resend.com.", a.AllowedRecipient)
}
