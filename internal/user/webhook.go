package user

import (
	"fmt"
	"net/http"

	svix "github.com/svix/svix-webhooks/go"

	"github.com/ovaphlow/pitchfork/service-raas/internal/apperr"
)

// IdentityEvent is the envelope posted by the identity provider.
type IdentityEvent struct {
	Type string       `json:"type"`
	Data IdentityUser `json:"data"`
}

type IdentityUser struct {
	ID             string `json:"id"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	FirstName       string         `json:"first_name"`
	LastName        string         `json:"last_name"`
	PrivateMetadata map[string]any `json:"private_metadata"`
}

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// SignatureVerifier checks the svix signature headers on identity webhooks.
type SignatureVerifier struct {
	wh *svix.Webhook
}

// NewSignatureVerifier accepts the secret as shown by the provider, with or
// without the "whsec_" prefix.
func NewSignatureVerifier(secret string) (*SignatureVerifier, error) {
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("identity webhook secret: %w", err)
	}
	return &SignatureVerifier{wh: wh}, nil
}

// Verify returns an ErrUnauthorized-wrapped error when the request is not signed by the provider.
func (v *SignatureVerifier) Verify(h http.Header, body []byte) error {
	if err := v.wh.Verify(body, h); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	return nil
}
