// api_key.go defines the APIKey model. The plaintext secret is never stored:
// issuance returns it exactly once and persists only the bcrypt hash plus a
// short display prefix (e.g. "smk_a1b2c3") that is safe to show repeatedly.
package models

import "time"

// APIKeyStatus is the stored lifecycle state of an API key. The stored value
// can lag reality for expiry; callers that need the truth should use
// EffectiveStatus, which folds ExpiresAt in.
type APIKeyStatus string

const (
	APIKeyActive  APIKeyStatus = "active"
	APIKeyExpired APIKeyStatus = "expired"
	APIKeyRevoked APIKeyStatus = "revoked"
)

// APIKey represents a consumer credential authorizing calls to a set of
// services.
type APIKey struct {
	ID         string
	ConsumerID string
	Name       string
	KeyHash    string   // bcrypt hash of the full secret
	KeyPrefix  string   // first chars of the full secret, for display and lookup
	ServiceIDs []string // services this key is authorized to call
	Status     APIKeyStatus
	TTLDays    int
	ExpiresAt  time.Time
	CreatedAt  time.Time
	RevokedAt  *time.Time
	RevokedBy  *string
}

// EffectiveStatus returns the key's status as of now. A stored-active key
// whose ExpiresAt has passed is reported as expired even if no sweep has
// persisted that yet. Revoked always wins over expiry.
func (k *APIKey) EffectiveStatus(now time.Time) APIKeyStatus {
	if k.Status == APIKeyRevoked {
		return APIKeyRevoked
	}
	if k.Status == APIKeyExpired {
		return APIKeyExpired
	}
	if !k.ExpiresAt.IsZero() && now.After(k.ExpiresAt) {
		return APIKeyExpired
	}
	return k.Status
}

// AuthorizedFor reports whether the key's authorized set contains serviceID.
func (k *APIKey) AuthorizedFor(serviceID string) bool {
	for _, id := range k.ServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}
