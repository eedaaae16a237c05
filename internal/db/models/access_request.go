// access_request.go defines the AccessRequest model: a consumer's request to
// use a specific service, arbitrated by an admin. Requests are immutable once
// resolved; a re-request after denial is a new record, never a reopen.
package models

import "time"

// AccessRequestStatus is the resolution state of an access request.
type AccessRequestStatus string

const (
	AccessPending  AccessRequestStatus = "pending"
	AccessApproved AccessRequestStatus = "approved"
	AccessDenied   AccessRequestStatus = "denied"
)

// AccessRequest records one consumer's request for one service.
type AccessRequest struct {
	ID          string
	ConsumerID  string
	ServiceID   string
	Status      AccessRequestStatus
	RequestedAt time.Time
	ResolvedAt  *time.Time
	ResolvedBy  *string
}

// ServiceBlock is a merchant-scoped denial of one consumer's access to one
// service, independent of the consumer's platform-wide status. At most one
// live block exists per (consumer, service) pair.
type ServiceBlock struct {
	ID         string
	ConsumerID string
	ServiceID  string
	BlockedAt  time.Time
	BlockedBy  string
}
